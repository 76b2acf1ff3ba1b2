package docevent

import (
	"fmt"
	"sync"
)

// Hierarchy is a single-parent class registry supporting polymorphic
// class checks. It is populated at startup and safe for concurrent reads.
type Hierarchy struct {
	parents map[Class]Class
	mu      sync.RWMutex
}

// NewHierarchy creates an empty class hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{parents: make(map[Class]Class)}
}

// Register adds a class with an optional parent. Pass an empty parent
// for root classes. Registering the same class twice fails.
func (h *Hierarchy) Register(class, parent Class) error {
	if class == "" {
		return fmt.Errorf("%w: empty class name", ErrUnknownParentClass)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.parents[class]; ok {
		return fmt.Errorf("%w: %s", ErrClassAlreadyRegistered, class)
	}
	if parent != "" {
		if _, ok := h.parents[parent]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParentClass, parent)
		}
	}

	h.parents[class] = parent
	return nil
}

// MustRegister is Register that panics on error. Intended for static
// schema declarations where a conflict means a programming mistake.
func (h *Hierarchy) MustRegister(class, parent Class) {
	if err := h.Register(class, parent); err != nil {
		panic(err)
	}
}

// IsRegistered reports whether the class is known to the hierarchy.
func (h *Hierarchy) IsRegistered(class Class) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.parents[class]
	return ok
}

// IsDerived reports whether class equals ancestor or descends from it.
// Unregistered classes only match themselves.
func (h *Hierarchy) IsDerived(class, ancestor Class) bool {
	if class == ancestor {
		return true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := class; c != ""; {
		parent, ok := h.parents[c]
		if !ok {
			return false
		}
		if parent == ancestor {
			return true
		}
		c = parent
	}
	return false
}

// Ancestors returns the chain of parents from the class up to its root,
// excluding the class itself.
func (h *Hierarchy) Ancestors(class Class) []Class {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var chain []Class
	for c := class; c != ""; {
		parent, ok := h.parents[c]
		if !ok || parent == "" {
			break
		}
		chain = append(chain, parent)
		c = parent
	}
	return chain
}
