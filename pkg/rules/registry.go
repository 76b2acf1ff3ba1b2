package rules

import (
	"fmt"
	"sync"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

// Registry is the set of declared notification rules, indexed by
// transaction class for matching. Populated at startup; safe for
// concurrent lookups afterwards.
type Registry struct {
	hierarchy *docevent.Hierarchy
	byID      map[string]*Rule
	byTxClass map[docevent.Class][]*Rule
	ordered   []*Rule
	mu        sync.RWMutex
}

// NewRegistry creates an empty rule registry bound to a class hierarchy.
func NewRegistry(h *docevent.Hierarchy) *Registry {
	return &Registry{
		hierarchy: h,
		byID:      make(map[string]*Rule),
		byTxClass: make(map[docevent.Class][]*Rule),
	}
}

// Register adds a rule. Fails with ErrDuplicateRule when the rule id is
// already taken and ErrInvalidRule on missing required attributes or an
// object class the hierarchy does not know.
func (r *Registry) Register(rule Rule) error {
	if err := rule.validate(); err != nil {
		return fmt.Errorf("%w: rule %q", err, rule.ID)
	}
	if !r.hierarchy.IsRegistered(rule.ObjectClass) {
		return fmt.Errorf("%w: rule %q references unknown object class %q", ErrInvalidRule, rule.ID, rule.ObjectClass)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[rule.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
	}

	stored := rule
	r.byID[rule.ID] = &stored
	r.ordered = append(r.ordered, &stored)
	for _, txClass := range rule.TxClasses {
		r.byTxClass[txClass] = append(r.byTxClass[txClass], &stored)
	}
	return nil
}

// MustRegister is Register that panics on error, for static rule sets
// declared in code where a conflict is a programming mistake.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Lookup returns every enabled rule reacting to the transaction class
// whose object class matches the document class (exact or ancestor), in
// registration order. All returned rules fire independently.
func (r *Registry) Lookup(txClass, objectClass docevent.Class) []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := r.byTxClass[txClass]
	if len(candidates) == 0 {
		return nil
	}

	matched := make([]*Rule, 0, len(candidates))
	for _, rule := range candidates {
		if rule.Disabled {
			continue
		}
		if !r.hierarchy.IsDerived(objectClass, rule.ObjectClass) {
			continue
		}
		matched = append(matched, rule)
	}
	return matched
}

// Get returns the rule with the given id.
func (r *Registry) Get(id string) (*Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.byID[id]
	return rule, ok
}

// All returns every registered rule in registration order, including
// disabled ones.
func (r *Registry) All() []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Rule, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Hierarchy exposes the class hierarchy the registry matches against.
func (r *Registry) Hierarchy() *docevent.Hierarchy {
	return r.hierarchy
}
