package docevent

import "sync"

// Capabilities is an explicit lookup table of per-class capabilities.
// It replaces mixin-style runtime type augmentation: collaborator and
// owner field declarations are attached to classes at startup and
// resolved polymorphically through the hierarchy.
type Capabilities struct {
	hierarchy          *Hierarchy
	collaboratorFields map[Class][]string
	ownerFields        map[Class][]string
	mu                 sync.RWMutex
}

// NewCapabilities creates an empty capability table bound to a hierarchy.
func NewCapabilities(h *Hierarchy) *Capabilities {
	return &Capabilities{
		hierarchy:          h,
		collaboratorFields: make(map[Class][]string),
		ownerFields:        make(map[Class][]string),
	}
}

// SetCollaboratorFields declares which document fields hold user
// references that feed the collaborator set for the class.
func (c *Capabilities) SetCollaboratorFields(class Class, fields ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collaboratorFields[class] = fields
}

// SetOwnerFields declares which document fields identify the owners of
// documents of the class (assignee, creator). Used by onlyOwn rules.
func (c *Capabilities) SetOwnerFields(class Class, fields ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ownerFields[class] = fields
}

// CollaboratorFields returns the collaborator field declaration for the
// class, walking up the hierarchy to the nearest declaring ancestor.
func (c *Capabilities) CollaboratorFields(class Class) ([]string, bool) {
	return c.lookup(c.collaboratorFields, class)
}

// OwnerFields returns the owner field declaration for the class, walking
// up the hierarchy to the nearest declaring ancestor.
func (c *Capabilities) OwnerFields(class Class) ([]string, bool) {
	return c.lookup(c.ownerFields, class)
}

// HasCollaborators reports whether the class (or an ancestor) declares
// the collaborator capability.
func (c *Capabilities) HasCollaborators(class Class) bool {
	_, ok := c.CollaboratorFields(class)
	return ok
}

func (c *Capabilities) lookup(table map[Class][]string, class Class) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if fields, ok := table[class]; ok {
		return fields, true
	}
	for _, ancestor := range c.hierarchy.Ancestors(class) {
		if fields, ok := table[ancestor]; ok {
			return fields, true
		}
	}
	return nil, false
}
