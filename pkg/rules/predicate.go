package rules

import (
	"reflect"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

// Predicate is a typed filter node evaluated against a mutation event.
// It replaces free-form query objects with a small AST that can be
// declared in code or decoded from YAML.
type Predicate interface {
	Eval(h *docevent.Hierarchy, ev docevent.Event) bool
}

// FieldEquals matches when the event payload holds the given value for
// the field.
type FieldEquals struct {
	Field string
	Value any
}

func (p FieldEquals) Eval(_ *docevent.Hierarchy, ev docevent.Event) bool {
	v, ok := ev.Field(p.Field)
	if !ok {
		return false
	}
	// DeepEqual tolerates slice/map values decoded from YAML payloads.
	return reflect.DeepEqual(v, p.Value)
}

// FieldChanged matches when the mutation touched the field, regardless
// of its new value.
type FieldChanged struct {
	Field string
}

func (p FieldChanged) Eval(_ *docevent.Hierarchy, ev docevent.Event) bool {
	return ev.Changed(p.Field)
}

// ClassIs matches when the transaction class is the given class or a
// subclass of it.
type ClassIs struct {
	Class docevent.Class
}

func (p ClassIs) Eval(h *docevent.Hierarchy, ev docevent.Event) bool {
	return h.IsDerived(ev.TxClass, p.Class)
}

// Not inverts its child predicate.
type Not struct {
	P Predicate
}

func (p Not) Eval(h *docevent.Hierarchy, ev docevent.Event) bool {
	return p.P != nil && !p.P.Eval(h, ev)
}

// And matches when all children match. An empty And matches everything.
type And []Predicate

func (p And) Eval(h *docevent.Hierarchy, ev docevent.Event) bool {
	for _, child := range p {
		if child == nil || !child.Eval(h, ev) {
			return false
		}
	}
	return true
}

// Or matches when at least one child matches.
type Or []Predicate

func (p Or) Eval(h *docevent.Hierarchy, ev docevent.Event) bool {
	for _, child := range p {
		if child != nil && child.Eval(h, ev) {
			return true
		}
	}
	return false
}
