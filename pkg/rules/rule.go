package rules

import (
	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

// Templates holds the optional message templates attached to a rule.
// Rendering is the presentation layer's concern; the engine only carries
// the references through to delivery instructions.
type Templates struct {
	Subject string `yaml:"subject"`
	Text    string `yaml:"text"`
	HTML    string `yaml:"html"`
}

// Rule is a declarative notification rule. Immutable after registration.
type Rule struct {
	// ID is the stable rule identifier. Required and unique.
	ID string

	// TxClasses lists the transaction classes the rule reacts to.
	TxClasses []docevent.Class

	// ObjectClass is the document class the rule applies to, matched
	// polymorphically: subclasses of ObjectClass match too.
	ObjectClass docevent.Class

	// AttachedToClass, when set, additionally requires the mutated
	// document to be attached to a parent of this class.
	AttachedToClass docevent.Class

	// Field, when set, restricts the rule to mutations that changed
	// this specific field.
	Field string

	// TxMatch, when set, is an additional predicate over the transaction.
	TxMatch Predicate

	// SpaceSubscribe widens the audience to every member of the
	// document's containing space.
	SpaceSubscribe bool

	// OnlyOwn restricts the audience to users owning the document.
	OnlyOwn bool

	// AllowedForAuthor keeps the acting user in the audience. Off by
	// default: users are not notified about their own mutations.
	AllowedForAuthor bool

	// Disabled rules stay registered but never match. Used for optional
	// triggers shipped off by default (reaction notifications).
	Disabled bool

	// Providers maps delivery providers to their default enabled state.
	// Per-user settings override these defaults.
	Providers map[docevent.ProviderID]bool

	// Templates optionally carries subject/text/HTML template references.
	Templates *Templates
}

func (r *Rule) validate() error {
	switch {
	case r.ID == "":
		return ErrInvalidRule
	case len(r.TxClasses) == 0:
		return ErrInvalidRule
	case r.ObjectClass == "":
		return ErrInvalidRule
	}
	return nil
}
