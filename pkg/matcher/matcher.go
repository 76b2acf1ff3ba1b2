package matcher

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/docnotify/pkg/collab"
	"github.com/dmitrymomot/docnotify/pkg/docevent"
	"github.com/dmitrymomot/docnotify/pkg/rules"
)

// Content is the presentation payload carried by a candidate. The engine
// does not render templates; it forwards the rule's template references
// so the delivery channels can.
type Content struct {
	Title string
	Body  string
}

// Candidate is a provisional notification for one user, produced before
// any state is written.
type Candidate struct {
	User          docevent.UserID
	RuleID        string
	Providers     map[docevent.ProviderID]bool
	Templates     *rules.Templates
	SourceTx      docevent.ID
	DocumentID    docevent.ID
	DocumentClass docevent.Class
	SpaceID       docevent.ID
	Author        docevent.UserID
	Timestamp     time.Time
	Content       Content
}

// Matcher evaluates mutation events against the rule registry and the
// collaborator resolver.
type Matcher struct {
	registry *rules.Registry
	resolver *collab.Resolver
	docs     docevent.DocumentStore
}

// New creates a matcher.
func New(registry *rules.Registry, resolver *collab.Resolver, docs docevent.DocumentStore) *Matcher {
	return &Matcher{
		registry: registry,
		resolver: resolver,
		docs:     docs,
	}
}

// Match returns every candidate the event produces. An event matching no
// rule, or matching rules with an empty audience, yields an empty slice.
// docevent.ErrUnknownDocument propagates to the caller, which drops the
// event.
func (m *Matcher) Match(ctx context.Context, ev docevent.Event) ([]Candidate, error) {
	matched := m.registry.Lookup(ev.TxClass, ev.DocumentClass)
	if len(matched) == 0 {
		return nil, nil
	}

	doc, err := m.docs.GetDocument(ctx, ev.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("classify document %s: %w", ev.DocumentID, err)
	}

	hierarchy := m.registry.Hierarchy()

	var candidates []Candidate
	for _, rule := range matched {
		if rule.Field != "" && !ev.Changed(rule.Field) {
			continue
		}
		if rule.TxMatch != nil && !rule.TxMatch.Eval(hierarchy, ev) {
			continue
		}
		if rule.AttachedToClass != "" && !hierarchy.IsDerived(ev.AttachedToClass, rule.AttachedToClass) {
			continue
		}

		audience, err := m.resolver.Resolve(ctx, doc, rule, ev.ActingUser)
		if err != nil {
			return nil, fmt.Errorf("resolve audience for rule %q: %w", rule.ID, err)
		}

		for _, user := range audience {
			candidates = append(candidates, Candidate{
				User:          user,
				RuleID:        rule.ID,
				Providers:     rule.Providers,
				Templates:     rule.Templates,
				SourceTx:      ev.TxID,
				DocumentID:    ev.DocumentID,
				DocumentClass: ev.DocumentClass,
				SpaceID:       ev.SpaceID,
				Author:        ev.ActingUser,
				Timestamp:     ev.Timestamp,
				Content:       contentFor(rule),
			})
		}
	}
	return candidates, nil
}

func contentFor(rule *rules.Rule) Content {
	if rule.Templates == nil {
		return Content{}
	}
	return Content{
		Title: rule.Templates.Subject,
		Body:  rule.Templates.Text,
	}
}
