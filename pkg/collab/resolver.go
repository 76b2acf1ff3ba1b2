package collab

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
	"github.com/dmitrymomot/docnotify/pkg/rules"
	"github.com/dmitrymomot/docnotify/pkg/settings"
)

// Resolver computes the collaborator audience for a (document, rule) pair.
type Resolver struct {
	caps     *docevent.Capabilities
	spaces   docevent.SpaceMembers
	settings settings.Store
}

// NewResolver creates a resolver. spaces may be nil when no rule uses
// space subscription; settings may be nil to skip class mutes.
func NewResolver(caps *docevent.Capabilities, spaces docevent.SpaceMembers, store settings.Store) *Resolver {
	return &Resolver{
		caps:     caps,
		spaces:   spaces,
		settings: store,
	}
}

// Resolve returns the ordered set of users to notify for the rule,
// applying the audience filters in a fixed order: document collaborators,
// space subscription, ownership, author exclusion, class mutes. The
// filters are independent; an empty result is a valid outcome.
func (r *Resolver) Resolve(ctx context.Context, doc *docevent.Document, rule *rules.Rule, actor docevent.UserID) ([]docevent.UserID, error) {
	if doc == nil || rule == nil {
		return nil, nil
	}

	var audience []docevent.UserID
	seen := make(map[docevent.UserID]struct{})
	add := func(users []docevent.UserID) {
		for _, u := range users {
			if u == "" {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			audience = append(audience, u)
		}
	}

	// Classes declaring the collaborator capability seed the audience
	// with the stored collaborator set plus the users referenced by the
	// declared collaborator fields.
	if fields, ok := r.caps.CollaboratorFields(doc.Class); ok {
		add(doc.Collaborators)
		add(doc.FieldUsers(fields...))
	}

	if rule.SpaceSubscribe && doc.Space != "" {
		if r.spaces == nil {
			return nil, fmt.Errorf("%w: rule %q requires space members", ErrNoSpaceMembers, rule.ID)
		}
		members, err := r.spaces.Members(ctx, doc.Space)
		if err != nil {
			return nil, fmt.Errorf("resolve space members for %s: %w", doc.Space, err)
		}
		add(members)
	}

	if rule.OnlyOwn {
		owners := audience[:0]
		for _, u := range audience {
			if doc.IsOwnedBy(r.caps, u) {
				owners = append(owners, u)
			}
		}
		audience = owners
	}

	if !rule.AllowedForAuthor {
		filtered := audience[:0]
		for _, u := range audience {
			if u != actor {
				filtered = append(filtered, u)
			}
		}
		audience = filtered
	}

	if r.settings != nil {
		filtered := audience[:0]
		for _, u := range audience {
			muted, err := r.settings.ClassMuted(ctx, u, doc.Class)
			if err != nil {
				return nil, fmt.Errorf("check class mute for %s: %w", u, err)
			}
			if !muted {
				filtered = append(filtered, u)
			}
		}
		audience = filtered
	}

	return audience, nil
}
