package docevent

import "context"

// Document is the materialized view of a domain document the engine
// needs for rule evaluation: identity, class, containing space, current
// collaborator set and the field values capability checks read.
type Document struct {
	ID            ID
	Class         Class
	Space         ID
	Collaborators []UserID
	Fields        map[string]any
}

// FieldUsers collects the user references stored in the named fields,
// in declaration order with duplicates removed. Fields may hold a single
// user reference or a list of them.
func (d *Document) FieldUsers(fields ...string) []UserID {
	if d == nil || len(d.Fields) == 0 {
		return nil
	}

	var users []UserID
	seen := make(map[UserID]struct{})
	add := func(u UserID) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		users = append(users, u)
	}

	for _, field := range fields {
		switch v := d.Fields[field].(type) {
		case UserID:
			add(v)
		case string:
			add(UserID(v))
		case []UserID:
			for _, u := range v {
				add(u)
			}
		case []string:
			for _, u := range v {
				add(UserID(u))
			}
		case []any:
			for _, raw := range v {
				switch u := raw.(type) {
				case UserID:
					add(u)
				case string:
					add(UserID(u))
				}
			}
		}
	}
	return users
}

// IsOwnedBy reports whether the user appears in any of the document's
// owner fields as declared in the capability table.
func (d *Document) IsOwnedBy(caps *Capabilities, user UserID) bool {
	if d == nil {
		return false
	}
	fields, ok := caps.OwnerFields(d.Class)
	if !ok {
		return false
	}
	for _, owner := range d.FieldUsers(fields...) {
		if owner == user {
			return true
		}
	}
	return false
}

// DocumentStore fetches materialized document views. Implementations
// return ErrUnknownDocument (possibly wrapped) when the document cannot
// be found or classified.
type DocumentStore interface {
	GetDocument(ctx context.Context, id ID) (*Document, error)
}

// SpaceMembers resolves the member list of a space. Consulted for rules
// with space subscription enabled.
type SpaceMembers interface {
	Members(ctx context.Context, space ID) ([]UserID, error)
}
