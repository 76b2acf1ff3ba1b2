package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

const rulesYAML = `
rules:
  - id: issue-assigned
    txClasses: [TxUpdate]
    objectClass: Issue
    field: assignee
    providers:
      platform: true
      email: false
    templates:
      subject: issue-assigned-subject
      text: issue-assigned-text
      html: issue-assigned-html
  - id: comment-added
    txClasses: [TxCreate]
    objectClass: Comment
    attachedToClass: Issue
    allowedForAuthor: false
    providers:
      platform: true
    txMatch:
      and:
        - fieldEquals:
            field: collection
            value: comments
        - not:
            fieldChanged: reactions
  - id: reactions
    txClasses: [TxUpdate]
    objectClass: Comment
    disabled: true
    providers:
      platform: true
`

func TestRegistry_LoadYAML(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(newTestHierarchy(t))
	require.NoError(t, reg.LoadYAML(strings.NewReader(rulesYAML)))

	t.Run("rules registered in file order", func(t *testing.T) {
		t.Parallel()

		all := reg.All()
		require.Len(t, all, 3)
		assert.Equal(t, "issue-assigned", all[0].ID)
		assert.Equal(t, "comment-added", all[1].ID)
		assert.Equal(t, "reactions", all[2].ID)
	})

	t.Run("scalar attributes decoded", func(t *testing.T) {
		t.Parallel()

		rule, ok := reg.Get("issue-assigned")
		require.True(t, ok)
		assert.Equal(t, []docevent.Class{docevent.TxUpdate}, rule.TxClasses)
		assert.Equal(t, docevent.Class("Issue"), rule.ObjectClass)
		assert.Equal(t, "assignee", rule.Field)
		assert.Equal(t, map[docevent.ProviderID]bool{"platform": true, "email": false}, rule.Providers)
		require.NotNil(t, rule.Templates)
		assert.Equal(t, "issue-assigned-subject", rule.Templates.Subject)
	})

	t.Run("predicate tree decoded", func(t *testing.T) {
		t.Parallel()

		rule, ok := reg.Get("comment-added")
		require.True(t, ok)
		require.NotNil(t, rule.TxMatch)

		h := reg.Hierarchy()
		matching := docevent.Event{
			TxClass:       docevent.TxCreate,
			ChangedFields: []string{"text"},
			Payload:       map[string]any{"collection": "comments"},
		}
		assert.True(t, rule.TxMatch.Eval(h, matching))

		reaction := matching
		reaction.ChangedFields = []string{"reactions"}
		assert.False(t, rule.TxMatch.Eval(h, reaction))
	})

	t.Run("disabled flag decoded", func(t *testing.T) {
		t.Parallel()

		rule, ok := reg.Get("reactions")
		require.True(t, ok)
		assert.True(t, rule.Disabled)
	})
}

func TestRegistry_LoadYAML_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry(newTestHierarchy(t))
		assert.Error(t, reg.LoadYAML(strings.NewReader("rules: [")))
	})

	t.Run("duplicate id aborts", func(t *testing.T) {
		t.Parallel()

		dup := `
rules:
  - id: r1
    txClasses: [TxUpdate]
    objectClass: Issue
  - id: r1
    txClasses: [TxCreate]
    objectClass: Issue
`
		reg := NewRegistry(newTestHierarchy(t))
		err := reg.LoadYAML(strings.NewReader(dup))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateRule)
	})

	t.Run("ambiguous predicate node", func(t *testing.T) {
		t.Parallel()

		bad := `
rules:
  - id: r1
    txClasses: [TxUpdate]
    objectClass: Issue
    txMatch:
      fieldChanged: assignee
      classIs: TxUpdate
`
		reg := NewRegistry(newTestHierarchy(t))
		err := reg.LoadYAML(strings.NewReader(bad))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPredicate)
	})
}
