package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

func newTestHierarchy(t *testing.T) *docevent.Hierarchy {
	t.Helper()

	h := docevent.NewHierarchy()
	h.MustRegister("Doc", "")
	h.MustRegister("Task", "Doc")
	h.MustRegister("Issue", "Task")
	h.MustRegister("Comment", "Doc")
	return h
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("duplicate id fails", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry(newTestHierarchy(t))
		rule := Rule{ID: "r1", TxClasses: []docevent.Class{docevent.TxUpdate}, ObjectClass: "Issue"}
		require.NoError(t, reg.Register(rule))

		err := reg.Register(rule)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateRule)
	})

	t.Run("missing attributes fail", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry(newTestHierarchy(t))

		tests := []struct {
			name string
			rule Rule
		}{
			{"no id", Rule{TxClasses: []docevent.Class{docevent.TxUpdate}, ObjectClass: "Issue"}},
			{"no tx classes", Rule{ID: "r1", ObjectClass: "Issue"}},
			{"no object class", Rule{ID: "r1", TxClasses: []docevent.Class{docevent.TxUpdate}}},
		}
		for _, tt := range tests {
			err := reg.Register(tt.rule)
			require.Error(t, err, tt.name)
			assert.ErrorIs(t, err, ErrInvalidRule, tt.name)
		}
	})

	t.Run("unknown object class fails", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry(newTestHierarchy(t))
		err := reg.Register(Rule{ID: "r1", TxClasses: []docevent.Class{docevent.TxUpdate}, ObjectClass: "Unregistered"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRule)
	})

	t.Run("registered rule is retrievable", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry(newTestHierarchy(t))
		require.NoError(t, reg.Register(Rule{ID: "r1", TxClasses: []docevent.Class{docevent.TxUpdate}, ObjectClass: "Issue"}))

		rule, ok := reg.Get("r1")
		require.True(t, ok)
		assert.Equal(t, "r1", rule.ID)
	})
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(newTestHierarchy(t))
	reg.MustRegister(Rule{ID: "task-updated", TxClasses: []docevent.Class{docevent.TxUpdate}, ObjectClass: "Task"})
	reg.MustRegister(Rule{ID: "issue-updated", TxClasses: []docevent.Class{docevent.TxUpdate}, ObjectClass: "Issue"})
	reg.MustRegister(Rule{ID: "issue-created", TxClasses: []docevent.Class{docevent.TxCreate}, ObjectClass: "Issue"})
	reg.MustRegister(Rule{ID: "reactions", TxClasses: []docevent.Class{docevent.TxUpdate}, ObjectClass: "Issue", Disabled: true})

	t.Run("all applicable rules fire in registration order", func(t *testing.T) {
		t.Parallel()

		matched := reg.Lookup(docevent.TxUpdate, "Issue")
		require.Len(t, matched, 2)
		assert.Equal(t, "task-updated", matched[0].ID)
		assert.Equal(t, "issue-updated", matched[1].ID)
	})

	t.Run("polymorphic object class match", func(t *testing.T) {
		t.Parallel()

		// Task is not derived from Issue, so only the Task rule fires.
		matched := reg.Lookup(docevent.TxUpdate, "Task")
		require.Len(t, matched, 1)
		assert.Equal(t, "task-updated", matched[0].ID)
	})

	t.Run("tx class is matched exactly", func(t *testing.T) {
		t.Parallel()

		matched := reg.Lookup(docevent.TxCreate, "Issue")
		require.Len(t, matched, 1)
		assert.Equal(t, "issue-created", matched[0].ID)
	})

	t.Run("disabled rules never match", func(t *testing.T) {
		t.Parallel()

		for _, rule := range reg.Lookup(docevent.TxUpdate, "Issue") {
			assert.NotEqual(t, "reactions", rule.ID)
		}
	})

	t.Run("no rules for class", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, reg.Lookup(docevent.TxRemove, "Issue"))
		assert.Empty(t, reg.Lookup(docevent.TxUpdate, "Comment"))
	})
}
