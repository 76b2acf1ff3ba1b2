package docevent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilities_Lookup(t *testing.T) {
	t.Parallel()

	h := newTestHierarchy(t)
	caps := NewCapabilities(h)
	caps.SetCollaboratorFields("Task", "assignee", "watchers")
	caps.SetOwnerFields("Issue", "assignee", "createdBy")

	t.Run("direct declaration", func(t *testing.T) {
		t.Parallel()

		fields, ok := caps.OwnerFields("Issue")
		require.True(t, ok)
		assert.Equal(t, []string{"assignee", "createdBy"}, fields)
	})

	t.Run("inherited from ancestor", func(t *testing.T) {
		t.Parallel()

		fields, ok := caps.CollaboratorFields("Issue")
		require.True(t, ok)
		assert.Equal(t, []string{"assignee", "watchers"}, fields)
	})

	t.Run("not declared anywhere", func(t *testing.T) {
		t.Parallel()

		_, ok := caps.CollaboratorFields("Comment")
		assert.False(t, ok)
		assert.False(t, caps.HasCollaborators("Comment"))
	})

	t.Run("nearest declaration wins", func(t *testing.T) {
		t.Parallel()

		override := NewCapabilities(h)
		override.SetCollaboratorFields("Task", "watchers")
		override.SetCollaboratorFields("Issue", "assignee")

		fields, ok := override.CollaboratorFields("Issue")
		require.True(t, ok)
		assert.Equal(t, []string{"assignee"}, fields)
	})
}

func TestDocument_FieldUsers(t *testing.T) {
	t.Parallel()

	doc := &Document{
		ID:    "issue-1",
		Class: "Issue",
		Fields: map[string]any{
			"assignee": "u1",
			"watchers": []string{"u2", "u1", "u3"},
			"mixed":    []any{"u4", UserID("u5")},
			"count":    42,
		},
	}

	t.Run("dedup preserves first occurrence order", func(t *testing.T) {
		t.Parallel()
		users := doc.FieldUsers("assignee", "watchers")
		assert.Equal(t, []UserID{"u1", "u2", "u3"}, users)
	})

	t.Run("mixed value types", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []UserID{"u4", "u5"}, doc.FieldUsers("mixed"))
	})

	t.Run("non-user fields are ignored", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, doc.FieldUsers("count", "missing"))
	})

	t.Run("nil document", func(t *testing.T) {
		t.Parallel()
		var nilDoc *Document
		assert.Empty(t, nilDoc.FieldUsers("assignee"))
	})
}

func TestDocument_IsOwnedBy(t *testing.T) {
	t.Parallel()

	h := newTestHierarchy(t)
	caps := NewCapabilities(h)
	caps.SetOwnerFields("Issue", "assignee", "createdBy")

	doc := &Document{
		ID:    "issue-1",
		Class: "Issue",
		Fields: map[string]any{
			"assignee":  "u1",
			"createdBy": "u2",
		},
	}

	assert.True(t, doc.IsOwnedBy(caps, "u1"))
	assert.True(t, doc.IsOwnedBy(caps, "u2"))
	assert.False(t, doc.IsOwnedBy(caps, "u3"))

	// Class without owner capability never owns.
	comment := &Document{ID: "c1", Class: "Comment", Fields: map[string]any{"assignee": "u1"}}
	assert.False(t, comment.IsOwnedBy(caps, "u1"))
}

func TestEvent_Changed(t *testing.T) {
	t.Parallel()

	ev := Event{ChangedFields: []string{"assignee", "title"}}
	assert.True(t, ev.Changed("assignee"))
	assert.False(t, ev.Changed("status"))

	v, ok := Event{Payload: map[string]any{"assignee": "u2"}}.Field("assignee")
	require.True(t, ok)
	assert.Equal(t, "u2", v)

	_, ok = Event{}.Field("assignee")
	assert.False(t, ok)
}
