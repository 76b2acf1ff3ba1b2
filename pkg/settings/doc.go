// Package settings stores per-user notification preferences.
//
// Two kinds of preference live here: a provider toggle keyed by
// (user, provider, notification type) that overrides the rule's default
// provider map, and a per-class mute that removes the user from the
// audience of every rule targeting that document class.
//
// The store holds no business logic; the collaborator resolver and the
// provider dispatcher consult it synchronously. MemoryStore backs tests
// and development, PostgresStore is the production implementation.
package settings
