// Package matcher turns one mutation event into the set of notification
// candidates: (user, rule, source transaction) triples the context
// manager persists and the dispatcher fans out.
//
// For every rule the registry returns for the event's transaction and
// object class, the matcher applies the rule's own filters (changed
// field, transaction predicate, attached-parent class) and resolves the
// collaborator audience. A failed filter skips the rule silently; only
// infrastructure failures surface as errors. Candidates come out in rule
// registration order, then collaborator order, which fixes inbox
// insertion order downstream.
package matcher
