// Package docevent defines the event envelope consumed by the notification
// engine together with the class schema the engine evaluates rules against.
//
// The upstream transaction log delivers one Event per document mutation,
// ordered per document. Rules and the collaborator resolver never inspect
// raw storage; they work on the Event plus a materialized Document view
// fetched through the DocumentStore interface.
//
// # Class schema
//
// Domain classes form a single-parent hierarchy registered at startup:
//
//	h := docevent.NewHierarchy()
//	h.MustRegister("Doc", "")
//	h.MustRegister("Task", "Doc")
//	h.MustRegister("Issue", "Task")
//
// Capabilities replace runtime type augmentation: instead of mixing
// behaviour onto classes, callers declare per-class collaborator and
// owner fields in a Capabilities table queried by the resolver:
//
//	caps := docevent.NewCapabilities(h)
//	caps.SetCollaboratorFields("Issue", "assignee", "watchers")
//	caps.SetOwnerFields("Issue", "assignee", "createdBy")
//
// Capability lookups walk the hierarchy, so a capability declared on
// "Task" applies to "Issue" as well.
package docevent
