// Package rules holds the declarative notification rules and the registry
// the matcher queries per incoming mutation.
//
// A Rule names the transaction classes it reacts to, the object class it
// applies to (matched polymorphically through the class hierarchy) and a
// set of optional filters: a single changed field, a typed predicate over
// the transaction, and an attached-parent class. Rules are immutable after
// registration and identified by a stable id.
//
// All applicable rules fire for a mutation; registration order decides
// candidate order. Lookup is indexed by transaction class so matching cost
// scales with the rules declared for that class, not with the whole
// registry.
//
// Rule sets are static configuration. They can be declared in code or
// bulk-loaded from YAML at startup:
//
//	reg := rules.NewRegistry(hierarchy)
//	if err := reg.LoadYAML(file); err != nil {
//		log.Fatal(err)
//	}
package rules
