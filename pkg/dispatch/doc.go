// Package dispatch fans accepted notifications out to delivery
// providers.
//
// Dispatch is strictly best-effort and runs after the inbox write: a
// failed or disabled provider never rolls back recorded state. Per
// provider the user's settings override wins over the rule default, and
// transient delivery failures retry with backoff before the instruction
// is dropped with a log line.
//
// Three deliverers ship with the package: BroadcastDeliverer pushes
// instructions to connected clients over in-process channels,
// EmailDeliverer renders an email per instruction, and NoopDeliverer
// stands in for providers without a transport yet.
package dispatch
