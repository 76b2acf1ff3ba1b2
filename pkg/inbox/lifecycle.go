package inbox

import "fmt"

// ContextState is a lifecycle state of a notify context.
type ContextState string

// ContextEvent triggers a lifecycle transition.
type ContextEvent string

const (
	// StateNone means no context exists for the (user, document) pair.
	StateNone ContextState = "none"
	// StateActive is a visible context surfacing in the user's inbox.
	StateActive ContextState = "active"
	// StateHidden is a muted context, retained but not surfaced until
	// new activity arrives.
	StateHidden ContextState = "hidden"
)

const (
	// EventActivity is a notification-worthy mutation on the document.
	EventActivity ContextEvent = "activity"
	// EventSubscribe is an explicit user subscription.
	EventSubscribe ContextEvent = "subscribe"
	// EventHide is an explicit "remove from inbox" action.
	EventHide ContextEvent = "hide"
)

// transitions is the context lifecycle table. Storage implementations
// consult it before mutating a context so every path shares the same
// state machine: none -> active on first activity or subscribe,
// active -> hidden on hide, hidden -> active on new activity.
var transitions = map[ContextState]map[ContextEvent]ContextState{
	StateNone: {
		EventActivity:  StateActive,
		EventSubscribe: StateActive,
	},
	StateActive: {
		EventActivity:  StateActive,
		EventSubscribe: StateActive,
		EventHide:      StateHidden,
	},
	StateHidden: {
		EventActivity:  StateActive,
		EventHide:      StateHidden,
		EventSubscribe: StateActive,
	},
}

// Transition returns the state following the event. Undeclared
// combinations fail with ErrInvalidLifecycleEvent.
func Transition(current ContextState, event ContextEvent) (ContextState, error) {
	next, ok := transitions[current][event]
	if !ok {
		return current, fmt.Errorf("%w: %s in state %s", ErrInvalidLifecycleEvent, event, current)
	}
	return next, nil
}
