// Package engine wires the notification pipeline together: mutation
// events go through rule matching, the inbox write, and provider
// dispatch, in that order.
//
// Events are processed on a sharded worker pool keyed by document ID,
// so events for one document are always handled sequentially while
// different documents proceed in parallel. The inbox write for one
// event is atomic; dispatch runs after it and never affects recorded
// state.
//
//	eng := engine.New(m, mgr, dp, hierarchy)
//	if err := eng.Start(ctx); err != nil {
//		return err
//	}
//	defer eng.Stop()
//
//	eng.Submit(ctx, ev)
package engine
