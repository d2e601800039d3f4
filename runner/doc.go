// Package runner coordinates agent execution within weatherteam.
//
// The Runner is the bridge between callers and the agent tree: it resolves
// the session, builds a RunContext, starts the root agent in its own
// goroutine and multiplexes emitted events back to the caller while applying
// event side-effects (state deltas, transfers, escalation) and persisting
// non-partial events to the session store.
//
// A minimal invocation looks like:
//
//	r := runner.New(agent, func(o *runner.Options) {
//		o.SessionStore = store
//		o.Logger = logger
//	})
//
//	runID, events, errs, err := r.Run(ctx, sessionID, content)
//	if err != nil {
//		return err
//	}
//
//	for events != nil || errs != nil {
//		select {
//		case ev, ok := <-events:
//			if !ok {
//				events = nil
//				continue
//			}
//			handle(ev)
//		case err, ok := <-errs:
//			if !ok {
//				errs = nil
//				continue
//			}
//			return err
//		}
//	}
//
// Runs can be cancelled early with Cancel(runID) or by cancelling the parent
// context passed to Run.
package runner
