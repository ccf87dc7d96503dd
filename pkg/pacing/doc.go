// Package pacing decides how long to linger on an open discussion thread.
//
// A thread page is read through a Surface, a narrow view of a browser tab.
// Four pieces cooperate on it:
//
//   - Readiness waits until the first replies have actually rendered.
//   - SignalReader samples two progress proxies: the "#N" position label of
//     the topic timeline and the number of rendered reply nodes.
//   - Debouncer waits for a value to stop changing for a quiet period, which
//     stands in for "lazy loading triggered by the last scroll has settled".
//   - Tracker drives the scroll loop and turns signal deltas into completed
//     pages until a randomly drawn target is met or the thread runs out.
//
// None of these treat a missing element or an expired wait as an error.
// Waits report a WaitResult and browsing reports a BrowseResult; the only
// hard stop is the tracker's iteration budget.
//
// # Example
//
//	tracker := pacing.NewTracker(pacing.DefaultPacing(), pacing.DefaultLocators(),
//	    timing.RealClock{}, timing.NewRand(0), log)
//	res := tracker.BrowsePages(ctx, tab, 5, 10)
//	if !res.OK {
//	    log.Warnf("thread finished below target: %s", res)
//	}
package pacing
