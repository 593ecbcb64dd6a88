package pose

import "time"

// RevealState tracks one timed reveal of a challenge.
type RevealState struct {
	Index     int
	Start     time.Time
	Duration  time.Duration
	Opacity   float64 // 0-1, non-decreasing within one reveal
	Evaluated bool
}

// Begin starts a new reveal: timer restarts, opacity back to 0, guard cleared.
func (r *RevealState) Begin(index int, now time.Time, duration time.Duration) {
	*r = RevealState{Index: index, Start: now, Duration: duration}
}

// Update recomputes opacity = min(elapsed/duration, 1).
// Opacity never decreases, even if the clock steps backwards.
func (r *RevealState) Update(now time.Time) float64 {
	elapsed := now.Sub(r.Start)
	opacity := 1.0
	if elapsed < r.Duration {
		opacity = max(float64(elapsed)/float64(r.Duration), 0)
	}
	r.Opacity = max(r.Opacity, opacity)
	return r.Opacity
}

// Due reports whether the reveal is complete and has not been evaluated yet.
func (r *RevealState) Due() bool {
	return r.Opacity >= 1 && !r.Evaluated
}
