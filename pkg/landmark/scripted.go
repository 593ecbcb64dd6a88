package landmark

import "sync"

// Scripted implements Tracker by replaying a fixed sequence of results.
// Once the script runs out, the last entry repeats. Useful for tests and demo replays.
type Scripted struct {
	// TrackFunc overrides the script when set.
	TrackFunc func(frame Frame) ([]PointSet, error)

	mu     sync.Mutex
	script [][]PointSet
	calls  int
	closed bool
}

// NewScripted creates a scripted tracker returning each step in turn.
func NewScripted(steps ...[]PointSet) *Scripted {
	return &Scripted{script: steps}
}

// Track returns the next scripted step.
func (s *Scripted) Track(frame Frame) ([]PointSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.TrackFunc != nil {
		return s.TrackFunc(frame)
	}
	if len(s.script) == 0 {
		return nil, nil
	}
	i := s.calls - 1
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	return s.script[i], nil
}

// Calls returns how many times Track was invoked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Closed reports whether Close was called.
func (s *Scripted) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close marks the tracker closed.
func (s *Scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
