package pose

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-arcade/pkg/collision"
	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// State of the challenge machine.
type State int

const (
	Idle State = iota
	Revealing
	Passed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Revealing:
		return "revealing"
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result describes one evaluation.
type Result struct {
	Index   int
	Name    string
	Passed  bool
	Checked int    // Joints confident enough to check
	Reason  string // Why the challenge failed
}

// Machine sequences challenges: Idle -> Revealing -> Passed|Failed.
// Passed immediately starts the next reveal; Failed is terminal.
type Machine struct {
	cfg        Config
	challenges []Challenge

	state    State
	reveal   RevealState
	duration time.Duration // Applied at the next reveal

	lastPose   *landmark.PointSet
	lastPoseAt time.Time
}

// NewMachine creates a challenge machine over a prepared challenge list.
func NewMachine(cfg Config, challenges []Challenge) (*Machine, error) {
	if len(challenges) == 0 {
		return nil, errors.New("no challenges")
	}
	for i, ch := range challenges {
		if ch.Mask == nil {
			return nil, &ChallengeError{Index: i, Path: ch.Path, Err: errors.New("missing mask")}
		}
	}
	return &Machine{
		cfg:        cfg,
		challenges: challenges,
		duration:   cfg.Duration,
	}, nil
}

// Begin starts the first challenge.
func (m *Machine) Begin(now time.Time) {
	m.lastPose = nil
	m.lastPoseAt = time.Time{}
	m.startReveal(0, now)
}

func (m *Machine) startReveal(index int, now time.Time) {
	m.state = Revealing
	m.reveal.Begin(index, now, m.duration)
}

// SetDuration changes the reveal duration from the next reveal on.
func (m *Machine) SetDuration(d time.Duration) {
	m.duration = max(d, m.cfg.MinDuration)
}

// Duration returns the duration the next reveal will use.
func (m *Machine) Duration() time.Duration {
	return m.duration
}

// Observe keeps the most confident pose set from this frame.
func (m *Machine) Observe(sets []landmark.PointSet, now time.Time) {
	if best := landmark.SelectBest(sets, landmark.KindPose); best != nil {
		m.lastPose = best
		m.lastPoseAt = now
	}
}

// Advance updates opacity. Returns true exactly once per reveal, when it completes.
func (m *Machine) Advance(now time.Time) bool {
	if m.state != Revealing {
		return false
	}
	m.reveal.Update(now)
	return m.reveal.Due()
}

// Evaluate checks the latest pose against the current challenge. It marks the
// reveal evaluated and moves the machine to Passed or Failed.
func (m *Machine) Evaluate(now time.Time) Result {
	ch := m.challenges[m.reveal.Index]
	res := Result{Index: m.reveal.Index, Name: ch.Name}
	m.reveal.Evaluated = true

	switch {
	case m.lastPose == nil:
		res.Reason = "no pose tracked"
	case now.Sub(m.lastPoseAt) > m.cfg.StaleAfter:
		res.Reason = fmt.Sprintf("pose stale for %v", now.Sub(m.lastPoseAt).Round(time.Millisecond))
	default:
		res.Passed, res.Checked, res.Reason = m.Check(ch, *m.lastPose)
	}

	if res.Passed {
		m.state = Passed
	} else {
		m.state = Failed
	}
	return res
}

// Check tests every confident required joint against the challenge mask.
// Joints below the confidence threshold, or absent, are skipped.
func (m *Machine) Check(ch Challenge, set landmark.PointSet) (safe bool, checked int, reason string) {
	region := collision.MaskRegion{Mask: ch.Mask, Tolerance: m.cfg.Tolerance}
	w, h := ch.Mask.Size()

	for _, id := range m.cfg.RequiredJoints {
		p, ok := set.Get(id)
		if !ok || p.Confidence < m.cfg.ConfidenceThreshold {
			continue
		}
		checked++
		x, y := p.Pixel(w, h)
		if !region.ContainsPixel(x, y) {
			return false, checked, fmt.Sprintf("%s outside wall at (%d,%d)", id, x, y)
		}
	}
	return true, checked, ""
}

// Next advances to the following challenge (wrapping) and starts its reveal.
func (m *Machine) Next(now time.Time) {
	m.startReveal((m.reveal.Index+1)%len(m.challenges), now)
}

// State returns the machine state.
func (m *Machine) State() State {
	return m.state
}

// Reveal returns the current reveal state.
func (m *Machine) Reveal() RevealState {
	return m.reveal
}

// Challenge returns the challenge being revealed.
func (m *Machine) Challenge() Challenge {
	return m.challenges[m.reveal.Index]
}

// Len returns the number of challenges.
func (m *Machine) Len() int {
	return len(m.challenges)
}
