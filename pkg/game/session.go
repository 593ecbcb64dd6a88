package game

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the session lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// Outcome records why a session ended.
type Outcome string

const (
	OutcomeFailed Outcome = "failed" // Terminal gameplay event (pose mismatch)
	OutcomeQuit   Outcome = "quit"   // Explicit quit or shutdown
	OutcomeLost   Outcome = "lost"   // Frame source gave out
)

// Stats counts gameplay events over one session.
type Stats struct {
	Spawned int `json:"spawned"`
	Popped  int `json:"popped"`
	Missed  int `json:"missed"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
}

// Session is the state of one play-through. It is owned by the engine loop.
type Session struct {
	ID        string
	Variant   string
	Phase     Phase
	Score     int
	Level     int
	MaxScore  int
	StartedAt time.Time
	EndedAt   time.Time
	Stats     Stats
}

// NewSession creates an idle session for a variant.
func NewSession(variant string, maxScore int) *Session {
	return &Session{
		Variant:  variant,
		Phase:    PhaseIdle,
		Level:    1,
		MaxScore: maxScore,
	}
}

// Begin resets the session for a new play-through and marks it active.
func (s *Session) Begin(now time.Time) {
	s.ID = uuid.New().String()
	s.Phase = PhaseActive
	s.Score = 0
	s.Level = 1
	s.StartedAt = now
	s.EndedAt = time.Time{}
	s.Stats = Stats{}
}

// AddScore applies delta and clamps the score into [0, MaxScore].
// Returns the change actually applied.
func (s *Session) AddScore(delta int) int {
	before := s.Score
	s.Score = clampScore(s.Score+delta, s.MaxScore)
	return s.Score - before
}

// Elapsed returns active play time at now.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if !s.EndedAt.IsZero() {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}

func clampScore(score, max int) int {
	if score < 0 {
		return 0
	}
	if max > 0 && score > max {
		return max
	}
	return score
}
