package game

import (
	"context"
	"time"

	"github.com/teslashibe/go-arcade/internal/log"
)

// EventKind identifies a telemetry event.
type EventKind string

const (
	EventStarted    EventKind = "started"
	EventSpawned    EventKind = "spawned"
	EventPopped     EventKind = "popped"
	EventMissed     EventKind = "missed"
	EventPassed     EventKind = "passed"
	EventFailed     EventKind = "failed"
	EventSkipped    EventKind = "skipped"
	EventLevel      EventKind = "level"
	EventDifficulty EventKind = "difficulty"
	EventEnded      EventKind = "ended"
	EventRestarted  EventKind = "restarted"
)

// Event is one gameplay transition, reported to observers.
type Event struct {
	Kind      EventKind `json:"kind"`
	Time      time.Time `json:"time"`
	SessionID string    `json:"session_id,omitempty"`
	Score     int       `json:"score"`
	Level     int       `json:"level"`
	Delta     int       `json:"delta,omitempty"`  // Score change caused by this event
	Value     float64   `json:"value,omitempty"`  // Kind-specific (difficulty factor, opacity...)
	Detail    string    `json:"detail,omitempty"` // Human-readable context
}

// outcome maps an event to difficulty window counts.
func (k EventKind) outcome() (attempt, success bool) {
	switch k {
	case EventSpawned:
		return true, false
	case EventPopped:
		return false, true
	case EventPassed:
		return true, true
	case EventFailed:
		return true, false
	}
	return false, false
}

// Snapshot is the periodic state view published to observers.
type Snapshot struct {
	SessionID string  `json:"session_id"`
	Variant   string  `json:"variant"`
	Phase     string  `json:"phase"`
	Score     int     `json:"score"`
	Level     int     `json:"level"`
	HighScore int     `json:"high_score"`
	Factor    float64 `json:"factor"`
	TimingMS  int64   `json:"timing_ms"`
	Tracked   int     `json:"tracked"` // Point sets seen in the latest frame
	Stats     Stats   `json:"stats"`
}

// Summary describes a finished session for persistence.
type Summary struct {
	SessionID string    `json:"session_id"`
	Variant   string    `json:"variant"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Score     int       `json:"score"`
	Level     int       `json:"level"`
	Outcome   Outcome   `json:"outcome"`
	Stats     Stats     `json:"stats"`
}

// Duration returns the session length.
func (s Summary) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

// Observer receives telemetry from the engine loop. Calls happen on the loop goroutine
// and must not block.
type Observer interface {
	OnEvent(ev Event)
	OnSnapshot(snap Snapshot)
}

// SessionRecorder persists finished sessions.
type SessionRecorder interface {
	RecordSession(ctx context.Context, summary Summary) error
}

// ScoreBoard provides the best score to show in the HUD.
type ScoreBoard interface {
	BestScore(variant string) int
}

// LogObserver reports events through the structured logger.
type LogObserver struct{}

// OnEvent logs an event. Per-entity events go to debug level.
func (LogObserver) OnEvent(ev Event) {
	args := []any{"kind", ev.Kind, "score", ev.Score, "level", ev.Level}
	if ev.Delta != 0 {
		args = append(args, "delta", ev.Delta)
	}
	if ev.Detail != "" {
		args = append(args, "detail", ev.Detail)
	}

	switch ev.Kind {
	case EventSpawned, EventPopped:
		log.Debug("game event", args...)
	case EventMissed:
		log.Info("entity missed, penalty applied", args...)
	case EventDifficulty:
		log.Info("difficulty adjusted", append(args, "factor", ev.Value)...)
	default:
		log.Info("game event", args...)
	}
}

// OnSnapshot is a no-op; snapshots are for live dashboards.
func (LogObserver) OnSnapshot(Snapshot) {}
