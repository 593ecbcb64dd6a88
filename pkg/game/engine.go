package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/difficulty"
	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// Deps are the pluggable collaborators of an Engine.
// Source and Tracker are required; the rest are optional.
type Deps struct {
	Source     FrameSource
	Tracker    landmark.Tracker
	Compositor Compositor
	Input      Input
	Clock      Clock
	Observers  []Observer
	Recorders  []SessionRecorder
	ScoreBoard ScoreBoard
}

// Engine runs the frame loop for one variant.
type Engine struct {
	cfg     Config
	variant Variant
	diff    *difficulty.Controller
	deps    Deps
	clock   Clock

	session *Session
	list    DrawList

	lastTick      time.Time
	lastSnapshot  time.Time
	frameFailures int
	highScore     int
	tracked       int
}

// NewEngine creates an engine. The difficulty controller is owned by the engine from here on.
func NewEngine(cfg Config, variant Variant, diff *difficulty.Controller, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if variant == nil {
		return nil, errors.New("variant is required")
	}
	if diff == nil {
		return nil, errors.New("difficulty controller is required")
	}
	if deps.Source == nil {
		return nil, errors.New("frame source is required")
	}
	if deps.Tracker == nil {
		return nil, errors.New("tracker is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	e := &Engine{
		cfg:     cfg,
		variant: variant,
		diff:    diff,
		deps:    deps,
		clock:   clock,
		session: NewSession(variant.Name(), cfg.MaxScore),
	}
	if deps.ScoreBoard != nil {
		e.highScore = deps.ScoreBoard.BestScore(variant.Name())
	}
	return e, nil
}

// Session returns the current session. Only safe on the loop goroutine or after Run returns.
func (e *Engine) Session() *Session {
	return e.session
}

// HighScore returns the best score known to the engine.
func (e *Engine) HighScore() int {
	return e.highScore
}

// Run drives the frame loop until quit, cancellation, or frame source loss.
// Devices are released before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	defer e.close()

	log.Info("engine started",
		"variant", e.variant.Name(),
		"max_score", e.cfg.MaxScore,
		"difficulty_period", e.diff.Config().Period)

	e.publishSnapshot(e.clock.Now(), true)

	for {
		if ctx.Err() != nil {
			e.end(e.clock.Now(), OutcomeQuit)
			return nil
		}

		frame, err := e.deps.Source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				e.end(e.clock.Now(), OutcomeQuit)
				return nil
			}
			e.frameFailures++
			if e.frameFailures == 1 || !errors.Is(err, ErrNoFrame) {
				log.Warn("frame acquisition failed", "error", err, "consecutive", e.frameFailures)
			}
			if e.cfg.MaxFrameFailures > 0 && e.frameFailures > e.cfg.MaxFrameFailures {
				e.end(e.clock.Now(), OutcomeLost)
				return fmt.Errorf("%w after %d consecutive failures: %v", ErrFrameSourceLost, e.frameFailures, err)
			}
			continue
		}
		e.frameFailures = 0

		if quit := e.Step(frame); quit {
			return nil
		}
	}
}

// Step processes one frame: track, update, evaluate, adjust difficulty, present, poll input.
// Returns true when a quit command was received.
func (e *Engine) Step(frame landmark.Frame) bool {
	now := e.clock.Now()
	dt := time.Duration(0)
	if !e.lastTick.IsZero() {
		dt = now.Sub(e.lastTick)
		if dt > e.cfg.MaxFrameDelta {
			dt = e.cfg.MaxFrameDelta
		}
	}
	e.lastTick = now

	width, height := frame.Size()
	sets := e.track(frame)
	tick := Tick{Now: now, DT: dt, Sets: sets, Width: width, Height: height}

	if e.session.Phase == PhaseActive {
		e.advance(tick)
	}

	e.render(frame, tick)

	if e.deps.Input != nil {
		for _, cmd := range e.deps.Input.Poll() {
			if e.handle(cmd, now) {
				return true
			}
		}
	}

	e.publishSnapshot(now, false)
	return false
}

// track runs the tracker. Failures count as "nothing tracked" for this frame.
func (e *Engine) track(frame landmark.Frame) []landmark.PointSet {
	sets, err := e.deps.Tracker.Track(frame)
	if err != nil {
		log.Debug("tracking failed", "error", err)
		sets = nil
	}
	e.tracked = len(sets)
	return sets
}

// advance runs the variant for one frame. A panic inside the variant skips the frame.
func (e *Engine) advance(tick Tick) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("variant panicked, frame skipped", "variant", e.variant.Name(), "panic", r)
		}
	}()

	// Update's score changes are already applied; count them even if Evaluate panics.
	e.dispatch(e.variant.Update(tick, e.session))
	e.dispatch(e.variant.Evaluate(tick, e.session))

	if e.variant.IsTerminal() {
		e.end(tick.Now, OutcomeFailed)
		return
	}

	adj, ok := e.diff.Tick(tick.Now)
	if !ok {
		return
	}
	e.variant.ApplyTiming(adj.Timing)
	if adj.Changed() {
		e.emit(Event{
			Kind:   EventDifficulty,
			Time:   tick.Now,
			Value:  adj.NewFactor,
			Detail: fmt.Sprintf("accuracy %.2f, timing %v", adj.Accuracy, adj.Timing),
		})
	}
}

// dispatch updates counters and the difficulty window, then notifies observers.
func (e *Engine) dispatch(events []Event) {
	for _, ev := range events {
		switch ev.Kind {
		case EventSpawned:
			e.session.Stats.Spawned++
		case EventPopped:
			e.session.Stats.Popped++
		case EventMissed:
			e.session.Stats.Missed++
		case EventPassed:
			e.session.Stats.Passed++
		case EventFailed:
			e.session.Stats.Failed++
		}
		if attempt, success := ev.Kind.outcome(); attempt || success {
			e.diff.Record(attempt, success)
		}
		e.emit(ev)
	}
	if e.session.Score > e.highScore {
		e.highScore = e.session.Score
	}
}

func (e *Engine) emit(ev Event) {
	if ev.SessionID == "" {
		ev.SessionID = e.session.ID
		ev.Score = e.session.Score
		ev.Level = e.session.Level
	}
	for _, o := range e.deps.Observers {
		o.OnEvent(ev)
	}
}

func (e *Engine) render(frame landmark.Frame, tick Tick) {
	e.list.Reset()
	e.list.Variant = e.variant.Name()
	e.list.Phase = e.session.Phase
	e.list.Score = e.session.Score
	e.list.Level = e.session.Level
	e.list.HighScore = e.highScore

	switch e.session.Phase {
	case PhaseIdle:
		e.list.Banner = e.cfg.Title
	case PhaseEnded:
		e.list.Banner = fmt.Sprintf("Game over! Score: %d", e.session.Score)
	case PhaseActive:
		e.variant.Draw(&e.list)
	}

	for _, set := range tick.Sets {
		for _, p := range set.Points {
			x, y := p.PixelF(tick.Width, tick.Height)
			e.list.Markers = append(e.list.Markers, Marker{ID: p.ID, X: x, Y: y, Confidence: p.Confidence})
		}
	}

	if e.deps.Compositor == nil {
		return
	}
	if err := e.deps.Compositor.Present(frame, &e.list); err != nil {
		log.Warn("present failed", "error", err)
	}
}

// handle applies a command. Returns true on quit.
func (e *Engine) handle(cmd Command, now time.Time) bool {
	log.Debug("command received", "command", cmd, "phase", e.session.Phase)

	switch cmd {
	case CommandQuit:
		e.end(now, OutcomeQuit)
		return true

	case CommandStart:
		switch e.session.Phase {
		case PhaseIdle:
			e.start(now)
		case PhaseEnded:
			e.restart(now)
			e.start(now)
		}

	case CommandRestart:
		if e.session.Phase == PhaseEnded {
			e.restart(now)
		}

	case CommandDebugSkipLevel:
		if e.session.Phase == PhaseActive {
			e.dispatch(e.variant.Command(cmd, now, e.session))
		}

	default:
		log.Warn("unknown command", "command", cmd)
	}
	return false
}

func (e *Engine) start(now time.Time) {
	e.session.Begin(now)
	e.diff.Reset(now)
	e.variant.Start(now, e.session)
	e.variant.ApplyTiming(e.diff.Timing())
	e.lastTick = now

	log.Info("session started", "session", e.session.ID, "variant", e.variant.Name())
	e.emit(Event{Kind: EventStarted, Time: now})
	e.publishSnapshot(now, true)
}

func (e *Engine) restart(now time.Time) {
	variant := e.session.Variant
	e.session = NewSession(variant, e.cfg.MaxScore)
	e.emit(Event{Kind: EventRestarted, Time: now})
	e.publishSnapshot(now, true)
}

// end closes an active session and hands the summary to recorders.
func (e *Engine) end(now time.Time, outcome Outcome) {
	if e.session.Phase != PhaseActive {
		return
	}
	e.session.Phase = PhaseEnded
	e.session.EndedAt = now
	if e.session.Score > e.highScore {
		e.highScore = e.session.Score
	}

	summary := Summary{
		SessionID: e.session.ID,
		Variant:   e.session.Variant,
		StartedAt: e.session.StartedAt,
		EndedAt:   now,
		Score:     e.session.Score,
		Level:     e.session.Level,
		Outcome:   outcome,
		Stats:     e.session.Stats,
	}

	log.Info("session ended",
		"session", summary.SessionID,
		"outcome", outcome,
		"score", summary.Score,
		"level", summary.Level,
		"duration", summary.Duration().Round(time.Millisecond))

	e.emit(Event{Kind: EventEnded, Time: now, Detail: string(outcome)})

	for _, r := range e.deps.Recorders {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.RecordTimeout)
		if err := r.RecordSession(ctx, summary); err != nil {
			log.Warn("failed to record session", "session", summary.SessionID, "error", err)
		}
		cancel()
	}

	e.publishSnapshot(now, true)
}

func (e *Engine) publishSnapshot(now time.Time, force bool) {
	if len(e.deps.Observers) == 0 {
		return
	}
	if !force && now.Sub(e.lastSnapshot) < e.cfg.SnapshotInterval {
		return
	}
	e.lastSnapshot = now

	snap := Snapshot{
		SessionID: e.session.ID,
		Variant:   e.session.Variant,
		Phase:     e.session.Phase.String(),
		Score:     e.session.Score,
		Level:     e.session.Level,
		HighScore: e.highScore,
		Factor:    e.diff.Factor(),
		TimingMS:  e.diff.Timing().Milliseconds(),
		Tracked:   e.tracked,
		Stats:     e.session.Stats,
	}
	for _, o := range e.deps.Observers {
		o.OnSnapshot(snap)
	}
}

// close releases devices in reverse acquisition order.
func (e *Engine) close() {
	if e.deps.Compositor != nil {
		if err := e.deps.Compositor.Close(); err != nil {
			log.Warn("failed to close compositor", "error", err)
		}
	}
	if err := e.deps.Tracker.Close(); err != nil {
		log.Warn("failed to close tracker", "error", err)
	}
	if err := e.deps.Source.Close(); err != nil {
		log.Warn("failed to close frame source", "error", err)
	}
	log.Info("engine stopped", "variant", e.variant.Name(), "high_score", e.highScore)
}
