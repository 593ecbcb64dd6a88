package reflex

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/collision"
	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// Name is the variant identifier
const Name = "reflex"

var _ game.Variant = (*Variant)(nil)

// Variant plugs the entity simulation into the game engine.
// The session never ends from gameplay; only quit ends it.
type Variant struct {
	cfg     Config
	sim     *Simulation
	started time.Time
}

// New creates a reflex variant
func New(cfg Config) (*Variant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reflex config: %w", err)
	}
	return &Variant{cfg: cfg, sim: NewSimulation(cfg)}, nil
}

// Name implements game.Variant
func (v *Variant) Name() string { return Name }

// Simulation exposes the entity population
func (v *Variant) Simulation() *Simulation { return v.sim }

// Start implements game.Variant
func (v *Variant) Start(now time.Time, s *game.Session) {
	v.sim.Reset(now)
	v.started = now
	s.Level = 1
}

// Update retires last frame's popped/missed entities, runs the spawn cadence,
// moves entities and applies miss penalties.
func (v *Variant) Update(t game.Tick, s *game.Session) []game.Event {
	var events []game.Event

	v.sim.Retire()

	if e := v.sim.SpawnDue(t.Now, s.Score); e != nil {
		events = append(events, game.Event{
			Kind:   game.EventSpawned,
			Time:   t.Now,
			Detail: fmt.Sprintf("entity %d r=%d speed=%d points=%d", e.ID, e.Radius, e.Speed, e.Points),
		})
	}

	for _, e := range v.sim.Advance(t.DT) {
		delta := s.AddScore(-v.cfg.MissPenalty)
		events = append(events, game.Event{
			Kind:   game.EventMissed,
			Time:   t.Now,
			Delta:  delta,
			Detail: fmt.Sprintf("entity %d", e.ID),
		})
	}

	if level := 1 + int(t.Now.Sub(v.started)/v.cfg.WaveLength); level != s.Level {
		s.Level = level
		events = append(events, game.Event{Kind: game.EventLevel, Time: t.Now, Value: float64(level)})
	}

	return events
}

// Evaluate pops entities under any tracked index fingertip.
func (v *Variant) Evaluate(t game.Tick, s *game.Session) []game.Event {
	tips := landmark.Collect(t.Sets, landmark.IndexFingerTip)
	points := make([]collision.Point, len(tips))
	for i, tip := range tips {
		x, y := tip.Pixel(t.Width, t.Height)
		points[i] = collision.Pt(float64(x), float64(y))
	}

	var events []game.Event
	for _, e := range v.sim.Hit(points...) {
		delta := s.AddScore(e.Points)
		events = append(events, game.Event{
			Kind:   game.EventPopped,
			Time:   t.Now,
			Delta:  delta,
			Detail: fmt.Sprintf("entity %d at (%.0f,%.0f)", e.ID, e.X, e.Y),
		})
	}
	return events
}

// IsTerminal implements game.Variant
func (v *Variant) IsTerminal() bool { return false }

// ApplyTiming sets the spawn interval from the difficulty controller
func (v *Variant) ApplyTiming(d time.Duration) {
	v.sim.SetInterval(d)
}

// Command implements game.Variant. Level skipping only applies to the pose variant.
func (v *Variant) Command(cmd game.Command, now time.Time, s *game.Session) []game.Event {
	log.Debug("command ignored", "variant", Name, "command", cmd)
	return nil
}

// Draw adds live and just-popped entities to the draw list
func (v *Variant) Draw(list *game.DrawList) {
	for _, e := range v.sim.Entities() {
		if e.Missed() {
			continue
		}
		list.Entities = append(list.Entities, game.Sprite{
			X:      e.X,
			Y:      e.Y,
			Radius: float64(e.Radius),
			Popped: e.Popped(),
		})
	}
}
