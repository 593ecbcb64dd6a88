package pose

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/game"
)

// Name is the variant identifier
const Name = "pose"

var _ game.Variant = (*Variant)(nil)

// Variant plugs the challenge machine into the game engine.
type Variant struct {
	cfg     Config
	machine *Machine
}

// New creates a pose variant over prepared challenges
func New(cfg Config, challenges []Challenge) (*Variant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pose config: %w", err)
	}
	m, err := NewMachine(cfg, challenges)
	if err != nil {
		return nil, err
	}
	return &Variant{cfg: cfg, machine: m}, nil
}

// Name implements game.Variant
func (v *Variant) Name() string { return Name }

// Machine exposes the challenge machine
func (v *Variant) Machine() *Machine { return v.machine }

// Start implements game.Variant
func (v *Variant) Start(now time.Time, s *game.Session) {
	s.Level = 1
	v.machine.Begin(now)
	log.Info("challenge revealing", "index", 0, "name", v.machine.Challenge().Name, "duration", v.machine.Reveal().Duration)
}

// Update records the latest pose and advances the reveal timer.
// Without tracked points the timer keeps running.
func (v *Variant) Update(t game.Tick, s *game.Session) []game.Event {
	v.machine.Observe(t.Sets, t.Now)
	v.machine.Advance(t.Now)
	return nil
}

// Evaluate checks the pose once the reveal completes.
func (v *Variant) Evaluate(t game.Tick, s *game.Session) []game.Event {
	reveal := v.machine.Reveal()
	if v.machine.State() != Revealing || !reveal.Due() {
		return nil
	}

	res := v.machine.Evaluate(t.Now)
	if !res.Passed {
		log.Info("pose rejected", "index", res.Index, "name", res.Name, "reason", res.Reason)
		return []game.Event{{
			Kind:   game.EventFailed,
			Time:   t.Now,
			Detail: fmt.Sprintf("%s: %s", res.Name, res.Reason),
		}}
	}

	delta := s.AddScore(v.cfg.Reward)
	s.Level++
	v.machine.Next(t.Now)

	log.Info("pose accepted", "index", res.Index, "name", res.Name, "checked", res.Checked, "level", s.Level)
	return []game.Event{{
		Kind:   game.EventPassed,
		Time:   t.Now,
		Delta:  delta,
		Detail: res.Name,
	}}
}

// IsTerminal reports a failed challenge
func (v *Variant) IsTerminal() bool {
	return v.machine.State() == Failed
}

// ApplyTiming sets the reveal duration for the next reveal
func (v *Variant) ApplyTiming(d time.Duration) {
	v.machine.SetDuration(d)
}

// Command handles level skipping: next challenge, no score.
func (v *Variant) Command(cmd game.Command, now time.Time, s *game.Session) []game.Event {
	if cmd != game.CommandDebugSkipLevel || v.machine.State() != Revealing {
		return nil
	}
	from := v.machine.Challenge().Name
	v.machine.Next(now)
	s.Level++
	return []game.Event{{
		Kind:   game.EventSkipped,
		Time:   now,
		Detail: fmt.Sprintf("%s -> %s", from, v.machine.Challenge().Name),
	}}
}

// Draw adds the challenge overlay at its current opacity
func (v *Variant) Draw(list *game.DrawList) {
	if v.machine.State() == Idle {
		return
	}
	r := v.machine.Reveal()
	list.Challenge = &game.Overlay{
		Index:   r.Index,
		Name:    v.machine.Challenge().Name,
		Opacity: r.Opacity,
	}
}
