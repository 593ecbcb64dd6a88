package reflex

import (
	"math/rand/v2"
	"time"

	"github.com/teslashibe/go-arcade/pkg/collision"
)

// Simulation owns the entity population and spawn cadence.
// It has no notion of score; callers apply points and penalties.
type Simulation struct {
	cfg Config
	rng *rand.Rand

	entities  []*Entity
	nextID    int
	interval  time.Duration
	lastSpawn time.Time
}

// NewSimulation creates a simulation. seed 0 picks a time-based seed.
func NewSimulation(cfg Config) *Simulation {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Simulation{
		cfg:      cfg,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		interval: cfg.BaseSpawnInterval,
	}
}

// Reset clears all entities and restarts the spawn timer at now.
func (s *Simulation) Reset(now time.Time) {
	s.entities = s.entities[:0]
	s.lastSpawn = now
	s.interval = s.cfg.BaseSpawnInterval
}

// Spawn creates an entity below the visible area and adds it to the population.
func (s *Simulation) Spawn() *Entity {
	radius := s.cfg.RadiusMin + s.rng.IntN(s.cfg.RadiusMax-s.cfg.RadiusMin+1)
	speed := s.cfg.SpeedMin + s.rng.IntN(s.cfg.SpeedMax-s.cfg.SpeedMin+1)
	drift := (s.rng.Float64()*2 - 1) * s.cfg.DriftMax
	x := radius + s.rng.IntN(s.cfg.Width-2*radius+1)

	s.nextID++
	e := &Entity{
		ID:     s.nextID,
		Radius: radius,
		Speed:  speed,
		Drift:  drift,
		X:      float64(x),
		Y:      float64(s.cfg.Height + radius),
		Points: Points(s.cfg, radius, speed),
		State:  Live,
	}
	s.entities = append(s.entities, e)
	return e
}

// Add inserts a prepared entity. Points are recomputed from radius and speed.
func (s *Simulation) Add(e Entity) *Entity {
	s.nextID++
	e.ID = s.nextID
	e.Points = Points(s.cfg, e.Radius, e.Speed)
	e.State = Live
	s.entities = append(s.entities, &e)
	return &e
}

// SpawnDue runs the spawn cadence. When the interval has elapsed the timer resets,
// an entity spawns if the live cap allows, and the interval is recomputed from score.
func (s *Simulation) SpawnDue(now time.Time, score int) *Entity {
	if now.Sub(s.lastSpawn) <= s.interval {
		return nil
	}

	var spawned *Entity
	if s.LiveCount() < s.cfg.MaxEntities {
		spawned = s.Spawn()
	}
	s.lastSpawn = now

	interval := s.cfg.BaseSpawnInterval - time.Duration(score)*s.cfg.ScoreSpawnStep
	s.interval = max(interval, s.cfg.MinSpawnInterval)
	return spawned
}

// Advance moves every live entity by dt and returns those that escaped this step.
func (s *Simulation) Advance(dt time.Duration) []*Entity {
	sec := dt.Seconds()
	var missed []*Entity

	for _, e := range s.entities {
		if !e.Live() {
			continue
		}
		speed := float64(e.Speed)
		r := float64(e.Radius)

		e.Y -= speed * sec
		e.X += e.Drift * speed * sec
		e.X = min(max(e.X, r), float64(s.cfg.Width)-r)

		if e.Y < -r {
			e.State = Missed
			missed = append(missed, e)
		}
	}
	return missed
}

// Hit pops every live entity containing at least one of points and returns them.
func (s *Simulation) Hit(points ...collision.Point) []*Entity {
	if len(points) == 0 {
		return nil
	}
	var popped []*Entity
	for _, e := range s.entities {
		if e.Live() && collision.Any(points, e.Target()) {
			e.State = Popped
			popped = append(popped, e)
		}
	}
	return popped
}

// Retire drops popped and missed entities.
func (s *Simulation) Retire() {
	live := s.entities[:0]
	for _, e := range s.entities {
		if e.Live() {
			live = append(live, e)
		}
	}
	clear(s.entities[len(live):])
	s.entities = live
}

// Entities returns the current population, including entities retiring next update.
func (s *Simulation) Entities() []*Entity {
	return s.entities
}

// LiveCount returns the number of entities still in play.
func (s *Simulation) LiveCount() int {
	n := 0
	for _, e := range s.entities {
		if e.Live() {
			n++
		}
	}
	return n
}

// Interval returns the current spawn interval.
func (s *Simulation) Interval() time.Duration {
	return s.interval
}

// SetInterval overrides the spawn interval until the next spawn recomputes it.
func (s *Simulation) SetInterval(d time.Duration) {
	s.interval = d
}
