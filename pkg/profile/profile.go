// Package profile keeps per-variant player records (best score, games played)
// in the platform's application data directory.
package profile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quasilyte/gdata/v2"
	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/game"
	"gopkg.in/yaml.v3"
)

// DefaultAppName is the data directory name.
const DefaultAppName = "go-arcade"

const recordsObject = "records"

// Record is what the profile remembers about one variant.
type Record struct {
	Variant     string       `yaml:"variant" json:"variant"`
	Best        int          `yaml:"best" json:"best"`
	BestAt      time.Time    `yaml:"best_at,omitempty" json:"best_at,omitempty"`
	BestSession string       `yaml:"best_session,omitempty" json:"best_session,omitempty"`
	Played      int          `yaml:"played" json:"played"`
	TotalScore  int64        `yaml:"total_score" json:"total_score"`
	LastOutcome game.Outcome `yaml:"last_outcome,omitempty" json:"last_outcome,omitempty"`
	LastPlayed  time.Time    `yaml:"last_played,omitempty" json:"last_played,omitempty"`
}

// Profile persists records through gdata. With a nil manager it only keeps
// records in memory.
type Profile struct {
	mgr *gdata.Manager

	mu    sync.Mutex
	cache map[string]Record
}

var (
	_ game.SessionRecorder = (*Profile)(nil)
	_ game.ScoreBoard      = (*Profile)(nil)
)

// Open opens the profile stored under appName.
func Open(appName string) (*Profile, error) {
	if appName == "" {
		appName = DefaultAppName
	}
	mgr, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open profile storage: %w", err)
	}
	return New(mgr), nil
}

// New wraps an existing manager; nil means memory only.
func New(mgr *gdata.Manager) *Profile {
	return &Profile{mgr: mgr, cache: make(map[string]Record)}
}

// Get returns the record of a variant. Unknown variants return a zero record.
func (p *Profile) Get(variant string) (Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(variant)
}

func (p *Profile) load(variant string) (Record, error) {
	if rec, ok := p.cache[variant]; ok {
		return rec, nil
	}

	rec := Record{Variant: variant}
	if p.mgr == nil || !p.mgr.ObjectPropExists(recordsObject, variant) {
		p.cache[variant] = rec
		return rec, nil
	}

	data, err := p.mgr.LoadObjectProp(recordsObject, variant)
	if err != nil {
		return rec, fmt.Errorf("load %s record: %w", variant, err)
	}
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Record{Variant: variant}, fmt.Errorf("decode %s record: %w", variant, err)
	}
	rec.Variant = variant
	p.cache[variant] = rec
	return rec, nil
}

func (p *Profile) save(rec Record) error {
	p.cache[rec.Variant] = rec
	if p.mgr == nil {
		return nil
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", rec.Variant, err)
	}
	if err := p.mgr.SaveObjectProp(recordsObject, rec.Variant, data); err != nil {
		return fmt.Errorf("save %s record: %w", rec.Variant, err)
	}
	return nil
}

// RecordSession folds a finished session into the variant's record.
func (p *Profile) RecordSession(_ context.Context, sum game.Summary) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, err := p.load(sum.Variant)
	if err != nil {
		// Corrupt records are overwritten
		log.Warn("discarding unreadable profile record", "variant", sum.Variant, "error", err)
		rec = Record{Variant: sum.Variant}
	}

	rec.Played++
	rec.TotalScore += int64(sum.Score)
	rec.LastOutcome = sum.Outcome
	rec.LastPlayed = sum.EndedAt
	if sum.Score > rec.Best {
		rec.Best = sum.Score
		rec.BestAt = sum.EndedAt
		rec.BestSession = sum.SessionID
		log.Info("new high score", "variant", sum.Variant, "score", sum.Score)
	}
	return p.save(rec)
}

// BestScore implements game.ScoreBoard. Storage errors read as zero.
func (p *Profile) BestScore(variant string) int {
	rec, err := p.Get(variant)
	if err != nil {
		log.Warn("profile record unavailable", "variant", variant, "error", err)
		return 0
	}
	return rec.Best
}

// BestScores returns the best score of every variant seen so far.
func (p *Profile) BestScores() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]int, len(p.cache))
	for name, rec := range p.cache {
		out[name] = rec.Best
	}
	return out
}

// Records returns every cached record sorted by variant name.
func (p *Profile) Records() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Record, 0, len(p.cache))
	for _, rec := range p.cache {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Variant < out[j].Variant })
	return out
}

// Preload reads the records of the given variants into the cache.
func (p *Profile) Preload(variants ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, v := range variants {
		if _, err := p.load(v); err != nil {
			return err
		}
	}
	return nil
}
