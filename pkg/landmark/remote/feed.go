// Package remote receives landmarks from an out-of-process tracker.
//
// A sidecar (MediaPipe hands or pose, typically) either accepts frames from a
// Client and answers with landmarks, or connects to a Hub and pushes landmarks on
// its own schedule. Both paths land in a Feed, which the engine polls as its
// landmark.Tracker.
package remote

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// ErrClosed is returned after the feed has been closed.
var ErrClosed = errors.New("remote: feed closed")

// DefaultMaxAge is how long pushed landmarks stay usable.
const DefaultMaxAge = 250 * time.Millisecond

// Feed is a latest-only mailbox of point sets. Writers replace the content;
// the engine reads whatever is newest and not older than MaxAge.
type Feed struct {
	maxAge time.Duration
	now    func() time.Time

	mu     sync.Mutex
	sets   []landmark.PointSet
	at     time.Time
	closed bool

	pushed  atomic.Uint64
	expired atomic.Uint64
}

// NewFeed creates a feed. A nil now uses time.Now.
func NewFeed(maxAge time.Duration, now func() time.Time) *Feed {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if now == nil {
		now = time.Now
	}
	return &Feed{maxAge: maxAge, now: now}
}

// Push replaces the latest point sets.
func (f *Feed) Push(sets []landmark.PointSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	f.sets = sets
	f.at = f.now()
	f.pushed.Add(1)
	return nil
}

// Track implements landmark.Tracker. The frame is not inspected: whatever the
// sidecar reported last is returned, or nothing once it is older than MaxAge.
func (f *Feed) Track(landmark.Frame) ([]landmark.PointSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}
	if f.at.IsZero() {
		return nil, nil
	}
	if f.now().Sub(f.at) > f.maxAge {
		f.expired.Add(1)
		return nil, nil
	}

	out := make([]landmark.PointSet, len(f.sets))
	copy(out, f.sets)
	return out, nil
}

// Close stops accepting pushes. Track returns ErrClosed afterwards.
func (f *Feed) Close() error {
	f.mu.Lock()
	f.closed = true
	f.sets = nil
	f.mu.Unlock()
	return nil
}

// FeedStats counts feed traffic.
type FeedStats struct {
	Pushed  uint64 `json:"pushed"`
	Expired uint64 `json:"expired"`
}

// Stats returns feed counters.
func (f *Feed) Stats() FeedStats {
	return FeedStats{Pushed: f.pushed.Load(), Expired: f.expired.Load()}
}
