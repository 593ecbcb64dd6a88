// Package landmark defines tracked body and hand points and the tracker contract.
//
// Trackers are external collaborators: a colored-marker fingertip tracker in pkg/vision,
// a websocket sidecar feed in pkg/landmark/remote, or a scripted sequence for tests.
// The game core only ever sees PointSets keyed by JointID.
package landmark

import "errors"

// ErrUnsupportedFrame is returned when a tracker receives a frame type it cannot read.
var ErrUnsupportedFrame = errors.New("landmark: unsupported frame type")

// JointID names a tracked landmark.
type JointID string

// Joint identifiers shared by hand and pose trackers.
const (
	IndexFingerTip JointID = "index_finger_tip"
	ThumbTip       JointID = "thumb_tip"
	Wrist          JointID = "wrist"

	Nose          JointID = "nose"
	LeftShoulder  JointID = "left_shoulder"
	RightShoulder JointID = "right_shoulder"
	LeftHip       JointID = "left_hip"
	RightHip      JointID = "right_hip"
	LeftWrist     JointID = "left_wrist"
	RightWrist    JointID = "right_wrist"
)

// Kind tells hand sets from body pose sets.
type Kind string

const (
	KindHand Kind = "hand"
	KindPose Kind = "pose"
)

// Frame is the minimal view of a video frame the core needs.
type Frame interface {
	// Size returns the frame dimensions in pixels
	Size() (width, height int)
}

// Tracker turns a frame into zero or more point sets.
type Tracker interface {
	// Track returns the point sets found in frame; an empty slice means no input this frame
	Track(frame Frame) ([]PointSet, error)

	// Close releases resources
	Close() error
}

// TrackedPoint is one landmark in normalized frame coordinates.
type TrackedPoint struct {
	ID         JointID `json:"id"`
	X          float64 `json:"x"`          // 0-1, left to right
	Y          float64 `json:"y"`          // 0-1, top to bottom
	Confidence float64 `json:"confidence"` // visibility / detection confidence, 0-1
}

// Pixel converts the normalized position to pixel coordinates by truncation.
func (p TrackedPoint) Pixel(width, height int) (x, y int) {
	return int(p.X * float64(width)), int(p.Y * float64(height))
}

// PixelF converts the normalized position to fractional pixel coordinates.
func (p TrackedPoint) PixelF(width, height int) (x, y float64) {
	return p.X * float64(width), p.Y * float64(height)
}

// PointSet is the set of landmarks belonging to one detected hand or body.
type PointSet struct {
	Kind   Kind                     `json:"kind"`
	Points map[JointID]TrackedPoint `json:"points"`
}

// NewPointSet builds a set from a list of points. Later duplicates win.
func NewPointSet(kind Kind, points ...TrackedPoint) PointSet {
	ps := PointSet{Kind: kind, Points: make(map[JointID]TrackedPoint, len(points))}
	for _, p := range points {
		ps.Points[p.ID] = p
	}
	return ps
}

// Get looks up a landmark by identifier.
func (s PointSet) Get(id JointID) (TrackedPoint, bool) {
	p, ok := s.Points[id]
	return p, ok
}

// Confidence returns the mean confidence of all points in the set.
func (s PointSet) Confidence() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range s.Points {
		total += p.Confidence
	}
	return total / float64(len(s.Points))
}

// Collect returns every point with the given identifier across sets, in set order.
func Collect(sets []PointSet, id JointID) []TrackedPoint {
	var out []TrackedPoint
	for _, s := range sets {
		if p, ok := s.Get(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// SelectBest picks the set of the given kind with the highest mean confidence.
// Ties keep the earlier set.
func SelectBest(sets []PointSet, kind Kind) *PointSet {
	var best *PointSet
	bestScore := -1.0
	for i := range sets {
		if sets[i].Kind != kind {
			continue
		}
		if score := sets[i].Confidence(); score > bestScore {
			bestScore = score
			best = &sets[i]
		}
	}
	return best
}
