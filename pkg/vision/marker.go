package vision

import (
	"errors"
	"fmt"
	"sort"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// HSV is an OpenCV hue/saturation/value triple (H 0-180, S and V 0-255).
type HSV [3]float64

// MarkerConfig describes the colored fingertip marker.
type MarkerConfig struct {
	Lower      HSV     `yaml:"lower"`
	Upper      HSV     `yaml:"upper"`
	MinArea    float64 `yaml:"min_area"`    // Smallest blob in pixels
	FullArea   float64 `yaml:"full_area"`   // Blob area reported with confidence 1
	MaxMarkers int     `yaml:"max_markers"` // One hand set per marker
}

// DefaultMarkerConfig tracks a bright green marker.
func DefaultMarkerConfig() MarkerConfig {
	return MarkerConfig{
		Lower:      HSV{40, 100, 100},
		Upper:      HSV{80, 255, 255},
		MinArea:    80,
		FullArea:   800,
		MaxMarkers: 2,
	}
}

// Validate checks the marker settings
func (c MarkerConfig) Validate() error {
	for i := range 3 {
		if c.Lower[i] > c.Upper[i] {
			return fmt.Errorf("marker lower bound %v exceeds upper %v", c.Lower, c.Upper)
		}
	}
	if c.Upper[0] > 180 || c.Upper[1] > 255 || c.Upper[2] > 255 {
		return fmt.Errorf("marker upper bound %v out of range", c.Upper)
	}
	if c.MinArea < 0 || c.FullArea <= 0 {
		return errors.New("marker areas must be positive")
	}
	if c.MaxMarkers < 1 {
		return errors.New("max_markers must be at least 1")
	}
	return nil
}

// MarkerTracker finds colored blobs and reports each as a hand whose index
// fingertip sits at the blob center.
type MarkerTracker struct {
	cfg MarkerConfig

	hsv  gocv.Mat
	mask gocv.Mat
}

var _ landmark.Tracker = (*MarkerTracker)(nil)

// NewMarkerTracker creates a tracker
func NewMarkerTracker(cfg MarkerConfig) (*MarkerTracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid marker config: %w", err)
	}
	return &MarkerTracker{
		cfg:  cfg,
		hsv:  gocv.NewMat(),
		mask: gocv.NewMat(),
	}, nil
}

type blob struct {
	cx, cy float64
	area   float64
}

// Track implements landmark.Tracker. Only *Frame is supported.
func (t *MarkerTracker) Track(frame landmark.Frame) ([]landmark.PointSet, error) {
	f, ok := frame.(*Frame)
	if !ok {
		return nil, landmark.ErrUnsupportedFrame
	}
	if f.Mat.Empty() {
		return nil, nil
	}
	w, h := f.Size()

	gocv.CvtColor(f.Mat, &t.hsv, gocv.ColorBGRToHSV)
	lower := gocv.NewScalar(t.cfg.Lower[0], t.cfg.Lower[1], t.cfg.Lower[2], 0)
	upper := gocv.NewScalar(t.cfg.Upper[0], t.cfg.Upper[1], t.cfg.Upper[2], 0)
	gocv.InRangeWithScalar(t.hsv, lower, upper, &t.mask)

	contours := gocv.FindContours(t.mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var blobs []blob
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area < t.cfg.MinArea {
			continue
		}
		rect := gocv.BoundingRect(c)
		blobs = append(blobs, blob{
			cx:   float64(rect.Min.X) + float64(rect.Dx())/2,
			cy:   float64(rect.Min.Y) + float64(rect.Dy())/2,
			area: area,
		})
	}

	sort.Slice(blobs, func(i, j int) bool { return blobs[i].area > blobs[j].area })
	if len(blobs) > t.cfg.MaxMarkers {
		blobs = blobs[:t.cfg.MaxMarkers]
	}

	sets := make([]landmark.PointSet, 0, len(blobs))
	for _, b := range blobs {
		sets = append(sets, landmark.NewPointSet(landmark.KindHand, landmark.TrackedPoint{
			ID:         landmark.IndexFingerTip,
			X:          b.cx / float64(w),
			Y:          b.cy / float64(h),
			Confidence: min(b.area/t.cfg.FullArea, 1),
		}))
	}

	if len(sets) > 0 {
		log.Debug("markers found", "count", len(sets), "largest_area", blobs[0].area)
	}
	return sets, nil
}

// Close releases the work buffers
func (t *MarkerTracker) Close() error {
	t.hsv.Close()
	t.mask.Close()
	return nil
}
