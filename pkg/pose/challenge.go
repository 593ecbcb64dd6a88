package pose

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/teslashibe/go-arcade/pkg/collision"
)

// Challenge is one silhouette with its precomputed safe-pixel mask.
type Challenge struct {
	Name string
	Path string
	Mask *collision.Mask
}

// ChallengeError reports a challenge that could not be prepared.
type ChallengeError struct {
	Index int
	Path  string
	Err   error
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("challenge %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *ChallengeError) Unwrap() error {
	return e.Err
}

// MaskLoader builds the safe-pixel mask for one challenge at width x height.
type MaskLoader func(path string, width, height int, threshold uint8) (*collision.Mask, error)

// LoadChallenges builds every configured challenge. The first failure aborts
// with a *ChallengeError naming the index.
func LoadChallenges(cfg Config, load MaskLoader) ([]Challenge, error) {
	if load == nil {
		load = DecodeMask
	}

	challenges := make([]Challenge, 0, len(cfg.Challenges))
	for i, spec := range cfg.Challenges {
		mask, err := load(spec.Path, cfg.Width, cfg.Height, uint8(cfg.WhiteThreshold))
		if err != nil {
			return nil, &ChallengeError{Index: i, Path: spec.Path, Err: err}
		}
		if mask == nil {
			return nil, &ChallengeError{Index: i, Path: spec.Path, Err: fmt.Errorf("loader returned no mask")}
		}

		name := spec.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(spec.Path), filepath.Ext(spec.Path))
		}
		challenges = append(challenges, Challenge{Name: name, Path: spec.Path, Mask: mask})
	}
	return challenges, nil
}

// DecodeMask reads a PNG or JPEG, scales it to width x height with nearest-neighbor
// sampling and thresholds it into a mask.
func DecodeMask(path string, width, height int, threshold uint8) (*collision.Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return MaskFromImage(img, width, height, threshold), nil
}

// MaskFromImage scales img to width x height and thresholds it.
func MaskFromImage(img image.Image, width, height int, threshold uint8) *collision.Mask {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
		img = scaled
	}
	return collision.MaskFromImage(img, threshold)
}
