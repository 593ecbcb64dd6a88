package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-arcade/pkg/collision"
)

// LoadMask reads a wall image with OpenCV and thresholds it into a safe-pixel
// mask of width x height. It has the signature of pose.MaskLoader.
func LoadMask(path string, width, height int, threshold uint8) (*collision.Mask, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return nil, fmt.Errorf("read %s: not found or not an image", path)
	}
	defer img.Close()

	return MaskFromMat(img, width, height, threshold)
}

// MaskFromMat scales a BGR image with nearest-neighbor sampling and marks every
// pixel whose three channels all exceed threshold.
func MaskFromMat(img gocv.Mat, width, height int, threshold uint8) (*collision.Mask, error) {
	if img.Channels() != 3 {
		return nil, fmt.Errorf("expected 3 channels, got %d", img.Channels())
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(img, &scaled, image.Pt(width, height), 0, 0, gocv.InterpolationNearestNeighbor)

	data, err := scaled.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("read pixels: %w", err)
	}

	mask := collision.NewMask(width, height)
	stride := scaled.Step()
	for y := 0; y < height; y++ {
		row := data[y*stride:]
		for x := 0; x < width; x++ {
			px := row[x*3 : x*3+3]
			if px[0] > threshold && px[1] > threshold && px[2] > threshold {
				mask.Set(x, y)
			}
		}
	}
	return mask, nil
}
