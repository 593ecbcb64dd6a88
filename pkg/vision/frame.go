// Package vision is the OpenCV side of the arcade: camera capture, a colored
// marker fingertip tracker, wall mask loading, and the on-screen compositor.
package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Frame wraps a BGR image owned by whoever produced it.
type Frame struct {
	Mat gocv.Mat
}

// Size returns the frame dimensions in pixels
func (f *Frame) Size() (width, height int) {
	return f.Mat.Cols(), f.Mat.Rows()
}

// JPEG encodes the frame for remote trackers and dashboard previews
func (f *Frame) JPEG() ([]byte, error) {
	if f.Mat.Empty() {
		return nil, fmt.Errorf("empty frame")
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, f.Mat)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
