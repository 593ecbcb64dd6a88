package vision

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// CaptureConfig selects and sizes the camera.
type CaptureConfig struct {
	Device string  `yaml:"device"` // Device index ("0") or video file path
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
	Mirror bool    `yaml:"mirror"` // Flip horizontally so the player sees a mirror
}

// DefaultCaptureConfig returns a 1280x720 mirrored webcam.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Device: "0",
		Width:  1280,
		Height: 720,
		FPS:    30,
		Mirror: true,
	}
}

// Validate checks the capture settings
func (c CaptureConfig) Validate() error {
	if c.Device == "" {
		return errors.New("capture device is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("capture size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.FPS < 0 {
		return fmt.Errorf("capture fps must not be negative, got %v", c.FPS)
	}
	return nil
}

// Capture is a game.FrameSource reading from an OpenCV VideoCapture.
// The returned frame is reused and valid until the next call to Next.
type Capture struct {
	cfg   CaptureConfig
	cap   *gocv.VideoCapture
	frame Frame
}

var _ game.FrameSource = (*Capture)(nil)

// OpenCapture opens the configured device
func OpenCapture(cfg CaptureConfig) (*Capture, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", cfg.Device, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	if cfg.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, cfg.FPS)
	}

	log.Info("camera opened",
		"device", cfg.Device,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"mirror", cfg.Mirror)

	return &Capture{cfg: cfg, cap: vc, frame: Frame{Mat: gocv.NewMat()}}, nil
}

// Next reads one frame. An empty read returns game.ErrNoFrame.
func (c *Capture) Next(ctx context.Context) (landmark.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := c.cap.Read(&c.frame.Mat); !ok || c.frame.Mat.Empty() {
		return nil, game.ErrNoFrame
	}
	if c.cfg.Mirror {
		gocv.Flip(c.frame.Mat, &c.frame.Mat, 1)
	}
	return &c.frame, nil
}

// Close releases the camera
func (c *Capture) Close() error {
	c.frame.Mat.Close()
	return c.cap.Close()
}
