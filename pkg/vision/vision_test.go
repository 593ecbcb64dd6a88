package vision

import (
	"errors"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark"
)

type plainFrame struct{}

func (plainFrame) Size() (int, int) { return 10, 10 }

func blackFrame(t *testing.T, w, h int) *Frame {
	t.Helper()
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(0, 0, 0, 0))
	t.Cleanup(func() { m.Close() })
	return &Frame{Mat: m}
}

func TestCommandForKey(t *testing.T) {
	tests := []struct {
		key    int
		want   game.Command
		wantOK bool
	}{
		{key: 's', want: game.CommandStart, wantOK: true},
		{key: 'S', want: game.CommandStart, wantOK: true},
		{key: 'q', want: game.CommandQuit, wantOK: true},
		{key: 27, want: game.CommandQuit, wantOK: true},
		{key: 'r', want: game.CommandRestart, wantOK: true},
		{key: 'n', want: game.CommandDebugSkipLevel, wantOK: true},
		{key: 0x100 | 's', want: game.CommandStart, wantOK: true},
		{key: 'x'},
		{key: -1},
	}

	for _, tt := range tests {
		got, ok := CommandForKey(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CommandForKey(%d) = %q, %v, want %q, %v", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCaptureConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*CaptureConfig)
		wantErr bool
	}{
		{name: "default", modify: func(*CaptureConfig) {}},
		{name: "file device", modify: func(c *CaptureConfig) { c.Device = "clip.mp4" }},
		{name: "no device", modify: func(c *CaptureConfig) { c.Device = "" }, wantErr: true},
		{name: "zero width", modify: func(c *CaptureConfig) { c.Width = 0 }, wantErr: true},
		{name: "negative fps", modify: func(c *CaptureConfig) { c.FPS = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCaptureConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMarkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*MarkerConfig)
		wantErr bool
	}{
		{name: "default", modify: func(*MarkerConfig) {}},
		{name: "inverted hue", modify: func(c *MarkerConfig) { c.Lower[0] = 90 }, wantErr: true},
		{name: "hue out of range", modify: func(c *MarkerConfig) { c.Upper[0] = 200 }, wantErr: true},
		{name: "zero full area", modify: func(c *MarkerConfig) { c.FullArea = 0 }, wantErr: true},
		{name: "no markers", modify: func(c *MarkerConfig) { c.MaxMarkers = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMarkerConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMarkerTracker_FindsGreenBlobs(t *testing.T) {
	tracker, err := NewMarkerTracker(DefaultMarkerConfig())
	if err != nil {
		t.Fatalf("NewMarkerTracker() error = %v", err)
	}
	defer tracker.Close()

	f := blackFrame(t, 200, 100)
	green := color.RGBA{G: 255}
	gocv.Circle(&f.Mat, image.Pt(60, 40), 12, green, -1) // larger
	gocv.Circle(&f.Mat, image.Pt(150, 70), 8, green, -1) // smaller
	gocv.Circle(&f.Mat, image.Pt(100, 10), 2, green, -1) // below MinArea
	gocv.Circle(&f.Mat, image.Pt(20, 80), 12, color.RGBA{R: 255}, -1)

	sets, err := tracker.Track(f)
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("len(sets) = %d, want 2", len(sets))
	}

	tip, ok := sets[0].Get(landmark.IndexFingerTip)
	if !ok {
		t.Fatal("first set has no fingertip")
	}
	if sets[0].Kind != landmark.KindHand {
		t.Errorf("Kind = %s, want hand", sets[0].Kind)
	}
	if math.Abs(tip.X-0.30) > 0.02 || math.Abs(tip.Y-0.40) > 0.02 {
		t.Errorf("largest blob at (%.3f, %.3f), want (0.30, 0.40)", tip.X, tip.Y)
	}
	if tip.Confidence <= 0 || tip.Confidence > 1 {
		t.Errorf("Confidence = %v, want (0,1]", tip.Confidence)
	}

	second, _ := sets[1].Get(landmark.IndexFingerTip)
	if math.Abs(second.X-0.75) > 0.02 || math.Abs(second.Y-0.70) > 0.02 {
		t.Errorf("second blob at (%.3f, %.3f), want (0.75, 0.70)", second.X, second.Y)
	}
}

func TestMarkerTracker_MaxMarkers(t *testing.T) {
	cfg := DefaultMarkerConfig()
	cfg.MaxMarkers = 1
	tracker, _ := NewMarkerTracker(cfg)
	defer tracker.Close()

	f := blackFrame(t, 200, 100)
	gocv.Circle(&f.Mat, image.Pt(60, 40), 12, color.RGBA{G: 255}, -1)
	gocv.Circle(&f.Mat, image.Pt(150, 70), 8, color.RGBA{G: 255}, -1)

	sets, _ := tracker.Track(f)
	if len(sets) != 1 {
		t.Errorf("len(sets) = %d, want 1", len(sets))
	}
}

func TestMarkerTracker_Unsupported(t *testing.T) {
	tracker, _ := NewMarkerTracker(DefaultMarkerConfig())
	defer tracker.Close()

	if _, err := tracker.Track(plainFrame{}); !errors.Is(err, landmark.ErrUnsupportedFrame) {
		t.Errorf("Track() error = %v, want ErrUnsupportedFrame", err)
	}
}

func TestMaskFromMat(t *testing.T) {
	img := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	defer img.Close()
	img.SetTo(gocv.NewScalar(0, 0, 0, 0))
	// Top-left 2x2 white, one pixel only bright in two channels
	white := img.Region(image.Rect(0, 0, 2, 2))
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))
	white.Close()
	yellow := img.Region(image.Rect(3, 3, 4, 4))
	yellow.SetTo(gocv.NewScalar(0, 255, 255, 0))
	yellow.Close()

	mask, err := MaskFromMat(img, 8, 8, 230)
	if err != nil {
		t.Fatalf("MaskFromMat() error = %v", err)
	}
	if w, h := mask.Size(); w != 8 || h != 8 {
		t.Fatalf("Size() = %dx%d, want 8x8", w, h)
	}
	if got := mask.Len(); got != 16 {
		t.Errorf("Len() = %d, want 16", got)
	}
	if !mask.Contains(3, 3) || mask.Contains(4, 4) || mask.Contains(7, 7) {
		t.Error("scaled mask has the wrong pixels set")
	}
}

func TestLoadMask_Missing(t *testing.T) {
	if _, err := LoadMask(filepath.Join(t.TempDir(), "none.png"), 8, 8, 230); err == nil {
		t.Error("LoadMask() on a missing file should fail")
	}
}

func TestLoadMask_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.png")
	img := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer img.Close()
	img.SetTo(gocv.NewScalar(255, 255, 255, 0))
	if !gocv.IMWrite(path, img) {
		t.Fatal("IMWrite failed")
	}

	mask, err := LoadMask(path, 20, 10, 230)
	if err != nil {
		t.Fatalf("LoadMask() error = %v", err)
	}
	if got := mask.Len(); got != 200 {
		t.Errorf("Len() = %d, want 200", got)
	}
}

func TestDrawAndEncode(t *testing.T) {
	f := blackFrame(t, 320, 240)
	wall := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer wall.Close()
	wall.SetTo(gocv.NewScalar(200, 200, 200, 0))

	list := &game.DrawList{
		Score:     120,
		Level:     2,
		Banner:    "Press S to start",
		Entities:  []game.Sprite{{X: 50, Y: 50, Radius: 20}, {X: 100, Y: 50, Radius: 20, Popped: true}},
		Markers:   []game.Marker{{X: 10, Y: 10}},
		Challenge: &game.Overlay{Index: 0, Name: "arms-up", Opacity: 0.5},
	}

	var asked int
	Draw(f, list, func(index int, size image.Point) (gocv.Mat, bool) {
		asked++
		if size != image.Pt(320, 240) {
			t.Errorf("wall size = %v, want 320x240", size)
		}
		return wall, true
	})
	if asked != 1 {
		t.Errorf("wall requested %d times, want 1", asked)
	}

	// Blended background: 0*0.5 + 200*0.5
	if v := f.Mat.GetVecbAt(230, 300); v[0] < 95 || v[0] > 105 {
		t.Errorf("blended pixel = %v, want ~100", v)
	}

	data, err := f.JPEG()
	if err != nil {
		t.Fatalf("JPEG() error = %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("JPEG() did not produce a JPEG")
	}
}
