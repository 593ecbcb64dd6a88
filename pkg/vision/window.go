package vision

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// Colors used by the compositor.
var (
	colorEntity = color.RGBA{R: 230, G: 60, B: 60}
	colorPopped = color.RGBA{R: 255, G: 220, B: 0}
	colorMarker = color.RGBA{R: 0, G: 200, B: 255}
	colorHUD    = color.RGBA{R: 255, G: 255, B: 255}
	colorBanner = color.RGBA{R: 255, G: 255, B: 0}
)

// KeyCommands maps keyboard keys to commands.
var KeyCommands = map[int]game.Command{
	's': game.CommandStart,
	'q': game.CommandQuit,
	27:  game.CommandQuit, // Esc
	'r': game.CommandRestart,
	'n': game.CommandDebugSkipLevel,
}

// CommandForKey maps a WaitKey result to a command. Keys are case-insensitive.
func CommandForKey(key int) (game.Command, bool) {
	if key < 0 {
		return "", false
	}
	key &= 0xFF
	if key >= 'A' && key <= 'Z' {
		key += 'a' - 'A'
	}
	cmd, ok := KeyCommands[key]
	return cmd, ok
}

// Window draws the game over camera frames in a HighGUI window and doubles
// as the keyboard input.
type Window struct {
	win    *gocv.Window
	walls  []string   // Challenge image paths by index
	cache  []gocv.Mat // Walls resized to the frame, loaded on first use
	failed []bool
	keys   []game.Command
}

var (
	_ game.Compositor = (*Window)(nil)
	_ game.Input      = (*Window)(nil)
)

// NewWindow opens a window. walls lists the pose challenge images by index.
func NewWindow(title string, walls []string) *Window {
	cache := make([]gocv.Mat, len(walls))
	for i := range cache {
		cache[i] = gocv.NewMat()
	}
	return &Window{
		win:    gocv.NewWindow(title),
		walls:  walls,
		cache:  cache,
		failed: make([]bool, len(walls)),
	}
}

// Present draws list over frame, shows it, and collects one key press.
func (w *Window) Present(frame landmark.Frame, list *game.DrawList) error {
	f, ok := frame.(*Frame)
	if !ok {
		return landmark.ErrUnsupportedFrame
	}

	Draw(f, list, w.wall)

	w.win.IMShow(f.Mat)
	if cmd, ok := CommandForKey(w.win.WaitKey(1)); ok {
		w.keys = append(w.keys, cmd)
	}
	return nil
}

// Poll returns the keys pressed since the last poll
func (w *Window) Poll() []game.Command {
	keys := w.keys
	w.keys = nil
	return keys
}

// wall returns the challenge image at index scaled to size.
func (w *Window) wall(index int, size image.Point) (gocv.Mat, bool) {
	if index < 0 || index >= len(w.walls) || w.failed[index] {
		return gocv.Mat{}, false
	}
	m := w.cache[index]
	if !m.Empty() && m.Cols() == size.X && m.Rows() == size.Y {
		return m, true
	}

	img := gocv.IMRead(w.walls[index], gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		log.Warn("challenge image unreadable", "path", w.walls[index])
		w.failed[index] = true
		return gocv.Mat{}, false
	}

	gocv.Resize(img, &m, size, 0, 0, gocv.InterpolationNearestNeighbor)
	return m, true
}

// Close destroys the window and cached images
func (w *Window) Close() error {
	for i := range w.cache {
		w.cache[i].Close()
	}
	return w.win.Close()
}

// WallFunc supplies the challenge image for an overlay index at frame size.
type WallFunc func(index int, size image.Point) (gocv.Mat, bool)

// Draw renders a draw list onto the frame in place. wall may be nil.
func Draw(f *Frame, list *game.DrawList, wall WallFunc) {
	width, height := f.Size()

	if list.Challenge != nil && wall != nil && list.Challenge.Opacity > 0 {
		m, ok := wall(list.Challenge.Index, image.Pt(width, height))
		if ok && m.Type() == f.Mat.Type() {
			op := list.Challenge.Opacity
			gocv.AddWeighted(f.Mat, 1-op, m, op, 0, &f.Mat)
		}
	}

	for _, e := range list.Entities {
		c := colorEntity
		if e.Popped {
			c = colorPopped
		}
		gocv.Circle(&f.Mat, image.Pt(int(e.X), int(e.Y)), int(e.Radius), c, -1)
	}

	for _, m := range list.Markers {
		gocv.Circle(&f.Mat, image.Pt(int(m.X), int(m.Y)), 8, colorMarker, 2)
	}

	hud := fmt.Sprintf("Score %d  Level %d  Best %d", list.Score, list.Level, list.HighScore)
	gocv.PutText(&f.Mat, hud, image.Pt(20, 40), gocv.FontHersheySimplex, 1.0, colorHUD, 2)

	if list.Challenge != nil {
		gocv.PutText(&f.Mat, list.Challenge.Name, image.Pt(20, 80), gocv.FontHersheySimplex, 0.8, colorHUD, 2)
	}

	if list.Banner != "" {
		size := gocv.GetTextSize(list.Banner, gocv.FontHersheySimplex, 1.5, 3)
		org := image.Pt((width-size.X)/2, height/2)
		gocv.PutText(&f.Mat, list.Banner, org, gocv.FontHersheySimplex, 1.5, colorBanner, 3)
	}
}
