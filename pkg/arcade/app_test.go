package arcade

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-arcade/internal/config"
	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/collision"
	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark"
	"github.com/teslashibe/go-arcade/pkg/landmark/remote"
	"github.com/teslashibe/go-arcade/pkg/pose"
	"github.com/teslashibe/go-arcade/pkg/store"
)

var epoch = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

type testFrame struct{ w, h int }

func (f testFrame) Size() (int, int) { return f.w, f.h }

// testSource advances the clock by step per frame.
type testSource struct {
	clock  *game.MockClock
	step   time.Duration
	closed bool
}

func (s *testSource) Next(ctx context.Context) (landmark.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.clock.Advance(s.step)
	return testFrame{100, 100}, nil
}

func (s *testSource) Close() error {
	s.closed = true
	return nil
}

// testWindow is a compositor that also plays the keyboard: it returns
// commands keyed by the frame number at which they are "pressed".
type testWindow struct {
	frames int
	keys   map[int][]game.Command
	last   game.DrawList
	closed bool
}

func (w *testWindow) Present(_ landmark.Frame, list *game.DrawList) error {
	w.frames++
	w.last = *list
	return nil
}

func (w *testWindow) Poll() []game.Command {
	return w.keys[w.frames]
}

func (w *testWindow) Close() error {
	w.closed = true
	return nil
}

func fullMask(path string, width, height int, _ uint8) (*collision.Mask, error) {
	m := collision.NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Set(x, y)
		}
	}
	return m, nil
}

func poseConfig(t *testing.T) config.File {
	t.Helper()
	cfg := config.Default()
	cfg.Variant = pose.Name
	cfg.Tracker = config.TrackerRemote
	cfg.Pose.Width, cfg.Pose.Height = 100, 100
	cfg.Pose.Challenges = []pose.ChallengeSpec{
		{Name: "arms-up", Path: "walls/arms-up.png"},
		{Name: "star", Path: "walls/star.png"},
	}
	cfg.Store.Path = filepath.Join(t.TempDir(), "arcade.db")
	cfg.Profile.Enabled = false
	return cfg
}

func TestMain(m *testing.M) {
	log.InitWithWriter(io.Discard, "info")
	os.Exit(m.Run())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Variant = "snake"

	_, err := New(cfg)
	var verr *config.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("New() error = %v, want *config.ValidationError", err)
	}
}

func TestRun_BeforeInit(t *testing.T) {
	app, err := New(config.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := app.Run(context.Background()); err == nil {
		t.Error("Run() before Init should fail")
	}
}

func TestPoseSession_RecordedToHistory(t *testing.T) {
	cfg := poseConfig(t)
	clock := game.NewMockClock(epoch)
	src := &testSource{clock: clock, step: 100 * time.Millisecond}
	win := &testWindow{keys: map[int][]game.Command{
		1:   {game.CommandStart},
		120: {game.CommandQuit},
	}}
	tracker := landmark.NewScripted([]landmark.PointSet{landmark.NewPointSet(landmark.KindPose,
		landmark.TrackedPoint{ID: landmark.LeftHip, X: 0.5, Y: 0.5, Confidence: 0.9})})

	app, err := New(cfg,
		WithSource(src),
		WithTracker(tracker),
		WithCompositor(win),
		WithClock(clock),
		WithMaskLoader(fullMask))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := app.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer app.Shutdown()

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !src.closed || !win.closed || !tracker.Closed() {
		t.Errorf("devices not released: source=%v window=%v tracker=%v", src.closed, win.closed, tracker.Closed())
	}
	if s := app.Engine().Session(); s.Score < 100 || s.Phase != game.PhaseEnded {
		t.Errorf("session = score %d phase %v, want at least one pass and ended", s.Score, s.Phase)
	}

	app.Shutdown()

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer db.Close()

	sessions, err := db.Recent(context.Background(), pose.Name, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(sessions))
	}
	if got := sessions[0]; got.Outcome != game.OutcomeQuit || got.Score != app.Engine().Session().Score {
		t.Errorf("recorded %+v", got)
	}
}

func TestPoseDifficultyDrivesRevealDuration(t *testing.T) {
	cfg := poseConfig(t)
	cfg.Store.Path = ""
	cfg.Pose.Duration = 3 * time.Second
	cfg.Pose.MinDuration = time.Second

	clock := game.NewMockClock(epoch)
	win := &testWindow{keys: map[int][]game.Command{1: {game.CommandStart}}}
	app, err := New(cfg,
		WithSource(&testSource{clock: clock, step: 100 * time.Millisecond}),
		WithTracker(landmark.NewScripted()),
		WithCompositor(win),
		WithClock(clock),
		WithMaskLoader(fullMask))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := app.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer app.Shutdown()

	app.Engine().Step(testFrame{100, 100})
	app.Engine().Step(testFrame{100, 100})

	v, ok := app.variant.(*pose.Variant)
	if !ok {
		t.Fatalf("variant = %T, want *pose.Variant", app.variant)
	}
	if got := v.Machine().Duration(); got != 3*time.Second {
		t.Errorf("reveal duration = %v, want 3s from pose timing", got)
	}
}

func TestReflexSession_UpdatesProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "")

	cfg := config.Default()
	cfg.Store.Path = ""
	cfg.Profile.AppName = "arcade_app_test"
	cfg.Reflex.Width, cfg.Reflex.Height = 100, 100
	cfg.Reflex.RadiusMin, cfg.Reflex.RadiusMax = 5, 10

	clock := game.NewMockClock(epoch)
	win := &testWindow{keys: map[int][]game.Command{
		1:  {game.CommandStart},
		30: {game.CommandQuit},
	}}
	app, err := New(cfg,
		WithSource(&testSource{clock: clock, step: 50 * time.Millisecond}),
		WithTracker(landmark.NewScripted()),
		WithCompositor(win),
		WithClock(clock))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := app.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer app.Shutdown()

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rec, err := app.profile.Get("reflex")
	if err != nil {
		t.Fatalf("profile Get() error = %v", err)
	}
	if rec.Played != 1 || rec.LastOutcome != game.OutcomeQuit {
		t.Errorf("record = %+v, want one quit session", rec)
	}
}

func TestInit_ChallengeFailureReleasesDevices(t *testing.T) {
	cfg := poseConfig(t)
	cfg.Store.Path = ""
	src := &testSource{clock: game.NewMockClock(epoch)}
	win := &testWindow{}

	broken := func(path string, width, height int, threshold uint8) (*collision.Mask, error) {
		if path == "walls/star.png" {
			return nil, errors.New("unreadable")
		}
		return fullMask(path, width, height, threshold)
	}

	app, err := New(cfg, WithSource(src), WithCompositor(win), WithMaskLoader(broken))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = app.Init(context.Background())
	var cerr *pose.ChallengeError
	if !errors.As(err, &cerr) {
		t.Fatalf("Init() error = %v, want *pose.ChallengeError", err)
	}
	if cerr.Index != 1 {
		t.Errorf("Index = %d, want 1", cerr.Index)
	}
	if !src.closed || !win.closed {
		t.Errorf("devices not released: source=%v window=%v", src.closed, win.closed)
	}
}

func TestInit_SidecarTrackerMountsOnDashboard(t *testing.T) {
	cfg := config.Default()
	cfg.Tracker = config.TrackerSidecar
	cfg.Store.Path = ""
	cfg.Profile.Enabled = false
	cfg.Web.Enabled = true
	cfg.Web.Port = "18097"

	src := &testSource{clock: game.NewMockClock(epoch)}
	app, err := New(cfg, WithSource(src), WithCompositor(&testWindow{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := app.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if _, ok := app.tracker.(*remote.Feed); !ok {
		t.Errorf("tracker = %T, want *remote.Feed", app.tracker)
	}

	resp, err := app.Web().App().Test(httptest.NewRequest("GET", "/api/sidecars/stats", nil))
	if err != nil {
		t.Fatalf("GET /api/sidecars/stats error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		t.Errorf("Status = %d body = %s", resp.StatusCode, body)
	}

	app.Shutdown()
	if !src.closed {
		t.Error("Shutdown without Run should release the source")
	}
}
