package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark/remote"
	"github.com/teslashibe/go-arcade/pkg/profile"
	"github.com/teslashibe/go-arcade/pkg/protocol"
	"github.com/teslashibe/go-arcade/pkg/store"
)

type fakeHistory struct {
	sessions []game.Summary
	err      error
	variant  string
	limit    int
	order    string
	total    int
}

func (f *fakeHistory) Recent(_ context.Context, variant string, limit int) ([]game.Summary, error) {
	f.variant, f.limit, f.order = variant, limit, "recent"
	return f.sessions, f.err
}

func (f *fakeHistory) Top(_ context.Context, variant string, limit int) ([]game.Summary, error) {
	f.variant, f.limit, f.order = variant, limit, "top"
	return f.sessions, f.err
}

func (f *fakeHistory) Count(context.Context, string) (int, error) {
	return f.total, nil
}

func (f *fakeHistory) Get(_ context.Context, id string) (game.Summary, error) {
	for _, s := range f.sessions {
		if s.SessionID == id {
			return s, nil
		}
	}
	return game.Summary{}, store.ErrNotFound
}

type fakeScores map[string]int

func (f fakeScores) BestScores() map[string]int { return f }

func (f fakeScores) Records() []profile.Record {
	var out []profile.Record
	for name, best := range f {
		out = append(out, profile.Record{Variant: name, Best: best, Played: 1})
	}
	return out
}

// syncBuffer is a bytes.Buffer safe for the logger and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestMain(m *testing.M) {
	log.InitWithWriter(io.Discard, "info")
	os.Exit(m.Run())
}

func get(t *testing.T, s *Server, path string) (int, []byte) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("GET %s error: %v", path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func post(t *testing.T, s *Server, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("POST %s error: %v", path, err)
	}
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func TestStatus(t *testing.T) {
	s := NewServer(Options{})
	s.OnSnapshot(game.Snapshot{SessionID: "abc", Variant: "reflex", Phase: "active", Score: 120})

	code, body := get(t, s, "/api/status")
	if code != 200 {
		t.Fatalf("Status = %d, want 200", code)
	}
	var snap game.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Score != 120 || snap.Variant != "reflex" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestEvents_RingAndLimit(t *testing.T) {
	s := NewServer(Options{EventBuffer: 3})
	for i := 1; i <= 5; i++ {
		s.OnEvent(game.Event{Kind: game.EventPopped, Score: i * 10})
	}

	all := s.RecentEvents(0)
	if len(all) != 3 || all[0].Score != 30 || all[2].Score != 50 {
		t.Errorf("RecentEvents(0) = %+v, want scores 30..50", all)
	}

	code, body := get(t, s, "/api/events?limit=2")
	if code != 200 {
		t.Fatalf("Status = %d, want 200", code)
	}
	var events []game.Event
	json.Unmarshal(body, &events)
	if len(events) != 2 || events[0].Score != 40 {
		t.Errorf("events = %+v, want scores 40, 50", events)
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantCmd  game.Command
	}{
		{name: "start", body: `{"name":"start"}`, wantCode: 202, wantCmd: game.CommandStart},
		{name: "skip", body: `{"name":"skip"}`, wantCode: 202, wantCmd: game.CommandDebugSkipLevel},
		{name: "unknown", body: `{"name":"jump"}`, wantCode: 400},
		{name: "bad json", body: `{`, wantCode: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Options{})
			code, body := post(t, s, "/api/command", tt.body)
			if code != tt.wantCode {
				t.Fatalf("Status = %d, want %d (%s)", code, tt.wantCode, body)
			}

			cmds := s.Poll()
			if tt.wantCmd == "" {
				if len(cmds) != 0 {
					t.Errorf("Poll() = %v, want none", cmds)
				}
				return
			}
			if len(cmds) != 1 || cmds[0] != tt.wantCmd {
				t.Errorf("Poll() = %v, want [%s]", cmds, tt.wantCmd)
			}
		})
	}
}

func TestCommandQueueFull(t *testing.T) {
	s := NewServer(Options{})
	for i := 0; i < commandQueue; i++ {
		if !s.Enqueue(game.CommandStart) {
			t.Fatalf("Enqueue #%d failed", i)
		}
	}

	code, _ := post(t, s, "/api/command", `{"name":"quit"}`)
	if code != 503 {
		t.Errorf("Status = %d, want 503", code)
	}
	if got := len(s.Poll()); got != commandQueue {
		t.Errorf("Poll() returned %d commands, want %d", got, commandQueue)
	}
	if got := s.Poll(); len(got) != 0 {
		t.Errorf("second Poll() = %v, want none", got)
	}
}

func TestHistory(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		code, _ := get(t, NewServer(Options{}), "/api/history")
		if code != 503 {
			t.Errorf("Status = %d, want 503", code)
		}
	})

	t.Run("filters", func(t *testing.T) {
		h := &fakeHistory{sessions: []game.Summary{{SessionID: "a", Variant: "pose", Score: 300}}, total: 7}
		code, body := get(t, NewServer(Options{History: h}), "/api/history?variant=pose&limit=5")
		if code != 200 {
			t.Fatalf("Status = %d, want 200", code)
		}
		if h.variant != "pose" || h.limit != 5 || h.order != "recent" {
			t.Errorf("called %s with %q, %d", h.order, h.variant, h.limit)
		}
		if !strings.Contains(string(body), `"count":1`) || !strings.Contains(string(body), `"total":7`) {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("top", func(t *testing.T) {
		h := &fakeHistory{sessions: []game.Summary{{SessionID: "a", Variant: "reflex", Score: 900}}}
		code, _ := get(t, NewServer(Options{History: h}), "/api/history?order=top&variant=reflex&limit=3")
		if code != 200 {
			t.Fatalf("Status = %d, want 200", code)
		}
		if h.order != "top" || h.variant != "reflex" || h.limit != 3 {
			t.Errorf("called %s with %q, %d", h.order, h.variant, h.limit)
		}
	})

	t.Run("bad order", func(t *testing.T) {
		tests := []string{
			"/api/history?order=top",
			"/api/history?order=oldest",
		}
		for _, path := range tests {
			code, _ := get(t, NewServer(Options{History: &fakeHistory{}}), path)
			if code != 400 {
				t.Errorf("%s: Status = %d, want 400", path, code)
			}
		}
	})

	t.Run("one session", func(t *testing.T) {
		h := &fakeHistory{sessions: []game.Summary{{SessionID: "abc", Variant: "pose", Score: 300}}}
		s := NewServer(Options{History: h})

		code, body := get(t, s, "/api/history/abc")
		if code != 200 || !strings.Contains(string(body), `"score":300`) {
			t.Errorf("Status = %d body = %s", code, body)
		}
		if code, _ := get(t, s, "/api/history/nope"); code != 404 {
			t.Errorf("unknown id: Status = %d, want 404", code)
		}
	})

	t.Run("error", func(t *testing.T) {
		h := &fakeHistory{err: errors.New("disk gone")}
		code, body := get(t, NewServer(Options{History: h}), "/api/history")
		if code != 500 || !strings.Contains(string(body), "disk gone") {
			t.Errorf("Status = %d body = %s", code, body)
		}
	})
}

func TestScores(t *testing.T) {
	code, body := get(t, NewServer(Options{Scores: fakeScores{"reflex": 900}}), "/api/scores")
	if code != 200 || !strings.Contains(string(body), `"reflex":900`) {
		t.Errorf("Status = %d body = %s", code, body)
	}

	code, body = get(t, NewServer(Options{}), "/api/scores")
	if code != 200 || string(body) != "{}" {
		t.Errorf("unconfigured: Status = %d body = %s", code, body)
	}
}

func TestScoreRecords(t *testing.T) {
	code, body := get(t, NewServer(Options{Scores: fakeScores{"pose": 400}}), "/api/scores/records")
	if code != 200 {
		t.Fatalf("Status = %d body = %s", code, body)
	}
	for _, want := range []string{`"variant":"pose"`, `"best":400`, `"played":1`, `"count":1`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body = %s, missing %s", body, want)
		}
	}

	code, body = get(t, NewServer(Options{}), "/api/scores/records")
	if code != 200 || !strings.Contains(string(body), `"records":[]`) {
		t.Errorf("unconfigured: Status = %d body = %s", code, body)
	}
}

func TestBroadcastFailureLogged(t *testing.T) {
	var buf syncBuffer
	log.InitWithWriter(&buf, "debug")
	defer log.InitWithWriter(io.Discard, "info")

	s := NewServer(Options{})
	s.OnEvent(game.Event{Kind: game.EventDifficulty, Value: math.NaN()})

	out := buf.String()
	if !strings.Contains(out, "dashboard broadcast failed") || !strings.Contains(out, "kind=event") {
		t.Errorf("log = %q, want the failed event broadcast", out)
	}
	if got := len(s.RecentEvents(0)); got != 1 {
		t.Errorf("RecentEvents = %d, want the event kept for REST", got)
	}
}

func TestSidecarRoutesMounted(t *testing.T) {
	s := NewServer(Options{Sidecars: remote.NewHub(remote.NewFeed(0, nil))})
	if code, _ := get(t, s, "/api/sidecars/stats"); code != 200 {
		t.Errorf("Status = %d, want 200", code)
	}
	if code, _ := get(t, s, "/ws/landmarks"); code != 426 {
		t.Errorf("plain GET /ws/landmarks = %d, want 426", code)
	}
}

func TestWebSocketStatusAndCommands(t *testing.T) {
	s := NewServer(Options{Port: "18096"})
	s.OnSnapshot(game.Snapshot{Variant: "pose", Phase: "idle"})
	s.StartAsync()
	defer s.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18096/ws/status", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	snap, err := msg.GetStatusData()
	if err != nil || snap.Variant != "pose" {
		t.Errorf("greeting = %+v, %v", snap, err)
	}

	cmd, _ := protocol.NewCommandMessage(game.CommandStart)
	out, _ := cmd.Bytes()
	ws.WriteMessage(websocket.TextMessage, out)

	deadline := time.Now().Add(2 * time.Second)
	var got []game.Command
	for len(got) == 0 && time.Now().Before(deadline) {
		got = s.Poll()
		time.Sleep(10 * time.Millisecond)
	}
	if len(got) != 1 || got[0] != game.CommandStart {
		t.Errorf("Poll() = %v, want [start]", got)
	}
}
