// Package web provides the live arcade dashboard: REST status, event and history
// endpoints, websocket feeds, and a command queue the engine polls as an Input.
package web

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/hub"
	"github.com/teslashibe/go-arcade/pkg/landmark/remote"
	"github.com/teslashibe/go-arcade/pkg/profile"
	"github.com/teslashibe/go-arcade/pkg/protocol"
)

// Defaults for Options.
const (
	DefaultPort        = "8080"
	DefaultEventBuffer = 500
	commandQueue       = 16
)

// HistorySource lists finished sessions.
type HistorySource interface {
	Recent(ctx context.Context, variant string, limit int) ([]game.Summary, error)
	Top(ctx context.Context, variant string, limit int) ([]game.Summary, error)
	Count(ctx context.Context, variant string) (int, error)
	Get(ctx context.Context, id string) (game.Summary, error)
}

// ScoreSource reports best scores and player records per variant.
type ScoreSource interface {
	BestScores() map[string]int
	Records() []profile.Record
}

// Options configures the dashboard.
type Options struct {
	Port        string
	StaticDir   string        // Served at /, empty disables
	EventBuffer int           // Recent events kept for /api/events
	History     HistorySource // Optional
	Scores      ScoreSource   // Optional
	Sidecars    *remote.Hub   // Optional landmark ingest
}

// Server is the web dashboard server
type Server struct {
	app  *fiber.App
	port string
	opts Options

	// Latest snapshot
	status   game.Snapshot
	statusMu sync.RWMutex

	// Ring of recent events
	events   []game.Event
	eventsMu sync.RWMutex

	// Commands from REST and websocket clients, drained by Poll
	commands chan game.Command

	// Hubs for websocket broadcast
	eventHub  *hub.Hub
	statusHub *hub.Hub
}

var (
	_ game.Observer = (*Server)(nil)
	_ game.Input    = (*Server)(nil)
)

// NewServer creates a new web dashboard server
func NewServer(opts Options) *Server {
	if opts.Port == "" {
		opts.Port = DefaultPort
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}

	s := &Server{
		port:      opts.Port,
		opts:      opts,
		events:    make([]game.Event, 0, opts.EventBuffer),
		commands:  make(chan game.Command, commandQueue),
		eventHub:  hub.New("events"),
		statusHub: hub.New("status"),
	}
	s.statusHub.Greeting = s.statusGreeting
	s.eventHub.OnReceive = s.receiveCommand
	s.statusHub.OnReceive = s.receiveCommand

	app := fiber.New(fiber.Config{
		AppName:               "Arcade Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New())

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/events", s.handleEvents)
	api.Get("/history", s.handleHistory)
	api.Get("/history/:id", s.handleSession)
	api.Get("/scores", s.handleScores)
	api.Get("/scores/records", s.handleRecords)
	api.Post("/command", s.handleCommand)
	api.Get("/health", s.handleHealth)

	if opts.Sidecars != nil {
		opts.Sidecars.RegisterRoutes(app)
		opts.Sidecars.RegisterAPIRoutes(api)
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the hubs and blocks serving HTTP
func (s *Server) Start() error {
	log.Info("web dashboard listening", "url", "http://localhost:"+s.port)

	go s.eventHub.Run()
	go s.statusHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()
}

// Shutdown stops the hubs and the HTTP server
func (s *Server) Shutdown() error {
	s.eventHub.Stop()
	s.statusHub.Stop()
	return s.app.Shutdown()
}

// OnEvent records the event and pushes it to /ws/events clients
func (s *Server) OnEvent(ev game.Event) {
	s.eventsMu.Lock()
	if len(s.events) == s.opts.EventBuffer {
		copy(s.events, s.events[1:])
		s.events = s.events[:len(s.events)-1]
	}
	s.events = append(s.events, ev)
	s.eventsMu.Unlock()

	msg, err := protocol.NewEventMessage(ev)
	s.publish(s.eventHub, "event", msg, err)
}

// OnSnapshot stores the snapshot and pushes it to /ws/status clients
func (s *Server) OnSnapshot(snap game.Snapshot) {
	s.statusMu.Lock()
	s.status = snap
	s.statusMu.Unlock()

	msg, err := protocol.NewStatusMessage(snap)
	s.publish(s.statusHub, "status", msg, err)
}

// publish broadcasts msg unless building it failed
func (s *Server) publish(h *hub.Hub, kind string, msg *protocol.Message, err error) {
	if err == nil {
		err = h.BroadcastProtocol(msg)
	}
	if err != nil {
		log.Debug("dashboard broadcast failed", "kind", kind, "error", err)
	}
}

// Poll drains queued commands without blocking
func (s *Server) Poll() []game.Command {
	var cmds []game.Command
	for {
		select {
		case cmd := <-s.commands:
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}

// Enqueue queues a command for the engine. It reports false when the queue is full.
func (s *Server) Enqueue(cmd game.Command) bool {
	select {
	case s.commands <- cmd:
		log.Debug("dashboard command queued", "command", cmd)
		return true
	default:
		log.Warn("dashboard command dropped, queue full", "command", cmd)
		return false
	}
}

// Status returns the latest snapshot
func (s *Server) Status() game.Snapshot {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// RecentEvents returns up to limit of the newest events, oldest first
func (s *Server) RecentEvents(limit int) []game.Event {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()

	start := 0
	if limit > 0 && limit < len(s.events) {
		start = len(s.events) - limit
	}
	out := make([]game.Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

func (s *Server) statusGreeting() ([]byte, bool) {
	msg, err := protocol.NewStatusMessage(s.Status())
	if err != nil {
		return nil, false
	}
	data, err := msg.Bytes()
	return data, err == nil
}

// receiveCommand accepts command envelopes from websocket clients
func (s *Server) receiveCommand(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil || msg.Type != protocol.TypeCommand {
		return
	}
	cmd, err := msg.GetCommand()
	if err != nil {
		log.Debug("websocket command rejected", "error", err)
		return
	}
	s.Enqueue(cmd)
}
