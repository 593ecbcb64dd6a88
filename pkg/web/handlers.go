package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/hub"
	"github.com/teslashibe/go-arcade/pkg/profile"
	"github.com/teslashibe/go-arcade/pkg/store"
)

// handleStatus returns the latest engine snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

// handleEvents returns recent events; ?limit= caps the count
func (s *Server) handleEvents(c *fiber.Ctx) error {
	return c.JSON(s.RecentEvents(c.QueryInt("limit", 0)))
}

// handleHistory lists finished sessions; ?variant= filters, ?limit= caps,
// ?order=top ranks one variant by score instead of recency
func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.opts.History == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "history not configured",
		})
	}

	ctx := c.UserContext()
	variant := c.Query("variant")
	limit := c.QueryInt("limit", 20)

	var (
		sessions []game.Summary
		err      error
	)
	switch order := c.Query("order", "recent"); order {
	case "recent":
		sessions, err = s.opts.History.Recent(ctx, variant, limit)
	case "top":
		if variant == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "order=top requires variant",
			})
		}
		sessions, err = s.opts.History.Top(ctx, variant, limit)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown order: " + order,
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	total, err := s.opts.History.Count(ctx, variant)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if sessions == nil {
		sessions = []game.Summary{}
	}
	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
		"total":    total,
	})
}

// handleSession returns one finished session
func (s *Server) handleSession(c *fiber.Ctx) error {
	if s.opts.History == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "history not configured",
		})
	}

	sum, err := s.opts.History.Get(c.UserContext(), c.Params("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "session not found",
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(sum)
}

// handleScores returns best scores per variant
func (s *Server) handleScores(c *fiber.Ctx) error {
	scores := map[string]int{}
	if s.opts.Scores != nil {
		scores = s.opts.Scores.BestScores()
	}
	return c.JSON(scores)
}

// handleRecords returns the full player record of every variant played
func (s *Server) handleRecords(c *fiber.Ctx) error {
	records := []profile.Record{}
	if s.opts.Scores != nil {
		records = s.opts.Scores.Records()
	}
	return c.JSON(fiber.Map{
		"records": records,
		"count":   len(records),
	})
}

// CommandRequest is the request body for POST /api/command
type CommandRequest struct {
	Name string `json:"name"`
}

// handleCommand queues a command for the engine
func (s *Server) handleCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body",
		})
	}

	cmd, ok := game.ParseCommand(req.Name)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown command: " + req.Name,
		})
	}

	if !s.Enqueue(cmd) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "command queue full",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"command": cmd,
	})
}

// handleHealth reports websocket client counts
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok":             true,
		"event_clients":  s.eventHub.ClientCount(),
		"status_clients": s.statusHub.ClientCount(),
	})
}

// handleEventsWS streams events
func (s *Server) handleEventsWS(c *websocket.Conn) {
	serveClient(s.eventHub, c)
}

// handleStatusWS streams snapshots, starting with the current one
func (s *Server) handleStatusWS(c *websocket.Conn) {
	serveClient(s.statusHub, c)
}

func serveClient(h *hub.Hub, c *websocket.Conn) {
	client, err := hub.NewClient(h, c)
	if err != nil {
		return
	}
	client.Run()
}
