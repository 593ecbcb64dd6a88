package remote

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/protocol"
)

// SidecarConnection is a tracker sidecar pushing landmarks to the Hub.
type SidecarConnection struct {
	ID        string
	Source    string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send sends a message to the sidecar
func (s *SidecarConnection) Send(msg *protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return s.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub accepts sidecar connections and writes their landmarks into a Feed.
type Hub struct {
	feed *Feed

	mu       sync.RWMutex
	sidecars map[string]*SidecarConnection

	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	landmarksPushed  atomic.Uint64
}

// NewHub creates a hub writing into feed
func NewHub(feed *Feed) *Hub {
	return &Hub{
		feed:     feed,
		sidecars: make(map[string]*SidecarConnection),
	}
}

// Feed returns the feed the hub writes to.
func (h *Hub) Feed() *Feed {
	return h.feed
}

// RegisterRoutes registers the sidecar websocket endpoints
func (h *Hub) RegisterRoutes(router fiber.Router) {
	router.Use("/ws/landmarks", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws/landmarks", websocket.New(h.handleSidecar))
	router.Get("/ws/landmarks/:id", websocket.New(h.handleSidecar))
}

func (h *Hub) handleSidecar(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = uuid.NewString()
	}

	sc := &SidecarConnection{
		ID:        id,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	h.mu.Lock()
	h.sidecars[id] = sc
	count := len(h.sidecars)
	h.mu.Unlock()
	log.Info("landmark sidecar attached", "id", id, "total", count)

	defer func() {
		h.mu.Lock()
		delete(h.sidecars, id)
		count := len(h.sidecars)
		h.mu.Unlock()
		log.Info("landmark sidecar detached", "id", id, "total", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			log.Debug("sidecar read ended", "id", id, "error", err)
			return
		}

		sc.mu.Lock()
		sc.LastSeen = time.Now()
		sc.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(sc, data)
	}
}

func (h *Hub) handleMessage(sc *SidecarConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		log.Debug("sidecar parse error", "id", sc.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeLandmarks:
		lm, err := msg.GetLandmarksData()
		if err != nil {
			log.Debug("bad landmarks message", "id", sc.ID, "error", err)
			return
		}
		if lm.Source != "" {
			sc.mu.Lock()
			sc.Source = lm.Source
			sc.mu.Unlock()
		}
		if err := h.feed.Push(lm.Sets); err == nil {
			h.landmarksPushed.Add(1)
		}

	case protocol.TypePing:
		pong, err := protocol.NewPongMessage("", msg.Timestamp, time.Now().UnixMilli())
		if err != nil {
			return
		}
		h.messagesSent.Add(1)
		sc.Send(pong)
	}
}

// SidecarCount returns the number of attached sidecars
func (h *Hub) SidecarCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sidecars)
}

// HubStats contains hub statistics
type HubStats struct {
	Sidecars         int       `json:"sidecars"`
	MessagesReceived uint64    `json:"messages_received"`
	MessagesSent     uint64    `json:"messages_sent"`
	LandmarksPushed  uint64    `json:"landmarks_pushed"`
	Feed             FeedStats `json:"feed"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() HubStats {
	return HubStats{
		Sidecars:         h.SidecarCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		LandmarksPushed:  h.landmarksPushed.Load(),
		Feed:             h.feed.Stats(),
	}
}

// SidecarInfo describes an attached sidecar
type SidecarInfo struct {
	ID        string    `json:"id"`
	Source    string    `json:"source,omitempty"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// Sidecars returns info about all attached sidecars
func (h *Hub) Sidecars() []SidecarInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]SidecarInfo, 0, len(h.sidecars))
	for _, sc := range h.sidecars {
		sc.mu.Lock()
		infos = append(infos, SidecarInfo{
			ID:        sc.ID,
			Source:    sc.Source,
			Connected: sc.Connected,
			LastSeen:  sc.LastSeen,
		})
		sc.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers sidecar inspection routes
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	sidecars := api.Group("/sidecars")

	sidecars.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"sidecars": h.Sidecars(),
			"count":    h.SidecarCount(),
		})
	})

	sidecars.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}
