package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/landmark"
	"github.com/teslashibe/go-arcade/pkg/protocol"
)

// JPEGFrame is a frame that can encode itself for a sidecar.
type JPEGFrame interface {
	landmark.Frame
	JPEG() ([]byte, error)
}

// ClientConfig configures a sidecar connection.
type ClientConfig struct {
	URL              string        `yaml:"url"`               // ws://host:port/path
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"` // Dial timeout
	WriteTimeout     time.Duration `yaml:"write_timeout"`     // Per-frame write deadline
	MaxAge           time.Duration `yaml:"max_age"`           // How long answers stay valid
}

// DefaultClientConfig returns defaults for a local sidecar.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:              "ws://localhost:8765/landmarks",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     time.Second,
		MaxAge:           DefaultMaxAge,
	}
}

// Client sends frames to a sidecar and collects its landmark answers.
// It implements landmark.Tracker; answers arrive asynchronously, so a frame's
// landmarks are typically used one frame late.
type Client struct {
	cfg  ClientConfig
	feed *Feed

	ws      *websocket.Conn
	wsMutex sync.Mutex

	frameID atomic.Uint64
	done    chan struct{}
	closing atomic.Bool
	readErr atomic.Value // error
}

// Dial connects to a sidecar.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("sidecar url is required")
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = time.Second
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("sidecar connect failed: %w", err)
	}

	c := &Client{
		cfg:  cfg,
		feed: NewFeed(cfg.MaxAge, nil),
		ws:   ws,
		done: make(chan struct{}),
	}
	go c.readLoop()

	log.Info("landmark sidecar connected", "url", cfg.URL)
	return c, nil
}

// Feed returns the feed answers are written to.
func (c *Client) Feed() *Feed {
	return c.feed
}

// Track sends the frame (when it can be encoded) and returns the newest landmarks.
func (c *Client) Track(frame landmark.Frame) ([]landmark.PointSet, error) {
	select {
	case <-c.done:
		if err, ok := c.readErr.Load().(error); ok {
			return nil, fmt.Errorf("sidecar disconnected: %w", err)
		}
		return nil, ErrClosed
	default:
	}

	if jf, ok := frame.(JPEGFrame); ok {
		if err := c.sendFrame(jf); err != nil {
			return nil, err
		}
	}
	return c.feed.Track(frame)
}

func (c *Client) sendFrame(frame JPEGFrame) error {
	data, err := frame.JPEG()
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	w, h := frame.Size()
	msg, err := protocol.NewFrameMessage(w, h, data, c.frameID.Add(1))
	if err != nil {
		return err
	}
	return c.send(msg)
}

func (c *Client) send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.wsMutex.Lock()
	defer c.wsMutex.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send to sidecar: %w", err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !c.closing.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.readErr.Store(err)
				log.Warn("landmark sidecar read failed", "error", err)
			}
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Debug("sidecar sent unparseable message", "error", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeLandmarks:
			lm, err := msg.GetLandmarksData()
			if err != nil {
				log.Debug("bad landmarks message", "error", err)
				continue
			}
			if err := c.feed.Push(lm.Sets); err != nil {
				return
			}

		case protocol.TypePing:
			pong, err := protocol.NewPongMessage("", msg.Timestamp, time.Now().UnixMilli())
			if err == nil {
				c.send(pong)
			}
		}
	}
}

// Close closes the connection and the feed.
func (c *Client) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}
	c.feed.Close()

	c.wsMutex.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.wsMutex.Unlock()

	err := c.ws.Close()
	<-c.done
	return err
}
