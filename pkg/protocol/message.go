// Package protocol defines the WebSocket message envelope shared by the engine,
// landmark sidecars and dashboard clients.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Engine → Sidecar messages
	TypeFrame MessageType = "frame" // Video frame to track

	// Sidecar → Engine messages
	TypeLandmarks MessageType = "landmarks" // Tracked point sets for a frame

	// Engine → Dashboard messages
	TypeEvent  MessageType = "event"  // Gameplay event
	TypeStatus MessageType = "status" // Periodic snapshot

	// Dashboard → Engine messages
	TypeCommand MessageType = "command" // Start, quit, restart, skip

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// ErrNoType is returned for envelopes without a type.
var ErrNoType = errors.New("protocol: message has no type")

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message stamped with the current time
func NewMessage(msgType MessageType, data any) (*Message, error) {
	return NewMessageAt(msgType, data, time.Now())
}

// NewMessageAt creates a message stamped with ts. A nil data leaves Data empty.
func NewMessageAt(msgType MessageType, data any, ts time.Time) (*Message, error) {
	msg := &Message{Type: msgType, Timestamp: ts.UnixMilli()}
	if data == nil {
		return msg, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s data: %w", msgType, err)
	}
	msg.Data = raw
	return msg, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, ErrNoType
	}
	return &msg, nil
}

// =============================================================================
// Engine ↔ Sidecar Message Types
// =============================================================================

// FrameData contains a video frame for a remote tracker
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// LandmarksData contains the tracker output for one frame.
// Coordinates are normalized to [0,1] of the frame the sidecar saw.
type LandmarksData struct {
	FrameID uint64              `json:"frame_id,omitempty"` // Echo of FrameData.FrameID, 0 in push mode
	Source  string              `json:"source,omitempty"`   // "mediapipe-hands", "mediapipe-pose", ...
	Sets    []landmark.PointSet `json:"sets"`
}

// =============================================================================
// Engine ↔ Dashboard Message Types
// =============================================================================

// CommandData carries a player or operator command
type CommandData struct {
	Name string `json:"name"` // "start", "quit", "restart", "skip"
}

// EventData is a gameplay event
type EventData = game.Event

// StatusData is a periodic engine snapshot
type StatusData = game.Snapshot

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
