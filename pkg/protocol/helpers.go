package protocol

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewLandmarksMessage creates a landmarks message
func NewLandmarksMessage(frameID uint64, source string, sets []landmark.PointSet) (*Message, error) {
	return NewMessage(TypeLandmarks, LandmarksData{
		FrameID: frameID,
		Source:  source,
		Sets:    sets,
	})
}

// NewEventMessage wraps a gameplay event
func NewEventMessage(ev game.Event) (*Message, error) {
	return NewMessage(TypeEvent, ev)
}

// NewStatusMessage wraps an engine snapshot
func NewStatusMessage(snap game.Snapshot) (*Message, error) {
	return NewMessage(TypeStatus, snap)
}

// NewCommandMessage creates a command message
func NewCommandMessage(cmd game.Command) (*Message, error) {
	return NewMessage(TypeCommand, CommandData{Name: string(cmd)})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	now := time.Now()
	return NewMessageAt(TypePing, PingData{ID: id, Timestamp: now.UnixMilli()}, now)
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// decode parses the message data as T after checking the message type
func decode[T any](m *Message, want MessageType) (*T, error) {
	if m.Type != want {
		return nil, fmt.Errorf("protocol: got %q message, want %q", m.Type, want)
	}
	var data T
	if err := m.ParseData(&data); err != nil {
		return nil, fmt.Errorf("decode %s data: %w", want, err)
	}
	return &data, nil
}

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	return decode[FrameData](m, TypeFrame)
}

// DecodeFrameData decodes the base64 image data
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// GetLandmarksData extracts landmarks from a message. Points outside [0,1]
// are dropped and points missing an ID take their map key.
func (m *Message) GetLandmarksData() (*LandmarksData, error) {
	data, err := decode[LandmarksData](m, TypeLandmarks)
	if err != nil {
		return nil, err
	}
	for i := range data.Sets {
		set := &data.Sets[i]
		for id, p := range set.Points {
			if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
				delete(set.Points, id)
				continue
			}
			if p.ID == "" {
				p.ID = id
				set.Points[id] = p
			}
		}
	}
	return data, nil
}

// GetEventData extracts a gameplay event
func (m *Message) GetEventData() (*EventData, error) {
	return decode[EventData](m, TypeEvent)
}

// GetStatusData extracts a snapshot
func (m *Message) GetStatusData() (*StatusData, error) {
	return decode[StatusData](m, TypeStatus)
}

// GetCommand extracts and validates a command
func (m *Message) GetCommand() (game.Command, error) {
	data, err := decode[CommandData](m, TypeCommand)
	if err != nil {
		return "", err
	}
	cmd, ok := game.ParseCommand(data.Name)
	if !ok {
		return "", fmt.Errorf("unknown command %q", data.Name)
	}
	return cmd, nil
}

// GetPingData extracts ping data
func (m *Message) GetPingData() (*PingData, error) {
	return decode[PingData](m, TypePing)
}

// GetPongData extracts pong data
func (m *Message) GetPongData() (*PongData, error) {
	return decode[PongData](m, TypePong)
}
