// Package pstn defines the JSON envelope spoken by the PSTN media-stream
// peer: Twilio-style <Connect><Stream> text frames over one WebSocket.
package pstn

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	EventStart = "start"
	EventMedia = "media"
	EventStop  = "stop"
)

// Message is one inbound text frame from the media-stream peer. Only the
// block matching Event is populated.
type Message struct {
	Event string `json:"event"`
	Start *Start `json:"start,omitempty"`
	Media *Media `json:"media,omitempty"`
	Stop  *Stop  `json:"stop,omitempty"`
}

// Start announces a new media stream and carries the call-specific
// parameters the dialing side attached to it.
type Start struct {
	StreamSID        string            `json:"streamSid"`
	AccountSID       string            `json:"accountSid,omitempty"`
	CallSID          string            `json:"callSid,omitempty"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

// Media carries one base64 μ-law audio chunk.
type Media struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

type Stop struct {
	AccountSID string `json:"accountSid,omitempty"`
	CallSID    string `json:"callSid,omitempty"`
}

// Decode parses one inbound frame. Frames with an event kind this package
// does not know are not an error; the caller decides whether to ignore
// them. Known events missing their required block are malformed.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode media-stream frame: %w", err)
	}
	if strings.TrimSpace(msg.Event) == "" {
		return Message{}, fmt.Errorf("media-stream frame has no event")
	}
	switch msg.Event {
	case EventStart:
		if msg.Start == nil || strings.TrimSpace(msg.Start.StreamSID) == "" {
			return Message{}, fmt.Errorf("start frame is missing streamSid")
		}
	case EventMedia:
		if msg.Media == nil {
			return Message{}, fmt.Errorf("media frame is missing media block")
		}
	}
	return msg, nil
}

// MediaFrame is the outbound audio frame addressed back to the stream leg.
type MediaFrame struct {
	Event     string       `json:"event"`
	StreamSID string       `json:"streamSid"`
	Media     MediaPayload `json:"media"`
}

type MediaPayload struct {
	Payload string `json:"payload"`
}

// EncodeMediaFrame renders an outbound media frame carrying base64 μ-law
// audio for the given stream.
func EncodeMediaFrame(streamSID, payload string) ([]byte, error) {
	if strings.TrimSpace(streamSID) == "" {
		return nil, fmt.Errorf("streamSid is required")
	}
	return json.Marshal(MediaFrame{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media:     MediaPayload{Payload: payload},
	})
}
