// Package agent implements the conversational voice-AI side of the bridge:
// signed-URL acquisition, the agent WebSocket, and the event protocol
// spoken over it.
package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	EventInitMetadata  = "conversation_initiation_metadata"
	EventAgentResponse = "agent_response"
	EventToolCall      = "client_tool_call"

	// OutputFormatMuLaw8k is the advertised output format that makes the
	// outbound conversion pipeline unnecessary.
	OutputFormatMuLaw8k = "ulaw_8000"
)

// ToolCall is a structured request from the agent to perform a named
// side-effecting action and return a textual result.
type ToolCall struct {
	Name       string         `json:"tool_name"`
	ID         string         `json:"tool_call_id"`
	Parameters map[string]any `json:"parameters"`
}

// Event is one decoded inbound frame from the agent socket. AudioB64 is
// set whenever the frame carries audio, regardless of Type; the remaining
// fields are populated only for their matching event type.
type Event struct {
	Type          string
	AudioB64      string
	OutputFormat  string
	AgentResponse string
	ToolCall      *ToolCall
}

// audioPaths lists every known home for inbound agent audio, probed in
// priority order; the first string match wins.
var audioPaths = [][]string{
	{"audio_event", "audio_base_64"},
	{"audio_event", "audioBase64"},
	{"audio", "audio_base_64"},
	{"audio", "audioBase64"},
	{"audio", "base64"},
	{"audio", "chunk"},
	{"audio_base_64"},
	{"audioBase64"},
	{"audio_chunk"},
}

// outputFormatPaths lists the known homes for the declared output audio
// format inside conversation_initiation_metadata.
var outputFormatPaths = [][]string{
	{"conversation_initiation_metadata_event", "agent_output_audio_format"},
	{"conversation_initiation_metadata_event", "audio", "output_format"},
	{"agent_output_audio_format"},
}

// DecodeEvent parses one inbound agent frame. Frames with an unknown type
// still decode (the caller ignores them); only malformed JSON errors.
func DecodeEvent(data []byte) (Event, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("decode agent frame: %w", err)
	}

	ev := Event{Type: stringField(raw, "type")}
	ev.AudioB64 = probeString(raw, audioPaths)

	switch ev.Type {
	case EventInitMetadata:
		ev.OutputFormat = probeString(raw, outputFormatPaths)
	case EventAgentResponse:
		ev.AgentResponse = nestedString(raw, []string{"agent_response_event", "agent_response"})
	case EventToolCall:
		var payload struct {
			ToolCall *ToolCall `json:"client_tool_call"`
		}
		if err := json.Unmarshal(data, &payload); err == nil && payload.ToolCall != nil {
			ev.ToolCall = payload.ToolCall
		}
	}
	return ev, nil
}

// UserAudioMessage wraps a base64 audio chunk in the agent's audio-input
// envelope.
func UserAudioMessage(audioB64 string) ([]byte, error) {
	return json.Marshal(map[string]string{"user_audio_chunk": audioB64})
}

// ToolResult is the mandatory reply to a client_tool_call.
type ToolResult struct {
	Type       string `json:"type"`
	ToolCallID string `json:"tool_call_id"`
	Result     string `json:"result"`
	IsError    bool   `json:"is_error"`
}

// EncodeToolResult renders the one result frame owed for a tool call.
func EncodeToolResult(toolCallID, result string, isError bool) ([]byte, error) {
	if strings.TrimSpace(toolCallID) == "" {
		return nil, fmt.Errorf("tool_call_id is required")
	}
	return json.Marshal(ToolResult{
		Type:       "client_tool_result",
		ToolCallID: toolCallID,
		Result:     result,
		IsError:    isError,
	})
}

func probeString(raw map[string]any, paths [][]string) string {
	for _, path := range paths {
		if value := nestedString(raw, path); value != "" {
			return value
		}
	}
	return ""
}

func nestedString(src any, path []string) string {
	current := src
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = obj[key]
		if !ok {
			return ""
		}
	}
	value, _ := current.(string)
	return value
}

func stringField(raw map[string]any, key string) string {
	value, _ := raw[key].(string)
	return value
}
