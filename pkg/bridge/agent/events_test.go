package agent

import (
	"encoding/json"
	"testing"
)

func TestDecodeEvent_AudioExtractionPaths(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "audio_event snake case",
			in:   `{"type":"audio","audio_event":{"audio_base_64":"QUJD"}}`,
			want: "QUJD",
		},
		{
			name: "audio_event camel case",
			in:   `{"type":"audio","audio_event":{"audioBase64":"REVG"}}`,
			want: "REVG",
		},
		{
			name: "nested audio object",
			in:   `{"type":"audio_output","audio":{"base64":"R0hJ"}}`,
			want: "R0hJ",
		},
		{
			name: "audio chunk field",
			in:   `{"type":"audio","audio":{"chunk":"SktM"}}`,
			want: "SktM",
		},
		{
			name: "top-level snake case",
			in:   `{"type":"audio","audio_base_64":"TU5P"}`,
			want: "TU5P",
		},
		{
			name: "top-level audio_chunk",
			in:   `{"audio_chunk":"UFFS"}`,
			want: "UFFS",
		},
		{
			name: "priority prefers audio_event over top-level",
			in:   `{"audio_base_64":"bG93","audio_event":{"audio_base_64":"aGlnaA=="}}`,
			want: "aGlnaA==",
		},
		{
			name: "non-audio frame",
			in:   `{"type":"ping","ping_event":{"event_id":1}}`,
			want: "",
		},
		{
			name: "non-string audio value ignored",
			in:   `{"type":"audio","audio_event":{"audio_base_64":42}}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tt.in))
			if err != nil {
				t.Fatalf("DecodeEvent() error: %v", err)
			}
			if ev.AudioB64 != tt.want {
				t.Errorf("AudioB64 = %q, want %q", ev.AudioB64, tt.want)
			}
		})
	}
}

func TestDecodeEvent_InitMetadataOutputFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "event block field",
			in:   `{"type":"conversation_initiation_metadata","conversation_initiation_metadata_event":{"agent_output_audio_format":"ulaw_8000"}}`,
			want: "ulaw_8000",
		},
		{
			name: "nested audio block",
			in:   `{"type":"conversation_initiation_metadata","conversation_initiation_metadata_event":{"audio":{"output_format":"pcm_16000"}}}`,
			want: "pcm_16000",
		},
		{
			name: "top-level field",
			in:   `{"type":"conversation_initiation_metadata","agent_output_audio_format":"ulaw_8000"}`,
			want: "ulaw_8000",
		},
		{
			name: "absent",
			in:   `{"type":"conversation_initiation_metadata"}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tt.in))
			if err != nil {
				t.Fatalf("DecodeEvent() error: %v", err)
			}
			if ev.Type != EventInitMetadata {
				t.Fatalf("type = %q", ev.Type)
			}
			if ev.OutputFormat != tt.want {
				t.Errorf("OutputFormat = %q, want %q", ev.OutputFormat, tt.want)
			}
		})
	}
}

func TestDecodeEvent_ToolCall(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"client_tool_call","client_tool_call":{"tool_name":"process_payment","tool_call_id":"tc_1","parameters":{"card_number":"4242424242424242","amount_cents":12000}}}`))
	if err != nil {
		t.Fatalf("DecodeEvent() error: %v", err)
	}
	if ev.ToolCall == nil {
		t.Fatal("ToolCall is nil")
	}
	if ev.ToolCall.Name != "process_payment" {
		t.Errorf("tool name = %q", ev.ToolCall.Name)
	}
	if ev.ToolCall.ID != "tc_1" {
		t.Errorf("tool call id = %q", ev.ToolCall.ID)
	}
	if got := ev.ToolCall.Parameters["card_number"]; got != "4242424242424242" {
		t.Errorf("card_number = %v", got)
	}
}

func TestDecodeEvent_AgentResponse(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"agent_response","agent_response_event":{"agent_response":"Hello there"}}`))
	if err != nil {
		t.Fatalf("DecodeEvent() error: %v", err)
	}
	if ev.AgentResponse != "Hello there" {
		t.Errorf("AgentResponse = %q", ev.AgentResponse)
	}
}

func TestDecodeEvent_MalformedJSON(t *testing.T) {
	if _, err := DecodeEvent([]byte(`{"type":`)); err == nil {
		t.Fatal("expected error for malformed frame")
	}
}

func TestUserAudioMessage(t *testing.T) {
	data, err := UserAudioMessage("QUJD")
	if err != nil {
		t.Fatalf("UserAudioMessage() error: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["user_audio_chunk"] != "QUJD" {
		t.Errorf("user_audio_chunk = %q", decoded["user_audio_chunk"])
	}
}

func TestEncodeToolResult(t *testing.T) {
	data, err := EncodeToolResult("tc_9", "Payment failed: card declined", true)
	if err != nil {
		t.Fatalf("EncodeToolResult() error: %v", err)
	}
	var decoded ToolResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "client_tool_result" {
		t.Errorf("type = %q", decoded.Type)
	}
	if decoded.ToolCallID != "tc_9" {
		t.Errorf("tool_call_id = %q", decoded.ToolCallID)
	}
	if !decoded.IsError {
		t.Error("is_error = false, want true")
	}

	if _, err := EncodeToolResult("", "x", false); err == nil {
		t.Fatal("expected error for empty tool_call_id")
	}
}
