package pstn

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantEvent string
		wantErr   string
	}{
		{
			name:      "start frame",
			in:        `{"event":"start","start":{"streamSid":"MZ123","customParameters":{"clientName":"Acme"}}}`,
			wantEvent: EventStart,
		},
		{
			name:      "media frame",
			in:        `{"event":"media","media":{"payload":"//8A"}}`,
			wantEvent: EventMedia,
		},
		{
			name:      "stop frame",
			in:        `{"event":"stop","stop":{"callSid":"CA1"}}`,
			wantEvent: EventStop,
		},
		{
			name:      "unknown event passes through",
			in:        `{"event":"mark","mark":{"name":"beep"}}`,
			wantEvent: "mark",
		},
		{
			name:    "invalid json",
			in:      `{"event":`,
			wantErr: "decode media-stream frame",
		},
		{
			name:    "missing event",
			in:      `{"media":{"payload":"AA=="}}`,
			wantErr: "no event",
		},
		{
			name:    "start without streamSid",
			in:      `{"event":"start","start":{"customParameters":{}}}`,
			wantErr: "missing streamSid",
		},
		{
			name:    "media without media block",
			in:      `{"event":"media"}`,
			wantErr: "missing media block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.in))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if msg.Event != tt.wantEvent {
				t.Errorf("event = %q, want %q", msg.Event, tt.wantEvent)
			}
		})
	}
}

func TestDecode_StartCarriesCustomParameters(t *testing.T) {
	msg, err := Decode([]byte(`{"event":"start","start":{"streamSid":"MZ9","customParameters":{"invoiceNumber":"INV-42","amount":"€120.00"}}}`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got := msg.Start.CustomParameters["invoiceNumber"]; got != "INV-42" {
		t.Errorf("invoiceNumber = %q, want INV-42", got)
	}
	if got := msg.Start.CustomParameters["amount"]; got != "€120.00" {
		t.Errorf("amount = %q", got)
	}
}

func TestEncodeMediaFrame(t *testing.T) {
	data, err := EncodeMediaFrame("MZ123", "base64audio")
	if err != nil {
		t.Fatalf("EncodeMediaFrame() error: %v", err)
	}

	var decoded struct {
		Event     string `json:"event"`
		StreamSID string `json:"streamSid"`
		Media     struct {
			Payload string `json:"payload"`
		} `json:"media"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Event != EventMedia {
		t.Errorf("event = %q, want media", decoded.Event)
	}
	if decoded.StreamSID != "MZ123" {
		t.Errorf("streamSid = %q", decoded.StreamSID)
	}
	if decoded.Media.Payload != "base64audio" {
		t.Errorf("payload = %q", decoded.Media.Payload)
	}
}

func TestEncodeMediaFrame_RequiresStreamSID(t *testing.T) {
	if _, err := EncodeMediaFrame("  ", "AA=="); err == nil {
		t.Fatal("expected error for blank streamSid")
	}
}
