package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestClientSignedURL_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("xi-api-key"); got != "key" {
			t.Errorf("xi-api-key = %q", got)
		}
		if got := r.URL.Query().Get("agent_id"); got != "agent_1" {
			t.Errorf("agent_id = %q", got)
		}
		if !strings.HasPrefix(r.URL.Path, "/v1/convai/conversation/get-signed-url") {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signed_url":"wss://example.com/conversation?token=abc"}`))
	}))
	defer ts.Close()

	c := NewClient("key", "agent_1", ts.URL, ts.Client())
	got, err := c.SignedURL(context.Background())
	if err != nil {
		t.Fatalf("SignedURL() error: %v", err)
	}
	if got != "wss://example.com/conversation?token=abc" {
		t.Errorf("signed url = %q", got)
	}
}

func TestClientSignedURL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"detail":"bad key"}`, wantErr: "status 401"},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: "status 500"},
		{name: "empty url", status: http.StatusOK, body: `{"signed_url":""}`, wantErr: "missing signed_url"},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: "decode signed-url response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c := NewClient("key", "agent_1", ts.URL, ts.Client())
			_, err := c.SignedURL(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestClientSignedURL_RequiresCredentials(t *testing.T) {
	c := NewClient("", "agent_1", "", nil)
	if _, err := c.SignedURL(context.Background()); err == nil {
		t.Fatal("expected error without api key")
	}
	c = NewClient("key", "", "", nil)
	if _, err := c.SignedURL(context.Background()); err == nil {
		t.Fatal("expected error without agent id")
	}
}

func TestClientDial_RewritesHTTPScheme(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Echo one frame so the dialer can verify the socket works.
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.WriteMessage(msgType, data)
	}))
	defer ts.Close()

	c := NewClient("key", "agent_1", "", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := c.Dial(ctx, ts.URL)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("echo = %q", data)
	}
}

func TestClientDial_InvalidURL(t *testing.T) {
	c := NewClient("key", "agent_1", "", nil)
	if _, err := c.Dial(context.Background(), "://not-a-url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}
