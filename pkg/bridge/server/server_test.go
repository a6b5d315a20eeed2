package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ariahq/callbridge/pkg/bridge/config"
)

func testConfig() config.Config {
	return config.Config{
		AgentAPIKey:      "xi_test",
		AgentID:          "agent_test",
		AgentBaseURL:     "https://agent.example",
		SignedURLTimeout: time.Second,
		ToolTimeout:      time.Second,
		WSWriteTimeout:   time.Second,
	}
}

func testServer() *Server {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return New(testConfig(), logger)
}

func TestServer_HealthRoute(t *testing.T) {
	s := testServer()

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-Request-ID"); got == "" {
		t.Fatal("expected X-Request-ID header from middleware chain")
	}
}

func TestServer_ReadyRoute(t *testing.T) {
	s := testServer()

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
}

func TestServer_StreamRoute_Reachable(t *testing.T) {
	s := testServer()

	// A plain GET without upgrade headers fails the WebSocket handshake
	// but must hit the handler rather than 404.
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stream", nil))

	if rr.Code == http.StatusNotFound {
		t.Fatal("/stream unexpectedly returned 404")
	}
}

func TestServer_StreamRoute_RefusedWhileDraining(t *testing.T) {
	s := testServer()
	s.SetDraining()

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stream", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503 while draining", rr.Code)
	}
}

func TestServer_UnknownRoute_404(t *testing.T) {
	s := testServer()

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}
