package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ariahq/callbridge/pkg/bridge/mw"
	"github.com/ariahq/callbridge/pkg/bridge/session"
	"github.com/ariahq/callbridge/pkg/bridge/sessions"
)

// StreamHandler accepts the telephony media-stream WebSocket and runs one
// bridge session per connection.
type StreamHandler struct {
	Agent         session.AgentDialer
	Dispatcher    session.ToolDispatcher
	Sessions      *sessions.Tracker
	SessionConfig session.Config
	Logger        *slog.Logger

	// Draining reports whether the server is shutting down; new streams
	// are refused while it returns true.
	Draining func() bool
}

func (h StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Draining != nil && h.Draining() {
		http.Error(w, "draining", http.StatusServiceUnavailable)
		return
	}

	// Telephony providers do not send a browser Origin on media streams.
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.Logger != nil {
			reqID, _ := mw.RequestIDFrom(r.Context())
			h.Logger.Warn("websocket upgrade failed", "request_id", reqID, "error", err)
		}
		return
	}

	sess := session.New(conn, h.Agent, h.Dispatcher, h.SessionConfig, h.Logger)
	unregister := h.Sessions.Register(sess.ID(), sessions.Handle{Stop: sess.Stop})
	defer unregister()

	sess.Run(r.Context())
}
