// Package handlers holds the HTTP surface: health probes and the
// media-stream WebSocket endpoint.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ariahq/callbridge/pkg/bridge/config"
	"github.com/ariahq/callbridge/pkg/bridge/sessions"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config   config.Config
	Sessions *sessions.Tracker
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK             bool     `json:"ok"`
		ActiveSessions int      `json:"active_sessions"`
		ChargeAction   bool     `json:"charge_action"`
		PaymentLink    bool     `json:"payment_link_action"`
		Issues         []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	if h.Config.AgentAPIKey == "" {
		issues = append(issues, "agent api key is not configured")
	}
	if h.Config.AgentID == "" {
		issues = append(issues, "agent id is not configured")
	}
	if h.Config.SignedURLTimeout <= 0 || h.Config.ToolTimeout <= 0 || h.Config.WSWriteTimeout <= 0 {
		issues = append(issues, "timeouts must be > 0")
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:             ok,
		ActiveSessions: h.Sessions.Count(),
		ChargeAction:   h.Config.ChargeURL != "",
		PaymentLink:    h.Config.PaymentLinkURL != "",
		Issues:         issues,
	})
}
