// Package server wires the bridge's HTTP surface together: routes,
// middleware, and the shared session tracker.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ariahq/callbridge/pkg/bridge/agent"
	"github.com/ariahq/callbridge/pkg/bridge/config"
	"github.com/ariahq/callbridge/pkg/bridge/handlers"
	"github.com/ariahq/callbridge/pkg/bridge/mw"
	"github.com/ariahq/callbridge/pkg/bridge/session"
	"github.com/ariahq/callbridge/pkg/bridge/sessions"
	"github.com/ariahq/callbridge/pkg/bridge/tools"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	agent    *agent.Client
	tracker  *sessions.Tracker
	draining atomic.Bool
}

func New(cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		mux:     http.NewServeMux(),
		agent:   agent.NewClient(cfg.AgentAPIKey, cfg.AgentID, cfg.AgentBaseURL, httpClient),
		tracker: sessions.NewTracker(),
	}

	s.routes(httpClient)
	return s
}

func (s *Server) routes(httpClient *http.Client) {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg, Sessions: s.tracker})

	dispatcher := &tools.Dispatcher{
		Charge:      tools.NewActionClient(s.cfg.ChargeURL, s.cfg.ServiceKey, httpClient),
		PaymentLink: tools.NewActionClient(s.cfg.PaymentLinkURL, s.cfg.ServiceKey, httpClient),
		Timeout:     s.cfg.ToolTimeout,
		Logger:      s.logger,
	}

	s.mux.Handle("/stream", handlers.StreamHandler{
		Agent:      s.agent,
		Dispatcher: dispatcher,
		Sessions:   s.tracker,
		SessionConfig: session.Config{
			SignedURLTimeout: s.cfg.SignedURLTimeout,
			WriteTimeout:     s.cfg.WSWriteTimeout,
			PingInterval:     s.cfg.WSPingInterval,
		},
		Logger:   s.logger,
		Draining: s.draining.Load,
	})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// SetDraining makes the stream endpoint refuse new calls. Existing
// sessions keep running until StopSessions.
func (s *Server) SetDraining() {
	s.draining.Store(true)
}

func (s *Server) StopSessions(reason string) int {
	return s.tracker.StopAll(reason)
}

func (s *Server) WaitSessions(ctx context.Context) bool {
	return s.tracker.Wait(ctx)
}

func (s *Server) SessionCount() int {
	return s.tracker.Count()
}
