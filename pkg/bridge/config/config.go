// Package config loads the bridge's runtime configuration from the
// environment and validates it before anything starts listening.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Agent provider credentials.
	AgentAPIKey  string
	AgentID      string
	AgentBaseURL string

	// Downstream action endpoints, invoked on the agent's tool calls.
	// Unset endpoints leave the matching tool reporting a technical error
	// instead of charging or emailing anyone.
	ChargeURL      string
	PaymentLinkURL string
	ServiceKey     string

	// Per-session tunables.
	SignedURLTimeout time.Duration
	ToolTimeout      time.Duration
	WSWriteTimeout   time.Duration
	WSPingInterval   time.Duration

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("BRIDGE_ADDR", ":8080"),
		AgentAPIKey:         envOr("BRIDGE_AGENT_API_KEY", ""),
		AgentID:             envOr("BRIDGE_AGENT_ID", ""),
		AgentBaseURL:        envOr("BRIDGE_AGENT_BASE_URL", "https://api.elevenlabs.io"),
		ChargeURL:           envOr("BRIDGE_CHARGE_URL", ""),
		PaymentLinkURL:      envOr("BRIDGE_PAYMENT_LINK_URL", ""),
		ServiceKey:          envOr("BRIDGE_SERVICE_KEY", ""),
		SignedURLTimeout:    envDurationOr("BRIDGE_SIGNED_URL_TIMEOUT", 10*time.Second),
		ToolTimeout:         envDurationOr("BRIDGE_TOOL_TIMEOUT", 30*time.Second),
		WSWriteTimeout:      envDurationOr("BRIDGE_WS_WRITE_TIMEOUT", 5*time.Second),
		WSPingInterval:      envDurationOr("BRIDGE_WS_PING_INTERVAL", 20*time.Second),
		ReadHeaderTimeout:   envDurationOr("BRIDGE_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod: envDurationOr("BRIDGE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	if cfg.AgentAPIKey == "" {
		return Config{}, fmt.Errorf("BRIDGE_AGENT_API_KEY must be set")
	}
	if cfg.AgentID == "" {
		return Config{}, fmt.Errorf("BRIDGE_AGENT_ID must be set")
	}
	if cfg.AgentBaseURL == "" {
		return Config{}, fmt.Errorf("BRIDGE_AGENT_BASE_URL must not be empty")
	}
	if cfg.SignedURLTimeout <= 0 {
		return Config{}, fmt.Errorf("BRIDGE_SIGNED_URL_TIMEOUT must be > 0")
	}
	if cfg.ToolTimeout <= 0 {
		return Config{}, fmt.Errorf("BRIDGE_TOOL_TIMEOUT must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("BRIDGE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSPingInterval < 0 {
		return Config{}, fmt.Errorf("BRIDGE_WS_PING_INTERVAL must be >= 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("BRIDGE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("BRIDGE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
