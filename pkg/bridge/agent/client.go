package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// Client talks to the conversational agent provider: one HTTP call to
// obtain a short-lived session handle, then a WebSocket dial to it.
type Client struct {
	apiKey     string
	agentID    string
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

func NewClient(apiKey, agentID, baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		agentID:    strings.TrimSpace(agentID),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		dialer:     websocket.DefaultDialer,
	}
}

// SignedURL fetches the short-lived connection URL for one conversation.
// The caller bounds the call through ctx; no retry on failure.
func (c *Client) SignedURL(ctx context.Context) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("agent api key is not configured")
	}
	if c.agentID == "" {
		return "", fmt.Errorf("agent id is not configured")
	}

	endpoint := c.baseURL + "/v1/convai/conversation/get-signed-url?agent_id=" + url.QueryEscape(c.agentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create signed-url request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("signed-url request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("signed-url error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode signed-url response: %w", err)
	}
	if strings.TrimSpace(decoded.SignedURL) == "" {
		return "", fmt.Errorf("signed-url response is missing signed_url")
	}
	return decoded.SignedURL, nil
}

// Dial opens the agent-side socket at a signed URL. http/https schemes are
// rewritten to their WebSocket equivalents so test servers work unchanged.
func (c *Client) Dial(ctx context.Context, signedURL string) (*websocket.Conn, error) {
	u, err := url.Parse(strings.TrimSpace(signedURL))
	if err != nil {
		return nil, fmt.Errorf("invalid signed url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial agent socket: %w", err)
	}
	return conn, nil
}
