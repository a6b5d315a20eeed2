package session

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ariahq/callbridge/pkg/bridge/agent"
	"github.com/ariahq/callbridge/pkg/bridge/audio"
	"github.com/ariahq/callbridge/pkg/bridge/pstn"
	"github.com/ariahq/callbridge/pkg/bridge/tools"
)

// State is the call-session lifecycle. Stopped is terminal and reachable
// from every other state.
type State int32

const (
	StateIdle State = iota
	StateAgentConnecting
	StateActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAgentConnecting:
		return "agent_connecting"
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// AgentDialer acquires a session handle from the agent provider and opens
// the agent-side socket to it.
type AgentDialer interface {
	SignedURL(ctx context.Context) (string, error)
	Dial(ctx context.Context, signedURL string) (*websocket.Conn, error)
}

// ToolDispatcher resolves one tool invocation. The second return is false
// when the tool name is outside the supported set.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, call agent.ToolCall, callCtx pstn.CallContext) (tools.Result, bool)
}

// Config carries the per-session tunables; zero values pick conservative
// defaults.
type Config struct {
	SignedURLTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration // agent-side keepalive
}

func (c Config) signedURLTimeout() time.Duration {
	if c.SignedURLTimeout <= 0 {
		return 10 * time.Second
	}
	return c.SignedURLTimeout
}

// Session bridges exactly one PSTN media stream to one agent conversation.
// It lives for the duration of the call and holds no state beyond it.
type Session struct {
	id         string
	cfg        Config
	logger     *slog.Logger
	agentConns AgentDialer
	dispatcher ToolDispatcher

	pstnConn   *websocket.Conn
	pstnWriter *outboundWriter

	agentConn    *websocket.Conn
	agentWriter  *outboundWriter
	agentStarted bool
	agentDone    chan struct{}

	mu             sync.Mutex
	state          State
	streamSID      string
	callCtx        pstn.CallContext
	conversionMode bool

	cancel   context.CancelFunc
	stopOnce sync.Once
}

// New wraps an accepted PSTN socket in a not-yet-started session. The
// session assumes ownership of the connection.
func New(pstnConn *websocket.Conn, agentConns AgentDialer, dispatcher ToolDispatcher, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		id:             id,
		cfg:            cfg,
		logger:         logger.With("session_id", id),
		agentConns:     agentConns,
		dispatcher:     dispatcher,
		pstnConn:       pstnConn,
		agentDone:      make(chan struct{}),
		state:          StateIdle,
		conversionMode: true,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run drives the session until either peer disconnects or ctx is
// canceled. It blocks for the life of the call.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.cancel = cancel
	s.pstnWriter = newOutboundWriter(s.pstnConn, s.cfg.WriteTimeout, 0)
	s.mu.Unlock()
	go s.pstnWriter.Run()

	stop := context.AfterFunc(ctx, func() { s.Stop("context canceled") })
	defer stop()

	s.logger.Debug("media-stream socket connected")
	s.pstnReadLoop(ctx)

	s.Stop("media-stream socket closed")

	// handleStart runs on the read loop goroutine, so agentStarted is
	// settled by the time the loop returns.
	s.mu.Lock()
	started := s.agentStarted
	s.mu.Unlock()
	if started {
		<-s.agentDone
	}
}

// Stop moves the session to Stopped and closes both sockets. Safe to call
// from any goroutine; later calls are no-ops.
func (s *Session) Stop(reason string) {
	s.stopOnce.Do(func() {
		s.setState(StateStopped)
		s.logger.Info("session stopped", "reason", reason)

		s.mu.Lock()
		pstnWriter := s.pstnWriter
		agentWriter := s.agentWriter
		agentConn := s.agentConn
		cancel := s.cancel
		s.mu.Unlock()

		if pstnWriter != nil {
			pstnWriter.Shutdown()
		}
		if agentWriter != nil {
			agentWriter.Shutdown()
		}
		// Close directly as well so both read loops unblock even if a
		// writer never ran.
		_ = s.pstnConn.Close()
		if agentConn != nil {
			_ = agentConn.Close()
		}
		if cancel != nil {
			cancel()
		}
	})
}

func (s *Session) pstnReadLoop(ctx context.Context) {
	for {
		_, data, err := s.pstnConn.ReadMessage()
		if err != nil {
			s.logger.Debug("media-stream read ended", "error", err)
			return
		}
		s.handlePSTNFrame(ctx, data)
		if s.State() == StateStopped {
			return
		}
	}
}

func (s *Session) handlePSTNFrame(ctx context.Context, data []byte) {
	msg, err := pstn.Decode(data)
	if err != nil {
		s.logger.Warn("dropping malformed media-stream frame", "error", err)
		return
	}

	switch msg.Event {
	case pstn.EventStart:
		s.handleStart(ctx, msg.Start)
	case pstn.EventMedia:
		s.handleMedia(msg.Media)
	case pstn.EventStop:
		s.logger.Info("media-stream stop received")
		s.Stop("stop event")
	default:
		// Unknown control frames never abort the session.
		s.logger.Debug("ignoring unknown media-stream event", "event", msg.Event)
	}
}

func (s *Session) handleStart(ctx context.Context, start *pstn.Start) {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		s.logger.Warn("ignoring start event", "state", state.String())
		return
	}
	s.state = StateAgentConnecting
	s.streamSID = start.StreamSID
	s.callCtx = pstn.NewCallContext(start.CustomParameters)
	s.mu.Unlock()

	s.logger.Info("stream started",
		"stream_sid", start.StreamSID,
		"client", s.callCtx.ClientName,
		"invoice", s.callCtx.InvoiceNumber,
	)

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.signedURLTimeout())
	defer cancel()

	signedURL, err := s.agentConns.SignedURL(fetchCtx)
	if err != nil {
		s.logger.Error("signed-url fetch failed", "error", err)
		s.Stop("agent session setup failed")
		return
	}

	conn, err := s.agentConns.Dial(ctx, signedURL)
	if err != nil {
		s.logger.Error("agent dial failed", "error", err)
		s.Stop("agent session setup failed")
		return
	}

	writer := newOutboundWriter(conn, s.cfg.WriteTimeout, s.cfg.PingInterval)
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.agentConn = conn
	s.agentWriter = writer
	callCtx := s.callCtx
	s.mu.Unlock()
	go writer.Run()

	init, err := agent.InitMessage(callCtx)
	if err != nil {
		s.logger.Error("building init payload failed", "error", err)
		s.Stop("agent session setup failed")
		return
	}
	if !writer.Send(init) {
		s.Stop("agent socket closed during setup")
		return
	}

	s.setState(StateActive)
	s.logger.Info("agent connected")
	s.mu.Lock()
	s.agentStarted = true
	s.mu.Unlock()
	go s.agentReadLoop(ctx)
}

func (s *Session) handleMedia(media *pstn.Media) {
	s.mu.Lock()
	active := s.state == StateActive
	convert := s.conversionMode
	s.mu.Unlock()
	if !active {
		// Media before the agent leg is up, or after stop, is a no-op.
		s.logger.Debug("dropping media frame", "state", s.State().String())
		return
	}

	payload := media.Payload
	if convert {
		mu, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			s.logger.Warn("dropping media frame with bad base64", "error", err)
			return
		}
		payload = base64.StdEncoding.EncodeToString(audio.UpsampleMuLawToPCM16k(mu))
	}

	frame, err := agent.UserAudioMessage(payload)
	if err != nil {
		s.logger.Warn("encoding user audio failed", "error", err)
		return
	}
	s.agentWriter.Send(frame)
}

func (s *Session) agentReadLoop(ctx context.Context) {
	defer close(s.agentDone)
	defer s.Stop("agent socket closed")
	for {
		_, data, err := s.agentConn.ReadMessage()
		if err != nil {
			s.logger.Debug("agent read ended", "error", err)
			return
		}
		s.handleAgentFrame(ctx, data)
		if s.State() == StateStopped {
			return
		}
	}
}

func (s *Session) handleAgentFrame(ctx context.Context, data []byte) {
	ev, err := agent.DecodeEvent(data)
	if err != nil {
		s.logger.Warn("dropping malformed agent frame", "error", err)
		return
	}

	if ev.AudioB64 != "" {
		s.forwardAgentAudio(ev.AudioB64)
	}

	switch ev.Type {
	case agent.EventInitMetadata:
		if ev.OutputFormat == agent.OutputFormatMuLaw8k {
			s.disableConversion()
		}
	case agent.EventAgentResponse:
		if ev.AgentResponse != "" {
			s.logger.Info("agent response", "text", truncate(ev.AgentResponse, 100))
		}
	case agent.EventToolCall:
		if ev.ToolCall != nil {
			// Dispatch must not block audio relaying for this call.
			go s.dispatchTool(ctx, *ev.ToolCall)
		}
	default:
		if ev.AudioB64 == "" {
			s.logger.Debug("ignoring agent event", "type", ev.Type)
		}
	}
}

func (s *Session) forwardAgentAudio(audioB64 string) {
	s.mu.Lock()
	streamSID := s.streamSID
	convert := s.conversionMode
	s.mu.Unlock()
	if streamSID == "" {
		return
	}

	payload := audioB64
	if convert {
		pcm, err := base64.StdEncoding.DecodeString(audioB64)
		if err != nil {
			s.logger.Warn("dropping agent audio with bad base64", "error", err)
			return
		}
		payload = base64.StdEncoding.EncodeToString(audio.DownsamplePCM16kToMuLaw(pcm))
	}

	frame, err := pstn.EncodeMediaFrame(streamSID, payload)
	if err != nil {
		s.logger.Warn("encoding media frame failed", "error", err)
		return
	}
	s.pstnWriter.Send(frame)
}

func (s *Session) dispatchTool(ctx context.Context, call agent.ToolCall) {
	s.logger.Info("tool call", "tool", call.Name, "tool_call_id", call.ID)

	result, handled := s.dispatcher.Dispatch(ctx, call, s.callContext())
	if !handled {
		s.logger.Debug("ignoring unsupported tool", "tool", call.Name)
		return
	}

	frame, err := agent.EncodeToolResult(call.ID, result.Text, result.IsError)
	if err != nil {
		s.logger.Warn("encoding tool result failed", "error", err)
		return
	}
	if !s.agentWriter.Send(frame) {
		s.logger.Debug("session ended before tool result delivery", "tool_call_id", call.ID)
	}
}

func (s *Session) callContext() pstn.CallContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCtx
}

// ConversionMode reports whether audio still passes through the codec
// pipelines. Starts true; latches false once the agent declares native
// μ-law output.
func (s *Session) ConversionMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversionMode
}

func (s *Session) disableConversion() {
	s.mu.Lock()
	changed := s.conversionMode
	s.conversionMode = false
	s.mu.Unlock()
	if changed {
		s.logger.Info("agent outputs native μ-law 8kHz, conversion disabled")
	}
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return
	}
	s.state = next
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
