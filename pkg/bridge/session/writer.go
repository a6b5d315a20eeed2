// Package session implements the per-call bridge: one PSTN-side socket,
// one agent-side socket, a message-driven lifecycle state machine, and the
// glue that decides when audio is converted and when tool calls are
// dispatched.
package session

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type wsConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// outboundWriter owns every write to one socket. All frames funnel through
// a single channel drained by one goroutine, so partial writes can never
// interleave and corrupt the JSON framing.
type outboundWriter struct {
	ws           wsConn
	frames       chan []byte
	stop         chan struct{}
	stopOnce     sync.Once
	done         chan struct{}
	writeTimeout time.Duration
	pingInterval time.Duration // 0 disables keepalive pings
}

func newOutboundWriter(ws wsConn, writeTimeout, pingInterval time.Duration) *outboundWriter {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &outboundWriter{
		ws:           ws,
		frames:       make(chan []byte, 64),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

// Run drains the frame channel until Shutdown is called or a write fails.
// It closes the socket on the way out, which also unblocks any read loop
// parked on the same connection.
func (w *outboundWriter) Run() {
	defer close(w.done)
	defer w.ws.Close()

	var pingC <-chan time.Time
	if w.pingInterval > 0 {
		ticker := time.NewTicker(w.pingInterval)
		defer ticker.Stop()
		pingC = ticker.C
	}

	for {
		select {
		case <-w.stop:
			deadline := time.Now().Add(w.writeTimeout)
			_ = w.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case data := <-w.frames:
			if err := w.ws.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
				return
			}
			if err := w.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-pingC:
			if err := w.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(w.writeTimeout)); err != nil {
				return
			}
		}
	}
}

// Send queues one text frame. It reports false once the writer has shut
// down; late frames (a tool result racing a hangup) are dropped, not
// errored.
func (w *outboundWriter) Send(data []byte) bool {
	select {
	case w.frames <- data:
		return true
	case <-w.stop:
		return false
	case <-w.done:
		return false
	}
}

// Shutdown asks the writer to close the socket. Safe to call repeatedly
// and from any goroutine.
func (w *outboundWriter) Shutdown() {
	w.stopOnce.Do(func() { close(w.stop) })
}
