// Package dealer implements the WebSocket control channel to Spotify's
// dealer service: a single connection (Connection), the higher-level
// fan-out/request-reply client (Client), heartbeat liveness (Heartbeat)
// and exponential-backoff reconnection (Reconnector).
//
// The transport follows the usual gorilla/websocket connection shape:
// a mutex-guarded *websocket.Conn, a cancellable context driving a
// read-loop and a ping-loop goroutine pair, and an injectable Logger.
package dealer

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gesellix/spotify-core/pkg/models"
)

// Logger is the minimal logging seam every long-lived component in
// this repository accepts.
type Logger interface {
	Printf(format string, v ...interface{})
}

// DefaultLogger wraps the standard library logger with a component prefix.
type DefaultLogger struct{ Prefix string }

func (d DefaultLogger) Printf(format string, v ...interface{}) {
	log.Printf(d.Prefix+format, v...)
}

func newDefaultLogger(prefix string) Logger { return DefaultLogger{Prefix: prefix} }

// Frame is a reassembled inbound dealer frame: either a text (JSON) or
// a binary message. Gorilla's ReadMessage already reassembles
// fragmented WebSocket frames into one []byte per logical message, so
// Connection's job is only to label it.
type Frame struct {
	Binary bool
	Data   []byte
}

// FrameBuffer models the framing helper in the design: given any
// sequence of appended byte chunks, TryReadMessage returns the entire
// buffered sequence as one message and empties the buffer. It exists
// so callers that receive raw byte fragments from a non-WebSocket
// transport (tests, replay fixtures) observe the same "whole message"
// semantics Connection provides over a real socket.
type FrameBuffer struct {
	buf []byte
}

// Write appends a fragment to the buffer.
func (b *FrameBuffer) Write(p []byte) {
	b.buf = append(b.buf, p...)
}

// TryReadMessage returns (nil, false) when the buffer is empty;
// otherwise it returns the entire buffered content as one message and
// resets the buffer.
func (b *FrameBuffer) TryReadMessage() ([]byte, bool) {
	if len(b.buf) == 0 {
		return nil, false
	}
	out := b.buf
	b.buf = nil
	return out, true
}

// Connection owns exactly one Spotify dealer WebSocket. It exposes
// raw send/receive of frames and a connection-state field; DealerClient
// layers fan-out, heartbeat and reconnection on top of it.
type Connection struct {
	mu     sync.RWMutex
	conn   *websocket.Conn
	state  models.ConnectionState
	ctx    context.Context
	cancel context.CancelFunc
	logger Logger

	dialTimeout time.Duration
	readTimeout time.Duration

	frames chan Frame
	closed chan struct{}
}

// NewConnection creates an unconnected Connection.
func NewConnection(logger Logger) *Connection {
	if logger == nil {
		logger = newDefaultLogger("[dealer] ")
	}
	return &Connection{
		state:       models.Disconnected,
		logger:      logger,
		dialTimeout: 10 * time.Second,
		readTimeout: 60 * time.Second,
	}
}

// State returns the current connection state.
func (c *Connection) State() models.ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Connect dials the dealer WebSocket at url, which must use the wss
// scheme. Frames returns the channel new inbound frames are delivered
// on; it is valid until Dispose.
func (c *Connection) Connect(ctx context.Context, dealerURL string) (<-chan Frame, error) {
	u, err := url.Parse(dealerURL)
	if err != nil || u.Scheme != "wss" {
		return nil, models.ErrInvalidURL
	}

	c.mu.Lock()
	if c.state != models.Disconnected {
		c.mu.Unlock()
		return nil, models.ErrAlreadyConnected
	}
	c.state = models.Connecting
	c.mu.Unlock()

	connCtx, cancel := context.WithCancel(ctx)

	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	conn, resp, err := dialer.DialContext(connCtx, dealerURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		cancel()
		c.mu.Lock()
		c.state = models.Disconnected
		c.mu.Unlock()
		return nil, &models.DealerIoError{Err: err}
	}

	c.mu.Lock()
	c.conn = conn
	c.ctx = connCtx
	c.cancel = cancel
	c.state = models.Connected
	c.frames = make(chan Frame, 64)
	c.closed = make(chan struct{})
	frames := c.frames
	c.mu.Unlock()

	go c.readLoop()

	return frames, nil
}

func (c *Connection) readLoop() {
	defer func() {
		c.mu.Lock()
		c.state = models.Disconnected
		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}
		if c.frames != nil {
			close(c.frames)
			c.frames = nil
		}
		if c.closed != nil {
			close(c.closed)
		}
		c.mu.Unlock()
	}()

	for {
		c.mu.RLock()
		conn := c.conn
		ctx := c.ctx
		frames := c.frames
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Printf("read error: %v", err)
			}
			return
		}

		frame := Frame{Binary: msgType == websocket.BinaryMessage, Data: data}
		select {
		case frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// Send writes a text frame. It fails with ErrNotConnected unless the
// connection is Connected.
func (c *Connection) Send(data []byte) error {
	c.mu.RLock()
	conn := c.conn
	state := c.state
	c.mu.RUnlock()

	if state != models.Connected || conn == nil {
		return models.ErrNotConnected
	}

	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &models.DealerIoError{Err: err}
	}
	return nil
}

// SendPing writes a WebSocket ping control frame, used by Heartbeat.
func (c *Connection) SendPing() error {
	c.mu.RLock()
	conn := c.conn
	state := c.state
	c.mu.RUnlock()

	if state != models.Connected || conn == nil {
		return models.ErrNotConnected
	}
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		return &models.DealerIoError{Err: err}
	}
	return nil
}

// Dispose idempotently closes the socket, drains the inbound pipe and
// transitions to Disconnected.
func (c *Connection) Dispose() {
	c.mu.Lock()
	if c.state == models.Disconnected {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	closed := c.closed
	conn := c.conn
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		// readLoop blocks in conn.ReadMessage() with a 60s deadline and
		// never observes ctx cancellation on its own; closing the
		// socket directly is what actually unblocks it.
		_ = conn.Close()
	}
	if closed != nil {
		<-closed
	}
}
