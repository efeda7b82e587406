package dealer

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gesellix/spotify-core/pkg/models"
)

// wireFrame is the JSON shape of every dealer text frame.
type wireFrame struct {
	Type    string            `json:"type"`
	URI     string            `json:"uri,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Payload json.RawMessage   `json:"payload,omitempty"`

	Key          string `json:"key,omitempty"`
	MessageIdent string `json:"message_ident,omitempty"`
}

type replyPayload struct {
	Success bool `json:"success"`
}

type outboundReply struct {
	Type    string       `json:"type"`
	Key     string       `json:"key"`
	Payload replyPayload `json:"payload"`
}

type outboundPong struct {
	Type string `json:"type"`
}

// EndpointResolver resolves the set of dealer WebSocket endpoints to
// try, in order. Spotify publishes dealer endpoints via apresolve;
// this package does not implement that resolution itself.
type EndpointResolver func(ctx context.Context) ([]string, error)

// ClientConfig configures heartbeat and reconnection tunables.
type ClientConfig struct {
	PingInterval         time.Duration
	PongTimeout          time.Duration
	ReconnectInitial     time.Duration
	ReconnectMax         time.Duration
	ReconnectMaxAttempts int
	Logger               Logger
}

// DefaultClientConfig mirrors sensible websocket defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval:         30 * time.Second,
		PongTimeout:          10 * time.Second,
		ReconnectInitial:     1 * time.Second,
		ReconnectMax:         30 * time.Second,
		ReconnectMaxAttempts: 0,
		Logger:               newDefaultLogger("[dealer] "),
	}
}

// Client is the high-level dealer API: multi-endpoint connect,
// fan-out of decoded inbound traffic, heartbeat and reconnection, and
// reply formatting.
type Client struct {
	cfg      ClientConfig
	logger   Logger
	resolver EndpointResolver

	mu             sync.Mutex
	conn           *Connection
	dispatchCancel context.CancelFunc

	heartbeat *Heartbeat
	reconnect *Reconnector

	connectionState *StateBroadcast[models.ConnectionState]
	connectionID    *StateBroadcast[string]
	messages        *EventStream[models.DealerMessage]
	requests        *EventStream[models.DealerRequest]

	disposed atomic.Bool
}

// NewClient builds a Client that resolves endpoints via resolver.
func NewClient(resolver EndpointResolver, cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = newDefaultLogger("[dealer] ")
	}
	c := &Client{
		cfg:             cfg,
		logger:          cfg.Logger,
		resolver:        resolver,
		connectionState: NewStateBroadcast(models.Disconnected),
		connectionID:    NewStateBroadcast(""),
		messages:        NewEventStream[models.DealerMessage](),
		requests:        NewEventStream[models.DealerRequest](),
	}
	c.reconnect = &Reconnector{
		InitialDelay: cfg.ReconnectInitial,
		MaxDelay:     cfg.ReconnectMax,
		MaxAttempts:  cfg.ReconnectMaxAttempts,
		Callback:     c.reconnectOnce,
		OnSucceeded: func() {
			c.connectionState.Set(models.Connected)
		},
		OnFailed: func() {
			c.connectionState.Set(models.Failed)
		},
	}
	return c
}

// ConnectionState replays the current state, then every later transition.
func (c *Client) ConnectionState() chan models.ConnectionState { return c.connectionState.Subscribe() }

// ConnectionID replays the current dealer connection id (empty until known).
func (c *Client) ConnectionID() chan string { return c.connectionID.Subscribe() }

// CurrentConnectionID returns the latest known connection id without subscribing.
func (c *Client) CurrentConnectionID() string { return c.connectionID.Current() }

// Messages is the fan-out stream of decoded fire-and-forget dealer messages.
func (c *Client) Messages() chan models.DealerMessage { return c.messages.Subscribe() }

// Requests is the fan-out stream of inbound requests. Every delivered
// request must eventually be answered with SendReply.
func (c *Client) Requests() chan models.DealerRequest { return c.requests.Subscribe() }

// Connect resolves endpoints and tries each in order until one
// succeeds. Fails with ErrAlreadyConnected if already Connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.connectionState.Current() == models.Connected {
		return models.ErrAlreadyConnected
	}

	if c.connectionID.Current() != "" {
		c.connectionID.Set("")
	}
	c.reconnect.Reset()
	c.connectionState.Set(models.Connecting)

	endpoints, err := c.resolver(ctx)
	if err != nil || len(endpoints) == 0 {
		c.connectionState.Set(models.Failed)
		return err
	}

	var lastErr error
	for _, ep := range endpoints {
		if err := c.dial(ctx, ep); err != nil {
			lastErr = err
			continue
		}
		c.connectionState.Set(models.Connected)
		return nil
	}

	c.connectionState.Set(models.Failed)
	return lastErr
}

func (c *Client) dial(ctx context.Context, endpoint string) error {
	conn := NewConnection(c.logger)
	frames, err := conn.Connect(ctx, endpoint)
	if err != nil {
		return err
	}

	dispatchCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.conn = conn
	c.dispatchCancel = cancel
	c.mu.Unlock()

	c.heartbeat = &Heartbeat{
		PingInterval: c.cfg.PingInterval,
		PongTimeout:  c.cfg.PongTimeout,
		SendPing:     conn.SendPing,
		OnTimeout:    c.onHeartbeatTimeout,
	}
	_ = c.heartbeat.Start()

	go c.dispatchLoop(dispatchCtx, frames)

	return nil
}

func (c *Client) reconnectOnce() error {
	ctx := context.Background()
	endpoints, err := c.resolver(ctx)
	if err != nil || len(endpoints) == 0 {
		return err
	}
	var lastErr error
	for _, ep := range endpoints {
		if err := c.dial(ctx, ep); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

func (c *Client) onHeartbeatTimeout() {
	c.logger.Printf("heartbeat timeout")
	c.connectionState.Set(models.Reconnecting)
	c.reconnect.Trigger()
}

func (c *Client) dispatchLoop(ctx context.Context, frames <-chan Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				if c.disposed.Load() {
					return
				}
				c.connectionState.Set(models.Reconnecting)
				c.reconnect.Trigger()
				return
			}
			c.handleFrame(frame)
		}
	}
}

func (c *Client) handleFrame(frame Frame) {
	if frame.Binary {
		c.messages.Publish(models.DealerMessage{Payload: frame.Data})
		return
	}

	var wf wireFrame
	if err := json.Unmarshal(frame.Data, &wf); err != nil {
		c.logger.Printf("malformed inbound frame: %v", err)
		return
	}

	switch wf.Type {
	case "message":
		msg, err := decodeMessage(wf)
		if err != nil {
			c.logger.Printf("could not decode message payload: %v", err)
			return
		}
		if strings.HasPrefix(msg.URI, connectionsURIPrefix) {
			if id := extractConnectionID(msg.Payload); id != "" {
				c.connectionID.Set(id)
			}
		}
		c.messages.Publish(msg)
	case "request":
		req := decodeRequest(wf)
		c.requests.Publish(req)
	case "ping":
		_ = c.sendRaw(outboundPong{Type: "pong"})
	case "pong":
		if c.heartbeat != nil {
			c.heartbeat.RecordPong()
		}
	default:
		c.logger.Printf("dropping unknown frame type %q", wf.Type)
	}
}

const connectionsURIPrefix = "hm://pusher/v1/connections/"

// extractConnectionID treats the raw message body as the connection id
// string, matching the dealer's pusher/v1/connections notification.
func extractConnectionID(payload []byte) string {
	return strings.TrimSpace(string(payload))
}

func decodeMessage(wf wireFrame) (models.DealerMessage, error) {
	payload, err := decodePayload(wf.Payload, wf.Headers)
	if err != nil {
		return models.DealerMessage{}, err
	}
	return models.DealerMessage{URI: wf.URI, Headers: wf.Headers, Payload: payload}, nil
}

func decodeRequest(wf wireFrame) models.DealerRequest {
	var body struct {
		MessageID      uint64                 `json:"message_id"`
		SenderDeviceID string                 `json:"sending_device"`
		Payload        map[string]interface{} `json:"payload"`
	}
	_ = json.Unmarshal(wf.Payload, &body)
	return models.DealerRequest{
		Key:            wf.Key,
		MessageID:      body.MessageID,
		SenderDeviceID: body.SenderDeviceID,
		MessageIdent:   wf.MessageIdent,
		Payload:        body.Payload,
	}
}

// decodePayload implements the design's payload transform: optional
// base64, then optional gzip per Transfer-Encoding/Content-Encoding
// headers, or a 1f8b magic-byte sniff as a fallback.
func decodePayload(raw json.RawMessage, headers map[string]string) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// Payload wasn't a JSON string (e.g. already a structured
		// object on a request); return the raw bytes unmodified.
		return []byte(raw), nil
	}

	data := []byte(s)
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		data = decoded
	}

	if headerSaysGzip(headers) || looksGzipped(data) {
		if unzipped, err := gunzip(data); err == nil {
			return unzipped, nil
		}
	}
	return data, nil
}

func headerSaysGzip(headers map[string]string) bool {
	for k, v := range headers {
		lk := strings.ToLower(k)
		if (lk == "transfer-encoding" || lk == "content-encoding") && strings.Contains(strings.ToLower(v), "gzip") {
			return true
		}
	}
	return false
}

func looksGzipped(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

func gunzip(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// SendReply formats and sends {"type":"reply","key":K,"payload":{"success":B}}.
func (c *Client) SendReply(key string, result models.RequestResult) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return models.ErrNotConnected
	}
	return sendJSON(conn, outboundReply{Type: "reply", Key: key, Payload: replyPayload{Success: result.IsSuccess()}})
}

func (c *Client) sendRaw(v interface{}) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return models.ErrNotConnected
	}
	return sendJSON(conn, v)
}

func sendJSON(conn *Connection, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Send(data)
}

// Disconnect tears down the active connection. Safe to call when
// already Disconnected.
func (c *Client) Disconnect() {
	if c.connectionState.Current() == models.Disconnected {
		return
	}
	c.mu.Lock()
	conn := c.conn
	cancel := c.dispatchCancel
	c.mu.Unlock()

	if c.heartbeat != nil {
		c.heartbeat.Stop()
	}
	c.reconnect.Cancel()
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Dispose()
	}
	c.connectionID.Set("")
	c.connectionState.Set(models.Disconnected)
}

// Dispose idempotently completes all observable streams.
func (c *Client) Dispose() {
	if !c.disposed.CompareAndSwap(false, true) {
		return
	}
	c.Disconnect()
	c.connectionState.Complete()
	c.connectionID.Complete()
	c.messages.Complete()
	c.requests.Complete()
}
