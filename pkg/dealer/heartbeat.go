package dealer

import (
	"errors"
	"sync"
	"time"
)

// ErrHeartbeatRunning is returned by Start when a heartbeat loop is
// already active.
var ErrHeartbeatRunning = errors.New("dealer: heartbeat already started")

// Heartbeat is a client-initiated liveness probe. It
// periodically invokes SendPing and expects a RecordPong within
// PongTimeout of each ping; a missed pong raises exactly one
// OnTimeout notification.
type Heartbeat struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
	SendPing     func() error
	OnTimeout    func()

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	pongTimer *time.Timer
}

// Start begins the periodic ping loop. A second Start call before Stop
// returns ErrHeartbeatRunning.
func (h *Heartbeat) Start() error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrHeartbeatRunning
	}
	h.running = true
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})
	stopCh := h.stopCh
	doneCh := h.doneCh
	h.mu.Unlock()

	go h.loop(stopCh, doneCh)
	return nil
}

func (h *Heartbeat) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(h.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			h.ping(stopCh)
		}
	}
}

func (h *Heartbeat) ping(stopCh chan struct{}) {
	h.mu.Lock()
	if h.pongTimer != nil {
		// The previous pong is still outstanding (or its wait already
		// timed out): keep that wait running instead of restarting it.
		h.mu.Unlock()
		_ = h.SendPing()
		return
	}
	timedOut := make(chan struct{}, 1)
	h.pongTimer = time.AfterFunc(h.PongTimeout, func() {
		select {
		case timedOut <- struct{}{}:
		default:
		}
	})
	h.mu.Unlock()

	if err := h.SendPing(); err != nil {
		h.mu.Lock()
		if h.pongTimer != nil {
			h.pongTimer.Stop()
		}
		h.mu.Unlock()
		h.fireTimeout()
		return
	}

	go func() {
		select {
		case <-timedOut:
			h.fireTimeout()
		case <-stopCh:
		}
	}()
}

func (h *Heartbeat) fireTimeout() {
	if h.OnTimeout != nil {
		h.OnTimeout()
	}
}

// RecordPong cancels the outstanding pong-wait timer. Safe to call
// concurrently with Start/Stop/ping.
func (h *Heartbeat) RecordPong() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pongTimer != nil {
		h.pongTimer.Stop()
		h.pongTimer = nil
	}
}

// Stop cancels all timers. Idempotent.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	stopCh := h.stopCh
	doneCh := h.doneCh
	if h.pongTimer != nil {
		h.pongTimer.Stop()
		h.pongTimer = nil
	}
	h.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// Dispose is an alias for Stop, kept for symmetry with Connection/Client.
func (h *Heartbeat) Dispose() { h.Stop() }
