package dealer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestHeartbeat_TimeoutFiresOnce(t *testing.T) {
	var timeouts int32
	h := &Heartbeat{
		PingInterval: 150 * time.Millisecond,
		PongTimeout:  250 * time.Millisecond,
		SendPing:     func() error { return nil },
		OnTimeout:    func() { atomic.AddInt32(&timeouts, 1) },
	}

	if err := h.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.Stop()

	time.Sleep(3 * time.Second)

	if got := atomic.LoadInt32(&timeouts); got != 1 {
		t.Fatalf("expected exactly 1 heartbeat_timeout within 3s, got %d", got)
	}
}

func TestHeartbeat_RecordPongPreventsTimeout(t *testing.T) {
	var timeouts int32
	pongs := make(chan struct{}, 8)

	var h *Heartbeat
	h = &Heartbeat{
		PingInterval: 50 * time.Millisecond,
		PongTimeout:  200 * time.Millisecond,
		SendPing: func() error {
			select {
			case pongs <- struct{}{}:
			default:
			}
			return nil
		},
		OnTimeout: func() { atomic.AddInt32(&timeouts, 1) },
	}
	_ = h.Start()
	defer h.Stop()

	done := time.After(400 * time.Millisecond)
	for {
		select {
		case <-pongs:
			h.RecordPong()
		case <-done:
			if got := atomic.LoadInt32(&timeouts); got != 0 {
				t.Fatalf("expected no timeouts while pongs are recorded, got %d", got)
			}
			return
		}
	}
}

func TestHeartbeat_SecondStartFails(t *testing.T) {
	h := &Heartbeat{
		PingInterval: time.Second,
		PongTimeout:  time.Second,
		SendPing:     func() error { return nil },
	}
	if err := h.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer h.Stop()

	if err := h.Start(); err != ErrHeartbeatRunning {
		t.Fatalf("expected ErrHeartbeatRunning, got %v", err)
	}
}

func TestHeartbeat_StopIsIdempotent(t *testing.T) {
	h := &Heartbeat{
		PingInterval: time.Second,
		PongTimeout:  time.Second,
		SendPing:     func() error { return nil },
	}
	_ = h.Start()
	h.Stop()
	h.Stop() // must not panic or block
}
