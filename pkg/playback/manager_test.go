package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
	"github.com/gesellix/spotify-core/pkg/models"
)

type fakePublisher struct {
	mu    sync.Mutex
	calls []spotifyproto.PutStateRequest
}

func (f *fakePublisher) PutConnectState(_ context.Context, _, _ string, req spotifyproto.PutStateRequest) error {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestStateManager_InitialState(t *testing.T) {
	m := NewStateManager(Config{DeviceID: "dev1"}, nil)
	s := m.CurrentState()
	if s.Status != models.Stopped || s.Track != nil {
		t.Fatalf("expected initial stopped/no-track state, got %+v", s)
	}
}

func TestStateManager_PositionInterpolation(t *testing.T) {
	m := NewStateManager(Config{DeviceID: "dev1"}, nil)
	m.mu.Lock()
	m.state = models.PlaybackState{Status: models.Playing, PositionMs: 1000, Timestamp: time.Now()}
	m.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	pos := m.CurrentPosition(time.Now())
	if pos < 1040 || pos > 1090 {
		t.Fatalf("expected ~1050ms, got %dms", pos)
	}

	m.mu.Lock()
	m.state = models.PlaybackState{Status: models.Paused, PositionMs: 2000, Timestamp: time.Now()}
	m.mu.Unlock()
	if got := m.CurrentPosition(time.Now().Add(5 * time.Second)); got != 2000 {
		t.Fatalf("paused position should not advance, got %d", got)
	}
}

func TestStateManager_PerFieldChangeEvents(t *testing.T) {
	m := NewStateManager(Config{DeviceID: "dev1"}, nil)

	statusCh := m.StatusChanged()
	trackCh := m.TrackChanged()
	optionsCh := m.OptionsChanged()
	defer m.statusChanged.Unsubscribe(statusCh)
	defer m.trackChanged.Unsubscribe(trackCh)
	defer m.optionsChanged.Unsubscribe(optionsCh)

	old := m.CurrentState()
	next := old
	next.Status = models.Playing
	next.Track = &models.TrackInfo{URI: "spotify:track:abc"}
	m.mu.Lock()
	m.state = next
	m.mu.Unlock()
	m.emitChanges(old, next)

	select {
	case s := <-statusCh:
		if s != models.Playing {
			t.Fatalf("expected Playing, got %v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("expected status_changed to fire")
	}
	select {
	case tr := <-trackCh:
		if tr == nil || tr.URI != "spotify:track:abc" {
			t.Fatalf("expected new track, got %+v", tr)
		}
	case <-time.After(time.Second):
		t.Fatal("expected track_changed to fire")
	}
	select {
	case <-optionsCh:
		t.Fatal("options unchanged, should not fire")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStateManager_FeedbackLoopPrevention(t *testing.T) {
	m := NewStateManager(Config{DeviceID: "dev1", Bidirectional: true}, nil)
	m.mu.Lock()
	m.localActive = true
	m.mu.Unlock()

	before := m.CurrentState()

	cluster := &spotifyproto.Cluster{ActiveDeviceID: "dev1"}
	m.mu.Lock()
	reconcileForTest(m, cluster)
	m.mu.Unlock()
	after := m.CurrentState()

	if after != before {
		t.Fatalf("expected cluster update from own device to be dropped, state changed: %+v -> %+v", before, after)
	}
}

// reconcileForTest mirrors the feedback-loop-prevention branch of
// HandleClusterUpdate, without requiring a full protobuf-encoded
// payload in this package's tests. Callers hold m.mu.
func reconcileForTest(m *StateManager, cluster *spotifyproto.Cluster) {
	if m.cfg.Bidirectional && cluster.ActiveDeviceID == m.cfg.DeviceID && m.localActive {
		return
	}
	m.state = models.PlaybackState{ActiveDeviceID: cluster.ActiveDeviceID, Source: models.SourceCluster, Timestamp: time.Now()}
}

func TestStateManager_BidirectionalPublishWaitsForConnectionID(t *testing.T) {
	pub := &fakePublisher{}
	m := NewStateManager(Config{DeviceID: "dev1", Bidirectional: true}, pub)

	m.applyEngineEvent(EngineEvent{Kind: EnginePlay, Track: &models.TrackInfo{URI: "spotify:track:x"}})

	time.Sleep(50 * time.Millisecond)
	if pub.count() != 0 {
		t.Fatalf("expected no publish before connection id known, got %d", pub.count())
	}

	m.SetConnectionID("conn-1")
	deadline := time.After(2 * time.Second)
	for pub.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected a publish once connection id became known")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStateManager_DisposeIsIdempotent(t *testing.T) {
	m := NewStateManager(Config{DeviceID: "dev1"}, nil)
	m.Dispose()
	m.Dispose() // must not panic
}
