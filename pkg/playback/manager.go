// Package playback maintains the single authoritative PlaybackState:
// it reconciles inbound dealer cluster_update messages with an
// optional local playback engine and, in bidirectional mode,
// republishes local state through the HTTP API once a dealer
// connection id is known.
package playback

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
	"github.com/gesellix/spotify-core/pkg/dealer"
	"github.com/gesellix/spotify-core/pkg/models"
)

// Logger is the minimal logging seam every long-lived component in
// this repository accepts.
type Logger interface {
	Printf(format string, v ...interface{})
}

// ConnectStatePublisher is the HTTP-side collaborator that actually
// PUTs device state (pkg/spclient.Client.PutConnectState in the
// finished wiring). Kept as a narrow interface so StateManager doesn't
// import pkg/spclient directly.
type ConnectStatePublisher interface {
	PutConnectState(ctx context.Context, deviceID, connectionID string, req spotifyproto.PutStateRequest) error
}

// LocalEngine is the local playback backend a bidirectional-mode
// StateManager drives state from. Implementations publish their own
// play/pause/seek/etc. notifications via Events().
type LocalEngine interface {
	Events() <-chan EngineEvent
}

// EngineEventKind enumerates the local engine notifications a
// StateManager reacts to.
type EngineEventKind int

const (
	EnginePlay EngineEventKind = iota
	EnginePause
	EngineResume
	EngineSeek
	EngineStop
	EngineShuffleChanged
	EngineRepeatChanged
)

// EngineEvent is one local-engine notification; Track/PositionMs are
// only meaningful for the kinds that change them.
type EngineEvent struct {
	Kind       EngineEventKind
	Track      *models.TrackInfo
	ContextURI string
	PositionMs int64
	Shuffling  bool
	RepeatCtx  bool
	RepeatTrk  bool
}

const clusterConnectionsPrefix = "hm://connect-state/v1/cluster"

// Config configures a StateManager.
type Config struct {
	DeviceID      string
	DeviceName    string
	Bidirectional bool
	Logger        Logger
}

// StateManager owns the single authoritative PlaybackState and the
// per-field change streams derived from it.
type StateManager struct {
	cfg       Config
	logger    Logger
	publisher ConnectStatePublisher

	mu    sync.RWMutex
	state models.PlaybackState

	localActive bool // true once the local engine has produced at least one event

	stateChanges   *dealer.EventStream[models.PlaybackState]
	trackChanged   *dealer.EventStream[*models.TrackInfo]
	statusChanged  *dealer.EventStream[models.PlaybackStatus]
	optionsChanged *dealer.EventStream[models.PlaybackOptions]
	deviceChanged  *dealer.EventStream[string]

	connectionID *dealer.StateBroadcast[string]

	publishMu      sync.Mutex
	publishing     bool
	publishPending *spotifyproto.PutStateRequest

	disposeOnce sync.Once
	done        chan struct{}
}

// NewStateManager creates a manager whose current_state starts at
// InitialPlaybackState (status=Stopped, track=nil).
func NewStateManager(cfg Config, publisher ConnectStatePublisher) *StateManager {
	if cfg.Logger == nil {
		cfg.Logger = discardLogger{}
	}
	return &StateManager{
		cfg:            cfg,
		logger:         cfg.Logger,
		publisher:      publisher,
		state:          models.InitialPlaybackState(),
		stateChanges:   dealer.NewEventStream[models.PlaybackState](),
		trackChanged:   dealer.NewEventStream[*models.TrackInfo](),
		statusChanged:  dealer.NewEventStream[models.PlaybackStatus](),
		optionsChanged: dealer.NewEventStream[models.PlaybackOptions](),
		deviceChanged:  dealer.NewEventStream[string](),
		connectionID:   dealer.NewStateBroadcast(""),
		done:           make(chan struct{}),
	}
}

// CurrentState returns a copy of the authoritative state.
func (m *StateManager) CurrentState() models.PlaybackState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentPosition applies the position-interpolation rule to the
// current state at the given instant.
func (m *StateManager) CurrentPosition(now time.Time) int64 {
	return m.CurrentState().CurrentPosition(now)
}

// StateChanges, TrackChanged, StatusChanged, OptionsChanged and
// ActiveDeviceChanged are the per-field observable streams; each only
// fires when that specific field changed.
func (m *StateManager) StateChanges() chan models.PlaybackState   { return m.stateChanges.Subscribe() }
func (m *StateManager) TrackChanged() chan *models.TrackInfo      { return m.trackChanged.Subscribe() }
func (m *StateManager) StatusChanged() chan models.PlaybackStatus { return m.statusChanged.Subscribe() }
func (m *StateManager) OptionsChanged() chan models.PlaybackOptions {
	return m.optionsChanged.Subscribe()
}
func (m *StateManager) ActiveDeviceChanged() chan string { return m.deviceChanged.Subscribe() }

// SetConnectionID feeds the dealer connection id once known; a
// pending bidirectional publish unblocks as soon as this is non-empty.
func (m *StateManager) SetConnectionID(id string) {
	m.connectionID.Set(id)
	if id != "" {
		m.flushPendingPublish()
	}
}

// HandleClusterUpdate decodes a cluster_update dealer message payload
// (protobuf, already un-gzipped by the dealer client) and reconciles
// it into current_state.
func (m *StateManager) HandleClusterUpdate(payload []byte) error {
	cluster, err := spotifyproto.UnmarshalCluster(payload)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.cfg.Bidirectional && cluster.ActiveDeviceID == m.cfg.DeviceID && m.localActive {
		// Feedback-loop prevention: our own publish echoed back.
		m.mu.Unlock()
		return nil
	}

	old := m.state
	next := models.PlaybackState{
		PositionMs:     cluster.PlayerState.PositionAsOfTimestamp,
		DurationMs:     old.DurationMs,
		Status:         statusFromPlayerState(cluster.PlayerState),
		Options:        optionsFromProto(cluster.PlayerState.Options),
		ContextURI:     cluster.PlayerState.ContextURI,
		ActiveDeviceID: cluster.ActiveDeviceID,
		Source:         models.SourceCluster,
		Timestamp:      time.Now(),
	}
	if cluster.PlayerState.TrackURI != "" {
		next.Track = &models.TrackInfo{URI: cluster.PlayerState.TrackURI}
	}
	m.state = next
	m.mu.Unlock()

	m.emitChanges(old, next)
	return nil
}

func statusFromPlayerState(ps spotifyproto.PlayerState) models.PlaybackStatus {
	switch {
	case ps.IsPlaying:
		return models.Playing
	case ps.IsPaused:
		return models.Paused
	default:
		return models.Stopped
	}
}

func optionsFromProto(o spotifyproto.PlayerOptions) models.PlaybackOptions {
	return models.PlaybackOptions{
		Shuffling:        o.ShufflingContext,
		RepeatingContext: o.RepeatingContext,
		RepeatingTrack:   o.RepeatingTrack,
	}
}

// emitChanges compares old and next and fires only the streams whose
// field actually changed; state_changes fires when any field other than
// Timestamp differs.
func (m *StateManager) emitChanges(old, next models.PlaybackState) {
	if !trackEqual(old.Track, next.Track) || old.Status != next.Status ||
		old.Options != next.Options || old.ActiveDeviceID != next.ActiveDeviceID ||
		old.PositionMs != next.PositionMs || old.DurationMs != next.DurationMs ||
		old.ContextURI != next.ContextURI || old.Source != next.Source {
		m.stateChanges.Publish(next)
	}

	if !trackEqual(old.Track, next.Track) {
		m.trackChanged.Publish(next.Track)
	}
	if old.Status != next.Status {
		m.statusChanged.Publish(next.Status)
	}
	if old.Options != next.Options {
		m.optionsChanged.Publish(next.Options)
	}
	if old.ActiveDeviceID != next.ActiveDeviceID {
		m.deviceChanged.Publish(next.ActiveDeviceID)
	}
}

func trackEqual(a, b *models.TrackInfo) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.URI == b.URI
}

// RunLocalEngine subscribes to a LocalEngine's events until ctx is
// canceled, translating them into authoritative local state and, in
// bidirectional mode, a coalesced PutStateRequest publish.
func (m *StateManager) RunLocalEngine(ctx context.Context, engine LocalEngine) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case ev, ok := <-engine.Events():
			if !ok {
				return
			}
			m.applyEngineEvent(ev)
		}
	}
}

func (m *StateManager) applyEngineEvent(ev EngineEvent) {
	m.mu.Lock()
	old := m.state
	next := old
	next.Source = models.SourceLocal
	next.ActiveDeviceID = m.cfg.DeviceID
	next.Timestamp = time.Now()

	switch ev.Kind {
	case EnginePlay, EngineResume:
		next.Status = models.Playing
		if ev.Track != nil {
			next.Track = ev.Track
		}
		if ev.ContextURI != "" {
			next.ContextURI = ev.ContextURI
		}
		if ev.PositionMs != 0 {
			next.PositionMs = ev.PositionMs
		}
	case EnginePause:
		next.Status = models.Paused
		next.PositionMs = old.CurrentPosition(next.Timestamp)
	case EngineStop:
		next.Status = models.Stopped
		next.PositionMs = 0
	case EngineSeek:
		next.PositionMs = ev.PositionMs
	case EngineShuffleChanged, EngineRepeatChanged:
		next.Options = models.PlaybackOptions{Shuffling: ev.Shuffling, RepeatingContext: ev.RepeatCtx, RepeatingTrack: ev.RepeatTrk}
	}

	m.state = next
	m.localActive = true
	m.mu.Unlock()

	m.emitChanges(old, next)

	if m.cfg.Bidirectional {
		m.publishState(next)
	}
}

// publishState coalesces bursts of local updates into at most one
// publish in flight per device; later changes that arrive while a
// publish is outstanding replace the pending request rather than
// queuing a second one.
func (m *StateManager) publishState(state models.PlaybackState) {
	req := buildPutStateRequest(m.cfg.DeviceID, m.cfg.DeviceName, state)

	m.publishMu.Lock()
	if m.publishing {
		m.publishPending = &req
		m.publishMu.Unlock()
		return
	}
	if m.connectionID.Current() == "" {
		m.publishPending = &req
		m.publishMu.Unlock()
		return
	}
	m.publishing = true
	m.publishMu.Unlock()

	go m.runPublish(req)
}

func (m *StateManager) runPublish(req spotifyproto.PutStateRequest) {
	connID := m.connectionID.Current()
	if m.publisher != nil && connID != "" {
		if err := m.publisher.PutConnectState(context.Background(), m.cfg.DeviceID, connID, req); err != nil {
			m.logger.Printf("publish connect state failed: %v", err)
		}
	}

	m.publishMu.Lock()
	pending := m.publishPending
	m.publishPending = nil
	m.publishing = false
	m.publishMu.Unlock()

	if pending != nil {
		m.publishMu.Lock()
		m.publishing = true
		m.publishMu.Unlock()
		m.runPublish(*pending)
	}
}

func (m *StateManager) flushPendingPublish() {
	m.publishMu.Lock()
	if m.publishing || m.publishPending == nil {
		m.publishMu.Unlock()
		return
	}
	pending := *m.publishPending
	m.publishPending = nil
	m.publishing = true
	m.publishMu.Unlock()

	go m.runPublish(pending)
}

func buildPutStateRequest(deviceID, deviceName string, state models.PlaybackState) spotifyproto.PutStateRequest {
	var trackURI string
	if state.Track != nil {
		trackURI = state.Track.URI
	}
	return spotifyproto.PutStateRequest{
		Device: spotifyproto.DeviceInfo{DeviceID: deviceID, Name: deviceName},
		PlayerState: spotifyproto.PlayerState{
			TrackURI:              trackURI,
			ContextURI:            state.ContextURI,
			PositionAsOfTimestamp: state.PositionMs,
			Timestamp:             state.Timestamp.UnixMilli(),
			IsPlaying:             state.Status == models.Playing,
			IsPaused:              state.Status == models.Paused,
			Options: spotifyproto.PlayerOptions{
				ShufflingContext: state.Options.Shuffling,
				RepeatingContext: state.Options.RepeatingContext,
				RepeatingTrack:   state.Options.RepeatingTrack,
			},
		},
		Timestamp: state.Timestamp.UnixMilli(),
	}
}

// IsClusterURI reports whether a dealer message URI names a
// cluster_update this manager should reconcile.
func IsClusterURI(uri string) bool {
	return strings.HasPrefix(uri, clusterConnectionsPrefix) || strings.Contains(uri, "cluster")
}

// Dispose completes every observable stream; further queries on the
// manager after Dispose are undefined.5.
func (m *StateManager) Dispose() {
	m.disposeOnce.Do(func() {
		close(m.done)
		m.stateChanges.Complete()
		m.trackChanged.Complete()
		m.statusChanged.Complete()
		m.optionsChanged.Complete()
		m.deviceChanged.Complete()
		m.connectionID.Complete()
	})
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}
