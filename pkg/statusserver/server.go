// Package statusserver exposes a read-only, chi-routed HTTP surface
// for local introspection: the dealer connection state, the current
// playback snapshot, and library-sync progress, all as JSON. It is a
// diagnostics endpoint, not a control surface — every route is a GET.
package statusserver

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gesellix/spotify-core/pkg/models"
)

// ConnectionStateSource reports the dealer's current connection state.
type ConnectionStateSource interface {
	ConnectionState() models.ConnectionState
}

// PlaybackStateSource reports the latest reconciled playback snapshot.
type PlaybackStateSource interface {
	Snapshot() models.PlaybackState
}

// SyncProgressSource reports the library sync's current progress.
type SyncProgressSource interface {
	Progress() models.SyncProgress
}

// Server serves /health, /connection, /playback, and /sync as JSON.
// Any source left nil responds with its endpoint's zero value rather
// than failing, so a caller can point the server at only the
// subsystems it has wired up so far.
type Server struct {
	mu         sync.RWMutex
	connection ConnectionStateSource
	playback   PlaybackStateSource
	sync       SyncProgressSource

	Version string
}

// NewServer creates a Server with no sources attached.
func NewServer() *Server {
	return &Server{}
}

// SetConnectionSource attaches the dealer connection-state source.
func (s *Server) SetConnectionSource(src ConnectionStateSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connection = src
}

// SetPlaybackSource attaches the playback-state source.
func (s *Server) SetPlaybackSource(src PlaybackStateSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback = src
}

// SetSyncSource attaches the library-sync progress source.
func (s *Server) SetSyncSource(src SyncProgressSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync = src
}

// Router builds the chi router for this server. Callers mount it
// themselves (directly, or under a path prefix) rather than this
// package owning the listener.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/connection", s.handleConnection)
	r.Get("/playback", s.handlePlayback)
	r.Get("/sync", s.handleSync)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	version := s.Version
	if version == "" {
		version = "0.0.0"
	}
	if info, ok := debug.ReadBuildInfo(); ok && version == "0.0.0" {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
	writeJSON(w, map[string]interface{}{
		"status":    "up",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	})
}

func (s *Server) handleConnection(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	src := s.connection
	s.mu.RUnlock()

	if src == nil {
		writeJSON(w, models.ConnectionState{})
		return
	}
	writeJSON(w, src.ConnectionState())
}

func (s *Server) handlePlayback(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	src := s.playback
	s.mu.RUnlock()

	if src == nil {
		writeJSON(w, models.PlaybackState{})
		return
	}
	writeJSON(w, src.Snapshot())
}

func (s *Server) handleSync(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	src := s.sync
	s.mu.RUnlock()

	if src == nil {
		writeJSON(w, models.SyncProgress{})
		return
	}
	writeJSON(w, src.Progress())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
