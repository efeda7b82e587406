package models

import "time"

// PlaybackStatus is the coarse playing/paused/stopped state of a PlaybackState.
type PlaybackStatus int

const (
	Stopped PlaybackStatus = iota
	Playing
	Paused
)

func (s PlaybackStatus) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// StateSource distinguishes player state derived from the Connect cluster
// versus state produced by a local playback engine in bidirectional mode.
type StateSource int

const (
	SourceCluster StateSource = iota
	SourceLocal
)

// TrackInfo is the minimal track identity carried on a PlaybackState.
type TrackInfo struct {
	URI        string
	Name       string
	ArtistURI  string
	ArtistName string
	AlbumURI   string
	AlbumName  string
	DurationMs int64
}

// PlaybackOptions mirrors the Connect protobuf options sub-message.
type PlaybackOptions struct {
	Shuffling        bool
	RepeatingContext bool
	RepeatingTrack   bool
}

// PlaybackState is the single authoritative snapshot owned by
// playback.StateManager. Readers receive copies, never a pointer into
// live state.
type PlaybackState struct {
	Track          *TrackInfo
	PositionMs     int64
	DurationMs     int64
	Status         PlaybackStatus
	Options        PlaybackOptions
	ContextURI     string
	ActiveDeviceID string
	Source         StateSource
	Timestamp      time.Time
}

// CurrentPosition projects PositionMs forward by the elapsed wall-clock
// time since Timestamp when Status is Playing; otherwise it returns
// PositionMs unchanged.
func (s PlaybackState) CurrentPosition(now time.Time) int64 {
	if s.Status != Playing {
		return s.PositionMs
	}
	elapsed := now.Sub(s.Timestamp)
	if elapsed < 0 {
		elapsed = 0
	}
	return s.PositionMs + elapsed.Milliseconds()
}

// InitialPlaybackState is the zero-value state a new StateManager starts from.
func InitialPlaybackState() PlaybackState {
	return PlaybackState{
		Status:    Stopped,
		Source:    SourceCluster,
		Timestamp: time.Now(),
	}
}
