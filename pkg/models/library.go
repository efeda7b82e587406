package models

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// CollectionSetKind enumerates the typed collection sets library sync
// maintains.
type CollectionSetKind int

const (
	SetTrack CollectionSetKind = iota
	SetAlbum
	SetArtist
	SetShow
	SetBan
	SetArtistBan
	SetListenLater
	SetYlPin
	SetEnhanced
)

func (k CollectionSetKind) String() string {
	switch k {
	case SetTrack:
		return "track"
	case SetAlbum:
		return "album"
	case SetArtist:
		return "artist"
	case SetShow:
		return "show"
	case SetBan:
		return "ban"
	case SetArtistBan:
		return "artist_ban"
	case SetListenLater:
		return "listen_later"
	case SetYlPin:
		return "yl_pin"
	case SetEnhanced:
		return "enhanced"
	default:
		return "unknown"
	}
}

// WireSetName returns the backend collection/v2 set name for this
// kind. Track and Album share the single "collection" set, filtered
// locally by URI prefix; every other kind is its own set, named
// without the underscores String() uses for readability.
func (k CollectionSetKind) WireSetName() string {
	switch k {
	case SetTrack, SetAlbum:
		return "collection"
	case SetArtistBan:
		return "artistban"
	case SetListenLater:
		return "listenlater"
	case SetYlPin:
		return "ylpin"
	default:
		return k.String()
	}
}

// URIPrefix returns the spotify:<prefix>: URI prefix collection items
// of this kind are filtered by when their set is shared with another
// kind (currently only collection, shared by Track and Album).
func (k CollectionSetKind) URIPrefix() string {
	switch k {
	case SetTrack:
		return "spotify:track:"
	case SetAlbum:
		return "spotify:album:"
	default:
		return ""
	}
}

// CollectionItem is one entry of a collection set.
type CollectionItem struct {
	URI     string
	AddedAt int64
	Removed bool
}

// PlaylistRecord is the locally cached summary of one playlist.
type PlaylistRecord struct {
	URI        string
	Name       string
	Owner      string
	Revision   string
	TrackCount int
	FolderPath []string
}

// Sync error taxonomy.
var (
	ErrDeltaImpossible  = errors.New("librarysync: delta update not possible")
	ErrConflictRevision = errors.New("librarysync: conflicting revision")
	ErrInvalidRevision  = errors.New("librarysync: revision must be at least 4 bytes")
)

// Revision is a playlist revision: a 4-byte big-endian counter plus a
// trailing hash. Its query-string form is "{counter},{hash_hex}".
type Revision struct {
	Counter int32
	Hash    []byte
}

// String renders the "{counter},{hash_hex_lowercase}" query form.
func (r Revision) String() string {
	return strconv.Itoa(int(r.Counter)) + "," + hex.EncodeToString(r.Hash)
}

// ParseRevision parses a playlist revision as stored on disk: a
// 4-byte big-endian counter followed by the hash bytes.
func ParseRevision(raw []byte) (Revision, error) {
	if len(raw) < 4 {
		return Revision{}, ErrInvalidRevision
	}
	return Revision{
		Counter: int32(binary.BigEndian.Uint32(raw[:4])),
		Hash:    raw[4:],
	}, nil
}

// SyncState is the coarse phase a library sync run is in.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncInProgress
	SyncComplete
	SyncFailed
)

func (s SyncState) String() string {
	switch s {
	case SyncInProgress:
		return "in_progress"
	case SyncComplete:
		return "complete"
	case SyncFailed:
		return "failed"
	default:
		return "idle"
	}
}

// SyncProgress is the snapshot librarysync exposes to callers and to
// the local introspection surface while a sync run is active or after
// it finishes.
type SyncProgress struct {
	State         SyncState
	CurrentSet    string
	SetsCompleted int
	SetsTotal     int
	ItemsSynced   int
	LastError     string
	StartedAt     time.Time
	FinishedAt    time.Time
}
