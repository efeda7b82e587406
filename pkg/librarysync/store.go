// Package librarysync keeps a local reflection of a Spotify account's
// library current: page-then-delta sync of typed collection sets,
// a rootlist walk for playlists, optimistic local writes, and
// real-time invalidation driven by the dealer's event stream.
package librarysync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gesellix/spotify-core/pkg/models"
)

// storeSchemaVersion is bumped whenever the persisted JSON shape
// changes incompatibly.
const storeSchemaVersion = 1

// setState is the persisted state for one collection set: its sync
// revision token and the uri-keyed items currently believed live.
type setState struct {
	SyncToken string                           `json:"sync_token"`
	Items     map[string]models.CollectionItem `json:"items"`
}

// onDisk is the full JSON document persisted at <dir>/library.json.
type onDisk struct {
	SchemaVersion int                              `json:"schema_version"`
	Sets          map[string]*setState             `json:"sets"`
	Playlists     map[string]models.PlaylistRecord `json:"playlists"`
}

// Store is the local, file-backed reflection of the library. All
// methods are safe for concurrent use.
type Store struct {
	dir string

	mu   sync.RWMutex
	data onDisk
}

// NewStore creates a store rooted at dir and loads any persisted
// state immediately. A missing file is not an error: Store starts empty.
func NewStore(dir string) (*Store, error) {
	s := &Store{dir: dir}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, "library.json")
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			s.data = onDisk{
				SchemaVersion: storeSchemaVersion,
				Sets:          make(map[string]*setState),
				Playlists:     make(map[string]models.PlaylistRecord),
			}
			return nil
		}
		return fmt.Errorf("librarysync: read store: %w", err)
	}

	var doc onDisk
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("librarysync: unmarshal store: %w", err)
	}
	if doc.Sets == nil {
		doc.Sets = make(map[string]*setState)
	}
	if doc.Playlists == nil {
		doc.Playlists = make(map[string]models.PlaylistRecord)
	}
	doc.SchemaVersion = storeSchemaVersion
	s.data = doc
	return nil
}

// persist writes the full document to disk. Callers must hold at
// least a read lock over s.data while building what they pass, and
// persist itself takes no lock (callers serialize via their own
// mu.Lock around the mutation + persist pair).
func (s *Store) persist() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("librarysync: create store dir: %w", err)
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("librarysync: marshal store: %w", err)
	}
	if err := os.WriteFile(s.path(), raw, 0644); err != nil {
		return fmt.Errorf("librarysync: write store: %w", err)
	}
	return nil
}

func (s *Store) setFor(key string) *setState {
	st, ok := s.data.Sets[key]
	if !ok {
		st = &setState{Items: make(map[string]models.CollectionItem)}
		s.data.Sets[key] = st
	}
	return st
}

// Revision returns the sync token stored for a set, and whether one
// is known at all (an unknown revision forces a full page sync).
func (s *Store) Revision(setKey string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data.Sets[setKey]
	if !ok || st.SyncToken == "" {
		return "", false
	}
	return st.SyncToken, true
}

// ReplaceSet overwrites a set's items and revision token wholesale,
// used after a full page sync.
func (s *Store) ReplaceSet(setKey string, token string, items []models.CollectionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemMap := make(map[string]models.CollectionItem, len(items))
	for _, it := range items {
		itemMap[it.URI] = it
	}
	s.data.Sets[setKey] = &setState{SyncToken: token, Items: itemMap}
	return s.persist()
}

// ApplyDelta adds/removes items in a set and updates its revision
// token, used after an incremental delta sync.
func (s *Store) ApplyDelta(setKey string, token string, diffs []models.CollectionItem, removed []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.setFor(setKey)
	for _, it := range diffs {
		st.Items[it.URI] = it
	}
	for _, uri := range removed {
		delete(st.Items, uri)
	}
	st.SyncToken = token
	return s.persist()
}

// PutItem optimistically adds (or updates) a single collection item,
// independent of a sync pass — used by write operations.
func (s *Store) PutItem(setKey string, item models.CollectionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.setFor(setKey)
	st.Items[item.URI] = item
	return s.persist()
}

// RemoveItem optimistically removes a single collection item.
func (s *Store) RemoveItem(setKey string, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.setFor(setKey)
	delete(st.Items, uri)
	return s.persist()
}

// Items returns a copy of a set's current items.
func (s *Store) Items(setKey string) []models.CollectionItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data.Sets[setKey]
	if !ok {
		return nil
	}
	out := make([]models.CollectionItem, 0, len(st.Items))
	for _, it := range st.Items {
		out = append(out, it)
	}
	return out
}

// PutPlaylist inserts or replaces a cached playlist record.
func (s *Store) PutPlaylist(record models.PlaylistRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Playlists[record.URI] = record
	return s.persist()
}

// RemovePlaylist deletes a cached playlist record.
func (s *Store) RemovePlaylist(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.Playlists, uri)
	return s.persist()
}

// Playlist looks up one cached playlist record.
func (s *Store) Playlist(uri string) (models.PlaylistRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data.Playlists[uri]
	return rec, ok
}

// Playlists returns every cached playlist record.
func (s *Store) Playlists() []models.PlaylistRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PlaylistRecord, 0, len(s.data.Playlists))
	for _, rec := range s.data.Playlists {
		out = append(out, rec)
	}
	return out
}
