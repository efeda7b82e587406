package librarysync

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
	"github.com/gesellix/spotify-core/pkg/models"
)

const pageLimit = 300
const metadataBatchSize = 100
const metadataWorkerCount = 4

// SpclientAPI is the subset of pkg/spclient.Client the sync engine
// needs, kept as an interface so tests can supply a fake.
type SpclientAPI interface {
	CollectionPage(ctx context.Context, req spotifyproto.PageRequest) (*spotifyproto.PageResponse, error)
	CollectionDelta(ctx context.Context, req spotifyproto.DeltaRequest) (*spotifyproto.DeltaResponse, error)
	CollectionWrite(ctx context.Context, req spotifyproto.WriteRequest) error
	GetMetadata(ctx context.Context, kind spotifyproto.MetadataKind, id string) (*spotifyproto.EntityMetadata, error)
	GetPlaylist(ctx context.Context, uri string, from, length int) (*spotifyproto.SelectedListContent, error)
	DiffPlaylist(ctx context.Context, uri string, since models.Revision) (*spotifyproto.SelectedListContent, error)
}

// Logger is the minimal logging seam every long-lived component in
// this repository accepts.
type Logger interface {
	Printf(format string, v ...interface{})
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

// Sync drives page+delta synchronization of typed collection sets and
// the playlist rootlist against one account's store.
type Sync struct {
	API      SpclientAPI
	Store    *Store
	Username string
	Logger   Logger

	progressMu sync.RWMutex
	progress   models.SyncProgress
}

// NewSync creates a Sync engine for one account.
func NewSync(api SpclientAPI, store *Store, username string, logger Logger) *Sync {
	if logger == nil {
		logger = discardLogger{}
	}
	return &Sync{API: api, Store: store, Username: username, Logger: logger}
}

// Progress returns the latest snapshot of sync progress, implementing
// statusserver.SyncProgressSource.
func (s *Sync) Progress() models.SyncProgress {
	s.progressMu.RLock()
	defer s.progressMu.RUnlock()
	return s.progress
}

func (s *Sync) setProgress(mutate func(*models.SyncProgress)) {
	s.progressMu.Lock()
	mutate(&s.progress)
	s.progressMu.Unlock()
}

var defaultCollectionKinds = []models.CollectionSetKind{
	models.SetTrack,
	models.SetAlbum,
	models.SetArtist,
	models.SetShow,
	models.SetBan,
	models.SetArtistBan,
	models.SetListenLater,
	models.SetYlPin,
	models.SetEnhanced,
}

// SyncAll runs a full sync pass over every collection set and the
// playlist rootlist, in that order, reporting progress as it goes.
func (s *Sync) SyncAll(ctx context.Context) error {
	s.setProgress(func(p *models.SyncProgress) {
		*p = models.SyncProgress{State: models.SyncInProgress, SetsTotal: len(defaultCollectionKinds) + 1}
	})

	for i, kind := range defaultCollectionKinds {
		s.setProgress(func(p *models.SyncProgress) { p.CurrentSet = kind.String() })
		if err := s.SyncSet(ctx, kind); err != nil {
			s.setProgress(func(p *models.SyncProgress) {
				p.State = models.SyncFailed
				p.LastError = err.Error()
			})
			return fmt.Errorf("librarysync: sync set %s: %w", kind, err)
		}
		s.setProgress(func(p *models.SyncProgress) { p.SetsCompleted = i + 1 })
	}

	s.setProgress(func(p *models.SyncProgress) { p.CurrentSet = "playlists" })
	if err := s.SyncPlaylists(ctx); err != nil {
		s.setProgress(func(p *models.SyncProgress) {
			p.State = models.SyncFailed
			p.LastError = err.Error()
		})
		return fmt.Errorf("librarysync: sync playlists: %w", err)
	}

	s.setProgress(func(p *models.SyncProgress) {
		p.State = models.SyncComplete
		p.SetsCompleted = len(defaultCollectionKinds) + 1
	})
	return nil
}

// SyncSet synchronizes one typed collection set: delta if a revision
// is already known and the server confirms it is still possible,
// otherwise a full page sync.
func (s *Sync) SyncSet(ctx context.Context, kind models.CollectionSetKind) error {
	setKey := kind.String()
	wireSet := kind.WireSetName()

	if token, ok := s.Store.Revision(setKey); ok {
		delta, err := s.API.CollectionDelta(ctx, spotifyproto.DeltaRequest{
			Username: s.Username,
			SetName:  wireSet,
			Revision: token,
		})
		if err != nil {
			return err
		}
		if delta.DeltaUpdatePossible {
			return s.applyDelta(kind, setKey, delta)
		}
		s.Logger.Printf("librarysync: delta not possible for %s, falling back to full page sync", setKey)
	}

	return s.fullSync(ctx, kind, setKey, wireSet)
}

func (s *Sync) applyDelta(kind models.CollectionSetKind, setKey string, delta *spotifyproto.DeltaResponse) error {
	prefix := kind.URIPrefix()
	var added []models.CollectionItem
	var removed []string
	for _, item := range delta.Items {
		if prefix != "" && !strings.HasPrefix(item.URI, prefix) {
			continue
		}
		if item.IsRemoved {
			removed = append(removed, item.URI)
			continue
		}
		added = append(added, models.CollectionItem{URI: item.URI})
	}
	if err := s.Store.ApplyDelta(setKey, delta.SyncToken, added, removed); err != nil {
		return err
	}
	s.setProgress(func(p *models.SyncProgress) { p.ItemsSynced += len(added) + len(removed) })
	return nil
}

func (s *Sync) fullSync(ctx context.Context, kind models.CollectionSetKind, setKey, wireSet string) error {
	prefix := kind.URIPrefix()

	var items []models.CollectionItem
	var syncToken string
	offset := int32(0)
	for {
		page, err := s.API.CollectionPage(ctx, spotifyproto.PageRequest{
			Username: s.Username,
			SetName:  wireSet,
			Limit:    pageLimit,
			Offset:   offset,
		})
		if err != nil {
			return err
		}
		for _, it := range page.Items {
			if prefix != "" && !strings.HasPrefix(it.URI, prefix) {
				continue
			}
			items = append(items, models.CollectionItem{URI: it.URI, AddedAt: it.AddedAt})
		}
		syncToken = page.SyncToken
		if int32(len(page.Items)) < pageLimit || int32(len(items)) >= page.TotalCount {
			break
		}
		offset += pageLimit
	}

	if metaKind, ok := metadataKindFor(kind); ok {
		if err := s.warmMetadata(ctx, metaKind, items); err != nil {
			return err
		}
	}

	if err := s.Store.ReplaceSet(setKey, syncToken, items); err != nil {
		return err
	}
	s.setProgress(func(p *models.SyncProgress) { p.ItemsSynced += len(items) })
	return nil
}

func metadataKindFor(kind models.CollectionSetKind) (spotifyproto.MetadataKind, bool) {
	switch kind {
	case models.SetTrack:
		return spotifyproto.KindTrack, true
	case models.SetAlbum:
		return spotifyproto.KindAlbum, true
	case models.SetArtist:
		return spotifyproto.KindArtist, true
	case models.SetShow:
		return spotifyproto.KindShow, true
	default:
		return "", false
	}
}

// warmMetadata fetches extended metadata for every item in batches,
// fanned out over a fixed worker pool. It never fails the sync on a
// per-item lookup error, logging and continuing, since metadata is an
// enrichment and the URI/added_at pair is already durable.
func (s *Sync) warmMetadata(ctx context.Context, kind spotifyproto.MetadataKind, items []models.CollectionItem) error {
	if len(items) == 0 {
		return nil
	}

	type batch struct {
		start int
		ids   []string
	}
	var batches []batch
	for i := 0; i < len(items); i += metadataBatchSize {
		end := i + metadataBatchSize
		if end > len(items) {
			end = len(items)
		}
		ids := make([]string, 0, end-i)
		for _, it := range items[i:end] {
			ids = append(ids, idFromURI(it.URI))
		}
		batches = append(batches, batch{start: i, ids: ids})
	}

	workerCount := metadataWorkerCount
	if workerCount > len(batches) {
		workerCount = len(batches)
	}

	jobs := make(chan batch)
	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				if ctx.Err() != nil {
					return
				}
				for _, id := range b.ids {
					if _, err := s.API.GetMetadata(ctx, kind, id); err != nil {
						s.Logger.Printf("librarysync: metadata fetch failed for %s %s: %v", kind, id, err)
					}
				}
			}
		}()
	}
	for _, b := range batches {
		jobs <- b
	}
	close(jobs)
	wg.Wait()
	return ctx.Err()
}

func idFromURI(uri string) string {
	idx := strings.LastIndex(uri, ":")
	if idx == -1 {
		return uri
	}
	return uri[idx+1:]
}

// Save optimistically adds an item to a set's local store, then
// writes it through to the backend; on write failure the local change
// is rolled back.
func (s *Sync) Save(ctx context.Context, kind models.CollectionSetKind, uri string) error {
	return s.write(ctx, kind, uri, false)
}

// Remove optimistically removes an item from a set's local store,
// then writes the removal through; on write failure the local change
// is rolled back.
func (s *Sync) Remove(ctx context.Context, kind models.CollectionSetKind, uri string) error {
	return s.write(ctx, kind, uri, true)
}

func (s *Sync) write(ctx context.Context, kind models.CollectionSetKind, uri string, remove bool) error {
	setKey := kind.String()
	previous, hadPrevious := s.lookupItem(setKey, uri)

	if remove {
		if err := s.Store.RemoveItem(setKey, uri); err != nil {
			return err
		}
	} else {
		if err := s.Store.PutItem(setKey, models.CollectionItem{URI: uri}); err != nil {
			return err
		}
	}

	err := s.API.CollectionWrite(ctx, spotifyproto.WriteRequest{
		Username: s.Username,
		SetName:  kind.WireSetName(),
		URI:      uri,
		Remove:   remove,
	})
	if err == nil {
		return nil
	}

	if remove && hadPrevious {
		_ = s.Store.PutItem(setKey, previous)
	} else if !remove {
		_ = s.Store.RemoveItem(setKey, uri)
	}
	return fmt.Errorf("librarysync: write %s to %s failed, rolled back: %w", uri, setKey, err)
}

func (s *Sync) lookupItem(setKey, uri string) (models.CollectionItem, bool) {
	for _, it := range s.Store.Items(setKey) {
		if it.URI == uri {
			return it, true
		}
	}
	return models.CollectionItem{}, false
}
