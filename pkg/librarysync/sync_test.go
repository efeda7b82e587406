package librarysync

import (
	"context"
	"errors"
	"testing"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
	"github.com/gesellix/spotify-core/pkg/models"
)

func newTestSync(t *testing.T, api *fakeAPI) *Sync {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return NewSync(api, store, "testuser", nil)
}

func TestSyncSet_FullSyncFiltersByURIPrefixAndWarmsMetadata(t *testing.T) {
	api := newFakeAPI()
	api.pages["collection"] = []*spotifyproto.PageResponse{
		{
			Items: []spotifyproto.PageItem{
				{URI: "spotify:track:a", AddedAt: 1},
				{URI: "spotify:album:x", AddedAt: 2},
				{URI: "spotify:track:b", AddedAt: 3},
			},
			SyncToken:  "tok1",
			TotalCount: 3,
		},
	}
	s := newTestSync(t, api)

	if err := s.SyncSet(context.Background(), models.SetTrack); err != nil {
		t.Fatalf("SyncSet: %v", err)
	}

	items := s.Store.Items(models.SetTrack.String())
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (tracks only)", len(items))
	}
	if api.metadataCalls != 2 {
		t.Errorf("got %d metadata calls, want 2", api.metadataCalls)
	}
	token, ok := s.Store.Revision(models.SetTrack.String())
	if !ok || token != "tok1" {
		t.Errorf("got revision (%q,%v), want (tok1,true)", token, ok)
	}
}

func TestSyncSet_UsesDeltaWhenRevisionKnownAndPossible(t *testing.T) {
	api := newFakeAPI()
	s := newTestSync(t, api)
	if err := s.Store.ReplaceSet(models.SetArtist.String(), "tok0", nil); err != nil {
		t.Fatalf("seed ReplaceSet: %v", err)
	}
	api.deltas["artist"] = &spotifyproto.DeltaResponse{
		DeltaUpdatePossible: true,
		Items: []spotifyproto.DeltaItem{
			{URI: "spotify:artist:1", IsRemoved: false},
		},
		SyncToken: "tok1",
	}

	if err := s.SyncSet(context.Background(), models.SetArtist); err != nil {
		t.Fatalf("SyncSet: %v", err)
	}

	items := s.Store.Items(models.SetArtist.String())
	if len(items) != 1 || items[0].URI != "spotify:artist:1" {
		t.Errorf("got items %+v, want [spotify:artist:1]", items)
	}
	if api.pageCalls["artist"] != 0 {
		t.Error("expected no page calls when delta was used")
	}
}

func TestSyncSet_FallsBackToFullSyncWhenDeltaImpossible(t *testing.T) {
	api := newFakeAPI()
	s := newTestSync(t, api)
	if err := s.Store.ReplaceSet(models.SetShow.String(), "stale", nil); err != nil {
		t.Fatalf("seed ReplaceSet: %v", err)
	}
	api.deltas["show"] = &spotifyproto.DeltaResponse{DeltaUpdatePossible: false}
	api.pages["show"] = []*spotifyproto.PageResponse{
		{Items: []spotifyproto.PageItem{{URI: "spotify:show:1"}}, SyncToken: "tok2", TotalCount: 1},
	}

	if err := s.SyncSet(context.Background(), models.SetShow); err != nil {
		t.Fatalf("SyncSet: %v", err)
	}
	if api.pageCalls["show"] != 1 {
		t.Errorf("got %d page calls, want 1 (fallback to full sync)", api.pageCalls["show"])
	}
}

func TestSave_RollsBackOnWriteFailure(t *testing.T) {
	api := newFakeAPI()
	api.writeErr = errors.New("backend rejected write")
	s := newTestSync(t, api)

	err := s.Save(context.Background(), models.SetTrack, "spotify:track:new")
	if err == nil {
		t.Fatal("expected an error from Save")
	}
	if len(s.Store.Items(models.SetTrack.String())) != 0 {
		t.Error("expected the optimistic add to be rolled back")
	}
}

func TestSave_SucceedsAndPersists(t *testing.T) {
	api := newFakeAPI()
	s := newTestSync(t, api)

	if err := s.Save(context.Background(), models.SetTrack, "spotify:track:new"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(s.Store.Items(models.SetTrack.String())) != 1 {
		t.Error("expected the item to remain after a successful write")
	}
	if len(api.writes) != 1 || api.writes[0].Remove {
		t.Errorf("got writes %+v, want one non-remove write", api.writes)
	}
}

func TestRemove_RollsBackOnWriteFailure(t *testing.T) {
	api := newFakeAPI()
	s := newTestSync(t, api)
	if err := s.Store.PutItem(models.SetTrack.String(), models.CollectionItem{URI: "spotify:track:a"}); err != nil {
		t.Fatalf("seed PutItem: %v", err)
	}

	api.writeErr = errors.New("backend rejected write")
	if err := s.Remove(context.Background(), models.SetTrack, "spotify:track:a"); err == nil {
		t.Fatal("expected an error from Remove")
	}
	if len(s.Store.Items(models.SetTrack.String())) != 1 {
		t.Error("expected the optimistic removal to be rolled back")
	}
}
