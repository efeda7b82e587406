package librarysync

import (
	"context"
	"fmt"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
	"github.com/gesellix/spotify-core/pkg/models"
)

// fakeAPI is a scripted stand-in for pkg/spclient.Client used to drive
// the sync engine without a network round trip.
type fakeAPI struct {
	pages         map[string][]*spotifyproto.PageResponse
	pageCalls     map[string]int
	deltas        map[string]*spotifyproto.DeltaResponse
	writeErr      error
	writes        []spotifyproto.WriteRequest
	metadataCalls int
	metadataErr   error
	playlists     map[string]*spotifyproto.SelectedListContent
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		pages:     make(map[string][]*spotifyproto.PageResponse),
		pageCalls: make(map[string]int),
		deltas:    make(map[string]*spotifyproto.DeltaResponse),
		playlists: make(map[string]*spotifyproto.SelectedListContent),
	}
}

func (f *fakeAPI) CollectionPage(_ context.Context, req spotifyproto.PageRequest) (*spotifyproto.PageResponse, error) {
	pages := f.pages[req.SetName]
	idx := f.pageCalls[req.SetName]
	f.pageCalls[req.SetName] = idx + 1
	if idx >= len(pages) {
		return &spotifyproto.PageResponse{}, nil
	}
	return pages[idx], nil
}

func (f *fakeAPI) CollectionDelta(_ context.Context, req spotifyproto.DeltaRequest) (*spotifyproto.DeltaResponse, error) {
	resp, ok := f.deltas[req.SetName]
	if !ok {
		return &spotifyproto.DeltaResponse{DeltaUpdatePossible: false}, nil
	}
	return resp, nil
}

func (f *fakeAPI) CollectionWrite(_ context.Context, req spotifyproto.WriteRequest) error {
	f.writes = append(f.writes, req)
	return f.writeErr
}

func (f *fakeAPI) GetMetadata(_ context.Context, kind spotifyproto.MetadataKind, id string) (*spotifyproto.EntityMetadata, error) {
	f.metadataCalls++
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return &spotifyproto.EntityMetadata{Name: fmt.Sprintf("%s-%s", kind, id)}, nil
}

func (f *fakeAPI) GetPlaylist(_ context.Context, uri string, _, _ int) (*spotifyproto.SelectedListContent, error) {
	content, ok := f.playlists[uri]
	if !ok {
		return &spotifyproto.SelectedListContent{}, nil
	}
	return content, nil
}

func (f *fakeAPI) DiffPlaylist(_ context.Context, uri string, _ models.Revision) (*spotifyproto.SelectedListContent, error) {
	return f.GetPlaylist(context.Background(), uri, 0, 0)
}
