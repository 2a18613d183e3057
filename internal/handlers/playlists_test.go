package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/repositories"
	"github.com/tubeworks/backend/internal/views"
)

type inMemoryPlaylistStore struct {
	playlists map[string]models.Playlist
}

func newInMemoryPlaylistStore() *inMemoryPlaylistStore {
	return &inMemoryPlaylistStore{playlists: make(map[string]models.Playlist)}
}

func (s *inMemoryPlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *inMemoryPlaylistStore) Update(_ context.Context, playlist models.Playlist) error {
	if _, ok := s.playlists[playlist.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) Delete(_ context.Context, id string) error {
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

type playlistComposer struct {
	stubComposer
	summaries []views.PlaylistSummary
}

func (s *playlistComposer) OwnerPlaylists(context.Context, string) ([]views.PlaylistSummary, error) {
	return s.summaries, nil
}

func TestPlaylistHandlerCreateDefaultsPublic(t *testing.T) {
	store := newInMemoryPlaylistStore()
	handler := PlaylistHandler{Playlists: store}

	req := jsonRequest(t, http.MethodPost, "/api/v1/playlists", "user-1", nil,
		createPlaylistRequest{Name: "Favourites"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, p := range store.playlists {
		if !p.IsPublic {
			t.Fatal("playlists must default to public")
		}
		if p.OwnerID != "user-1" {
			t.Fatalf("owner = %q, want user-1", p.OwnerID)
		}
	}
}

func TestPlaylistHandlerCreatePrivate(t *testing.T) {
	store := newInMemoryPlaylistStore()
	handler := PlaylistHandler{Playlists: store}

	private := false
	req := jsonRequest(t, http.MethodPost, "/api/v1/playlists", "user-1", nil,
		createPlaylistRequest{Name: "Secret", IsPublic: &private})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	for _, p := range store.playlists {
		if p.IsPublic {
			t.Fatal("explicit isPublic=false must be honoured")
		}
	}
}

func TestPlaylistHandlerCreateValidation(t *testing.T) {
	handler := PlaylistHandler{Playlists: newInMemoryPlaylistStore()}

	req := jsonRequest(t, http.MethodPost, "/api/v1/playlists", "user-1", nil,
		createPlaylistRequest{Name: ""})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", rec.Code)
	}
}

func TestPlaylistHandlerCreateCountsCharacters(t *testing.T) {
	store := newInMemoryPlaylistStore()
	handler := PlaylistHandler{Playlists: store}

	req := jsonRequest(t, http.MethodPost, "/api/v1/playlists", "user-1", nil,
		createPlaylistRequest{Name: strings.Repeat("ü", models.MaxPlaylistNameLength)})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for a name at the character limit, got %d", rec.Code)
	}

	req = jsonRequest(t, http.MethodPost, "/api/v1/playlists", "user-1", nil,
		createPlaylistRequest{Name: strings.Repeat("ü", models.MaxPlaylistNameLength+1)})
	rec = httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 one character over the limit, got %d", rec.Code)
	}
}

func TestPlaylistHandlerUpdateOwnerOnly(t *testing.T) {
	store := newInMemoryPlaylistStore()
	store.playlists["pl-1"] = models.Playlist{ID: "pl-1", OwnerID: "owner", Name: "mix", IsPublic: true}
	handler := PlaylistHandler{Playlists: store}

	req := jsonRequest(t, http.MethodPatch, "/api/v1/playlists/pl-1", "intruder",
		map[string]string{"playlistID": "pl-1"}, updatePlaylistRequest{})
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestPlaylistHandlerListByOwnerHidesPrivate(t *testing.T) {
	composer := &playlistComposer{summaries: []views.PlaylistSummary{
		{ID: "pl-1", Name: "public mix", IsPublic: true},
		{ID: "pl-2", Name: "private mix", IsPublic: false},
	}}
	handler := PlaylistHandler{Views: composer}

	req := requestWithRouteParams(http.MethodGet, "/api/v1/users/owner/playlists", "stranger", map[string]string{"userID": "owner"})
	rec := httptest.NewRecorder()
	handler.ListByOwner(rec, req)

	env := decodeEnvelope(t, rec)
	var listed []views.PlaylistSummary
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "pl-1" {
		t.Fatalf("strangers must only see public playlists, got %+v", listed)
	}

	// The owner sees everything.
	composer.summaries = []views.PlaylistSummary{
		{ID: "pl-1", IsPublic: true},
		{ID: "pl-2", IsPublic: false},
	}
	req = requestWithRouteParams(http.MethodGet, "/api/v1/users/owner/playlists", "owner", map[string]string{"userID": "owner"})
	rec = httptest.NewRecorder()
	handler.ListByOwner(rec, req)

	env = decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("owner must see private playlists, got %+v", listed)
	}
}

func TestPlaylistHandlerMembershipDelegation(t *testing.T) {
	cascades := &stubCascades{}
	handler := PlaylistHandler{Cascades: cascades}

	params := map[string]string{"playlistID": "pl-1", "videoID": "vid-1"}

	rec := httptest.NewRecorder()
	handler.AddVideo(rec, requestWithRouteParams(http.MethodPost, "/api/v1/playlists/pl-1/videos/vid-1", "owner", params))
	if rec.Code != http.StatusOK {
		t.Fatalf("add: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.RemoveVideo(rec, requestWithRouteParams(http.MethodDelete, "/api/v1/playlists/pl-1/videos/vid-1", "owner", params))
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", rec.Code)
	}
}
