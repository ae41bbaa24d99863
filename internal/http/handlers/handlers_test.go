package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"radiocore/internal/catalog"
	"radiocore/internal/generation"
	"radiocore/internal/infra"
	"radiocore/internal/middleware"
	"radiocore/internal/sqlinline"
	"radiocore/internal/storage"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type trackRows struct {
	tracks []catalog.Track
	i      int
}

func (r *trackRows) Next() bool {
	if r.i >= len(r.tracks) {
		return false
	}
	r.i++
	return true
}

func (r *trackRows) Scan(dest ...any) error {
	t := r.tracks[r.i-1]
	*dest[0].(*string) = t.ID
	*dest[1].(*string) = t.UserID
	*dest[2].(*string) = t.Title
	*dest[3].(*string) = t.Prompt
	*dest[4].(*string) = t.Lyrics
	*dest[5].(*string) = t.AudioURL
	*dest[6].(*string) = t.ImageURL
	*dest[7].(*string) = t.AudioFormat
	*dest[8].(*string) = t.Provider
	*dest[9].(*string) = t.TrackID
	*dest[10].(*string) = t.Status
	*dest[11].(*time.Time) = t.CreatedAt
	return nil
}

func (r *trackRows) Close()                                       {}
func (r *trackRows) Err() error                                   { return nil }
func (r *trackRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *trackRows) Conn() *pgx.Conn                              { return nil }
func (r *trackRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *trackRows) RawValues() [][]byte                          { return nil }
func (r *trackRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

// catalogSQL serves the catalog queries from a fixed track list.
type catalogSQL struct {
	tracks []catalog.Track
}

func (s *catalogSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *catalogSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if query != sqlinline.QSelectRecentTracks {
		return nil, fmt.Errorf("unexpected query")
	}
	var match []catalog.Track
	for _, t := range s.tracks {
		if t.UserID == args[0].(string) {
			match = append(match, t)
		}
	}
	return &trackRows{tracks: match}, nil
}

func (s *catalogSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if query != sqlinline.QSelectTrack {
		return simpleRow{scan: func(dest ...any) error { return fmt.Errorf("unexpected query") }}
	}
	for i := range s.tracks {
		t := s.tracks[i]
		if t.ID == args[0].(string) && t.UserID == args[1].(string) {
			rows := &trackRows{tracks: []catalog.Track{t}}
			rows.Next()
			return simpleRow{scan: rows.Scan}
		}
	}
	return simpleRow{}
}

func newTestApp(t *testing.T, sql infra.SQLExecutor, store *storage.FileStore) *App {
	t.Helper()
	logger := infra.NewLogger("production")
	return &App{
		Cfg:      &infra.Config{},
		Registry: generation.NewRegistry(),
		Catalog:  catalog.NewCatalog(sql, logger),
		Store:    store,
		Logger:   logger,
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &catalogSQL{}, nil)

	rr := httptest.NewRecorder()
	app.Health(rr, httptest.NewRequest("GET", "/v1/healthz", nil))

	if rr.Code != 200 {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestRecentTracks(t *testing.T) {
	now := time.Now().UTC()
	sql := &catalogSQL{tracks: []catalog.Track{
		{ID: "lib-1", UserID: "user-1", Title: "Mine", Status: "ready", CreatedAt: now},
		{ID: "lib-2", UserID: "user-2", Title: "Theirs", Status: "ready", CreatedAt: now},
	}}
	app := newTestApp(t, sql, nil)

	req := httptest.NewRequest("GET", "/v1/generate/recent", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	rr := httptest.NewRecorder()

	app.RecentTracks(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var payload struct {
		Tracks []map[string]any `json:"tracks"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Tracks) != 1 {
		t.Fatalf("expected only the caller's tracks, got %d", len(payload.Tracks))
	}
	if payload.Tracks[0]["title"] != "Mine" {
		t.Fatalf("unexpected track: %v", payload.Tracks[0])
	}
}

func TestRecentTracks_Unauthenticated(t *testing.T) {
	app := newTestApp(t, &catalogSQL{}, nil)

	rr := httptest.NewRecorder()
	app.RecentTracks(rr, httptest.NewRequest("GET", "/v1/generate/recent", nil))

	if rr.Code != 401 {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestCancelGeneration_UnknownJob(t *testing.T) {
	app := newTestApp(t, &catalogSQL{}, nil)

	req := httptest.NewRequest("POST", "/v1/generate/music/no-such-job/cancel", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("job_id", "no-such-job")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	app.CancelGeneration(rr, req)

	if rr.Code != 404 {
		t.Fatalf("expected 404 for unknown job, got %d", rr.Code)
	}
}

func TestTrackBundle(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	key, err := store.WriteStream(context.Background(), "audio/user-1/job-1.mp3", strings.NewReader("audio bytes"))
	if err != nil {
		t.Fatalf("seed audio: %v", err)
	}

	sql := &catalogSQL{tracks: []catalog.Track{{
		ID:          "lib-1",
		UserID:      "user-1",
		Title:       "My Song!",
		Lyrics:      "la la la",
		AudioURL:    store.PublicURL(key),
		AudioFormat: "mp3",
		Provider:    "replicate",
		TrackID:     "RC-2026-AAAA-BBBBBB",
		Status:      "ready",
		CreatedAt:   time.Now().UTC(),
	}}}
	app := newTestApp(t, sql, store)

	req := httptest.NewRequest("GET", "/v1/library/lib-1/bundle", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "lib-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	app.TrackBundle(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status: %d, body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("unexpected content type: %q", ct)
	}

	zr, err := zip.NewReader(bytes.NewReader(rr.Body.Bytes()), int64(rr.Body.Len()))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["My-Song.mp3"] {
		t.Fatalf("missing audio entry, got %v", names)
	}
	if !names["lyrics.txt"] {
		t.Fatalf("missing lyrics entry, got %v", names)
	}
}

func TestTrackBundle_WrongOwner(t *testing.T) {
	sql := &catalogSQL{tracks: []catalog.Track{{ID: "lib-1", UserID: "user-1", Status: "ready"}}}
	app := newTestApp(t, sql, nil)

	req := httptest.NewRequest("GET", "/v1/library/lib-1/bundle", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "intruder"))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "lib-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	app.TrackBundle(rr, req)

	if rr.Code != 404 {
		t.Fatalf("other users' tracks must 404, got %d", rr.Code)
	}
}
