package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"radiocore/internal/domain"
	"radiocore/internal/middleware"
	"radiocore/pkg/zip"
)

// TrackBundle streams a zip with the track's audio, cover art when present,
// and the lyrics as text.
func (a *App) TrackBundle(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.errJSON(w, http.StatusUnauthorized, "authentication required")
		return
	}

	track, err := a.Catalog.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		if errors.Is(err, domain.ErrTrackNotFound) {
			a.errJSON(w, http.StatusNotFound, "track not found")
			return
		}
		a.Logger.Error().Err(err).Msg("track lookup failed")
		a.errJSON(w, http.StatusInternalServerError, "could not load track")
		return
	}

	var entries []zip.Entry

	audioKey, ok := a.Store.KeyForURL(track.AudioURL)
	if !ok {
		a.errJSON(w, http.StatusNotFound, "track audio unavailable")
		return
	}
	audio, err := a.Store.Open(audioKey)
	if err != nil {
		a.Logger.Error().Err(err).Str("key", audioKey).Msg("bundle audio open failed")
		a.errJSON(w, http.StatusNotFound, "track audio unavailable")
		return
	}
	defer audio.Close()
	entries = append(entries, zip.Entry{
		Filename: bundleName(track.Title) + path.Ext(audioKey),
		Data:     audio,
	})

	if track.ImageURL != "" {
		if coverKey, ok := a.Store.KeyForURL(track.ImageURL); ok {
			if cover, err := a.Store.Open(coverKey); err == nil {
				defer cover.Close()
				entries = append(entries, zip.Entry{
					Filename: "cover" + path.Ext(coverKey),
					Data:     cover,
				})
			}
		}
	}

	entries = append(entries, zip.Entry{
		Filename: "lyrics.txt",
		Data:     strings.NewReader(track.Lyrics),
	})

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bundleName(track.Title)+".zip"))
	if err := zip.WriteArchive(w, entries); err != nil {
		a.Logger.Error().Err(err).Str("library_id", track.ID).Msg("bundle write failed")
	}
}

// bundleName turns a track title into a safe archive filename.
func bundleName(title string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, title)
	mapped = strings.Trim(mapped, "-")
	if mapped == "" {
		return "track"
	}
	return mapped
}
