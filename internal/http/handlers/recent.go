package handlers

import (
	"net/http"
	"time"

	"radiocore/internal/catalog"
	"radiocore/internal/middleware"
)

// A client that lost its stream checks here for tracks that finished while
// it was away.
const recentWindow = 15 * time.Minute

// RecentTracks lists the caller's ready tracks from the last few minutes.
func (a *App) RecentTracks(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.errJSON(w, http.StatusUnauthorized, "authentication required")
		return
	}

	tracks, err := a.Catalog.RecentReady(r.Context(), userID, recentWindow, 10)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("recent tracks query failed")
		a.errJSON(w, http.StatusInternalServerError, "could not load recent tracks")
		return
	}
	if tracks == nil {
		tracks = []catalog.Track{}
	}
	a.json(w, http.StatusOK, map[string]any{"tracks": tracks})
}
