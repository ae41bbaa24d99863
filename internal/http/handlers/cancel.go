package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"radiocore/internal/middleware"
)

// CancelGeneration stops an in-flight job owned by the caller. The refund is
// issued by the pipeline, not here; this only delivers the signal.
func (a *App) CancelGeneration(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.errJSON(w, http.StatusUnauthorized, "authentication required")
		return
	}

	jobID := chi.URLParam(r, "job_id")
	if err := a.Registry.Cancel(jobID, userID); err != nil {
		a.errJSON(w, http.StatusNotFound, "job not found")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
