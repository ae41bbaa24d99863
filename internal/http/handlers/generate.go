package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"radiocore/internal/domain"
	"radiocore/internal/generation"
	"radiocore/internal/middleware"
	"radiocore/internal/stream"
)

type generateMusicRequest struct {
	Title        string `json:"title"`
	Prompt       string `json:"prompt"`
	Lyrics       string `json:"lyrics"`
	Duration     string `json:"duration"`
	Language     string `json:"language"`
	Genre        string `json:"genre"`
	AudioFormat  string `json:"audio_format"`
	SampleRate   int    `json:"sample_rate"`
	Bitrate      int    `json:"bitrate"`
	WantCoverArt bool   `json:"cover_art"`
}

// GenerateMusic runs the full pipeline behind an NDJSON stream. Everything
// that can be rejected cheaply fails with a plain status before the stream
// opens; after the started event the response code is spent and failures
// arrive as result events.
func (a *App) GenerateMusic(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.errJSON(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body generateMusicRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.errJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Language == "" {
		body.Language = middleware.LanguageFromContext(r.Context())
	}

	req, err := domain.NewGenerationRequest(userID, domain.RawRequest{
		Title:        body.Title,
		Prompt:       body.Prompt,
		Lyrics:       body.Lyrics,
		Duration:     domain.DurationClass(body.Duration),
		Language:     body.Language,
		Genre:        body.Genre,
		AudioFormat:  body.AudioFormat,
		SampleRate:   body.SampleRate,
		Bitrate:      body.Bitrate,
		WantCoverArt: body.WantCoverArt,
	})
	if err != nil {
		a.errJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := a.Controller.Prepare(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrQuotaExceeded):
			a.errJSON(w, http.StatusTooManyRequests, generation.SanitizeError(err))
		case errors.Is(err, domain.ErrInsufficientCredits):
			a.errJSON(w, http.StatusPaymentRequired, generation.SanitizeError(err))
		case errors.Is(err, domain.ErrUserNotFound):
			a.errJSON(w, http.StatusNotFound, "account not found")
		default:
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("generation prepare failed")
			a.errJSON(w, http.StatusInternalServerError, generation.SanitizeError(err))
		}
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Run blocks until the job is terminal even when the client is gone;
	// the emitter swallows writes to a dead connection.
	a.Controller.Run(r.Context(), job, stream.NewEmitter(w))
}
