package generation

import (
	"errors"

	"radiocore/internal/domain"
)

// Client-facing failure messages. Everything not on the allow side collapses
// to the generic one.
const (
	msgGeneric      = "Music generation failed. Your credits have been refunded."
	msgInsufficient = "Not enough credits for this generation."
	msgQuota        = "Daily bonus limit reached. Try again tomorrow."
	msgTimedOut     = "Generation took too long and was stopped. Your credits have been refunded."
	msgCancelled    = "Generation was cancelled. Your credits have been refunded."
)

// SanitizeError maps an internal failure to the message a client may see.
// The policy is default deny: only a small fixed set of user-caused errors
// pass through as themselves, and every provider or infrastructure detail
// becomes the generic message. Raw detail belongs in logs and refund
// metadata, never in the stream.
func SanitizeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInsufficientCredits):
		return msgInsufficient
	case errors.Is(err, domain.ErrQuotaExceeded):
		return msgQuota
	case errors.Is(err, domain.ErrTimedOut):
		return msgTimedOut
	case errors.Is(err, domain.ErrCancelled):
		return msgCancelled
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	return msgGeneric
}
