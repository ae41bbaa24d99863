package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrTrackNotFound       = errors.New("track not found")
	ErrJobNotFound         = errors.New("job not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrProviderFailure     = errors.New("provider failure")
	ErrTimedOut            = errors.New("generation timed out")
	ErrCancelled           = errors.New("generation cancelled")
	ErrPersistence         = errors.New("artifact persistence failed")
)

// ValidationError names the offending field and the violated constraint. It
// is returned before any side effect.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
