package domain

// JobState enumerates the generation lifecycle.
//
//	Created -> CreditHeld -> Submitted -> Polling ->
//	  {Succeeded | Failed | Canceled | TimedOut} -> Persisted | Refunded
//
// Succeeded is not terminal for the caller: the job only counts once the
// artifact is durably stored (Persisted). Every other branch ends in
// Refunded, never leaving a held deduction undischarged.
type JobState string

const (
	StateCreated    JobState = "created"
	StateCreditHeld JobState = "credit-held"
	StateSubmitted  JobState = "submitted"
	StatePolling    JobState = "polling"
	StateSucceeded  JobState = "succeeded"
	StateFailed     JobState = "failed"
	StateCanceled   JobState = "canceled"
	StateTimedOut   JobState = "timed-out"
	StatePersisted  JobState = "persisted"
	StateRefunded   JobState = "refunded"
)

// Terminal reports whether no further automatic transition occurs from s.
func (s JobState) Terminal() bool {
	switch s {
	case StatePersisted, StateRefunded:
		return true
	}
	return false
}

// GenerationResult is created once, on terminal success, and discharges the
// credit hold without a refund.
type GenerationResult struct {
	AudioURL        string
	ImageURL        string
	LibraryID       string
	TrackID         string
	Provider        string
	Lyrics          string
	CreditsDeducted int
	BalanceAfter    int
}
