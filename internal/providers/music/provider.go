// Package music adapts the upstream generation providers behind one
// submit-then-poll contract.
package music

import (
	"context"
	"encoding/json"
)

// Status is the normalized job state reported by a provider.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Terminal reports whether no further polls can change the status.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// Handle identifies a submitted job at its provider.
type Handle struct {
	ID       string
	Provider string
}

// JobInput is the provider-agnostic payload for one generation.
type JobInput struct {
	Prompt     string
	Lyrics     string
	Format     string
	SampleRate int
	Bitrate    int
}

// Poll is one status observation.
type Poll struct {
	Status Status
	Output json.RawMessage
	Err    string
}

// Provider submits jobs and reports their progress. Submit must return a
// handle usable by Status until a terminal poll is observed.
type Provider interface {
	Name() string
	Submit(ctx context.Context, in JobInput) (Handle, error)
	Status(ctx context.Context, h Handle) (Poll, error)
}

// Canceler is implemented by providers that support upstream cancellation.
// Cancellation is best effort; the ledger refund never depends on it.
type Canceler interface {
	Cancel(ctx context.Context, h Handle) error
}
