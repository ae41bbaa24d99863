// Package stream writes newline-delimited JSON progress events to a response
// body that may die at any moment.
package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
)

// Event is one NDJSON line. Type is "started" or "result"; JobID appears on
// started events so the caller can address the cancel endpoint, the remaining
// fields appear only on result events.
type Event struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id,omitempty"`
	Success   *bool  `json:"success,omitempty"`
	AudioURL  string `json:"audio_url,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	LibraryID string `json:"library_id,omitempty"`
	TrackID   string `json:"track_id,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Error     string `json:"error,omitempty"`
	Credits   *int   `json:"credits,omitempty"`
	Refunded  *bool  `json:"refunded,omitempty"`
}

// Emitter serializes events onto one response stream. The first write error
// marks the stream dead; every later Emit is silently swallowed so pipeline
// code never has to care whether the client is still there.
type Emitter struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	dead    bool
}

func NewEmitter(w http.ResponseWriter) *Emitter {
	e := &Emitter{w: w}
	if f, ok := w.(http.Flusher); ok {
		e.flusher = f
	}
	return e
}

// Emit writes one event line and flushes. Returns false once the stream is
// dead; the caller may use that to stop emitting but must not stop working.
func (e *Emitter) Emit(ev Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dead {
		return false
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return !e.dead
	}
	line = append(line, '\n')

	if _, err := e.w.Write(line); err != nil {
		e.dead = true
		return false
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return true
}

// Alive reports whether the last write succeeded.
func (e *Emitter) Alive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.dead
}

// Started builds the opening event. The job id is the handle the caller
// needs to request cancellation later.
func Started(jobID string) Event {
	return Event{Type: "started", JobID: jobID}
}

// Bool and Int produce pointers for the optional result fields.
func Bool(v bool) *bool { return &v }
func Int(v int) *int    { return &v }
