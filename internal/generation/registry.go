package generation

import (
	"sync"

	"radiocore/internal/domain"
)

// Registry tracks in-flight jobs on this instance so the cancel endpoint can
// reach them. Entries are owner-checked: only the user who started a job may
// cancel it.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*registration
}

type registration struct {
	userID string
	cancel chan struct{}
	once   sync.Once
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*registration)}
}

// register returns the channel closed when the job is cancelled.
func (r *Registry) register(jobID, userID string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg := &registration{userID: userID, cancel: make(chan struct{})}
	r.jobs[jobID] = reg
	return reg.cancel
}

func (r *Registry) unregister(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, jobID)
}

// Cancel signals the job to stop. ErrJobNotFound covers both unknown ids and
// other users' jobs so the endpoint cannot be used to probe job existence.
func (r *Registry) Cancel(jobID, userID string) error {
	r.mu.Lock()
	reg, ok := r.jobs[jobID]
	r.mu.Unlock()

	if !ok || reg.userID != userID {
		return domain.ErrJobNotFound
	}
	reg.once.Do(func() { close(reg.cancel) })
	return nil
}
