// Package registry tracks in-flight download jobs, their worker
// processes, and recorded cancellation requests.
package registry

import (
	"os"
	"sync"

	"downtube/internal/models"
)

// Registry is the process-wide table of live jobs. Each job is mutated
// only by its owning supervisor; reads return copies, never aliases.
type Registry struct {
	mu        sync.Mutex
	jobs      map[string]models.Job
	procs     map[string]*os.Process
	cancelled map[string]struct{}
}

// New returns an empty registry. Construct once per process lifetime.
func New() *Registry {
	return &Registry{
		jobs:      make(map[string]models.Job),
		procs:     make(map[string]*os.Process),
		cancelled: make(map[string]struct{}),
	}
}

// Add registers a job snapshot at admission time.
func (r *Registry) Add(j models.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = j
}

// Update applies fn to the stored snapshot for id, if present.
func (r *Registry) Update(id string, fn func(*models.Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return
	}
	fn(&j)
	r.jobs[id] = j
}

// Get returns a copy of the job snapshot for id.
func (r *Registry) Get(id string) (models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	return j, ok
}

// Active returns copies of all live job snapshots.
func (r *Registry) Active() []models.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	return out
}

// Remove drops the job and any associated process/cancellation entries.
// Called on reaching a terminal state.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	delete(r.procs, id)
	delete(r.cancelled, id)
}

// SetProcess associates the running worker process with a job id.
func (r *Registry) SetProcess(id string, p *os.Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[id] = p
}

// ClearProcess detaches the worker process from a job id after exit.
func (r *Registry) ClearProcess(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.procs, id)
}

// MarkCancelled records a cancellation request for id and resolves the
// process handle to signal. The flag is recorded before the kill is
// delivered so exit handling can distinguish "killed by us" from
// "failed on its own". Returns false when no such live job exists.
func (r *Registry) MarkCancelled(id string) (*os.Process, models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, models.Job{}, false
	}
	r.cancelled[id] = struct{}{}
	return r.procs[id], j, true
}

// WasCancelled reports whether a cancellation request was recorded for id.
func (r *Registry) WasCancelled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cancelled[id]
	return ok
}
