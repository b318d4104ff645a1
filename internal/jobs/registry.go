// Package jobs tracks analysis jobs for the life of the process. Records are
// held in memory and never deleted; a restart forgets all history. That is a
// deliberate scope limit, not an oversight.
package jobs

import (
	"errors"
	"sync"
	"time"
)

// Status values a job moves through. Transitions are one-way:
// pending -> running -> completed | failed.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotFound reports an unknown job ID.
var ErrNotFound = errors.New("jobs: not found")

// Job is a point-in-time snapshot of one analysis job. Terminal states always
// carry their payload: completed implies Result, failed implies Error.
type Job struct {
	ID          string    `json:"task_id"`
	Symbol      string    `json:"symbol"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	Result      string    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	ReportPath  string    `json:"report_path,omitempty"`
}

// Registry is the in-memory job table. All reads return value snapshots so a
// caller can never observe a half-written terminal state.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create records a new pending job.
func (r *Registry) Create(id, symbol string, submittedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = &Job{
		ID:          id,
		Symbol:      symbol,
		Status:      StatusPending,
		SubmittedAt: submittedAt,
	}
}

// Get returns a snapshot of the job, or ErrNotFound.
func (r *Registry) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *job, nil
}

// MarkRunning moves a job into the running state.
func (r *Registry) MarkRunning(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Status = StatusRunning
	}
}

// MarkCompleted records the terminal success state. Status, result and report
// path are written under one lock so readers see them together.
func (r *Registry) MarkCompleted(id, result, reportPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Status = StatusCompleted
		job.Result = result
		job.ReportPath = reportPath
	}
}

// MarkFailed records the terminal failure state with its message.
func (r *Registry) MarkFailed(id, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Status = StatusFailed
		job.Error = message
	}
}

// Len reports the number of recorded jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
