package cron

import "context"

// Job is a unit of scheduled work executed by the worker loop.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs a worker instance runs each cycle. Jobs execute
// in registration order and names must be unique.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry builds a registry preloaded with the provided jobs.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{names: make(map[string]struct{})}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register adds a job. Nil jobs and duplicate names are ignored.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if _, seen := r.names[job.Name()]; seen {
		return
	}
	r.names[job.Name()] = struct{}{}
	r.jobs = append(r.jobs, job)
}

// Jobs returns the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
