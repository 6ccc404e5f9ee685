// Package job defines the unit of work routed to a WorkerActor. The
// distilled spec treats the payload as opaque; this expansion gives it
// the minimal concrete shape a Go worker pool needs: an ID for tracing
// and a Handler closure the worker actually invokes.
package job

import "context"

// Handler is the user-supplied callable a WorkerActor executes. It is
// the core's only hook into business logic, matching the distilled
// spec's framing of "worker business logic" as an external collaborator.
type Handler func(ctx context.Context) (interface{}, error)

// Job is the message routed through the pool: an opaque callable plus an
// identifier used only for logging and tracing, never for routing or
// ordering decisions.
type Job struct {
	ID      string
	Handler Handler
}

// New wraps fn as a Job with the given id.
func New(id string, fn Handler) Job {
	return Job{ID: id, Handler: fn}
}
