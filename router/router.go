// Package router implements the ActorPool: a fixed-size set of
// WorkerActors plus a selection policy that picks one per incoming Job.
package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/tasqio/tasq/job"
	"github.com/tasqio/tasq/logger"
	"github.com/tasqio/tasq/result"
	"github.com/tasqio/tasq/worker"
)

// Policy names the enumerated routing strategies. Additional policies
// are explicitly out of scope.
type Policy string

const (
	RoundRobin      Policy = "round-robin"
	Random          Policy = "random"
	SmallestMailbox Policy = "smallest-mailbox"
)

// selector picks a candidate slot index out of n given a mailbox-size
// reader; liveness is checked by the caller (Router.pickLocked).
// Implemented per Policy in policy.go.
type selector interface {
	next(sizes func(i int) int, n int) int
}

// Router owns a fixed pool of WorkerActors and routes Jobs to them by
// Policy. Pool composition is fixed after construction: a crashed
// worker's slot is skipped rather than replaced.
type Router struct {
	mu       sync.Mutex
	workers  []*worker.WorkerActor
	alive    []bool
	sel      selector
	log      logger.Logger
}

// New constructs n WorkerActors, starts them, and returns a Router using
// policy for selection. ctx governs the lifetime of every worker's
// dispatch goroutine.
func New(ctx context.Context, n int, policy Policy, debug bool, log logger.Logger) (*Router, error) {
	if n <= 0 {
		return nil, fmt.Errorf("router: worker count must be positive, got %d", n)
	}
	if log == nil {
		log = logger.Discard()
	}

	sel, err := newSelector(policy)
	if err != nil {
		return nil, err
	}

	r := &Router{
		workers: make([]*worker.WorkerActor, n),
		alive:   make([]bool, n),
		sel:     sel,
		log:     log.WithField("component", "router"),
	}

	for i := 0; i < n; i++ {
		w := worker.New(fmt.Sprintf("worker-%d", i), debug, log)
		w.Start(ctx)
		r.workers[i] = w
		r.alive[i] = true
	}

	return r, nil
}

// CompletionMode selects how a routed job's outcome reaches the egress
// side. DeferredMode (the default) is what Route uses: it returns a
// *result.Result for the caller to hand to a ResponseActor, which
// blocks on it in submission order (head-of-line blocking, by design —
// see SPEC_FULL.md §5). ImmediateMode, used via RouteImmediate, bypasses
// the Result wait entirely: the worker invokes onComplete directly as
// soon as it finishes, so responses reach egress in completion order.
type CompletionMode int

const (
	DeferredMode CompletionMode = iota
	ImmediateMode
)

// Route selects a live WorkerActor per the configured Policy, submits job
// to it, and returns the Result handle the worker will complete. If every
// worker has crashed, Route returns a pre-failed Result instead of
// panicking or blocking.
func (r *Router) Route(j job.Job) *result.Result {
	r.mu.Lock()
	idx, ok := r.pickLocked()
	r.mu.Unlock()

	if !ok {
		res := result.New()
		res.SetResult(fmt.Errorf("job %s: no live workers available", j.ID))
		return res
	}

	return r.workers[idx].Submit(j)
}

// RouteImmediate selects a live WorkerActor exactly as Route does, but
// has it invoke onComplete directly with the job's outcome instead of
// publishing to a Result — the ImmediateMode path. Returns false (and
// calls onComplete with an error immediately) if no live worker is
// available.
func (r *Router) RouteImmediate(j job.Job, onComplete func(value interface{})) bool {
	r.mu.Lock()
	idx, ok := r.pickLocked()
	r.mu.Unlock()

	if !ok {
		onComplete(fmt.Errorf("job %s: no live workers available", j.ID))
		return false
	}

	r.workers[idx].SubmitCompletion(j, onComplete)
	return true
}

// pickLocked must be called with r.mu held. It asks the policy for a
// candidate index, skipping dead slots (policy 5: crash-stop, the router
// tolerates the gap) until it finds one, or exhausts the pool.
func (r *Router) pickLocked() (int, bool) {
	n := len(r.workers)
	liveCount := 0
	for _, alive := range r.alive {
		if alive {
			liveCount++
		}
	}
	if liveCount == 0 {
		return -1, false
	}

	for attempt := 0; attempt < n; attempt++ {
		idx := r.sel.next(r.sizeLocked, n)
		if r.alive[idx] {
			if !r.workers[idx].IsRunning() {
				r.alive[idx] = false
				continue
			}
			return idx, true
		}
	}

	// A policy that can repeat indices (Random) may not have visited every
	// slot above; fall back to the first live one.
	for idx := 0; idx < n; idx++ {
		if !r.alive[idx] {
			continue
		}
		if !r.workers[idx].IsRunning() {
			r.alive[idx] = false
			continue
		}
		return idx, true
	}
	return -1, false
}

// sizeLocked reads a worker's mailbox size; called only from within the
// short critical section pickLocked already holds, which is the "snapshot
// taken inside a short critical section over the pool list" the
// SmallestMailbox policy needs.
func (r *Router) sizeLocked(i int) int {
	if !r.alive[i] {
		return 1 << 30 // effectively infinite, never selected
	}
	return r.workers[i].MailboxSize()
}

// Stats reports, per worker, its name, whether it is still alive, and its
// current (weakly consistent) mailbox size — used by the Master's debug
// reporting.
type WorkerStat struct {
	Name        string
	Alive       bool
	MailboxSize int
}

func (r *Router) Stats() []WorkerStat {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make([]WorkerStat, len(r.workers))
	for i, w := range r.workers {
		stats[i] = WorkerStat{
			Name:        w.Name(),
			Alive:       r.alive[i],
			MailboxSize: w.MailboxSize(),
		}
	}
	return stats
}

// Close broadcasts Close to every live worker and Joins each in
// sequence, then returns counts of workers that were still alive versus
// already crashed at shutdown time.
func (r *Router) Close() (live, crashed int) {
	r.mu.Lock()
	workers := append([]*worker.WorkerActor(nil), r.workers...)
	alive := append([]bool(nil), r.alive...)
	r.mu.Unlock()

	for i, w := range workers {
		if alive[i] {
			w.Close()
		} else {
			crashed++
		}
	}
	for i, w := range workers {
		if alive[i] {
			w.Join()
			live++
		}
	}
	r.log.Infof("router closed: %d live, %d crashed", live, crashed)
	return live, crashed
}
