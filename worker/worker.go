// Package worker implements the WorkerActor specialization: an Actor
// whose mailbox carries Jobs, executing each and publishing its outcome
// into a Result.
package worker

import (
	"context"
	"fmt"

	"github.com/tasqio/tasq/actor"
	"github.com/tasqio/tasq/job"
	"github.com/tasqio/tasq/logger"
	"github.com/tasqio/tasq/result"
)

// message is what actually travels through a WorkerActor's mailbox: the
// Job to run, plus exactly one of the two ways its outcome is published
// — a Result the router already holds a handle to (the default,
// deferred mode), or an onComplete callback invoked directly with the
// concrete value (the immediate/"send on completion" mode, see
// router.CompletionMode).
type message struct {
	job        job.Job
	res        *result.Result
	onComplete func(interface{})
}

// WorkerActor executes Jobs it receives and fills the paired Result. A
// panic or error from job.Handler is recovered and becomes a failed
// Result (JobExecutionError, policy 4: continue) — it never terminates
// the actor.
type WorkerActor struct {
	*actor.Actor
}

// New constructs and returns a WorkerActor; callers must still call
// Start to spawn its goroutine.
func New(name string, debug bool, log logger.Logger) *WorkerActor {
	w := &WorkerActor{}
	w.Actor = actor.New(name, w, debug, log)
	return w
}

// Submit enqueues job for execution, returning the Result handle the
// caller (the Router) will observe once the worker completes it.
func (w *WorkerActor) Submit(j job.Job) *result.Result {
	res := result.New()
	w.Send(message{job: j, res: res})
	return res
}

// SubmitCompletion enqueues job for execution and invokes onComplete
// directly with the outcome once it's ready, bypassing Result entirely.
// This is the worker-side half of router.ImmediateMode: it lets the
// egress side see completions in finishing order instead of submission
// order, eliminating the head-of-line blocking the deferred Submit path
// imposes on the ResponseActor.
func (w *WorkerActor) SubmitCompletion(j job.Job, onComplete func(interface{})) {
	w.Send(message{job: j, onComplete: onComplete})
}

// Handle implements actor.Behavior.
func (w *WorkerActor) Handle(ctx context.Context, msg interface{}) {
	m, ok := msg.(message)
	if !ok {
		return
	}
	w.execute(ctx, m)
}

func (w *WorkerActor) execute(ctx context.Context, m message) {
	defer func() {
		if r := recover(); r != nil {
			w.publish(m, fmt.Errorf("job %s panicked: %v", m.job.ID, r))
		}
	}()

	value, err := m.job.Handler(ctx)
	if err != nil {
		w.publish(m, fmt.Errorf("job %s failed: %w", m.job.ID, err))
		return
	}
	w.publish(m, value)
}

// publish delivers value via whichever of the two outcome channels this
// message carries.
func (w *WorkerActor) publish(m message, value interface{}) {
	if m.onComplete != nil {
		m.onComplete(value)
		return
	}
	m.res.SetResult(value)
}
