// Package response implements the ResponseActor specialization: a
// single actor that serializes every outbound send, so concurrent
// worker completions never interleave bytes on the shared egress
// socket.
package response

import (
	"context"
	"time"

	"github.com/tasqio/tasq/actor"
	"github.com/tasqio/tasq/logger"
	"github.com/tasqio/tasq/result"
)

// SendFunc is the egress capability a ResponseActor serializes access
// to — typically transport.Socket.Send, but kept as a plain function
// type so tests never need a real socket.
type SendFunc func(v interface{}) error

// Envelope is a (send, payload) pair as described in the distilled spec.
// Payload is usually a *result.Result (the default, head-of-line-blocking
// mode); a caller using the "send on completion" alternate strategy
// (§9 of the expanded spec) passes the already-resolved value directly,
// which ResponseActor forwards without blocking.
type Envelope struct {
	Send    SendFunc
	Payload interface{}
}

// ResponseActor dequeues Envelopes and invokes Send serially.
type ResponseActor struct {
	*actor.Actor
	resultTimeout time.Duration
	log           logger.Logger
}

// New constructs a ResponseActor. resultTimeout bounds how long the
// actor will block on a *result.Result payload before giving up on that
// single response and moving on — without this bound a single hung job
// would wedge egress for every later response.
func New(name string, resultTimeout time.Duration, debug bool, log logger.Logger) *ResponseActor {
	if log == nil {
		log = logger.Discard()
	}
	r := &ResponseActor{resultTimeout: resultTimeout, log: log.WithField("actor", name)}
	r.Actor = actor.New(name, r, debug, log)
	return r
}

// Submit enqueues (send, payload) for serialized delivery. Returns
// immediately.
func (r *ResponseActor) Submit(send SendFunc, payload interface{}) {
	r.Send(Envelope{Send: send, Payload: payload})
}

// Handle implements actor.Behavior.
func (r *ResponseActor) Handle(ctx context.Context, msg interface{}) {
	env, ok := msg.(Envelope)
	if !ok {
		return
	}

	value := env.Payload
	if res, ok := env.Payload.(*result.Result); ok {
		outcome := res.ResultTimeout(r.resultTimeout)
		if outcome.TimedOut {
			value = errTimeout{}
		} else {
			value = outcome.Value
		}
	}

	if err := env.Send(value); err != nil {
		// Not retried: the distilled spec treats the egress socket as a
		// single-writer capability with no backpressure story beyond
		// the mailbox itself.
		r.log.Errorf("egress send failed: %v", err)
	}
}

// errTimeout is the client-visible placeholder a ResponseActor sends
// when the per-message result timeout elapses before the worker
// published a value.
type errTimeout struct{}

func (errTimeout) Error() string { return "result timed out before a worker completed it" }
