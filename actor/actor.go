// Package actor provides the mailbox-driven execution unit every
// specialized actor (worker, response) in this module is built on: a
// private FIFO mailbox, a dedicated goroutine, and a small lifecycle
// (Start/Send/Close/Join) around it. A Behavior supplies the body; the
// Actor's own dispatch loop reads the mailbox and feeds each message to
// it.
package actor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tasqio/tasq/logger"
)

// ControlMessage denotes the control instruction associated with an
// Envelope. Control messages are kept distinct from user payloads so a
// Behavior never has to inspect its own messages for a magic value.
type ControlMessage int

const (
	// MessageData is the default control message indicating a user
	// payload should be processed by the Behavior's Handle method.
	MessageData ControlMessage = iota
	// MessageStop is the ExitSentinel: it requests that the actor stop
	// gracefully. It is the only control message that ends the actor;
	// cancelling the context passed to Start, an Init error, or a panic
	// escaping the dispatch loop also end it.
	MessageStop
	// MessageRestart asks a supervised Behavior to re-enter via Init
	// without tearing down the Actor itself. None of this module's own
	// actors (WorkerActor, ResponseActor) emit it; it exists for
	// callers embedding actor.Actor under their own supervision.
	MessageRestart
)

// Envelope wraps Actor messages, allowing control messages to be carried
// alongside user-defined payloads without a parallel channel.
type Envelope struct {
	Control ControlMessage
	Payload interface{}
}

// Behavior is the user-supplied body dispatched by an Actor's goroutine.
type Behavior interface {
	Handle(ctx context.Context, msg interface{})
}

// Initialiser lets a Behavior run setup logic before the first message.
type Initialiser interface {
	Init(ctx context.Context) error
}

// Terminator lets a Behavior run cleanup when its actor stops.
type Terminator interface {
	Terminate(ctx context.Context)
}

// Actor is the concrete mailbox + lifecycle every specialization embeds.
// It is not restartable: once Close/Join has completed, a fresh Actor
// must be constructed.
type Actor struct {
	name    string
	debug   bool
	log     logger.Logger
	mailbox *mailbox

	behavior Behavior

	running    atomic.Bool
	terminated chan struct{}
	startOnce  sync.Once
	closeOnce  sync.Once
}

// New constructs an Actor around behavior. An empty name is replaced with
// a freshly generated identifier, matching the distilled spec's "caller
// supplied or freshly generated" naming rule.
func New(name string, behavior Behavior, debug bool, log logger.Logger) *Actor {
	if name == "" {
		name = uuid.NewString()
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Actor{
		name:       name,
		debug:      debug,
		log:        log.WithField("actor", name),
		mailbox:    newMailbox(),
		behavior:   behavior,
		terminated: make(chan struct{}),
	}
}

// Name returns the actor's identifier.
func (a *Actor) Name() string { return a.name }

// IsRunning reports whether the actor's goroutine is between Start and
// its processing of the sentinel exit message. The observation is always
// safe for concurrent use but, like MailboxSize, is inherently weakly
// consistent with respect to a concurrently racing Close.
func (a *Actor) IsRunning() bool { return a.running.Load() }

// MailboxSize returns the current number of undelivered messages. This is
// a weakly consistent snapshot, suitable for routing heuristics but not
// for exact accounting.
func (a *Actor) MailboxSize() int { return a.mailbox.len() }

// Send enqueues msg as a MessageData envelope. Non-blocking: the mailbox
// is an unbounded queue, so Send never waits on a reader.
func (a *Actor) Send(msg interface{}) {
	a.mailbox.push(Envelope{Control: MessageData, Payload: msg})
}

// SendEnvelope enqueues a fully-formed Envelope, for callers (such as
// Router) that need to address control messages explicitly.
func (a *Actor) SendEnvelope(e Envelope) {
	a.mailbox.push(e)
}

// Close requests orderly shutdown by enqueueing the ExitSentinel. Extra
// calls after the first are harmless no-ops in effect: the actor has
// already stopped draining its mailbox by the time they would arrive.
func (a *Actor) Close() {
	a.closeOnce.Do(func() {
		a.mailbox.push(Envelope{Control: MessageStop})
	})
}

// Start spawns the actor's single processing goroutine. A second call is
// a no-op; Actors are not restartable.
func (a *Actor) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		a.running.Store(true)
		go a.run(ctx)
	})
}

// Join blocks until the actor's termination signal has fired.
func (a *Actor) Join() {
	<-a.terminated
}

// Done returns the channel that closes when the actor has terminated,
// for callers that want to select on actor exit alongside other events.
func (a *Actor) Done() <-chan struct{} {
	return a.terminated
}

func (a *Actor) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			// WorkerTermination: an unhandled failure escaped the
			// dispatch loop itself (not user Handle code protected by
			// the per-job recover in worker.WorkerActor). This actor
			// is gone for good; no auto-restart.
			a.log.Errorf("actor dispatch loop terminated by panic: %v", r)
		}
		if terminator, ok := a.behavior.(Terminator); ok {
			a.safeTerminate(ctx, terminator)
		}
		a.running.Store(false)
		close(a.terminated)
	}()

	if initialiser, ok := a.behavior.(Initialiser); ok {
		if err := initialiser.Init(ctx); err != nil {
			a.log.Errorf("actor init failed: %v", err)
			return
		}
	}

	for {
		envelope, ok := a.mailbox.tryPop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-a.mailbox.recvSignal():
				continue
			}
		}

		switch envelope.Control {
		case MessageStop:
			return
		case MessageRestart:
			if initialiser, ok := a.behavior.(Initialiser); ok {
				if err := initialiser.Init(ctx); err != nil {
					a.log.Errorf("actor re-init failed: %v", err)
					return
				}
			}
		default:
			a.behavior.Handle(ctx, envelope.Payload)
		}
	}
}

func (a *Actor) safeTerminate(ctx context.Context, t Terminator) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Errorf("recovered panic in actor termination: %v", r)
		}
	}()
	t.Terminate(ctx)
}

// BehaviorFunc adapts a plain function to the Behavior interface, for
// actors whose body doesn't need Init/Terminate hooks.
type BehaviorFunc func(ctx context.Context, msg interface{})

func (f BehaviorFunc) Handle(ctx context.Context, msg interface{}) { f(ctx, msg) }

// String implements fmt.Stringer for log-friendly actor references.
func (a *Actor) String() string {
	return fmt.Sprintf("actor(%s)", a.name)
}
