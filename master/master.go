// Package master implements the Master dispatcher: it binds an ingress
// and egress socket pair, owns a Router and a ResponseActor, and runs
// the single-threaded cooperative poll loop that ties them together.
package master

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/tasqio/tasq/config"
	"github.com/tasqio/tasq/job"
	"github.com/tasqio/tasq/logger"
	"github.com/tasqio/tasq/response"
	"github.com/tasqio/tasq/router"
	"github.com/tasqio/tasq/supervisor"
	"github.com/tasqio/tasq/transport"
)

const statsInterval = 5 * time.Second

// Master binds ingress/egress sockets, polls ingress, feeds the router,
// and routes results to the ResponseActor. It satisfies
// supervisor.Servable so several Masters can be composed under one
// supervisor.Group.
type Master struct {
	cfg config.Config
	log logger.Logger

	ingress transport.Socket
	egress  transport.Socket

	mu     sync.Mutex
	cancel context.CancelFunc

	router    *router.Router
	responses *response.ResponseActor
	sup       *supervisor.Supervisor

	closeOnce sync.Once
}

// Option configures a Master at construction time.
type Option func(*Master)

// WithSockets overrides the default ZeroMQ-backed sockets. Tests use this
// to swap in an in-memory transport.Socket; production code leaves it
// unset and gets goczmq PUSH/PULL sockets using the default gob codec.
func WithSockets(ingress, egress transport.Socket) Option {
	return func(m *Master) {
		m.ingress = ingress
		m.egress = egress
	}
}

// New constructs a Master from cfg. It builds the transport sockets but
// does not bind them — binding happens in ServeForever.
func New(cfg config.Config, log logger.Logger, opts ...Option) *Master {
	if log == nil {
		log = logger.Discard()
	}
	m := &Master{
		cfg: cfg,
		log: log.WithField("component", "master"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ingress == nil {
		m.ingress = transport.NewIngress(transport.GobCodec())
	}
	if m.egress == nil {
		m.egress = transport.NewEgress(transport.GobCodec())
	}
	return m
}

// ServeForever binds both sockets, starts the router's worker pool and
// the ResponseActor, then runs the ingress poll loop under a supervisor
// until ctx is cancelled (by the caller, by Stop, or by an os/signal
// handler upstream). It returns nil on a clean shutdown, or an error
// wrapping the bind failure if either bind fails.
func (m *Master) ServeForever(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	if err := m.ingress.Bind(m.cfg.Host, m.cfg.IngressPort); err != nil {
		return fmt.Errorf("master: bind ingress: %w", err)
	}
	if err := m.egress.Bind(m.cfg.Host, m.cfg.EgressPort); err != nil {
		return fmt.Errorf("master: bind egress: %w", err)
	}

	rt, err := router.New(ctx, m.cfg.Workers, m.cfg.Policy, m.cfg.Debug, m.log)
	if err != nil {
		return fmt.Errorf("master: %w", err)
	}
	m.router = rt

	responses := response.New("responses", m.cfg.ResultTimeout, m.cfg.Debug, m.log)
	responses.Start(ctx)
	m.responses = responses

	sup, err := supervisor.NewSupervisorWithOptions(ctx, supervisor.WithWorkers(supervisor.SupervisableWorker{
		Func:  m.pollIngress,
		Count: 1,
	}))
	if err != nil {
		return fmt.Errorf("master: %w", err)
	}
	m.sup = sup
	sup.Run()

	if m.cfg.Debug {
		go m.reportStats(ctx)
	}

	<-ctx.Done()
	m.shutdown()
	return nil
}

// Stop requests a graceful shutdown. Safe to call before ServeForever
// has started (a no-op) or multiple times.
func (m *Master) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (m *Master) shutdown() {
	if m.sup != nil {
		m.sup.Stop()
		m.sup.Wait()
	}

	if m.router != nil {
		live, crashed := m.router.Close()
		m.log.Infof("shutdown: %d live, %d crashed workers", live, crashed)
	}

	if m.responses != nil {
		m.responses.Close()
		m.responses.Join()
	}

	m.closeOnce.Do(func() {
		if err := m.ingress.Close(); err != nil {
			m.log.Errorf("closing ingress socket: %v", err)
		}
		if err := m.egress.Close(); err != nil {
			m.log.Errorf("closing egress socket: %v", err)
		}
	})
}

// pollIngress is the Supervisable body: one non-blocking-ish receive per
// invocation, bounded by the socket's internal poll interval so context
// cancellation is observed promptly (see supervisor.Supervisor.Run,
// which re-invokes this in a loop until ctx is done).
func (m *Master) pollIngress(ctx context.Context) {
	v, err := m.ingress.Recv(ctx)
	if err != nil {
		var derr *transport.DeserializationError
		if errors.As(err, &derr) {
			m.log.Warnf("dropping undecodable message: %v", err)
			return
		}
		if ctx.Err() != nil || errors.Is(err, transport.ErrClosed) {
			return
		}
		m.log.Errorf("ingress receive error: %v", err)
		return
	}

	j, ok := v.(job.Job)
	if !ok {
		m.log.Warnf("ingress: dropping payload of unexpected type %T", v)
		return
	}

	if m.cfg.CompletionMode == router.ImmediateMode {
		m.router.RouteImmediate(j, func(value interface{}) {
			m.responses.Submit(m.egress.Send, value)
		})
		return
	}

	res := m.router.Route(j)
	m.responses.Submit(m.egress.Send, res)
}

func (m *Master) reportStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.logStats()
		}
	}
}

func (m *Master) logStats() {
	stats := m.router.Stats()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Worker", "Alive", "Mailbox"})
	for _, s := range stats {
		table.Append([]string{s.Name, fmt.Sprintf("%v", s.Alive), fmt.Sprintf("%d", s.MailboxSize)})
	}
	table.Render()

	m.log.Debugf("router stats:\n%s", buf.String())
}
