package supervisor

import "context"

// Servable is anything with a blocking serve loop and a way to stop it;
// Master satisfies this. Group exists to replace the distilled design's
// multi-process fork/join with an in-process equivalent: each Servable
// runs on its own goroutine and reports its own error. Group does not
// recover panics, so a panic in one Servable ends the whole process.
type Servable interface {
	ServeForever(ctx context.Context) error
	Stop()
}

// Group runs several independently-configured Servables as siblings and
// joins them, mirroring the distilled spec's "Masters" fork/join
// supervisor at the granularity this runtime actually needs it.
type Group struct {
	servables []Servable
	errs      chan error
}

// NewGroup builds a Group over the given Servables. Nothing starts until
// Run is called.
func NewGroup(servables ...Servable) *Group {
	return &Group{
		servables: servables,
		errs:      make(chan error, len(servables)),
	}
}

// Run starts every Servable and blocks until all of them have returned,
// whether because ctx was cancelled, because Stop was called, or because
// one of them failed (for example to bind). The first non-nil error is
// returned. Run does not stop the remaining members when one fails; it
// waits for each of them to return.
func (g *Group) Run(ctx context.Context) error {
	for _, s := range g.servables {
		go func(s Servable) {
			g.errs <- s.ServeForever(ctx)
		}(s)
	}

	var firstErr error
	for range g.servables {
		if err := <-g.errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stop requests every member Servable to stop.
func (g *Group) Stop() {
	for _, s := range g.servables {
		s.Stop()
	}
}
