package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type fakeServable struct {
	stop    chan struct{}
	failErr error
}

func newFakeServable() *fakeServable {
	return &fakeServable{stop: make(chan struct{})}
}

func (f *fakeServable) ServeForever(ctx context.Context) error {
	if f.failErr != nil {
		return f.failErr
	}
	select {
	case <-ctx.Done():
		return nil
	case <-f.stop:
		return nil
	}
}

func (f *fakeServable) Stop() {
	close(f.stop)
}

func TestGroupRunReturnsWhenAllMembersStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, b := newFakeServable(), newFakeServable()
	g := NewGroup(a, b)

	done := make(chan error, 1)
	go func() {
		done <- g.Run(context.Background())
	}()

	<-time.After(50 * time.Millisecond)
	g.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("group did not stop within timeout")
	}
}

func TestGroupRunPropagatesFirstError(t *testing.T) {
	defer goleak.VerifyNone(t)

	wantErr := errors.New("bind failed")
	bad := newFakeServable()
	bad.failErr = wantErr
	good := newFakeServable()

	g := NewGroup(bad, good)

	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("group should still be waiting on the healthy member, got %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	good.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected %v, got %v", wantErr, err)
		}
	case <-time.After(time.Second):
		t.Fatal("group did not return after all members finished")
	}
}
