package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/tasqio/tasq/job"
)

func TestWorkerActorExecutesJobAndPublishesResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New("w0", false, nil)
	w.Start(context.Background())
	defer func() {
		w.Close()
		w.Join()
	}()

	res := w.Submit(job.New("echo", func(ctx context.Context) (interface{}, error) {
		return 42, nil
	}))

	outcome := res.ResultTimeout(time.Second)
	if outcome.TimedOut {
		t.Fatal("did not expect a timeout")
	}
	if outcome.Value != 42 {
		t.Fatalf("expected 42, got %v", outcome.Value)
	}
}

func TestWorkerActorRecoversJobPanicWithoutTerminating(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New("w1", false, nil)
	w.Start(context.Background())
	defer func() {
		w.Close()
		w.Join()
	}()

	res := w.Submit(job.New("boom", func(ctx context.Context) (interface{}, error) {
		panic("kaboom")
	}))

	outcome := res.ResultTimeout(time.Second)
	if outcome.TimedOut {
		t.Fatal("did not expect a timeout")
	}
	if _, ok := outcome.Value.(error); !ok {
		t.Fatalf("expected an error descriptor, got %T", outcome.Value)
	}

	if !w.IsRunning() {
		t.Fatal("worker should still be running after a recovered job panic")
	}

	// The worker keeps serving jobs after a recovered failure.
	res2 := w.Submit(job.New("ok", func(ctx context.Context) (interface{}, error) {
		return "fine", nil
	}))
	outcome2 := res2.ResultTimeout(time.Second)
	if outcome2.Value != "fine" {
		t.Fatalf("expected worker to keep serving jobs, got %+v", outcome2)
	}
}

func TestWorkerActorWrapsJobError(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New("w2", false, nil)
	w.Start(context.Background())
	defer func() {
		w.Close()
		w.Join()
	}()

	wantErr := errors.New("boom")
	res := w.Submit(job.New("failing", func(ctx context.Context) (interface{}, error) {
		return nil, wantErr
	}))

	outcome := res.ResultTimeout(time.Second)
	err, ok := outcome.Value.(error)
	if !ok {
		t.Fatalf("expected an error value, got %T", outcome.Value)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped error to match %v, got %v", wantErr, err)
	}
}

func TestWorkerActorSubmitCompletionBypassesResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New("w4", false, nil)
	w.Start(context.Background())
	defer func() {
		w.Close()
		w.Join()
	}()

	done := make(chan interface{}, 1)
	w.SubmitCompletion(job.New("direct", func(ctx context.Context) (interface{}, error) {
		return "immediate", nil
	}), func(v interface{}) {
		done <- v
	})

	select {
	case v := <-done:
		if v != "immediate" {
			t.Fatalf("expected immediate, got %v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("onComplete was never invoked")
	}
}

func TestWorkerActorSubmitCompletionRecoversPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New("w5", false, nil)
	w.Start(context.Background())
	defer func() {
		w.Close()
		w.Join()
	}()

	done := make(chan interface{}, 1)
	w.SubmitCompletion(job.New("boom", func(ctx context.Context) (interface{}, error) {
		panic("kaboom")
	}), func(v interface{}) {
		done <- v
	})

	select {
	case v := <-done:
		if _, ok := v.(error); !ok {
			t.Fatalf("expected an error descriptor, got %T", v)
		}
	case <-time.After(time.Second):
		t.Fatal("onComplete was never invoked")
	}
	if !w.IsRunning() {
		t.Fatal("worker should still be running after a recovered panic")
	}
}

func TestWorkerActorProcessesJobsInSubmitOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New("w3", false, nil)
	w.Start(context.Background())
	defer func() {
		w.Close()
		w.Join()
	}()

	order := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		w.Submit(job.New("seq", func(ctx context.Context) (interface{}, error) {
			order <- i
			return i, nil
		}))
	}

	for i := 0; i < 3; i++ {
		if got := <-order; got != i {
			t.Fatalf("expected FIFO execution order, got %d at position %d", got, i)
		}
	}
}
