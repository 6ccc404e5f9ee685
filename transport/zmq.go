package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	czmq "github.com/zeromq/goczmq/v4"
)

// pollInterval bounds how long a single poller.Wait call blocks, so Recv
// can still observe ctx cancellation promptly even though goczmq's
// poller API takes a plain millisecond timeout rather than a context.
const pollInterval = 200 * time.Millisecond

// zmqSocket is the default Socket, backed by a goczmq PUSH or PULL
// socket bound over TCP. kind selects which.
type zmqSocket struct {
	kind  sockKind
	codec Codec

	mu     sync.Mutex
	sock   *czmq.Sock
	poller *czmq.Poller
	closed bool
}

type sockKind int

const (
	kindPull sockKind = iota
	kindPush
)

// NewIngress returns the PULL-side Socket a Master reads jobs from.
func NewIngress(codec Codec) Socket {
	if codec == nil {
		codec = GobCodec()
	}
	return &zmqSocket{kind: kindPull, codec: codec}
}

// NewEgress returns the PUSH-side Socket a ResponseActor writes to.
func NewEgress(codec Codec) Socket {
	if codec == nil {
		codec = GobCodec()
	}
	return &zmqSocket{kind: kindPush, codec: codec}
}

func (s *zmqSocket) Bind(host string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// goczmq/CZMQ convention: an "@" prefix binds the endpoint, ">"
	// connects to a remote one. Both sockets here are server-side, so
	// both bind.
	endpoint := fmt.Sprintf("@tcp://%s:%d", host, port)

	var sock *czmq.Sock
	var err error
	switch s.kind {
	case kindPull:
		sock, err = czmq.NewPull(endpoint)
	case kindPush:
		sock, err = czmq.NewPush(endpoint)
	}
	if err != nil {
		return fmt.Errorf("transport: bind %s: %w", endpoint, err)
	}

	if s.kind == kindPull {
		poller, perr := czmq.NewPoller(sock)
		if perr != nil {
			sock.Destroy()
			return fmt.Errorf("transport: create poller: %w", perr)
		}
		s.poller = poller
	}

	s.sock = sock
	return nil
}

func (s *zmqSocket) Recv(ctx context.Context) (interface{}, error) {
	s.mu.Lock()
	sock, poller, closed := s.sock, s.poller, s.closed
	s.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ready, err := poller.Wait(int(pollInterval / time.Millisecond))
		if err != nil {
			return nil, fmt.Errorf("transport: poll: %w", err)
		}
		if ready == nil {
			continue
		}

		frames, err := sock.RecvMessage()
		if err != nil {
			return nil, fmt.Errorf("transport: recv: %w", err)
		}
		if len(frames) == 0 {
			continue
		}

		var v interface{}
		if err := s.codec.Decode(frames[0], &v); err != nil {
			// DeserializationError: non-fatal, the caller is expected
			// to log and continue polling rather than treat this as a
			// socket-level failure.
			return nil, &DeserializationError{Cause: err}
		}
		return v, nil
	}
}

func (s *zmqSocket) Send(v interface{}) error {
	s.mu.Lock()
	sock, closed := s.sock, s.closed
	s.mu.Unlock()

	if closed {
		return ErrClosed
	}

	data, err := s.codec.Encode(flattenErrors(v))
	if err != nil {
		return fmt.Errorf("transport: encode: %w", err)
	}
	return sock.SendFrame(data, 0)
}

func (s *zmqSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.poller != nil {
		s.poller.Destroy()
	}
	if s.sock != nil {
		s.sock.Destroy()
	}
	return nil
}

// DeserializationError wraps a Codec.Decode failure on the ingress
// socket. The Master's ingress loop type-switches on this to implement
// the "log and drop, keep polling" policy instead of treating it as
// fatal.
type DeserializationError struct {
	Cause error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("transport: deserialization failed: %v", e.Cause)
}

func (e *DeserializationError) Unwrap() error { return e.Cause }
