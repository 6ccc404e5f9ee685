// Package transport provides the wire capability the distilled spec
// calls "a socket layer that must provide a send/recv pair capable of
// transporting arbitrary serialized objects (send_data/recv_data)". The
// default implementation binds ZeroMQ PUSH/PULL sockets via goczmq,
// matching the transport the system this spec was distilled from used;
// Socket itself is an interface so tests and alternate deployments can
// swap it out.
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by Recv/Send once a Socket has been closed.
var ErrClosed = errors.New("transport: socket closed")

// Socket is the capability an ingress (pull) or egress (push) endpoint
// needs: bind once, then repeatedly send or receive a decoded value
// using the configured Codec. Implementations must make Close
// idempotent — the Master must be able to close both sockets exactly
// once without tracking that itself.
type Socket interface {
	// Bind binds the socket to tcp://host:port.
	Bind(host string, port int) error
	// Recv blocks until a frame arrives or ctx is done, decodes it with
	// the socket's Codec, and returns the decoded value.
	Recv(ctx context.Context) (interface{}, error)
	// Send encodes v with the socket's Codec and writes it as one
	// frame. Any error value is flattened to WireError first (see
	// codec.go) so it survives the round trip.
	Send(v interface{}) error
	// Close unbinds and releases the socket. Idempotent.
	Close() error
}

// flattenErrors rewrites any error value in v into a WireError so the
// default gob Codec can carry it; non-error values pass through
// untouched.
func flattenErrors(v interface{}) interface{} {
	if err, ok := v.(error); ok {
		if _, already := v.(WireError); already {
			return v
		}
		return WireError{Message: err.Error()}
	}
	return v
}
