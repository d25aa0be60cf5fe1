// Package transport defines the boundary between the socket lifecycle core
// and the underlying message-oriented socket implementation. The core never
// talks to a concrete socket library directly: it drives the Socket and
// Context interfaces declared here, and adapters supply the semantics
// (connection establishment, wire framing, per-pattern delivery guarantees).
//
// Two adapters ship with open-core: transport/zeromq wraps libzmq via
// github.com/pebbe/zmq4 and covers every endpoint scheme; transport/mem is a
// channel-based in-process implementation used for tests and single-process
// deployments.
package transport

import (
	"context"

	"github.com/ilpomo/open-core/errors"
)

// Type identifies the messaging pattern of a socket. The pattern fixes the
// allowed send/receive semantics and is set once at socket creation.
type Type int

// Supported socket types.
const (
	Pair Type = iota
	Pub
	Sub
	Req
	Rep
	Dealer
	Router
	Push
	Pull
)

// String returns the lower-case name of the socket type.
func (t Type) String() string {
	switch t {
	case Pair:
		return "pair"
	case Pub:
		return "pub"
	case Sub:
		return "sub"
	case Req:
		return "req"
	case Rep:
		return "rep"
	case Dealer:
		return "dealer"
	case Router:
		return "router"
	case Push:
		return "push"
	case Pull:
		return "pull"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the supported socket types.
func (t Type) Valid() bool {
	return t >= Pair && t <= Pull
}

// ParseType converts a socket type name into its Type value.
func ParseType(name string) (Type, error) {
	for t := Pair; t <= Pull; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, errors.WrapInvalid(errors.ErrUnsupportedSocket, "transport", "ParseType", "socket type "+name)
}

// Socket is one raw message-oriented socket of a fixed type. Implementations
// must support multiple bound and connected endpoints per socket, and must
// allow SendMultipart and RecvMultipart to run concurrently from two
// goroutines. Both honor context cancellation at their next internal
// suspension point.
type Socket interface {
	// Bind starts accepting peers on the given endpoint.
	Bind(endpoint string) error

	// Unbind reverses a previous Bind of the same endpoint.
	Unbind(endpoint string) error

	// Connect links the socket to a remote endpoint.
	Connect(endpoint string) error

	// Disconnect reverses a previous Connect of the same endpoint.
	Disconnect(endpoint string) error

	// Subscribe adds a topic filter. Only meaningful for Sub sockets:
	// inbound frames are delivered when their first part has the topic as
	// prefix. An empty topic matches everything.
	Subscribe(topic []byte) error

	// Unsubscribe removes a previously added topic filter.
	Unsubscribe(topic []byte) error

	// SendMultipart writes one multi-part message, blocking while the socket
	// cannot accept more data. Returns the context error on cancellation.
	SendMultipart(ctx context.Context, parts [][]byte) error

	// RecvMultipart reads one complete multi-part message, blocking until a
	// message arrives. Returns the context error on cancellation.
	RecvMultipart(ctx context.Context) ([][]byte, error)

	// Close releases the socket. Pending sends and receives fail.
	Close() error
}

// Context creates sockets sharing one transport instance. Term releases the
// transport; sockets must be closed first.
type Context interface {
	NewSocket(t Type) (Socket, error)
	Term() error
}

// Factory produces a fresh transport Context. Actors hold a Factory rather
// than a Context so that terminating an actor can release the context while
// leaving the actor reusable.
type Factory func() (Context, error)
