// Package zeromq adapts libzmq sockets, through github.com/pebbe/zmq4, to the
// open-core transport interfaces. It covers every supported endpoint scheme
// (inproc, ipc, udp, tcp, pgm, epgm) and every socket type.
//
// libzmq sockets are not safe for concurrent use, but the lifecycle core
// drives one socket from two pipelines. The adapter therefore serializes all
// socket calls behind a mutex and converts the blocking send/receive calls
// into short timed attempts, releasing the lock between attempts so a blocked
// receiver never starves the sender. Context cancellation is observed between
// attempts.
package zeromq

import (
	"context"
	"sync"
	"syscall"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/ilpomo/open-core/errors"
	"github.com/ilpomo/open-core/transport"
)

// pollInterval is the upper bound on cancellation latency for blocked
// send/receive calls.
const pollInterval = 100 * time.Millisecond

// Context wraps one libzmq context.
type Context struct {
	ctx *zmq.Context
}

// NewContext creates a libzmq context.
func NewContext() (*Context, error) {
	ctx, err := zmq.NewContext()
	if err != nil {
		return nil, errors.WrapFatal(err, "zeromq.Context", "NewContext", "libzmq context creation")
	}
	return &Context{ctx: ctx}, nil
}

// Factory adapts NewContext to the transport.Factory signature.
func Factory() (transport.Context, error) {
	return NewContext()
}

var socketTypes = map[transport.Type]zmq.Type{
	transport.Pair:   zmq.PAIR,
	transport.Pub:    zmq.PUB,
	transport.Sub:    zmq.SUB,
	transport.Req:    zmq.REQ,
	transport.Rep:    zmq.REP,
	transport.Dealer: zmq.DEALER,
	transport.Router: zmq.ROUTER,
	transport.Push:   zmq.PUSH,
	transport.Pull:   zmq.PULL,
}

// NewSocket creates a libzmq socket of the given type.
func (c *Context) NewSocket(t transport.Type) (transport.Socket, error) {
	zt, ok := socketTypes[t]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrUnsupportedSocket, "zeromq.Context", "NewSocket", "socket type validation")
	}

	s, err := c.ctx.NewSocket(zt)
	if err != nil {
		return nil, errors.WrapFatal(err, "zeromq.Context", "NewSocket", "socket creation")
	}
	if err := s.SetSndtimeo(pollInterval); err != nil {
		_ = s.Close()
		return nil, errors.WrapFatal(err, "zeromq.Context", "NewSocket", "send timeout option")
	}
	if err := s.SetRcvtimeo(pollInterval); err != nil {
		_ = s.Close()
		return nil, errors.WrapFatal(err, "zeromq.Context", "NewSocket", "receive timeout option")
	}

	return &socket{s: s}, nil
}

// Term terminates the libzmq context. All sockets must be closed first or
// Term blocks, per libzmq semantics.
func (c *Context) Term() error {
	if err := c.ctx.Term(); err != nil {
		return errors.WrapFatal(err, "zeromq.Context", "Term", "libzmq context termination")
	}
	return nil
}

type socket struct {
	s *zmq.Socket

	// Serializes every libzmq call: the socket is driven by both pipelines.
	mu sync.Mutex
}

func (s *socket) Bind(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.s.Bind(endpoint); err != nil {
		return errors.WrapInvalid(err, "zeromq.Socket", "Bind", "bind "+endpoint)
	}
	return nil
}

func (s *socket) Unbind(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.s.Unbind(endpoint); err != nil {
		return errors.WrapInvalid(err, "zeromq.Socket", "Unbind", "unbind "+endpoint)
	}
	return nil
}

func (s *socket) Connect(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.s.Connect(endpoint); err != nil {
		return errors.WrapInvalid(err, "zeromq.Socket", "Connect", "connect "+endpoint)
	}
	return nil
}

func (s *socket) Disconnect(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.s.Disconnect(endpoint); err != nil {
		return errors.WrapInvalid(err, "zeromq.Socket", "Disconnect", "disconnect "+endpoint)
	}
	return nil
}

func (s *socket) Subscribe(topic []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.s.SetSubscribe(string(topic)); err != nil {
		return errors.WrapInvalid(err, "zeromq.Socket", "Subscribe", "subscribe option")
	}
	return nil
}

func (s *socket) Unsubscribe(topic []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.s.SetUnsubscribe(string(topic)); err != nil {
		return errors.WrapInvalid(err, "zeromq.Socket", "Unsubscribe", "unsubscribe option")
	}
	return nil
}

func (s *socket) SendMultipart(ctx context.Context, parts [][]byte) error {
	msg := make([]any, len(parts))
	for i, part := range parts {
		msg[i] = part
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		_, err := s.s.SendMessage(msg...)
		s.mu.Unlock()

		if err == nil {
			return nil
		}
		if isTimeout(err) {
			continue
		}
		return errors.WrapTransient(err, "zeromq.Socket", "SendMultipart", "multipart send")
	}
}

func (s *socket) RecvMultipart(ctx context.Context) ([][]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.mu.Lock()
		parts, err := s.s.RecvMessageBytes(0)
		s.mu.Unlock()

		if err == nil {
			return parts, nil
		}
		if isTimeout(err) {
			continue
		}
		return nil, errors.WrapTransient(err, "zeromq.Socket", "RecvMultipart", "multipart receive")
	}
}

func (s *socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Do not linger on queued-but-unsent frames: terminate must not block on
	// peers that already went away.
	_ = s.s.SetLinger(0)
	if err := s.s.Close(); err != nil {
		return errors.WrapFatal(err, "zeromq.Socket", "Close", "socket close")
	}
	return nil
}

// isTimeout reports whether err is the EAGAIN returned when a timed
// send/receive attempt expires.
func isTimeout(err error) bool {
	return zmq.AsErrno(err) == zmq.Errno(syscall.EAGAIN)
}
