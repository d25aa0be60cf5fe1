// Package mem implements the transport interfaces in process memory using
// channels. Endpoints are names in a per-Context registry, so any scheme
// string works as long as both sides use the same one; by convention callers
// use inproc endpoints.
//
// Delivery semantics cover what the lifecycle core and its tests need: every
// message is fanned out to all peers linked to the same endpoint, Sub sockets
// filter on topic prefix at delivery, and Push sockets round-robin over their
// peers. Request/reply envelope routing is not emulated; Req, Rep, Dealer and
// Router sockets exchange messages like Pair sockets do.
package mem

import (
	"context"
	"sync"

	"github.com/ilpomo/open-core/errors"
	"github.com/ilpomo/open-core/transport"
)

// inboxSize bounds how many messages a socket buffers before senders block.
const inboxSize = 1024

// Context is an in-process transport context. The zero value is not usable;
// construct with NewContext.
type Context struct {
	mu     sync.Mutex
	hubs   map[string]*hub
	closed bool
}

// NewContext returns an empty in-process transport context.
func NewContext() *Context {
	return &Context{hubs: make(map[string]*hub)}
}

// Factory adapts NewContext to the transport.Factory signature.
func Factory() (transport.Context, error) {
	return NewContext(), nil
}

// NewSocket creates a socket of the given type attached to this context.
func (c *Context) NewSocket(t transport.Type) (transport.Socket, error) {
	if !t.Valid() {
		return nil, errors.WrapInvalid(errors.ErrUnsupportedSocket, "mem.Context", "NewSocket", "socket type validation")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.WrapFatal(errors.ErrSocketClosed, "mem.Context", "NewSocket", "context terminated")
	}

	return &socket{
		typ:    t,
		ctx:    c,
		inbox:  make(chan [][]byte, inboxSize),
		done:   make(chan struct{}),
		linked: make(map[string]*hub),
	}, nil
}

// Term marks the context terminated. Sockets must be closed by their owners;
// Term does not chase them.
func (c *Context) Term() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.hubs = make(map[string]*hub)
	return nil
}

// hub is the meeting point for all sockets linked to one endpoint.
type hub struct {
	mu      sync.RWMutex
	binder  *socket
	members map[*socket]struct{}
}

func (c *Context) hub(endpoint string) *hub {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hubs[endpoint]
	if !ok {
		h = &hub{members: make(map[*socket]struct{})}
		c.hubs[endpoint] = h
	}
	return h
}

type socket struct {
	typ   transport.Type
	ctx   *Context
	inbox chan [][]byte
	done  chan struct{}
	once  sync.Once

	mu     sync.Mutex
	linked map[string]*hub // endpoints this socket joined, via bind or connect
	subs   [][]byte
	rr     int
}

func (s *socket) Bind(endpoint string) error {
	h := s.ctx.hub(endpoint)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.binder != nil {
		return errors.WrapInvalid(errors.ErrEndpointInUse, "mem.Socket", "Bind", "bind "+endpoint)
	}
	h.binder = s
	h.members[s] = struct{}{}

	s.mu.Lock()
	s.linked[endpoint] = h
	s.mu.Unlock()
	return nil
}

func (s *socket) Unbind(endpoint string) error {
	return s.leave(endpoint, true)
}

func (s *socket) Connect(endpoint string) error {
	h := s.ctx.hub(endpoint)

	h.mu.Lock()
	h.members[s] = struct{}{}
	h.mu.Unlock()

	s.mu.Lock()
	s.linked[endpoint] = h
	s.mu.Unlock()
	return nil
}

func (s *socket) Disconnect(endpoint string) error {
	return s.leave(endpoint, false)
}

func (s *socket) leave(endpoint string, bound bool) error {
	s.mu.Lock()
	h, ok := s.linked[endpoint]
	if ok {
		delete(s.linked, endpoint)
	}
	s.mu.Unlock()
	if !ok {
		return errors.WrapInvalid(errors.ErrNotLinked, "mem.Socket", "leave", "endpoint "+endpoint)
	}

	h.mu.Lock()
	delete(h.members, s)
	if bound && h.binder == s {
		h.binder = nil
	}
	h.mu.Unlock()
	return nil
}

func (s *socket) Subscribe(topic []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, append([]byte(nil), topic...))
	return nil
}

func (s *socket) Unsubscribe(topic []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if string(sub) == string(topic) {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return nil
		}
	}
	return nil
}

// accepts applies the Sub topic filter at delivery time. Transports filter
// topics before the lifecycle core ever sees a frame.
func (s *socket) accepts(topic []byte) bool {
	if s.typ != transport.Sub {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if len(topic) >= len(sub) && string(topic[:len(sub)]) == string(sub) {
			return true
		}
	}
	return false
}

func (s *socket) SendMultipart(ctx context.Context, parts [][]byte) error {
	select {
	case <-s.done:
		return errors.WrapFatal(errors.ErrSocketClosed, "mem.Socket", "SendMultipart", "socket closed")
	default:
	}

	msg := make([][]byte, len(parts))
	for i, part := range parts {
		msg[i] = append([]byte(nil), part...)
	}
	var topic []byte
	if len(msg) > 0 {
		topic = msg[0]
	}

	recipients := s.recipients(topic)
	if len(recipients) == 0 {
		// Nobody linked yet: the message is dropped, matching pub/sub
		// slow-joiner behavior.
		return nil
	}

	if s.typ == transport.Push {
		s.mu.Lock()
		target := recipients[s.rr%len(recipients)]
		s.rr++
		s.mu.Unlock()
		recipients = []*socket{target}
	}

	for _, peer := range recipients {
		select {
		case peer.inbox <- msg:
		case <-peer.done:
		case <-s.done:
			return errors.WrapFatal(errors.ErrSocketClosed, "mem.Socket", "SendMultipart", "socket closed")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *socket) recipients(topic []byte) []*socket {
	s.mu.Lock()
	hubs := make([]*hub, 0, len(s.linked))
	for _, h := range s.linked {
		hubs = append(hubs, h)
	}
	s.mu.Unlock()

	seen := make(map[*socket]struct{})
	var out []*socket
	for _, h := range hubs {
		h.mu.RLock()
		for peer := range h.members {
			if peer == s {
				continue
			}
			if _, dup := seen[peer]; dup {
				continue
			}
			seen[peer] = struct{}{}
			if peer.accepts(topic) {
				out = append(out, peer)
			}
		}
		h.mu.RUnlock()
	}
	return out
}

func (s *socket) RecvMultipart(ctx context.Context) ([][]byte, error) {
	select {
	case msg := <-s.inbox:
		return msg, nil
	case <-s.done:
		return nil, errors.WrapFatal(errors.ErrSocketClosed, "mem.Socket", "RecvMultipart", "socket closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *socket) Close() error {
	s.once.Do(func() {
		close(s.done)

		s.mu.Lock()
		linked := s.linked
		s.linked = make(map[string]*hub)
		s.mu.Unlock()

		for _, h := range linked {
			h.mu.Lock()
			delete(h.members, s)
			if h.binder == s {
				h.binder = nil
			}
			h.mu.Unlock()
		}
	})
	return nil
}
