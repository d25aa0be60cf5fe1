package socketmanager

import (
	"fmt"

	"github.com/ilpomo/open-core/endpoint"
	"github.com/ilpomo/open-core/errors"
)

// reverse maps a forward link method to its teardown method and back.
func reverse(method Method) Method {
	switch method {
	case Bind:
		return Unbind
	case Connect:
		return Disconnect
	case Unbind:
		return Bind
	case Disconnect:
		return Connect
	}
	return ""
}

// Link applies the transport-level bind or connect call for the endpoint,
// exactly once per endpoint: linking an endpoint already active under the
// same method fails. On success the endpoint is recorded as active and staged
// for its future teardown call.
func (m *Manager) Link(method Method, ep string) error {
	if method != Bind && method != Connect {
		return errors.WrapInvalid(fmt.Errorf("method %q is not a link method", method),
			"SocketManager", "Link", "method validation")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.terminated {
		return errors.WrapFatal(errors.ErrTerminated, "SocketManager", "Link", "lifecycle check")
	}
	if _, active := m.endpoints[method][ep]; active {
		return errors.WrapInvalid(errors.ErrDuplicateLink, "SocketManager", "Link",
			fmt.Sprintf("%s %s", method, ep))
	}

	var err error
	if method == Bind {
		err = m.socket.Bind(ep)
	} else {
		err = m.socket.Connect(ep)
	}
	if err != nil {
		return errors.Wrap(err, "SocketManager", "Link", fmt.Sprintf("%s %s", method, ep))
	}

	m.endpoints[method][ep] = struct{}{}
	m.endpoints[reverse(method)][ep] = struct{}{}
	return nil
}

// Unlink applies the transport-level unbind or disconnect call for the
// endpoint. The endpoint must be active under the corresponding forward
// method; unlinking anything else fails. On success the endpoint is removed
// from both the active set and the staged teardown set.
func (m *Manager) Unlink(method Method, ep string) error {
	if method != Unbind && method != Disconnect {
		return errors.WrapInvalid(fmt.Errorf("method %q is not an unlink method", method),
			"SocketManager", "Unlink", "method validation")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.terminated {
		return errors.WrapFatal(errors.ErrTerminated, "SocketManager", "Unlink", "lifecycle check")
	}

	forward := reverse(method)
	if _, active := m.endpoints[forward][ep]; !active {
		return errors.WrapInvalid(errors.ErrNotLinked, "SocketManager", "Unlink",
			fmt.Sprintf("%s %s", method, ep))
	}

	var err error
	if method == Unbind {
		err = m.socket.Unbind(ep)
	} else {
		err = m.socket.Disconnect(ep)
	}
	if err != nil {
		return errors.Wrap(err, "SocketManager", "Unlink", fmt.Sprintf("%s %s", method, ep))
	}

	delete(m.endpoints[forward], ep)
	delete(m.endpoints[method], ep)
	return nil
}

// BindInproc binds the socket to the in-process endpoint for reference.
func (m *Manager) BindInproc(reference string) error {
	return m.Link(Bind, endpoint.Inproc(reference))
}

// BindIPC binds the socket to the inter-process endpoint for reference.
func (m *Manager) BindIPC(reference string) error {
	return m.Link(Bind, endpoint.IPC(reference))
}

// BindUDP binds the socket to the UDP endpoint for address and port.
func (m *Manager) BindUDP(address string, port int) error {
	return m.Link(Bind, endpoint.UDP(address, port))
}

// BindTCP binds the socket to the TCP endpoint for address and port.
func (m *Manager) BindTCP(address string, port int) error {
	return m.Link(Bind, endpoint.TCP(address, port))
}

// BindPGM binds the socket to the multicast endpoint for address and port.
func (m *Manager) BindPGM(address string, port int) error {
	return m.Link(Bind, endpoint.PGM(address, port))
}

// BindEPGM binds the socket to the encapsulated-multicast endpoint for
// address and port.
func (m *Manager) BindEPGM(address string, port int) error {
	return m.Link(Bind, endpoint.EPGM(address, port))
}

// ConnectInproc connects the socket to the in-process endpoint for reference.
func (m *Manager) ConnectInproc(reference string) error {
	return m.Link(Connect, endpoint.Inproc(reference))
}

// ConnectIPC connects the socket to the inter-process endpoint for reference.
func (m *Manager) ConnectIPC(reference string) error {
	return m.Link(Connect, endpoint.IPC(reference))
}

// ConnectUDP connects the socket to the UDP endpoint for address and port.
func (m *Manager) ConnectUDP(address string, port int) error {
	return m.Link(Connect, endpoint.UDP(address, port))
}

// ConnectTCP connects the socket to the TCP endpoint for address and port.
func (m *Manager) ConnectTCP(address string, port int) error {
	return m.Link(Connect, endpoint.TCP(address, port))
}

// ConnectPGM connects the socket to the multicast endpoint for address and
// port.
func (m *Manager) ConnectPGM(address string, port int) error {
	return m.Link(Connect, endpoint.PGM(address, port))
}

// ConnectEPGM connects the socket to the encapsulated-multicast endpoint for
// address and port.
func (m *Manager) ConnectEPGM(address string, port int) error {
	return m.Link(Connect, endpoint.EPGM(address, port))
}

// Subscribe adds a topic to the socket's subscription set. Subscribing to an
// already-subscribed topic is reported as a warning and left as a no-op: it
// indicates caller confusion but corrupts nothing.
func (m *Manager) Subscribe(topic []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.terminated {
		return errors.WrapFatal(errors.ErrTerminated, "SocketManager", "Subscribe", "lifecycle check")
	}
	if _, subscribed := m.subscriptions[string(topic)]; subscribed {
		m.logger.Warn("already subscribed", "manager", m.name, "topic", string(topic))
		return nil
	}

	if err := m.socket.Subscribe(topic); err != nil {
		return errors.Wrap(err, "SocketManager", "Subscribe", "subscribe option")
	}
	m.subscriptions[string(topic)] = struct{}{}
	return nil
}

// Unsubscribe removes a topic from the socket's subscription set.
// Unsubscribing from a topic that was never subscribed is reported as a
// warning and left as a no-op.
func (m *Manager) Unsubscribe(topic []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.terminated {
		return errors.WrapFatal(errors.ErrTerminated, "SocketManager", "Unsubscribe", "lifecycle check")
	}
	if _, subscribed := m.subscriptions[string(topic)]; !subscribed {
		m.logger.Warn("not subscribed", "manager", m.name, "topic", string(topic))
		return nil
	}

	if err := m.socket.Unsubscribe(topic); err != nil {
		return errors.Wrap(err, "SocketManager", "Unsubscribe", "unsubscribe option")
	}
	delete(m.subscriptions, string(topic))
	return nil
}
