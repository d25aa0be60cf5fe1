// Package socketmanager implements the socket multiplexing and lifecycle
// core. A Manager owns exactly one raw transport socket and exposes it as two
// independent, cancellable, queue-buffered pipelines: an emit pipeline that
// drains an outbound queue into the socket, and a receive pipeline that fills
// an inbound queue from the socket. The manager also tracks which endpoints
// the socket is linked to and enforces the link/unlink invariants.
//
// Lifecycle: a manager is created with a bare socket and no links, linked to
// one or more endpoints, booted, optionally stopped and rebooted any number
// of times, and finally terminated exactly once. Termination unlinks every
// endpoint, discards both queues and closes the socket; a terminated manager
// rejects further use.
package socketmanager

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/ilpomo/open-core/errors"
	"github.com/ilpomo/open-core/metric"
	"github.com/ilpomo/open-core/pkg/queue"
	"github.com/ilpomo/open-core/transport"
)

// Method identifies a link or unlink operation on an endpoint.
type Method string

// Link and unlink methods. Bind and Connect are forward methods; Unbind and
// Disconnect reverse them.
const (
	Bind       Method = "bind"
	Connect    Method = "connect"
	Unbind     Method = "unbind"
	Disconnect Method = "disconnect"
)

// Frame is the unit both pipelines move: a topic and an opaque payload.
type Frame struct {
	Topic   []byte
	Payload []byte
}

// Manager wraps one raw socket of a fixed type. All methods are safe for
// concurrent use; the socket itself is touched only by the manager's own
// methods and its two pipelines.
type Manager struct {
	name    string
	socket  transport.Socket
	logger  *slog.Logger
	metrics *metric.Metrics

	mu sync.Mutex

	// Active links live under Bind and Connect. Every active link is
	// mirrored under Unbind and Disconnect until it is actually torn down,
	// so terminate knows which reverse calls are still owed.
	endpoints     map[Method]map[string]struct{}
	subscriptions map[string]struct{}
	terminated    bool

	emitQueue *queue.Queue[Frame]
	recvQueue *queue.Queue[[]byte]

	emitCancel context.CancelFunc
	emitDone   chan struct{}
	recvCancel context.CancelFunc
	recvDone   chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for warnings and pipeline faults.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics wires the manager's pipelines and queues into the platform
// metrics.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// New creates a manager owning the given socket. The manager starts with no
// links and no pipelines: link it to at least one endpoint, then call Boot.
func New(name string, socket transport.Socket, opts ...Option) *Manager {
	m := &Manager{
		name:   name,
		socket: socket,
		logger: slog.Default(),
		endpoints: map[Method]map[string]struct{}{
			Bind:       {},
			Connect:    {},
			Unbind:     {},
			Disconnect: {},
		},
		subscriptions: make(map[string]struct{}),
		emitQueue:     queue.New[Frame](),
		recvQueue:     queue.New[[]byte](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the manager's identifier, unique within its owning actor.
func (m *Manager) Name() string {
	return m.name
}

// Endpoints returns a sorted snapshot of the endpoints tracked under the
// given method.
func (m *Manager) Endpoints(method Method) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.endpoints[method]
	out := make([]string, 0, len(set))
	for ep := range set {
		out = append(out, ep)
	}
	sort.Strings(out)
	return out
}

// Subscriptions returns a sorted snapshot of the subscribed topics.
func (m *Manager) Subscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.subscriptions))
	for topic := range m.subscriptions {
		out = append(out, topic)
	}
	sort.Strings(out)
	return out
}

// IsEmitting reports whether the emit pipeline has been booted.
func (m *Manager) IsEmitting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emitDone != nil
}

// IsReceiving reports whether the receive pipeline has been booted.
func (m *Manager) IsReceiving() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recvDone != nil
}

// IsBidirectional reports whether both pipelines have been booted.
func (m *Manager) IsBidirectional() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emitDone != nil && m.recvDone != nil
}

// Boot spawns the pipelines the manager's links call for: the emit pipeline
// when at least one bind link exists, the receive pipeline when at least one
// connect link exists. A manager with no links stays inert. Booting an
// already-running pipeline is a warning, not an error; Boot is safely
// re-callable. The pipelines also stop when ctx is cancelled.
func (m *Manager) Boot(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.terminated {
		return errors.WrapFatal(errors.ErrTerminated, "SocketManager", "Boot", "lifecycle check")
	}

	if len(m.endpoints[Bind]) > 0 {
		if m.emitDone == nil {
			pipelineCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			m.emitCancel = cancel
			m.emitDone = done
			go m.emitLoop(pipelineCtx, m.emitQueue, done)
		} else {
			m.logger.Warn("emit pipeline already running", "manager", m.name)
		}
	}

	if len(m.endpoints[Connect]) > 0 {
		if m.recvDone == nil {
			pipelineCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			m.recvCancel = cancel
			m.recvDone = done
			go m.recvLoop(pipelineCtx, m.recvQueue, done)
		} else {
			m.logger.Warn("receive pipeline already running", "manager", m.name)
		}
	}

	return nil
}

// StopEmitting cancels the emit pipeline and waits for it to actually exit.
// Calling it when the pipeline is not running is a no-op.
func (m *Manager) StopEmitting() {
	m.mu.Lock()
	cancel, done := m.emitCancel, m.emitDone
	m.emitCancel, m.emitDone = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// StopReceiving cancels the receive pipeline and waits for it to actually
// exit. Calling it when the pipeline is not running is a no-op.
func (m *Manager) StopReceiving() {
	m.mu.Lock()
	cancel, done := m.recvCancel, m.recvDone
	m.recvCancel, m.recvDone = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// EmptyQueues discards both queues and replaces them with fresh empty ones.
// Any frame queued but not yet sent, or received but not yet consumed, is
// lost. Callers blocked on the old receive queue are released with a
// queue-closed error.
func (m *Manager) EmptyQueues() {
	m.mu.Lock()
	oldEmit, oldRecv := m.emitQueue, m.recvQueue
	m.emitQueue = queue.New[Frame]()
	m.recvQueue = queue.New[[]byte]()
	m.mu.Unlock()

	oldEmit.Close()
	oldRecv.Close()
	m.updateQueueDepth()
}

// Stop cancels both pipelines, waiting for each to actually exit, and
// optionally discards the queues. Stop never fails: cancellation is the
// expected shutdown signal, not a fault.
func (m *Manager) Stop(emptyQueues bool) {
	m.StopEmitting()
	m.StopReceiving()

	if emptyQueues {
		m.EmptyQueues()
	}
}

// Reboot performs a full pipeline reset: both pipelines are stopped, both
// queues discarded, and the pipelines booted again. Endpoint links are
// preserved.
func (m *Manager) Reboot(ctx context.Context) error {
	m.Stop(true)
	return m.Boot(ctx)
}

// Terminate stops the pipelines, discards the queues, unlinks every active
// endpoint with the matching reverse method, and closes the socket. It is
// safe to call on a manager that was never booted. A manager can be
// terminated exactly once; the state is absorbing.
func (m *Manager) Terminate() error {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return errors.WrapFatal(errors.ErrTerminated, "SocketManager", "Terminate", "lifecycle check")
	}
	m.mu.Unlock()

	m.Stop(true)

	m.mu.Lock()
	var errs []error
	for ep := range m.endpoints[Bind] {
		if err := m.socket.Unbind(ep); err != nil {
			m.logger.Error("unbind during terminate failed", "manager", m.name, "endpoint", ep, "error", err)
			errs = append(errs, err)
		}
	}
	for ep := range m.endpoints[Connect] {
		if err := m.socket.Disconnect(ep); err != nil {
			m.logger.Error("disconnect during terminate failed", "manager", m.name, "endpoint", ep, "error", err)
			errs = append(errs, err)
		}
	}
	for method := range m.endpoints {
		m.endpoints[method] = map[string]struct{}{}
	}
	m.subscriptions = make(map[string]struct{})
	m.terminated = true
	m.emitQueue.Close()
	m.recvQueue.Close()
	socket := m.socket
	m.mu.Unlock()

	if err := socket.Close(); err != nil {
		errs = append(errs, err)
	}

	if m.metrics != nil {
		m.metrics.FramesEmitted.DeleteLabelValues(m.name)
		m.metrics.FramesReceived.DeleteLabelValues(m.name)
		m.metrics.EmitQueueDepth.DeleteLabelValues(m.name)
		m.metrics.RecvQueueDepth.DeleteLabelValues(m.name)
	}

	if err := stderrors.Join(errs...); err != nil {
		return errors.Wrap(err, "SocketManager", "Terminate", "socket teardown")
	}
	return nil
}
