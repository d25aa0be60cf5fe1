// Package actor hosts named socket managers behind one transport context.
// An Actor owns the context, creates managers of any supported socket type,
// moves their shared lifecycle (boot, stop, reboot, terminate) in lockstep,
// and emits and receives messages through built-in serializers.
package actor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ilpomo/open-core/errors"
	"github.com/ilpomo/open-core/metric"
	"github.com/ilpomo/open-core/serializer"
	"github.com/ilpomo/open-core/socketmanager"
	"github.com/ilpomo/open-core/transport"
	"github.com/ilpomo/open-core/transport/zeromq"
)

// Behavior is the actor's domain logic, run after every socket manager has
// been booted. It should return when ctx is cancelled or its work is done.
type Behavior func(ctx context.Context) error

// Actor multiplexes messages across named socket managers. All methods are
// safe for concurrent use.
type Actor struct {
	name    string
	factory transport.Factory
	logger  *slog.Logger
	metrics *metric.Metrics

	jsonCodec    serializer.Serializer
	msgpackCodec serializer.Serializer
	nativeCodec  serializer.Serializer

	mu       sync.Mutex
	tctx     transport.Context
	managers map[string]*socketmanager.Manager
}

// Option configures an Actor.
type Option func(*Actor)

// WithName sets the actor's name. Without it the actor gets a random UUID.
func WithName(name string) Option {
	return func(a *Actor) {
		a.name = name
	}
}

// WithFactory sets the transport the actor creates its sockets on. The
// default factory opens a ZeroMQ context.
func WithFactory(factory transport.Factory) Option {
	return func(a *Actor) {
		a.factory = factory
	}
}

// WithLogger sets the logger passed down to every socket manager.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Actor) {
		a.logger = logger
	}
}

// WithMetrics wires the actor and its socket managers into the platform
// metrics.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(a *Actor) {
		a.metrics = metrics
	}
}

// New creates an actor with no socket managers. The transport context is not
// opened until the first manager is created.
func New(opts ...Option) *Actor {
	a := &Actor{
		factory:      zeromq.Factory,
		logger:       slog.Default(),
		jsonCodec:    serializer.JSON{},
		msgpackCodec: serializer.Msgpack{},
		nativeCodec:  serializer.Native{},
		managers:     make(map[string]*socketmanager.Manager),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.name == "" {
		a.name = uuid.NewString()
	}
	return a
}

// Name returns the actor's identifier.
func (a *Actor) Name() string {
	return a.name
}

func (a *Actor) String() string {
	return fmt.Sprintf("Actor(%s)", a.name)
}

// transportContext opens the transport context on first use. Terminate
// closes it and the next manager creation opens a fresh one.
func (a *Actor) transportContext() (transport.Context, error) {
	if a.tctx != nil {
		return a.tctx, nil
	}
	tctx, err := a.factory()
	if err != nil {
		return nil, errors.Wrap(err, "Actor", "transportContext", "open transport context")
	}
	a.tctx = tctx
	return tctx, nil
}

// CreateSocketManager creates a socket manager with the given name and
// socket type. Names are unique within the actor; reusing one fails.
func (a *Actor) CreateSocketManager(name string, t transport.Type) (*socketmanager.Manager, error) {
	if !t.Valid() {
		return nil, errors.WrapInvalid(errors.ErrUnsupportedSocket, "Actor", "CreateSocketManager",
			fmt.Sprintf("socket type %d", t))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, taken := a.managers[name]; taken {
		return nil, errors.WrapInvalid(errors.ErrNameTaken, "Actor", "CreateSocketManager", "name "+name)
	}

	tctx, err := a.transportContext()
	if err != nil {
		return nil, err
	}
	socket, err := tctx.NewSocket(t)
	if err != nil {
		return nil, errors.Wrap(err, "Actor", "CreateSocketManager", "open socket")
	}

	manager := socketmanager.New(name, socket,
		socketmanager.WithLogger(a.logger.With("actor", a.name)),
		socketmanager.WithMetrics(a.metrics))
	a.managers[name] = manager

	if a.metrics != nil {
		a.metrics.ManagersActive.Inc()
	}
	return manager, nil
}

// CreatePair creates a socket manager wrapping a Pair socket.
func (a *Actor) CreatePair(name string) (*socketmanager.Manager, error) {
	return a.CreateSocketManager(name, transport.Pair)
}

// CreatePub creates a socket manager wrapping a Pub socket.
func (a *Actor) CreatePub(name string) (*socketmanager.Manager, error) {
	return a.CreateSocketManager(name, transport.Pub)
}

// CreateSub creates a socket manager wrapping a Sub socket.
func (a *Actor) CreateSub(name string) (*socketmanager.Manager, error) {
	return a.CreateSocketManager(name, transport.Sub)
}

// CreateReq creates a socket manager wrapping a Req socket.
func (a *Actor) CreateReq(name string) (*socketmanager.Manager, error) {
	return a.CreateSocketManager(name, transport.Req)
}

// CreateRep creates a socket manager wrapping a Rep socket.
func (a *Actor) CreateRep(name string) (*socketmanager.Manager, error) {
	return a.CreateSocketManager(name, transport.Rep)
}

// CreateDealer creates a socket manager wrapping a Dealer socket.
func (a *Actor) CreateDealer(name string) (*socketmanager.Manager, error) {
	return a.CreateSocketManager(name, transport.Dealer)
}

// CreateRouter creates a socket manager wrapping a Router socket.
func (a *Actor) CreateRouter(name string) (*socketmanager.Manager, error) {
	return a.CreateSocketManager(name, transport.Router)
}

// CreatePush creates a socket manager wrapping a Push socket.
func (a *Actor) CreatePush(name string) (*socketmanager.Manager, error) {
	return a.CreateSocketManager(name, transport.Push)
}

// CreatePull creates a socket manager wrapping a Pull socket.
func (a *Actor) CreatePull(name string) (*socketmanager.Manager, error) {
	return a.CreateSocketManager(name, transport.Pull)
}

// Manager returns the socket manager registered under name.
func (a *Actor) Manager(name string) (*socketmanager.Manager, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	manager, ok := a.managers[name]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrManagerNotFound, "Actor", "Manager", "name "+name)
	}
	return manager, nil
}

// Managers returns the sorted names of all registered socket managers.
func (a *Actor) Managers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, 0, len(a.managers))
	for name := range a.managers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RemoveSocketManager terminates the named socket manager and unregisters
// it. The name becomes available again.
func (a *Actor) RemoveSocketManager(name string) error {
	a.mu.Lock()
	manager, ok := a.managers[name]
	if ok {
		delete(a.managers, name)
	}
	a.mu.Unlock()

	if !ok {
		return errors.WrapInvalid(errors.ErrManagerNotFound, "Actor", "RemoveSocketManager", "name "+name)
	}

	if a.metrics != nil {
		a.metrics.ManagersActive.Dec()
	}
	if err := manager.Terminate(); err != nil {
		return errors.Wrap(err, "Actor", "RemoveSocketManager", "terminate manager")
	}
	return nil
}

// BootAll boots every registered socket manager.
func (a *Actor) BootAll(ctx context.Context) error {
	for _, manager := range a.snapshot() {
		if err := manager.Boot(ctx); err != nil {
			return errors.Wrap(err, "Actor", "BootAll", "boot manager "+manager.Name())
		}
	}
	return nil
}

// StopAll stops every registered socket manager, discarding their queues.
// Anything queued but not delivered is lost.
func (a *Actor) StopAll() {
	for _, manager := range a.snapshot() {
		manager.Stop(true)
	}
}

// RebootAll reboots every registered socket manager.
func (a *Actor) RebootAll(ctx context.Context) error {
	for _, manager := range a.snapshot() {
		if err := manager.Reboot(ctx); err != nil {
			return errors.Wrap(err, "Actor", "RebootAll", "reboot manager "+manager.Name())
		}
	}
	return nil
}

// TerminateAll terminates every registered socket manager and unregisters
// them. The actor itself stays usable.
func (a *Actor) TerminateAll() error {
	a.mu.Lock()
	managers := a.managers
	a.managers = make(map[string]*socketmanager.Manager)
	a.mu.Unlock()

	var firstErr error
	for _, manager := range managers {
		if err := manager.Terminate(); err != nil && firstErr == nil {
			firstErr = err
		}
		if a.metrics != nil {
			a.metrics.ManagersActive.Dec()
		}
	}
	if firstErr != nil {
		return errors.Wrap(firstErr, "Actor", "TerminateAll", "terminate managers")
	}
	return nil
}

// Run boots every socket manager, then hands control to the behavior. The
// two phases are strictly ordered: the behavior never observes an unbooted
// manager.
func (a *Actor) Run(ctx context.Context, behavior Behavior) error {
	if err := a.BootAll(ctx); err != nil {
		return err
	}
	if behavior == nil {
		return nil
	}
	if err := behavior(ctx); err != nil {
		return errors.Wrap(err, "Actor", "Run", "behavior")
	}
	return nil
}

// Terminate terminates every socket manager, closes the transport context
// and resets the actor to its initial empty state. The actor is reusable:
// creating a manager afterwards opens a fresh transport context.
func (a *Actor) Terminate() error {
	err := a.TerminateAll()

	a.mu.Lock()
	tctx := a.tctx
	a.tctx = nil
	a.mu.Unlock()

	if tctx != nil {
		if termErr := tctx.Term(); termErr != nil && err == nil {
			err = errors.Wrap(termErr, "Actor", "Terminate", "close transport context")
		}
	}
	return err
}

func (a *Actor) snapshot() []*socketmanager.Manager {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*socketmanager.Manager, 0, len(a.managers))
	for _, manager := range a.managers {
		out = append(out, manager)
	}
	return out
}
