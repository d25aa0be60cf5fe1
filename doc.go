// Package opencore provides an actor-oriented messaging core built around
// socket multiplexing and lifecycle management.
//
// # Architecture
//
// An Actor hosts named SocketManagers, each wrapping exactly one raw socket
// of a fixed type (pair, pub, sub, req, rep, dealer, router, push, pull).
// A SocketManager exposes its socket as two independent, queue-buffered
// pipelines:
//
//	┌──────────────────────────────────────┐
//	│               Actor                  │  creates managers,
//	│  (serializers, transport context)    │  shared lifecycle
//	└──────────────────────────────────────┘
//	            ↓ owns by name
//	┌──────────────────────────────────────┐
//	│           SocketManager              │  link/unlink endpoints,
//	│   emit pipeline | receive pipeline   │  boot/stop/reboot/terminate
//	└──────────────────────────────────────┘
//	            ↓ drives
//	┌──────────────────────────────────────┐
//	│          transport.Socket            │  ZeroMQ (transport/zeromq)
//	│                                      │  in-memory (transport/mem)
//	└──────────────────────────────────────┘
//
// Emitting never blocks on the network: frames are queued and a background
// pipeline drains the queue into the socket in FIFO order. Receiving is the
// mirror image, with a pipeline filling an inbound queue the caller drains.
//
// # Packages
//
//   - actor: named manager registry, built-in serializers, group lifecycle
//   - socketmanager: the per-socket state machine and its two pipelines
//   - transport: the socket abstraction, with zeromq and mem adapters
//   - serializer: JSON, MessagePack and gob codecs
//   - endpoint: inproc/ipc/tcp/udp/pgm/epgm endpoint formatting
//   - config: declarative YAML actor topologies
//   - runner: process-level hosting with signal handling
//   - errors, metric: error classification and Prometheus instrumentation
//
// See cmd/pubsub for a complete publisher/subscriber walkthrough.
package opencore
