package socketmanager

import (
	"context"

	"github.com/ilpomo/open-core/errors"
	"github.com/ilpomo/open-core/pkg/queue"
)

// Emit enqueues a frame for the emit pipeline. It never blocks on socket
// availability: the frame is appended to the outbound queue and written by
// the pipeline in FIFO order. Safe for concurrent producers.
func (m *Manager) Emit(topic, payload []byte) error {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return errors.WrapFatal(errors.ErrTerminated, "SocketManager", "Emit", "lifecycle check")
	}
	q := m.emitQueue
	m.mu.Unlock()

	if err := q.Push(Frame{Topic: topic, Payload: payload}); err != nil {
		return errors.Wrap(err, "SocketManager", "Emit", "enqueue")
	}
	m.updateQueueDepth()
	return nil
}

// Recv returns the next received payload in arrival order, suspending the
// caller until one is available. Each payload is delivered exactly once to
// exactly one caller.
func (m *Manager) Recv(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return nil, errors.WrapFatal(errors.ErrTerminated, "SocketManager", "Recv", "lifecycle check")
	}
	q := m.recvQueue
	m.mu.Unlock()

	payload, err := q.Pop(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "SocketManager", "Recv", "dequeue")
	}
	m.updateQueueDepth()
	return payload, nil
}

// emitLoop drains the emit queue into the socket until cancelled. On
// cancellation it exits silently; on any other fault it reports the error
// and exits, leaving recovery to an explicit Reboot.
func (m *Manager) emitLoop(ctx context.Context, q *queue.Queue[Frame], done chan struct{}) {
	defer close(done)

	for {
		frame, err := q.Pop(ctx)
		if err != nil {
			// Cancellation or queue teardown, both expected shutdown paths.
			return
		}
		m.updateQueueDepth()

		if err := m.socket.SendMultipart(ctx, [][]byte{frame.Topic, frame.Payload}); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error("emit pipeline fault", "manager", m.name, "error", err)
			if m.metrics != nil {
				m.metrics.PipelineFaults.WithLabelValues(m.name, "emit").Inc()
			}
			return
		}

		if m.metrics != nil {
			m.metrics.FramesEmitted.WithLabelValues(m.name).Inc()
		}
	}
}

// recvLoop fills the receive queue from the socket until cancelled. The
// frame's topic part has already done its filtering job at the transport, so
// only the payload part is queued. Fault handling mirrors emitLoop.
func (m *Manager) recvLoop(ctx context.Context, q *queue.Queue[[]byte], done chan struct{}) {
	defer close(done)

	for {
		parts, err := m.socket.RecvMultipart(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error("receive pipeline fault", "manager", m.name, "error", err)
			if m.metrics != nil {
				m.metrics.PipelineFaults.WithLabelValues(m.name, "recv").Inc()
			}
			return
		}

		var payload []byte
		if len(parts) > 0 {
			payload = parts[len(parts)-1]
		}
		if err := q.Push(payload); err != nil {
			// Queue replaced under us: the pipeline is being torn down.
			return
		}
		m.updateQueueDepth()

		if m.metrics != nil {
			m.metrics.FramesReceived.WithLabelValues(m.name).Inc()
		}
	}
}

// updateQueueDepth refreshes the queue depth gauges when metrics are wired.
func (m *Manager) updateQueueDepth() {
	if m.metrics == nil {
		return
	}

	m.mu.Lock()
	emitLen, recvLen := m.emitQueue.Len(), m.recvQueue.Len()
	terminated := m.terminated
	m.mu.Unlock()

	if terminated {
		return
	}
	m.metrics.EmitQueueDepth.WithLabelValues(m.name).Set(float64(emitLen))
	m.metrics.RecvQueueDepth.WithLabelValues(m.name).Set(float64(recvLen))
}
