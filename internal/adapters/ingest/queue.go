// Package ingest moves raw feed messages from the transport into the
// domain. A bounded queue absorbs delivery bursts from the concurrent
// feed channels; a single dispatcher goroutine drains it, so all player
// state mutation is serialized regardless of originating channel.
package ingest

import (
	"context"
	"sync"

	"github.com/opstrack/opstrack/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 100000
	defaultBufferSize    = 100000
)

// RawMessage is one text frame as delivered by a feed channel.
type RawMessage struct {
	// Channel names the feed channel the frame arrived on, for metrics
	// and debugging only.
	Channel string
	Payload []byte
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics
// for raw feed messages.
type Queue interface {
	// Enqueue adds a message to the queue.
	// Returns false if the queue is full and the message was not enqueued.
	Enqueue(ctx context.Context, m RawMessage) bool

	// Dequeue returns a channel that will receive messages as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan RawMessage

	// Len returns the current number of queued messages.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new
	// messages can be enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	messages   chan RawMessage
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.messages = make(chan RawMessage, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a message to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m RawMessage) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("ingest", "closed")
		return false
	}

	if len(q.messages) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("ingest", "capacity_exceeded")
		return false
	}

	select {
	case q.messages <- m:
		metrics.RecordQueueEnqueue()
		currentSize := len(q.messages)
		metrics.UpdateQueueSize(currentSize)
		metrics.UpdateQueueUtilization(float64(currentSize) / float64(q.capacity))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("ingest", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("ingest", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive messages as they become
// available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan RawMessage {
	out := make(chan RawMessage)
	go func() {
		defer close(out)
		for m := range q.messages {
			select {
			case out <- m:
				metrics.RecordQueueDequeue()
				currentSize := len(q.messages)
				metrics.UpdateQueueSize(currentSize)
				metrics.UpdateQueueUtilization(float64(currentSize) / float64(q.capacity))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued messages.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.messages)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.messages)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
