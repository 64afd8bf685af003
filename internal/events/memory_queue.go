package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultVisibilityTimeout = 30 * time.Second
	defaultMaxReceives       = 5
)

// MemoryQueueOption configures a MemoryQueue.
type MemoryQueueOption func(*MemoryQueue)

// WithVisibilityTimeout sets how long a received message stays hidden before
// it is handed out again if nobody deleted it.
func WithVisibilityTimeout(d time.Duration) MemoryQueueOption {
	return func(q *MemoryQueue) {
		if d > 0 {
			q.visibility = d
		}
	}
}

// WithMaxReceives caps deliveries per message; the message is dropped once an
// expired delivery would exceed the cap.
func WithMaxReceives(n int) MemoryQueueOption {
	return func(q *MemoryQueue) {
		if n > 0 {
			q.maxReceives = n
		}
	}
}

type inFlightMessage struct {
	msg      Message
	deadline time.Time
	receives int
}

// MemoryQueue is a Queue backed by a buffered channel. Received messages stay
// in flight until deleted; undeleted ones reappear after the visibility
// timeout, as on SQS.
type MemoryQueue struct {
	ch          chan pendingMessage
	visibility  time.Duration
	maxReceives int
	now         func() time.Time

	mu       sync.Mutex
	inFlight map[string]inFlightMessage
	dropped  int
}

type pendingMessage struct {
	msg      Message
	receives int
}

// NewMemoryQueue creates a MemoryQueue holding up to buffer undelivered messages.
func NewMemoryQueue(buffer int, opts ...MemoryQueueOption) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	q := &MemoryQueue{
		ch:          make(chan pendingMessage, buffer),
		visibility:  defaultVisibilityTimeout,
		maxReceives: defaultMaxReceives,
		now:         time.Now,
		inFlight:    make(map[string]inFlightMessage),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

// Send enqueues a payload or blocks until ctx is done.
func (q *MemoryQueue) Send(ctx context.Context, body string, attrs map[string]string) error {
	msg := Message{
		ID:         uuid.NewString(),
		Body:       body,
		Attributes: copyAttrs(attrs),
	}
	select {
	case q.ch <- pendingMessage{msg: msg}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits for at least one message. A non-positive waitSeconds blocks
// until ctx is done; otherwise an empty batch is returned on timeout.
func (q *MemoryQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error) {
	if maxMessages <= 0 {
		maxMessages = 1
	}
	var timeout <-chan time.Time
	if waitSeconds > 0 {
		timer := time.NewTimer(time.Duration(waitSeconds) * time.Second)
		defer timer.Stop()
		timeout = timer.C
	}

	var first pendingMessage
	for received := false; !received; {
		var wake <-chan time.Time
		var wakeTimer *time.Timer
		if next, ok := q.requeueExpired(); ok {
			wakeTimer = time.NewTimer(next)
			wake = wakeTimer.C
		}
		select {
		case <-ctx.Done():
			stopTimer(wakeTimer)
			return nil, ctx.Err()
		case <-timeout:
			stopTimer(wakeTimer)
			return nil, nil
		case <-wake:
		case first = <-q.ch:
			stopTimer(wakeTimer)
			received = true
		}
	}

	batch := []pendingMessage{first}
drain:
	for len(batch) < maxMessages {
		select {
		case p := <-q.ch:
			batch = append(batch, p)
		default:
			break drain
		}
	}

	out := make([]Message, 0, len(batch))
	deadline := q.now().Add(q.visibility)
	q.mu.Lock()
	for _, p := range batch {
		msg := p.msg
		// A fresh handle per delivery keeps a late Delete from acking a redelivery.
		msg.ReceiptHandle = uuid.NewString()
		q.inFlight[msg.ReceiptHandle] = inFlightMessage{msg: msg, deadline: deadline, receives: p.receives + 1}
		out = append(out, msg)
	}
	q.mu.Unlock()
	return out, nil
}

// requeueExpired moves expired in-flight messages back onto the channel and
// reports the wait until the next deadline, if any message is still in flight.
func (q *MemoryQueue) requeueExpired() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var next time.Duration
	pending := false
	for handle, entry := range q.inFlight {
		if wait := entry.deadline.Sub(now); wait > 0 {
			if !pending || wait < next {
				next = wait
			}
			pending = true
			continue
		}
		if entry.receives >= q.maxReceives {
			delete(q.inFlight, handle)
			q.dropped++
			continue
		}
		select {
		case q.ch <- pendingMessage{msg: entry.msg, receives: entry.receives}:
			delete(q.inFlight, handle)
		default:
			// Channel full; retry on the next pass.
			if !pending || time.Second < next {
				next = time.Second
			}
			pending = true
		}
	}
	return next, pending
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// Delete acknowledges a received message.
func (q *MemoryQueue) Delete(_ context.Context, receiptHandle string) error {
	q.mu.Lock()
	delete(q.inFlight, receiptHandle)
	q.mu.Unlock()
	return nil
}

// InFlight reports how many received messages are not yet deleted.
func (q *MemoryQueue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}

// Pending reports how many messages are waiting to be received.
func (q *MemoryQueue) Pending() int {
	return len(q.ch)
}

// Dropped reports messages discarded after reaching the receive cap.
func (q *MemoryQueue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func copyAttrs(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
