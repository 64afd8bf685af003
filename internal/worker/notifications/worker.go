// Package notificationworker consumes booking events and sends notifications.
package notificationworker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/padel-booking/internal/events"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

// BookingNotifier handles booking.created events.
type BookingNotifier interface {
	NotifyBookingCreated(ctx context.Context, evt events.BookingCreatedV1) error
}

// ProcessedStore deduplicates redelivered events.
type ProcessedStore interface {
	AlreadyProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

const (
	defaultWorkerCount = 1
	defaultWaitSeconds = 2
	defaultBatchSize   = 5
	maxWaitSeconds     = 20
	maxBatchSize       = 10
	deleteTimeout      = 5 * time.Second
)

// Option configures a Worker.
type Option func(*Worker)

// WithWorkerCount sets the number of polling goroutines.
func WithWorkerCount(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait, capped at 20s.
func WithReceiveWaitSeconds(seconds int) Option {
	return func(w *Worker) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		w.waitSeconds = seconds
	}
}

// WithReceiveBatchSize sets the receive batch size, capped at 10.
func WithReceiveBatchSize(size int) Option {
	return func(w *Worker) {
		if size <= 0 {
			return
		}
		if size > maxBatchSize {
			size = maxBatchSize
		}
		w.batchSize = size
	}
}

// WithProcessedStore enables event deduplication.
func WithProcessedStore(store ProcessedStore) Option {
	return func(w *Worker) { w.processed = store }
}

// Worker polls the booking events queue.
type Worker struct {
	queue     events.Queue
	notifier  BookingNotifier
	processed ProcessedStore
	logger    *logging.Logger

	workers     int
	waitSeconds int
	batchSize   int

	wg sync.WaitGroup
}

// New creates a worker. queue and notifier are required.
func New(queue events.Queue, notifier BookingNotifier, logger *logging.Logger, opts ...Option) *Worker {
	if queue == nil {
		panic("notificationworker: queue required")
	}
	if notifier == nil {
		panic("notificationworker: notifier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		queue:       queue,
		notifier:    notifier,
		logger:      logger,
		workers:     defaultWorkerCount,
		waitSeconds: defaultWaitSeconds,
		batchSize:   defaultBatchSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Start launches the polling goroutines; they stop when ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("notification worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			w.logger.Debug("notification worker stopping", "worker_id", workerID)
			return
		}

		messages, err := w.queue.Receive(ctx, w.batchSize, w.waitSeconds)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.logger.Error("failed to receive booking events", "error", err, "worker_id", workerID)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.HandleMessage(ctx, msg)
		}
	}
}

// HandleMessage processes one queue message. Messages are deleted once
// handled, skipped, or found undecodable; a failed notification leaves the
// message on the queue for redelivery.
func (w *Worker) HandleMessage(ctx context.Context, msg events.Message) {
	if t := msg.Attributes[events.AttrEventType]; t != "" && t != events.BookingCreatedType {
		w.logger.Debug("skipping unsupported event", "event_type", t, "msg_id", msg.ID)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	env, err := events.DecodeEnvelope(msg.Body)
	if err != nil {
		w.logger.Error("failed to decode booking event", "error", err, "msg_id", msg.ID)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}
	evt, err := env.BookingCreated()
	if err != nil {
		w.logger.Warn("skipping unsupported event", "event_type", env.EventType, "error", err)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	eventID := env.EventID.String()
	if w.processed != nil {
		done, err := w.processed.AlreadyProcessed(ctx, eventID)
		if err != nil {
			w.logger.Warn("processed lookup failed", "error", err, "event_id", eventID)
		} else if done {
			w.logger.Info("duplicate booking event ignored", "event_id", eventID, "booking_id", evt.BookingID)
			w.deleteMessage(msg.ReceiptHandle)
			return
		}
	}

	if err := w.notifier.NotifyBookingCreated(ctx, evt); err != nil {
		w.logger.Error("booking notification failed", "error", err, "event_id", eventID, "booking_id", evt.BookingID)
		return
	}

	if w.processed != nil {
		if _, err := w.processed.MarkProcessed(ctx, eventID); err != nil {
			w.logger.Warn("failed to mark event processed", "error", err, "event_id", eventID)
		}
	}
	w.logger.Info("booking notification sent", "event_id", eventID, "booking_id", evt.BookingID)
	w.deleteMessage(msg.ReceiptHandle)
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete booking event", "error", err)
	}
}
