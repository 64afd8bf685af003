package events

import "context"

// Queue is the transport the publisher writes to and workers poll.
type Queue interface {
	Send(ctx context.Context, body string, attrs map[string]string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Message is one received queue entry.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
	Attributes    map[string]string
}

// AttrEventType carries the envelope type so consumers can skip unknown events cheaply.
const AttrEventType = "event_type"
