package domain

import (
	"context"
	"time"
)

// Extractor turns PDF bytes into plain text.
// Implementations must be safe for concurrent use and keep no state across calls.
type Extractor interface {
	Extract(pdf []byte, password []byte, rotation int) (string, error)
}

// Delivery is one message handed over by a broker subscription.
// Exactly one of Ack or Requeue must be called once processing is done.
type Delivery interface {
	ID() string
	Body() []byte
	// Attempts is 1 on first delivery and grows with each requeue.
	Attempts() int
	Ack()
	Requeue(delay time.Duration)
}

// Subscriber feeds deliveries from an inbound topic into a channel.
// Run blocks until ctx is cancelled and guarantees no send happens after it returns.
type Subscriber interface {
	Run(ctx context.Context, deliveries chan<- Delivery) error
}

// Publisher sends an encoded outcome to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, body []byte) error
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}
