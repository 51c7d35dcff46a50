package queue

import (
	"context"
	"sync"
	"time"

	"pdf-extractor/internal/domain"
	"pdf-extractor/pkg/logger"

	"github.com/nsqio/go-nsq"
)

// NSQOptions configures an NSQ subscription.
type NSQOptions struct {
	Topic   string
	Channel string
	// Address is an nsqd TCP address, or an nsqlookupd HTTP address when Lookupd is set.
	Address     string
	Lookupd     bool
	MaxInFlight int
	Deflate     bool
}

// NSQSubscriber consumes a topic with go-nsq and hands each message over as a
// Delivery. Messages are never auto-finished.
type NSQSubscriber struct {
	opts   NSQOptions
	logger domain.Logger
}

// NewNSQSubscriber creates a new NSQ subscriber
func NewNSQSubscriber(opts NSQOptions, logger domain.Logger) *NSQSubscriber {
	return &NSQSubscriber{
		opts:   opts,
		logger: logger,
	}
}

func (s *NSQSubscriber) config() (*nsq.Config, error) {
	cfg := nsq.NewConfig()
	cfg.MaxInFlight = s.opts.MaxInFlight
	// Attempts are bounded by the worker so it can dead-letter before giving up.
	cfg.MaxAttempts = 0
	if s.opts.Deflate {
		if err := cfg.Set("deflate", true); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run connects the consumer and blocks until ctx is cancelled. Messages still
// waiting for a free worker at shutdown are requeued without delay.
func (s *NSQSubscriber) Run(ctx context.Context, deliveries chan<- domain.Delivery) error {
	cfg, err := s.config()
	if err != nil {
		return err
	}

	consumer, err := nsq.NewConsumer(s.opts.Topic, s.opts.Channel, cfg)
	if err != nil {
		return err
	}
	consumer.SetLogger(logger.NewNSQLogger(s.logger), nsq.LogLevelInfo)

	h := newHandoff(deliveries)
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()
		h.deliver(&nsqDelivery{m: m})
		return nil
	}), s.opts.MaxInFlight)

	if s.opts.Lookupd {
		err = consumer.ConnectToNSQLookupd(s.opts.Address)
	} else {
		err = consumer.ConnectToNSQD(s.opts.Address)
	}
	if err != nil {
		consumer.Stop()
		return err
	}

	s.logger.Info("NSQ consumer started",
		"topic", s.opts.Topic,
		"channel", s.opts.Channel,
		"address", s.opts.Address,
		"max_in_flight", s.opts.MaxInFlight,
	)

	<-ctx.Done()
	s.logger.Info("Stopping NSQ consumer", "topic", s.opts.Topic)

	consumer.Stop()
	h.stop()
	<-consumer.StopChan
	h.close()
	return nil
}

// handoff passes deliveries to the worker channel and guarantees that nothing
// is sent once close returns.
type handoff struct {
	out      chan<- domain.Delivery
	stopping chan struct{}
	once     sync.Once
	mu       sync.RWMutex
	closed   bool
}

func newHandoff(out chan<- domain.Delivery) *handoff {
	return &handoff{out: out, stopping: make(chan struct{})}
}

func (h *handoff) deliver(d domain.Delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		d.Requeue(0)
		return
	}
	select {
	case h.out <- d:
	case <-h.stopping:
		d.Requeue(0)
	}
}

// stop makes pending and future deliveries requeue instead of blocking.
func (h *handoff) stop() {
	h.once.Do(func() { close(h.stopping) })
}

// close waits for in-progress deliveries and rejects the rest.
func (h *handoff) close() {
	h.stop()
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

type nsqDelivery struct {
	m *nsq.Message
}

func (d *nsqDelivery) ID() string {
	return string(d.m.ID[:])
}

func (d *nsqDelivery) Body() []byte {
	return d.m.Body
}

func (d *nsqDelivery) Attempts() int {
	return int(d.m.Attempts)
}

func (d *nsqDelivery) Ack() {
	d.m.Finish()
}

func (d *nsqDelivery) Requeue(delay time.Duration) {
	d.m.Requeue(delay)
}
