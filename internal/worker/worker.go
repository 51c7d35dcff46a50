// Package worker drains broker deliveries through the extractor and decides,
// per message, whether it is acknowledged or requeued.
package worker

import (
	"context"
	"sync"
	"time"

	"pdf-extractor/internal/codec"
	"pdf-extractor/internal/domain"
	apperrors "pdf-extractor/pkg/errors"
)

// extractFailurePrefix starts every error outcome produced after parsing.
const extractFailurePrefix = "Could not extract content: "

const maxLoggedPayload = 4096

// Options configures topics and delivery policy.
type Options struct {
	OutboundTopic   string
	ErrorTopic      string
	DeadLetterTopic string
	Concurrency     int
	RequeueDelay    time.Duration
	PublishTimeout  time.Duration
	// MaxAttempts bounds redelivery after publish failures; zero means unbounded.
	MaxAttempts int
}

// Worker runs a bounded pool of goroutines over one subscription.
type Worker struct {
	subscriber domain.Subscriber
	extractor  domain.Extractor
	publisher  domain.Publisher
	opts       Options
	logger     domain.Logger
}

// NewWorker creates a new worker
func NewWorker(
	subscriber domain.Subscriber,
	extractor domain.Extractor,
	publisher domain.Publisher,
	opts Options,
	logger domain.Logger,
) *Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.ErrorTopic == "" {
		opts.ErrorTopic = opts.OutboundTopic
	}
	return &Worker{
		subscriber: subscriber,
		extractor:  extractor,
		publisher:  publisher,
		opts:       opts,
		logger:     logger,
	}
}

// Run blocks until the subscription ends, then waits until every delivery
// already handed to a goroutine has been acknowledged or requeued.
func (w *Worker) Run(ctx context.Context) error {
	deliveries := make(chan domain.Delivery)

	var wg sync.WaitGroup
	for i := 0; i < w.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range deliveries {
				w.Handle(d)
			}
		}()
	}

	w.logger.Info("Worker started", "concurrency", w.opts.Concurrency, "outbound_topic", w.opts.OutboundTopic)
	err := w.subscriber.Run(ctx, deliveries)
	close(deliveries)
	wg.Wait()
	w.logger.Info("Worker stopped")

	return err
}

// Handle processes a single delivery and ends it with exactly one Ack or Requeue.
func (w *Worker) Handle(d domain.Delivery) {
	start := time.Now()
	id := d.ID()

	job, err := codec.DecodeJob(d.Body())
	if job == nil {
		w.logger.Error("Received invalid JSON", err, "message_id", id, "payload", truncate(d.Body()))
		w.publishError(nil, id, codec.InvalidJSON)
		d.Ack()
		return
	}
	job.UseLegacyMetadata()

	req := domain.ExtractionRequest{}
	if err == nil {
		req, err = job.Request()
	}
	if err != nil {
		w.logger.Error("Rejected malformed job", err, "message_id", id)
		w.publishError(job, id, extractFailurePrefix+apperrors.Reason(err))
		d.Ack()
		return
	}

	text, err := w.extractor.Extract(req.PDF, req.Password, req.Rotation)
	if err != nil {
		w.logger.Error("Could not extract content", err, "message_id", id)
		w.publishError(job, id, extractFailurePrefix+apperrors.Reason(err))
		d.Ack()
		return
	}

	out, err := codec.EncodeSuccess(job, id, text, false)
	if err != nil {
		w.logger.Error("Failed to encode outcome", err, "message_id", id)
		w.publishError(job, id, apperrors.Reason(err))
		d.Ack()
		return
	}

	if err := w.publish(w.opts.OutboundTopic, out); err != nil {
		w.retry(d, err)
		return
	}

	d.Ack()
	w.logger.Info("Processed message",
		"message_id", id,
		"attempts", d.Attempts(),
		"chars", len(text),
		"duration", time.Since(start),
	)
}

func (w *Worker) publishError(job *domain.Job, id, reason string) {
	out, err := codec.EncodeError(job, id, reason)
	if err != nil {
		w.logger.Error("Failed to encode error outcome", err, "message_id", id)
		return
	}
	if err := w.publish(w.opts.ErrorTopic, out); err != nil {
		w.logger.Error("Could not publish error", err, "message_id", id, "topic", w.opts.ErrorTopic)
	}
}

// retry requeues d after a failed publish, or gives up once the attempt
// budget is spent, dead-lettering the original body when a topic is set.
func (w *Worker) retry(d domain.Delivery, cause error) {
	id, attempts := d.ID(), d.Attempts()

	if w.opts.MaxAttempts <= 0 || attempts < w.opts.MaxAttempts {
		w.logger.Warn("Requeueing message",
			"message_id", id,
			"attempts", attempts,
			"delay", w.opts.RequeueDelay,
			"error", cause,
		)
		d.Requeue(w.opts.RequeueDelay)
		return
	}

	if w.opts.DeadLetterTopic != "" {
		if err := w.publish(w.opts.DeadLetterTopic, d.Body()); err != nil {
			w.logger.Error("Failed to dead-letter message", err, "message_id", id, "topic", w.opts.DeadLetterTopic)
			d.Requeue(w.opts.RequeueDelay)
			return
		}
	}
	w.logger.Error("Giving up on message", cause,
		"message_id", id,
		"attempts", attempts,
		"dead_letter_topic", w.opts.DeadLetterTopic,
	)
	d.Ack()
}

func (w *Worker) publish(topic string, body []byte) error {
	ctx := context.Background()
	if w.opts.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.PublishTimeout)
		defer cancel()
	}
	return w.publisher.Publish(ctx, topic, body)
}

func truncate(body []byte) []byte {
	if len(body) > maxLoggedPayload {
		return body[:maxLoggedPayload]
	}
	return body
}
