package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pdf-extractor/internal/domain"
	apperrors "pdf-extractor/pkg/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultBlockTimeout    = 2 * time.Second
	defaultPromoteInterval = 500 * time.Millisecond
	promoteBatch           = 100
	responseTimeout        = 5 * time.Second
)

// promoteScript moves due entries of the delayed set back onto the input list.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, member in ipairs(due) do
	redis.call('ZREM', KEYS[1], member)
	redis.call('RPUSH', KEYS[2], member)
end
return #due
`)

// RedisOptions configures a Redis list subscription.
type RedisOptions struct {
	Topic           string
	Prefix          string
	BlockTimeout    time.Duration
	PromoteInterval time.Duration
}

// RedisSubscriber is a reliable list queue: messages are moved to a processing
// list while in flight and delayed requeues wait in a sorted set. Producers push
// plain bodies; once claimed, a body is wrapped in an envelope carrying a random
// id and its attempt count, so identical bodies stay distinct messages.
type RedisSubscriber struct {
	client *redis.Client
	opts   RedisOptions
	logger domain.Logger
}

// NewRedisSubscriber creates a new Redis subscriber
func NewRedisSubscriber(client *redis.Client, opts RedisOptions, logger domain.Logger) *RedisSubscriber {
	if opts.BlockTimeout <= 0 {
		opts.BlockTimeout = defaultBlockTimeout
	}
	if opts.PromoteInterval <= 0 {
		opts.PromoteInterval = defaultPromoteInterval
	}
	return &RedisSubscriber{
		client: client,
		opts:   opts,
		logger: logger,
	}
}

func (s *RedisSubscriber) inputKey() string      { return queueKey(s.opts.Prefix, s.opts.Topic) }
func (s *RedisSubscriber) processingKey() string { return s.inputKey() + ":processing" }
func (s *RedisSubscriber) delayedKey() string    { return s.inputKey() + ":delayed" }

// Run blocks until ctx is cancelled. Messages left in the processing list by a
// previous run are returned to the input list first.
func (s *RedisSubscriber) Run(ctx context.Context, deliveries chan<- domain.Delivery) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if err := s.restoreProcessing(ctx); err != nil {
		return err
	}

	s.logger.Info("Redis consumer started", "queue", s.inputKey())

	promoterDone := make(chan struct{})
	go func() {
		defer close(promoterDone)
		s.promoteLoop(ctx)
	}()
	defer func() { <-promoterDone }()

	for {
		item, err := s.client.BLMove(ctx, s.inputKey(), s.processingKey(), "LEFT", "RIGHT", s.opts.BlockTimeout).Bytes()
		if ctx.Err() != nil {
			if err == nil {
				s.putBack(item, item)
			}
			s.logger.Info("Stopping Redis consumer", "queue", s.inputKey())
			return nil
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			s.logger.Warn("Failed to receive message", "queue", s.inputKey(), "error", err)
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}

		d, err := s.claim(item)
		if err != nil {
			s.logger.Error("Failed to claim message", err, "queue", s.inputKey())
			s.putBack(item, item)
			continue
		}

		select {
		case deliveries <- d:
		case <-ctx.Done():
			s.putBack(d.entry, d.previous())
			s.logger.Info("Stopping Redis consumer", "queue", s.inputKey())
			return nil
		}
	}
}

// claim replaces item in the processing list with an envelope whose attempt
// count includes this delivery. It runs to completion even during shutdown.
func (s *RedisSubscriber) claim(item []byte) (*redisDelivery, error) {
	env, ok := decodeEnvelope(item)
	if !ok {
		env = envelope{ID: uuid.NewString(), Body: item}
	}
	env.Attempts++

	entry, err := env.encode()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), responseTimeout)
	defer cancel()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, s.processingKey(), 1, item)
		pipe.RPush(ctx, s.processingKey(), entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &redisDelivery{sub: s, env: env, entry: entry}, nil
}

func (s *RedisSubscriber) restoreProcessing(ctx context.Context) error {
	restored := 0
	for {
		err := s.client.LMove(ctx, s.processingKey(), s.inputKey(), "RIGHT", "LEFT").Err()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return fmt.Errorf("restore processing list: %w", err)
		}
		restored++
	}
	if restored > 0 {
		s.logger.Warn("Restored unfinished messages", "queue", s.inputKey(), "count", restored)
	}
	return nil
}

// putBack replaces entry in the processing list with item at the head of the
// input list. Used for messages that were never handed to a worker.
func (s *RedisSubscriber) putBack(entry, item []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), responseTimeout)
	defer cancel()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, s.processingKey(), 1, entry)
		pipe.LPush(ctx, s.inputKey(), item)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to restore message", err, "queue", s.inputKey())
	}
}

func (s *RedisSubscriber) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.PromoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.promote(ctx, time.Now()); err != nil && ctx.Err() == nil {
				s.logger.Warn("Failed to promote delayed messages", "queue", s.delayedKey(), "error", err)
			}
		}
	}
}

// promote moves every delayed message due at now back onto the input list.
func (s *RedisSubscriber) promote(ctx context.Context, now time.Time) (int, error) {
	return promoteScript.Run(ctx, s.client,
		[]string{s.delayedKey(), s.inputKey()},
		strconv.FormatInt(now.UnixMilli(), 10), promoteBatch,
	).Int()
}

func (s *RedisSubscriber) ack(d *redisDelivery) {
	ctx, cancel := context.WithTimeout(context.Background(), responseTimeout)
	defer cancel()
	if err := s.client.LRem(ctx, s.processingKey(), 1, d.entry).Err(); err != nil {
		s.logger.Error("Failed to acknowledge message", err, "id", d.env.ID)
	}
}

func (s *RedisSubscriber) requeue(d *redisDelivery, delay time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), responseTimeout)
	defer cancel()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, s.processingKey(), 1, d.entry)
		if delay <= 0 {
			pipe.RPush(ctx, s.inputKey(), d.entry)
			return nil
		}
		pipe.ZAdd(ctx, s.delayedKey(), redis.Z{
			Score:  float64(time.Now().Add(delay).UnixMilli()),
			Member: d.entry,
		})
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to requeue message", err, "id", d.env.ID)
	}
}

// envelopeMarker starts every envelope. JSON bodies never start with a NUL byte.
const envelopeMarker = "\x00env:"

type envelope struct {
	ID       string `json:"id"`
	Attempts int    `json:"attempts"`
	Body     []byte `json:"body"`
}

func (e envelope) encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append([]byte(envelopeMarker), b...), nil
}

func decodeEnvelope(item []byte) (envelope, bool) {
	var env envelope
	if !bytes.HasPrefix(item, []byte(envelopeMarker)) {
		return env, false
	}
	if err := json.Unmarshal(item[len(envelopeMarker):], &env); err != nil || env.ID == "" {
		return envelope{}, false
	}
	return env, true
}

type redisDelivery struct {
	sub   *RedisSubscriber
	env   envelope
	entry []byte
}

func (d *redisDelivery) ID() string    { return d.env.ID }
func (d *redisDelivery) Body() []byte  { return d.env.Body }
func (d *redisDelivery) Attempts() int { return d.env.Attempts }
func (d *redisDelivery) Ack()          { d.sub.ack(d) }

func (d *redisDelivery) Requeue(delay time.Duration) { d.sub.requeue(d, delay) }

// previous is the form the message had before this delivery claimed it.
func (d *redisDelivery) previous() []byte {
	prev := d.env
	prev.Attempts--
	if prev.Attempts <= 0 {
		return prev.Body
	}
	b, err := prev.encode()
	if err != nil {
		return d.entry
	}
	return b
}

// RedisPublisher pushes outcomes onto Redis lists named after the topic.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// Publish appends body to the topic's list.
func (p *RedisPublisher) Publish(ctx context.Context, topic string, body []byte) error {
	if err := p.client.RPush(ctx, queueKey(p.prefix, topic), body).Err(); err != nil {
		return apperrors.NewDeliveryError("failed to publish to "+topic, err)
	}
	return nil
}

func queueKey(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + ":" + topic
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
