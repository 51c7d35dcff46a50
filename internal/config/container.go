package config

import (
	"pdf-extractor/internal/domain"
	"pdf-extractor/internal/pdf"
	"pdf-extractor/internal/queue"
	"pdf-extractor/internal/service"
	"pdf-extractor/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	Config     *AppConfig
	Logger     domain.Logger
	Extractor  domain.Extractor
	Publisher  domain.Publisher
	Subscriber domain.Subscriber

	redisClient *redis.Client
}

// NewContainer creates a new dependency injection container. Broker clients
// are only built in async mode.
func NewContainer(cfg *AppConfig) *Container {
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)

	c := &Container{
		Config:    cfg,
		Logger:    appLogger,
		Extractor: service.NewPDFExtractor(pdf.NewDecoder(), appLogger),
	}
	if cfg.Mode() == ModeAsync {
		c.initBroker()
	}
	return c
}

func (c *Container) initBroker() {
	q := c.Config.Queue

	switch c.Config.Broker {
	case BrokerRedis:
		c.redisClient = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Addr,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		c.Publisher = queue.NewRedisPublisher(c.redisClient, c.Config.Redis.Prefix)
		c.Subscriber = queue.NewRedisSubscriber(c.redisClient, queue.RedisOptions{
			Topic:  q.InboundTopic,
			Prefix: c.Config.Redis.Prefix,
		}, c.Logger)
	default:
		c.Publisher = queue.NewHTTPPublisher(q.WriterHTTP)
		c.Subscriber = queue.NewNSQSubscriber(queue.NSQOptions{
			Topic:       q.InboundTopic,
			Channel:     q.Channel,
			Address:     q.ReaderAddress,
			Lookupd:     q.ReaderIsLookupd,
			MaxInFlight: q.MaxInFlight,
			Deflate:     q.Deflate,
		}, c.Logger)
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() *AppConfig {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetExtractor returns the extractor instance
func (c *Container) GetExtractor() domain.Extractor {
	return c.Extractor
}

// Close releases broker connections.
func (c *Container) Close() error {
	if c.redisClient != nil {
		return c.redisClient.Close()
	}
	return nil
}
