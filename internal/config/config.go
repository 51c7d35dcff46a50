package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "pdf-extractor/pkg/errors"
)

// Mode is the process mode; a process runs exactly one transport.
type Mode int

const (
	// ModeSync serves extraction requests over HTTP.
	ModeSync Mode = iota
	// ModeAsync consumes jobs from a broker topic.
	ModeAsync
)

func (m Mode) String() string {
	switch m {
	case ModeAsync:
		return "async"
	default:
		return "sync"
	}
}

const lookupdHTTPPort = "4161"

// Broker kinds supported by the async transport.
const (
	BrokerNSQ   = "nsq"
	BrokerRedis = "redis"
)

// AppConfig holds the whole process configuration. It is built once at startup
// and handed to constructors; nothing below main reads the environment.
type AppConfig struct {
	ServerPort         string
	LogLevel           string
	LogFormat          string
	MaxBodySize        int64
	CORSAllowedOrigins []string

	Broker string
	Queue  QueueConfig
	Redis  RedisConfig
}

// QueueConfig holds topic names, NSQ addresses and delivery policy. Topic names
// and policy apply to every broker kind; the variable names follow NSQ.
type QueueConfig struct {
	InboundTopic    string
	OutboundTopic   string
	ErrorTopic      string
	DeadLetterTopic string
	Channel         string
	ReaderAddress   string
	ReaderIsLookupd bool
	WriterHTTP      string
	MaxInFlight     int
	RequeueDelay    time.Duration
	PublishTimeout  time.Duration
	MaxAttempts     int
	Deflate         bool
}

// RedisConfig holds settings for the redis broker.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewConfig creates a new configuration instance from the environment
func NewConfig() *AppConfig {
	outbound := getEnvOrDefault("NSQ_TOPIC_PROCESSED_PDF", "")
	reader := getEnvOrDefault("SERVICE_NSQ_READER", "127.0.0.1:4161")
	return &AppConfig{
		ServerPort:         getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8037")),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "json"),
		MaxBodySize:        getEnvInt64OrDefault("MAX_BODY_SIZE", 50*1024*1024), // 50MB default
		CORSAllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		Broker:             strings.ToLower(getEnvOrDefault("BROKER", BrokerNSQ)),
		Queue: QueueConfig{
			InboundTopic:    getEnvOrDefault("NSQ_TOPIC_CONVERT_PDF", ""),
			OutboundTopic:   outbound,
			ErrorTopic:      getEnvOrDefault("NSQ_TOPIC_PDF_ERRORS", outbound),
			DeadLetterTopic: getEnvOrDefault("NSQ_TOPIC_DEAD_LETTER", ""),
			Channel:         getEnvOrDefault("NSQ_CHANNEL", "pdf-extractor"),
			ReaderAddress:   reader,
			ReaderIsLookupd: getEnvBoolOrDefault("SERVICE_NSQ_READER_LOOKUPD", isLookupdPort(reader)),
			WriterHTTP:      getEnvOrDefault("SERVICE_NSQ_WRITER_HTTP", "127.0.0.1:4151"),
			MaxInFlight:     int(getEnvInt64OrDefault("NSQ_MAX_IN_FLIGHT", 5)),
			RequeueDelay:    getEnvDurationOrDefault("NSQ_REQUEUE_DELAY", 10*time.Second),
			PublishTimeout:  getEnvDurationOrDefault("NSQ_PUBLISH_TIMEOUT", 5*time.Second),
			MaxAttempts:     int(getEnvInt64OrDefault("NSQ_MAX_ATTEMPTS", 10)),
			Deflate:         getEnvBoolOrDefault("NSQ_DEFLATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       int(getEnvInt64OrDefault("REDIS_DB", 0)),
			Prefix:   getEnvOrDefault("REDIS_PREFIX", "pdf-extractor"),
		},
	}
}

// Mode resolves the process mode. An inbound topic selects the async transport.
func (c *AppConfig) Mode() Mode {
	if c.Queue.InboundTopic != "" {
		return ModeAsync
	}
	return ModeSync
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// Validate checks the settings the selected mode depends on.
func (c *AppConfig) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return apperrors.NewConfigurationError("unknown log format", "LOG_FORMAT="+c.LogFormat)
	}
	if c.MaxBodySize <= 0 {
		return apperrors.NewConfigurationError("max body size must be positive")
	}
	if c.Mode() == ModeSync {
		return nil
	}

	switch c.Broker {
	case BrokerNSQ, BrokerRedis:
	default:
		return apperrors.NewConfigurationError("unknown broker", "BROKER="+c.Broker)
	}
	if c.Queue.OutboundTopic == "" {
		return apperrors.NewConfigurationError("outbound topic is required in async mode", "NSQ_TOPIC_PROCESSED_PDF")
	}
	if c.Queue.MaxInFlight <= 0 {
		return apperrors.NewConfigurationError("in-flight limit must be positive", "NSQ_MAX_IN_FLIGHT="+strconv.Itoa(c.Queue.MaxInFlight))
	}
	if c.Queue.MaxAttempts < 0 {
		return apperrors.NewConfigurationError("max attempts must not be negative")
	}
	if c.Queue.PublishTimeout <= 0 {
		return apperrors.NewConfigurationError("publish timeout must be positive")
	}
	return nil
}

// isLookupdPort reports whether addr uses the nsqlookupd HTTP port.
func isLookupdPort(addr string) bool {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i+1:] == lookupdHTTPPort
	}
	return false
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Durations accept Go syntax ("10s") or a bare number of seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
