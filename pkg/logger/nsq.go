package logger

import (
	"errors"
	"strings"

	"pdf-extractor/internal/domain"
)

// NSQLogger forwards go-nsq client log lines to a domain.Logger.
// go-nsq prefixes every line with a three letter level (DBG, INF, WRN, ERR).
type NSQLogger struct {
	logger domain.Logger
}

// NewNSQLogger wraps logger for use with nsq.Consumer.SetLogger.
func NewNSQLogger(logger domain.Logger) *NSQLogger {
	return &NSQLogger{logger: logger}
}

// Output implements the go-nsq logger interface.
func (n *NSQLogger) Output(calldepth int, s string) error {
	level, msg := s, ""
	if i := strings.IndexByte(s, ' '); i >= 0 {
		level, msg = s[:i], strings.TrimSpace(s[i:])
	}

	switch level {
	case "DBG":
		n.logger.Debug(msg, "component", "nsq")
	case "INF":
		n.logger.Info(msg, "component", "nsq")
	case "WRN":
		n.logger.Warn(msg, "component", "nsq")
	case "ERR":
		n.logger.Error(msg, errors.New(msg), "component", "nsq")
	default:
		n.logger.Info(s, "component", "nsq")
	}
	return nil
}
