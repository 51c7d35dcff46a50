package handler

import (
	"sync"

	"pdf-extractor/internal/domain"
)

// Mock logger used by handler package tests. It records error entries so tests
// can assert on what was reported.
type MockHandlerLogger struct {
	mu     sync.Mutex
	errors []loggedError
}

type loggedError struct {
	msg    string
	err    error
	fields []interface{}
}

func NewMockHandlerLogger() *MockHandlerLogger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})  {}
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{}) {}
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})  {}

func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, loggedError{msg: msg, err: err, fields: fields})
}

func (l *MockHandlerLogger) field(entry loggedError, key string) (interface{}, bool) {
	for i := 0; i+1 < len(entry.fields); i += 2 {
		if entry.fields[i] == key {
			return entry.fields[i+1], true
		}
	}
	return nil, false
}

var _ domain.Logger = (*MockHandlerLogger)(nil)
