package testdoubles

import (
	"context"
	"strings"
	"sync"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogRecord is one captured log call.
type LogRecord struct {
	Level   string
	Message string
	Args    []any
}

// Attr returns the value logged under key, if any.
func (r LogRecord) Attr(key string) (any, bool) {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if name, ok := r.Args[i].(string); ok && name == key {
			return r.Args[i+1], true
		}
	}

	return nil, false
}

// ContextualLoggerSpy satisfies eventstore.ContextualLogger and eventstore.Logger.
type ContextualLoggerSpy struct {
	mu      sync.Mutex
	records []LogRecord
}

func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

func (s *ContextualLoggerSpy) DebugContext(_ context.Context, msg string, args ...any) {
	s.add(LevelDebug, msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(_ context.Context, msg string, args ...any) {
	s.add(LevelInfo, msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(_ context.Context, msg string, args ...any) {
	s.add(LevelWarn, msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(_ context.Context, msg string, args ...any) {
	s.add(LevelError, msg, args)
}

func (s *ContextualLoggerSpy) Debug(msg string, args ...any) { s.add(LevelDebug, msg, args) }
func (s *ContextualLoggerSpy) Info(msg string, args ...any)  { s.add(LevelInfo, msg, args) }
func (s *ContextualLoggerSpy) Warn(msg string, args ...any)  { s.add(LevelWarn, msg, args) }
func (s *ContextualLoggerSpy) Error(msg string, args ...any) { s.add(LevelError, msg, args) }

// Records returns the captured records of one level whose message contains the fragment.
func (s *ContextualLoggerSpy) Records(level, fragment string) []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []LogRecord

	for _, record := range s.records {
		if record.Level == level && strings.Contains(record.Message, fragment) {
			found = append(found, record)
		}
	}

	return found
}

func (s *ContextualLoggerSpy) add(level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{Level: level, Message: msg, Args: append([]any(nil), args...)})
}
