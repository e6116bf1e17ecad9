package shell

import (
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

// HandlerResult represents the outcome of a command handler execution.
// Reservation is the aggregate state right after the successful append, which is the only read
// that is guaranteed to reflect the caller's own write.
type HandlerResult struct {
	Reservation core.Reservation
	Event       core.DomainEvent

	// RetryAttempts is the total number of attempts made (1 for no retries, 2+ for retries).
	RetryAttempts int

	// TotalRetryDelay only counts the backoff waits, not the execution time.
	TotalRetryDelay time.Duration

	// LastErrorType is one of "none", "version_conflict", "context_canceled", "context_deadline_exceeded", "other".
	LastErrorType string

	RetriesExhausted bool
}

// NewSuccessResult creates a HandlerResult for an accepted command.
func NewSuccessResult(reservation core.Reservation, event core.DomainEvent, retryMetrics RetryMetrics) HandlerResult {
	return HandlerResult{
		Reservation:      reservation,
		Event:            event,
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}

// NewErrorResult creates a HandlerResult for a rejected or failed command that still reports retry metadata.
func NewErrorResult(retryMetrics RetryMetrics) HandlerResult {
	return HandlerResult{
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}
