package core

import (
	"errors"
	"fmt"
	"time"
)

// DefaultSlotDuration is used when a booking request names a start but no duration.
const DefaultSlotDuration = 60 * time.Minute

var ErrInvalidWindow = errors.New("appointment window must end after it starts")
var ErrWindowNotInFuture = errors.New("appointment window must start in the future")

// Window is the half-open interval [Start, End) of an appointment.
type Window struct {
	Start time.Time
	End   time.Time
}

// BuildWindow creates a Window from a start and a duration, normalized to UTC and microsecond precision.
// A zero duration falls back to DefaultSlotDuration.
func BuildWindow(start time.Time, duration time.Duration) (Window, error) {
	if duration == 0 {
		duration = DefaultSlotDuration
	}

	return BuildWindowFromBounds(start, start.Add(duration))
}

// BuildWindowFromBounds creates a Window from explicit bounds.
func BuildWindowFromBounds(start time.Time, end time.Time) (Window, error) {
	window := Window{Start: ToOccurredAt(start), End: ToOccurredAt(end)}

	if err := window.Validate(); err != nil {
		return Window{}, err
	}

	return window, nil
}

// Validate checks that the window is not empty.
func (w Window) Validate() error {
	if !w.End.After(w.Start) {
		return ErrInvalidWindow
	}

	return nil
}

// Overlaps reports whether both half-open windows share at least one instant: s1 < e2 && s2 < e1.
// Back-to-back windows do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Equal compares both bounds as instants.
func (w Window) Equal(other Window) bool {
	return w.Start.Equal(other.Start) && w.End.Equal(other.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
