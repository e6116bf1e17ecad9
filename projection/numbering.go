package projection

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultNumberPrefix = "HT"
	sequenceWidth       = 4
)

// NumberAllocator hands out reservation numbers of the form PREFIX-YEAR-SEQUENCE, where SEQUENCE is a
// per-year counter in upper case base 36, padded to four digits (HT-2025-000A).
// Numbers depend only on the order of Created events in the stream, so a rebuild yields the same numbers.
type NumberAllocator struct {
	Prefix   string
	Counters map[int]uint64
}

// NewNumberAllocator creates an allocator without any issued numbers.
func NewNumberAllocator(prefix string) NumberAllocator {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}

	return NumberAllocator{Prefix: prefix, Counters: make(map[int]uint64)}
}

// Next issues the next number for the year of createdAt.
func (a *NumberAllocator) Next(createdAt time.Time) string {
	if a.Counters == nil {
		a.Counters = make(map[int]uint64)
	}

	year := createdAt.UTC().Year()
	a.Counters[year]++

	return FormatNumber(a.Prefix, year, a.Counters[year])
}

// FormatNumber renders a reservation number.
func FormatNumber(prefix string, year int, sequence uint64) string {
	encoded := strings.ToUpper(strconv.FormatUint(sequence, 36))
	if len(encoded) < sequenceWidth {
		encoded = strings.Repeat("0", sequenceWidth-len(encoded)) + encoded
	}

	return fmt.Sprintf("%s-%d-%s", prefix, year, encoded)
}
