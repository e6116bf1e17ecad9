package projection_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/projection"
)

func Test_FormatNumber(t *testing.T) {
	testCases := []struct {
		sequence uint64
		expected string
	}{
		{sequence: 1, expected: "HT-2025-0001"},
		{sequence: 10, expected: "HT-2025-000A"},
		{sequence: 35, expected: "HT-2025-000Z"},
		{sequence: 36, expected: "HT-2025-0010"},
		{sequence: 36 * 36 * 36 * 36, expected: "HT-2025-10000"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, projection.FormatNumber("HT", 2025, tc.sequence))
		})
	}
}

func Test_NumberAllocator_Counts_Per_Year(t *testing.T) {
	// arrange
	allocator := projection.NewNumberAllocator("")
	lateIn2025 := time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)
	earlyIn2026 := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)

	// act
	numbers := []string{
		allocator.Next(lateIn2025),
		allocator.Next(earlyIn2026),
		allocator.Next(lateIn2025),
	}

	// assert
	assert.Equal(t, []string{"HT-2025-0001", "HT-2026-0001", "HT-2025-0002"}, numbers)
}
