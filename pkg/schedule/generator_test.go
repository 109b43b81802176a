package schedule

import (
	"testing"
	"time"

	"tutorly/pkg/slot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, tok string) slot.Slot {
	t.Helper()
	s, err := slot.ParseToken(tok)
	require.NoError(t, err)
	return s
}

// 2026-01-05 is a Monday.
func monday(hour, min int) time.Time {
	return time.Date(2026, 1, 5, hour, min, 0, 0, time.UTC)
}

func date(day int) time.Time {
	return time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestGenerateAlternatesSlots(t *testing.T) {
	slots := []slot.Slot{
		mustSlot(t, "mon 09:00-09:45"),
		mustSlot(t, "wed 09:00-09:45"),
	}
	// Paid Monday 08:00: the same-day Monday slot still qualifies.
	out, err := Generate(slots, 4, monday(8, 0), time.UTC, 0, 0)
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.Equal(t, date(5), out[0].Date)
	assert.Equal(t, date(7), out[1].Date)
	assert.Equal(t, date(12), out[2].Date)
	assert.Equal(t, date(14), out[3].Date)
	for i, occ := range out {
		assert.Equal(t, i+1, occ.LessonNo)
		assert.Equal(t, 540, occ.StartMin)
		assert.Equal(t, 585, occ.EndMin)
	}
}

func TestGenerateSkipsPassedStart(t *testing.T) {
	slots := []slot.Slot{mustSlot(t, "mon 09:00-09:45")}
	// Paid Monday 10:00, after the slot start: first occurrence is next week.
	out, err := Generate(slots, 2, monday(10, 0), time.UTC, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, date(12), out[0].Date)
	assert.Equal(t, date(19), out[1].Date)
}

func TestGenerateBufferPushesSameDaySlot(t *testing.T) {
	slots := []slot.Slot{mustSlot(t, "mon 09:00-09:45")}
	// Paid 08:50 with a 30 minute buffer: earliest start is 09:20.
	out, err := Generate(slots, 1, monday(8, 50), time.UTC, 0, 30)
	require.NoError(t, err)
	assert.Equal(t, date(12), out[0].Date)
}

func TestGenerateOffsetDays(t *testing.T) {
	slots := []slot.Slot{mustSlot(t, "mon 09:00-09:45")}
	out, err := Generate(slots, 1, monday(8, 0), time.UTC, 2, 0)
	require.NoError(t, err)
	// Earliest moment is Wednesday, so Monday lands the following week.
	assert.Equal(t, date(12), out[0].Date)
}

func TestGenerateDuplicateSlotsStayStrictlyIncreasing(t *testing.T) {
	slots := []slot.Slot{
		mustSlot(t, "mon 09:00-09:45"),
		mustSlot(t, "mon 09:00-09:45"),
	}
	out, err := Generate(slots, 3, monday(8, 0), time.UTC, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, date(5), out[0].Date)
	assert.Equal(t, date(12), out[1].Date)
	assert.Equal(t, date(19), out[2].Date)
}

func TestGenerateOrderedAndDense(t *testing.T) {
	slots := []slot.Slot{
		mustSlot(t, "fri 18:00-19:00"),
		mustSlot(t, "tue 07:00-08:00"),
		mustSlot(t, "tue 19:00-20:00"),
	}
	out, err := Generate(slots, 9, monday(12, 0), time.UTC, 0, 0)
	require.NoError(t, err)
	require.Len(t, out, 9)
	for i, occ := range out {
		assert.Equal(t, i+1, occ.LessonNo)
		if i == 0 {
			continue
		}
		prev := out[i-1]
		increasing := occ.Date.After(prev.Date) ||
			(occ.Date.Equal(prev.Date) && occ.StartMin > prev.StartMin)
		assert.True(t, increasing, "occurrence %d not after %d", i+1, i)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	slots := []slot.Slot{
		mustSlot(t, "mon 09:00-10:00"),
		mustSlot(t, "thu 15:00-16:00"),
	}
	a, err := Generate(slots, 12, monday(9, 30), time.UTC, 1, 15)
	require.NoError(t, err)
	b, err := Generate(slots, 12, monday(9, 30), time.UTC, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateInputValidation(t *testing.T) {
	_, err := Generate(nil, 4, monday(8, 0), time.UTC, 0, 0)
	assert.ErrorIs(t, err, ErrNoSlots)

	_, err = Generate([]slot.Slot{mustSlot(t, "mon 09:00-09:45")}, 0, monday(8, 0), time.UTC, 0, 0)
	assert.ErrorIs(t, err, ErrNoLessons)

	// Unresolved end time is a caller bug, not a schedulable slot.
	_, err = Generate([]slot.Slot{mustSlot(t, "mon 09:00")}, 1, monday(8, 0), time.UTC, 0, 0)
	assert.Error(t, err)
}
