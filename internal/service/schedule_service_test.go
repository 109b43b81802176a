package service

import (
	"context"
	"testing"
	"time"

	"tutorly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCalendars struct {
	entry *models.CalendarEntry
	err   error
}

func (f *fakeCalendars) Replace(entry *models.CalendarEntry) error {
	f.entry = entry
	return f.err
}

func scheduleTestOrder() *models.Order {
	o := &models.Order{
		ID:              42,
		StudentID:       9,
		Lessons:         4,
		LessonLengthMin: 45,
		Timezone:        "UTC",
	}
	o.SetSlotTokens([]string{"mon 09:00-09:45", "wed 09:00"})
	return o
}

func TestGenerateForOrderBuildsCalendar(t *testing.T) {
	calendars := &fakeCalendars{}
	svc := NewScheduleService(calendars, 0, 0, "UTC")

	// 2026-01-05 is a Monday; paid before the Monday slot starts.
	paidAt := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	require.NoError(t, svc.GenerateForOrder(context.Background(), scheduleTestOrder(), paidAt))

	entry := calendars.entry
	require.NotNil(t, entry)
	assert.Equal(t, uint(42), entry.EnrollmentID)
	assert.Equal(t, uint(9), entry.StudentID)
	assert.Equal(t, "2026-01-05", entry.StartDate)
	assert.Equal(t, "2026-01-14", entry.EndDate)
	require.Len(t, entry.Occurrences, 4)

	// The end-less "wed 09:00" token inherits the lesson length.
	assert.Equal(t, "2026-01-07", entry.Occurrences[1].Date)
	assert.Equal(t, 540, entry.Occurrences[1].StartMin)
	assert.Equal(t, 585, entry.Occurrences[1].EndMin)
	for i, occ := range entry.Occurrences {
		assert.Equal(t, i+1, occ.LessonNo)
	}
}

func TestGenerateForOrderNoSlots(t *testing.T) {
	svc := NewScheduleService(&fakeCalendars{}, 0, 0, "UTC")
	order := scheduleTestOrder()
	order.PreferredSlots = ""
	err := svc.GenerateForOrder(context.Background(), order, time.Now())
	assert.ErrorIs(t, err, ErrNoPreferredSlots)
}

func TestGenerateForOrderBadTimezone(t *testing.T) {
	svc := NewScheduleService(&fakeCalendars{}, 0, 0, "UTC")
	order := scheduleTestOrder()
	order.Timezone = "Not/AZone"
	err := svc.GenerateForOrder(context.Background(), order, time.Now())
	assert.Error(t, err)
}

func TestGenerateForOrderPersistFailure(t *testing.T) {
	calendars := &fakeCalendars{err: assert.AnError}
	svc := NewScheduleService(calendars, 0, 0, "UTC")
	err := svc.GenerateForOrder(context.Background(), scheduleTestOrder(), time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, assert.AnError)
}
