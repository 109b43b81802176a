package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorly/internal/models"
	"tutorly/pkg/schedule"
	"tutorly/pkg/slot"

	"github.com/sirupsen/logrus"
)

// ErrNoPreferredSlots rejects generation for an order that requested no
// recurring slots; there is nothing to expand.
var ErrNoPreferredSlots = errors.New("order has no preferred slots")

// CalendarStore is the slice of CalendarRepository the service needs.
type CalendarStore interface {
	Replace(entry *models.CalendarEntry) error
}

// ScheduleService expands a paid order's preferred slots into the
// student's dated lesson calendar.
type ScheduleService struct {
	calendars  CalendarStore
	offsetDays int
	bufferMin  int
	defaultTZ  string
}

func NewScheduleService(calendars CalendarStore, offsetDays, bufferMin int, defaultTZ string) *ScheduleService {
	if defaultTZ == "" {
		defaultTZ = "Asia/Ho_Chi_Minh"
	}
	return &ScheduleService{
		calendars:  calendars,
		offsetDays: offsetDays,
		bufferMin:  bufferMin,
		defaultTZ:  defaultTZ,
	}
}

// GenerateForOrder replaces the student's calendar entry for this
// enrollment with exactly order.Lessons occurrences, none earlier than
// paidAt plus the configured offset and buffer, in the student's
// timezone.
func (s *ScheduleService) GenerateForOrder(_ context.Context, order *models.Order, paidAt time.Time) error {
	tokens := order.SlotTokens()
	if len(tokens) == 0 {
		return ErrNoPreferredSlots
	}
	slots := make([]slot.Slot, 0, len(tokens))
	for _, tok := range tokens {
		parsed, err := slot.ParseToken(tok)
		if err != nil {
			return fmt.Errorf("order %d: %w", order.ID, err)
		}
		if parsed.EndMin == slot.EndUnset {
			parsed.EndMin = parsed.StartMin + order.LessonLengthMin
		}
		slots = append(slots, parsed)
	}

	tz := order.Timezone
	if tz == "" {
		tz = s.defaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("order %d: timezone %q: %w", order.ID, tz, err)
	}

	occurrences, err := schedule.Generate(slots, order.Lessons, paidAt, loc, s.offsetDays, s.bufferMin)
	if err != nil {
		return fmt.Errorf("order %d: %w", order.ID, err)
	}

	entry := &models.CalendarEntry{
		EnrollmentID:    order.ID,
		StudentID:       order.StudentID,
		Timezone:        tz,
		StartDate:       occurrences[0].Date.Format("2006-01-02"),
		EndDate:         occurrences[len(occurrences)-1].Date.Format("2006-01-02"),
		Lessons:         order.Lessons,
		LessonLengthMin: order.LessonLengthMin,
	}
	for _, occ := range occurrences {
		entry.Occurrences = append(entry.Occurrences, models.LessonOccurrence{
			LessonNo: occ.LessonNo,
			Date:     occ.Date.Format("2006-01-02"),
			StartMin: occ.StartMin,
			EndMin:   occ.EndMin,
			Weekday:  occ.Weekday,
		})
	}
	if err := s.calendars.Replace(entry); err != nil {
		return fmt.Errorf("order %d: persist calendar: %w", order.ID, err)
	}
	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"lessons":  order.Lessons,
		"start":    entry.StartDate,
		"end":      entry.EndDate,
	}).Info("calendar generated")
	return nil
}
