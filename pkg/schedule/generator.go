// Package schedule expands weekly preferred slots into dated lesson
// occurrences. The expansion is pure and deterministic: identical input
// always yields the same ordered list.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"tutorly/pkg/slot"
)

var (
	ErrNoSlots   = errors.New("no preferred slots to schedule")
	ErrNoLessons = errors.New("lesson count must be positive")
)

// Occurrence is one dated instance of a recurring lesson slot.
type Occurrence struct {
	LessonNo int
	Date     time.Time // midnight in the student's location
	StartMin int
	EndMin   int
	Weekday  int
}

// Generate emits exactly `lessons` occurrences, none earlier than
// paidAt + offsetDays + bufferMin in the given location. Slots must carry a
// resolved end time. Occurrences are ordered by (date, start) and numbered
// densely from 1; ties from duplicate slots are pushed to the following
// week so the order stays strictly increasing.
func Generate(slots []slot.Slot, lessons int, paidAt time.Time, loc *time.Location, offsetDays, bufferMin int) ([]Occurrence, error) {
	if lessons <= 0 {
		return nil, ErrNoLessons
	}
	if len(slots) == 0 {
		return nil, ErrNoSlots
	}
	for _, s := range slots {
		if s.EndMin == slot.EndUnset || s.EndMin <= s.StartMin {
			return nil, fmt.Errorf("slot %s has no resolved end time", s.Token())
		}
		if s.Weekday < 0 || s.Weekday > 6 {
			return nil, fmt.Errorf("slot weekday %d out of range", s.Weekday)
		}
	}

	earliest := paidAt.In(loc).Add(time.Duration(bufferMin) * time.Minute).AddDate(0, 0, offsetDays)
	earliestDate := time.Date(earliest.Year(), earliest.Month(), earliest.Day(), 0, 0, 0, 0, loc)
	earliestMin := earliest.Hour()*60 + earliest.Minute()

	// Per-slot cursor: the first occurrence on or after the earliest moment.
	cursors := make([]time.Time, len(slots))
	for i, s := range slots {
		delta := (s.Weekday - int(earliestDate.Weekday()) + 7) % 7
		if delta == 0 && s.StartMin < earliestMin {
			delta = 7
		}
		cursors[i] = earliestDate.AddDate(0, 0, delta)
	}

	out := make([]Occurrence, 0, lessons)
	var last *Occurrence
	for len(out) < lessons {
		best := 0
		for i := 1; i < len(slots); i++ {
			if cursorLess(cursors[i], slots[i].StartMin, cursors[best], slots[best].StartMin) {
				best = i
			}
		}
		if last != nil && cursors[best].Equal(last.Date) && slots[best].StartMin == last.StartMin {
			// Duplicate token landing on an already emitted (date, start).
			cursors[best] = cursors[best].AddDate(0, 0, 7)
			continue
		}
		occ := Occurrence{
			LessonNo: len(out) + 1,
			Date:     cursors[best],
			StartMin: slots[best].StartMin,
			EndMin:   slots[best].EndMin,
			Weekday:  slots[best].Weekday,
		}
		out = append(out, occ)
		last = &out[len(out)-1]
		cursors[best] = cursors[best].AddDate(0, 0, 7)
	}
	return out, nil
}

func cursorLess(d1 time.Time, s1 int, d2 time.Time, s2 int) bool {
	if !d1.Equal(d2) {
		return d1.Before(d2)
	}
	return s1 < s2
}
