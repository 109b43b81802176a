// Package slot implements preferred-slot tokens and weekly availability
// arithmetic. Times are minutes from local midnight; weekdays follow
// time.Weekday (Sunday = 0).
package slot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EndUnset marks a token that carried no end time. Callers derive the end
// from the lesson-length snapshot before using the slot.
const EndUnset = -1

// Slot is a parsed preferred-slot token: a weekly recurring time window.
type Slot struct {
	Weekday  int
	StartMin int
	EndMin   int
}

var ErrInvalidToken = errors.New("invalid slot token")

var weekdayIndex = map[string]int{
	"sun": 0, "sunday": 0,
	"mon": 1, "monday": 1,
	"tue": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
}

var weekdayNames = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// WeekdayIndex resolves a weekday name ("mon" or "monday", any case).
func WeekdayIndex(name string) (int, bool) {
	idx, ok := weekdayIndex[strings.ToLower(strings.TrimSpace(name))]
	return idx, ok
}

// ParseToken parses a canonical token "<weekday> HH:MM-HH:MM". The end part
// may be absent ("mon 09:00"), in which case EndMin is EndUnset.
func ParseToken(tok string) (Slot, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(tok)))
	if len(fields) != 2 {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidToken, tok)
	}
	wd, ok := weekdayIndex[fields[0]]
	if !ok {
		return Slot{}, fmt.Errorf("%w: unknown weekday %q", ErrInvalidToken, fields[0])
	}
	startStr, endStr, hasEnd := strings.Cut(fields[1], "-")
	start, err := ParseClock(startStr)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidToken, tok)
	}
	end := EndUnset
	if hasEnd {
		end, err = ParseClock(endStr)
		if err != nil {
			return Slot{}, fmt.Errorf("%w: %q", ErrInvalidToken, tok)
		}
		if end <= start {
			return Slot{}, fmt.Errorf("%w: end not after start in %q", ErrInvalidToken, tok)
		}
	}
	return Slot{Weekday: wd, StartMin: start, EndMin: end}, nil
}

// ParseClock parses "HH:MM" into minutes from midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// Token renders the slot in canonical form.
func (s Slot) Token() string {
	if s.EndMin == EndUnset {
		return fmt.Sprintf("%s %s", weekdayNames[s.Weekday], FormatClock(s.StartMin))
	}
	return fmt.Sprintf("%s %s-%s", weekdayNames[s.Weekday], FormatClock(s.StartMin), FormatClock(s.EndMin))
}
