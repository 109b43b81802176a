package slot

import "sort"

// Interval is a [start,end) window in minutes from midnight.
type Interval struct {
	StartMin int `json:"start_min"`
	EndMin   int `json:"end_min"`
}

// GridPolicy maps a teacher's lesson length to the allowed interval
// alignment: boundaries must sit on the step grid and durations must be a
// whole multiple of the slot length.
type GridPolicy struct {
	SlotLengthMin int
	StepMin       int
}

// PolicyForLessonLength derives the grid policy for a lesson length in
// minutes. The step is gcd(length, 60) so common lengths (30, 45, 60, 90)
// align to natural clock boundaries.
func PolicyForLessonLength(lengthMin int) GridPolicy {
	return GridPolicy{SlotLengthMin: lengthMin, StepMin: gcd(lengthMin, 60)}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a <= 0 {
		return 1
	}
	return a
}

// Violation identifies an interval rejected by Sanitize.
type Violation struct {
	Weekday  int      `json:"weekday"`
	Interval Interval `json:"interval"`
	Reason   string   `json:"reason"`
}

// Sanitize validates raw per-weekday intervals against the grid policy.
// Degenerate intervals (start >= end) are skipped silently. Valid intervals
// are sorted and touching neighbours merged. Sanitizing an already
// sanitized week is a no-op.
func Sanitize(week map[int][]Interval, pol GridPolicy) (map[int][]Interval, []Violation) {
	out := make(map[int][]Interval)
	var violations []Violation
	for wd := 0; wd < 7; wd++ {
		raw, ok := week[wd]
		if !ok {
			continue
		}
		var valid []Interval
		for _, iv := range raw {
			if iv.StartMin >= iv.EndMin {
				continue
			}
			switch {
			case iv.StartMin < 0 || iv.EndMin > 24*60:
				violations = append(violations, Violation{wd, iv, "interval out of range"})
			case pol.StepMin > 0 && (iv.StartMin%pol.StepMin != 0 || iv.EndMin%pol.StepMin != 0):
				violations = append(violations, Violation{wd, iv, "boundary off grid"})
			case pol.SlotLengthMin > 0 && (iv.EndMin-iv.StartMin)%pol.SlotLengthMin != 0:
				violations = append(violations, Violation{wd, iv, "duration not a multiple of slot length"})
			default:
				valid = append(valid, iv)
			}
		}
		sort.Slice(valid, func(i, j int) bool {
			if valid[i].StartMin != valid[j].StartMin {
				return valid[i].StartMin < valid[j].StartMin
			}
			return valid[i].EndMin < valid[j].EndMin
		})
		var merged []Interval
		for _, iv := range valid {
			if n := len(merged); n > 0 {
				prev := &merged[n-1]
				if iv.StartMin < prev.EndMin {
					violations = append(violations, Violation{wd, iv, "overlaps previous interval"})
					continue
				}
				if iv.StartMin == prev.EndMin {
					prev.EndMin = iv.EndMin
					continue
				}
			}
			merged = append(merged, iv)
		}
		if len(merged) > 0 {
			out[wd] = merged
		}
	}
	return out, violations
}

// Matches reports whether any availability interval on a desired weekday
// overlaps any desired time range. An empty weekday set means every
// weekday; an empty range set means all day. Sanitized input is assumed.
func Matches(week map[int][]Interval, weekdays []int, ranges []Interval) bool {
	days := weekdays
	if len(days) == 0 {
		days = []int{0, 1, 2, 3, 4, 5, 6}
	}
	if len(ranges) == 0 {
		ranges = []Interval{{StartMin: 0, EndMin: 24 * 60}}
	}
	for _, wd := range days {
		for _, avail := range week[wd] {
			for _, want := range ranges {
				if avail.StartMin < want.EndMin && want.StartMin < avail.EndMin {
					return true
				}
			}
		}
	}
	return false
}
