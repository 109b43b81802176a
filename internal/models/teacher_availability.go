package models

import (
	"encoding/json"
	"time"

	"tutorly/pkg/slot"
)

// TeacherAvailability is a teacher's sanitized weekly free/busy grid: one
// row per teacher, the week stored as a JSON map of weekday index to
// minute intervals. Always written post-sanitization.
type TeacherAvailability struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TeacherID       uint      `gorm:"not null;uniqueIndex" json:"teacher_id"`
	LessonLengthMin int       `gorm:"not null" json:"lesson_length_min"`
	Week            string    `gorm:"type:text" json:"week"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (TeacherAvailability) TableName() string { return "teacher_availabilities" }

func (a *TeacherAvailability) WeekIntervals() (map[int][]slot.Interval, error) {
	week := map[int][]slot.Interval{}
	if a.Week == "" {
		return week, nil
	}
	if err := json.Unmarshal([]byte(a.Week), &week); err != nil {
		return nil, err
	}
	return week, nil
}

func (a *TeacherAvailability) SetWeekIntervals(week map[int][]slot.Interval) {
	b, _ := json.Marshal(week)
	a.Week = string(b)
}
