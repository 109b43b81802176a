package models

import "time"

// CalendarEntry is a student's generated lesson calendar for one
// enrollment (order). It is replaced wholesale on every generation;
// regeneration for the same enrollment is an idempotent overwrite.
type CalendarEntry struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	EnrollmentID    uint   `gorm:"not null;uniqueIndex" json:"enrollment_id"`
	StudentID       uint   `gorm:"not null;index" json:"student_id"`
	Timezone        string `gorm:"size:64;not null" json:"timezone"`
	StartDate       string `gorm:"size:10;not null" json:"start_date"` // YYYY-MM-DD
	EndDate         string `gorm:"size:10;not null" json:"end_date"`
	Lessons         int    `gorm:"not null" json:"lessons"`
	LessonLengthMin int    `gorm:"not null" json:"lesson_length_min"`

	Occurrences []LessonOccurrence `gorm:"foreignKey:CalendarEntryID;constraint:OnDelete:CASCADE" json:"occurrences"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CalendarEntry) TableName() string { return "calendar_entries" }

// LessonOccurrence is one dated lesson. LessonNo is dense 1..N and the
// list is strictly increasing by (date, start).
type LessonOccurrence struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	CalendarEntryID uint   `gorm:"not null;index" json:"-"`
	LessonNo        int    `gorm:"not null" json:"lesson_no"`
	Date            string `gorm:"size:10;not null" json:"date"` // YYYY-MM-DD
	StartMin        int    `gorm:"not null" json:"start_min"`
	EndMin          int    `gorm:"not null" json:"end_min"`
	Weekday         int    `gorm:"not null" json:"weekday"`
}

func (LessonOccurrence) TableName() string { return "lesson_occurrences" }
