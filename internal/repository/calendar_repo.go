package repository

import (
	"errors"

	"tutorly/internal/models"

	"gorm.io/gorm"
)

type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// Replace overwrites the calendar entry for entry.EnrollmentID wholesale:
// any previous entry and its occurrences go away in the same transaction
// that writes the new ones. Regeneration is therefore idempotent and never
// appends.
func (r *CalendarRepository) Replace(entry *models.CalendarEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var prev models.CalendarEntry
		err := tx.Where("enrollment_id = ?", entry.EnrollmentID).First(&prev).Error
		switch {
		case err == nil:
			if err := tx.Where("calendar_entry_id = ?", prev.ID).Delete(&models.LessonOccurrence{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&prev).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(entry).Error
	})
}

func (r *CalendarRepository) GetByEnrollment(enrollmentID uint) (*models.CalendarEntry, error) {
	var entry models.CalendarEntry
	err := r.db.Preload("Occurrences", func(db *gorm.DB) *gorm.DB {
		return db.Order("lesson_no ASC")
	}).Where("enrollment_id = ?", enrollmentID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *CalendarRepository) ListByStudent(studentID uint) ([]models.CalendarEntry, error) {
	var entries []models.CalendarEntry
	err := r.db.Preload("Occurrences", func(db *gorm.DB) *gorm.DB {
		return db.Order("lesson_no ASC")
	}).Where("student_id = ?", studentID).Order("start_date ASC").Find(&entries).Error
	return entries, err
}
