package repository

import (
	"tutorly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) GetByTeacher(teacherID uint) (*models.TeacherAvailability, error) {
	var a models.TeacherAvailability
	if err := r.db.Where("teacher_id = ?", teacherID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert replaces a teacher's weekly grid in place.
func (r *AvailabilityRepository) Upsert(a *models.TeacherAvailability) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "teacher_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"lesson_length_min", "week", "updated_at"}),
	}).Create(a).Error
}
