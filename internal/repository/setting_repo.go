package repository

import (
	"strings"

	"tutorly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(key string) (string, error) {
	var s models.SystemSetting
	if err := r.db.Where("`key` = ?", key).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *SettingRepository) Set(key, value string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value}).Error
}

// GetAllByPrefix returns matching settings keyed by the remainder after
// the prefix, e.g. prefix "payment.vnpay." maps key
// "payment.vnpay.tmn_code" to "tmn_code".
func (r *SettingRepository) GetAllByPrefix(prefix string) (map[string]string, error) {
	var list []models.SystemSetting
	if err := r.db.Where("`key` LIKE ?", prefix+"%").Find(&list).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(list))
	for _, s := range list {
		out[strings.TrimPrefix(s.Key, prefix)] = s.Value
	}
	return out, nil
}
