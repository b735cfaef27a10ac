package repository

import (
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(key string) (*models.SystemConfig, error) {
	var s models.SystemConfig
	if err := r.db.Where(models.SystemConfig{Key: key}).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Set creates or replaces the value of a setting.
func (r *SettingRepository) Set(s *models.SystemConfig) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "description", "is_active", "updated_at"}),
	}).Create(s).Error
}

func (r *SettingRepository) GetAll() ([]models.SystemConfig, error) {
	var list []models.SystemConfig
	err := r.db.Order("setting_key ASC").Find(&list).Error
	return list, err
}

// GetMany returns the active settings among keys.
func (r *SettingRepository) GetMany(keys []string) ([]models.SystemConfig, error) {
	var list []models.SystemConfig
	err := r.db.Where("setting_key IN ? AND is_active = ?", keys, true).Order("setting_key ASC").Find(&list).Error
	return list, err
}

func (r *SettingRepository) Delete(key string) (bool, error) {
	res := r.db.Where(models.SystemConfig{Key: key}).Delete(&models.SystemConfig{})
	return res.RowsAffected > 0, res.Error
}
