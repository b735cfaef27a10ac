package repository

import (
	"errors"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"

	"gorm.io/gorm"
)

type WardRepository struct {
	db *gorm.DB
}

func NewWardRepository(db *gorm.DB) *WardRepository {
	return &WardRepository{db: db}
}

// Create inserts the ward, reviving a soft-deleted ward of the same name.
func (r *WardRepository) Create(w *models.Ward) error {
	var old models.Ward
	err := r.db.Unscoped().Where("name = ? AND deleted_at IS NOT NULL", w.Name).First(&old).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(w).Error
	}
	if err != nil {
		return err
	}
	w.ID, w.CreatedAt = old.ID, old.CreatedAt
	return r.db.Unscoped().Omit("SubZones").Save(w).Error
}

func (r *WardRepository) GetByID(id uint) (*models.Ward, error) {
	var w models.Ward
	err := r.db.Preload("SubZones", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).First(&w, id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WardRepository) GetByName(name string) (*models.Ward, error) {
	var w models.Ward
	if err := r.db.Where("name = ?", name).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// List returns wards ordered by name; activeOnly hides disabled wards and sub-zones.
func (r *WardRepository) List(activeOnly, withSubZones bool) ([]models.Ward, error) {
	q := r.db.Model(&models.Ward{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if withSubZones {
		q = q.Preload("SubZones", func(db *gorm.DB) *gorm.DB {
			if activeOnly {
				db = db.Where("is_active = ?", true)
			}
			return db.Order("name ASC")
		})
	}
	var list []models.Ward
	err := q.Order("name ASC").Find(&list).Error
	return list, err
}

func (r *WardRepository) Update(w *models.Ward) error {
	return r.db.Omit("SubZones").Save(w).Error
}

func (r *WardRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Ward{}).Where("id = ?", id).Updates(updates).Error
}

func (r *WardRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ward_id = ?", id).Delete(&models.SubZone{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Ward{}, id).Error
	})
}

// CountComplaints reports how many complaints reference the ward.
func (r *WardRepository) CountComplaints(id uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Complaint{}).Where("ward_id = ?", id).Count(&n).Error
	return n, err
}

// CreateSubZone inserts the sub-zone, reviving a soft-deleted one with the
// same name in the ward.
func (r *WardRepository) CreateSubZone(s *models.SubZone) error {
	var old models.SubZone
	err := r.db.Unscoped().
		Where("ward_id = ? AND name = ? AND deleted_at IS NOT NULL", s.WardID, s.Name).
		First(&old).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(s).Error
	}
	if err != nil {
		return err
	}
	s.ID, s.CreatedAt = old.ID, old.CreatedAt
	return r.db.Unscoped().Omit("Ward").Save(s).Error
}

func (r *WardRepository) GetSubZone(id uint) (*models.SubZone, error) {
	var s models.SubZone
	if err := r.db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *WardRepository) GetSubZoneByName(wardID uint, name string) (*models.SubZone, error) {
	var s models.SubZone
	if err := r.db.Where("ward_id = ? AND name = ?", wardID, name).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *WardRepository) UpdateSubZone(s *models.SubZone) error {
	return r.db.Omit("Ward").Save(s).Error
}

func (r *WardRepository) DeleteSubZone(id uint) error {
	return r.db.Delete(&models.SubZone{}, id).Error
}
