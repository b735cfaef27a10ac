package repository

import (
	"errors"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"

	"gorm.io/gorm"
)

type ComplaintTypeRepository struct {
	db *gorm.DB
}

func NewComplaintTypeRepository(db *gorm.DB) *ComplaintTypeRepository {
	return &ComplaintTypeRepository{db: db}
}

// Create inserts the type, reviving a soft-deleted type of the same name.
func (r *ComplaintTypeRepository) Create(ct *models.ComplaintType) error {
	var old models.ComplaintType
	err := r.db.Unscoped().Where("name = ? AND deleted_at IS NOT NULL", ct.Name).First(&old).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(ct).Error
	}
	if err != nil {
		return err
	}
	ct.ID, ct.CreatedAt = old.ID, old.CreatedAt
	return r.db.Unscoped().Save(ct).Error
}

func (r *ComplaintTypeRepository) GetByID(id uint) (*models.ComplaintType, error) {
	var ct models.ComplaintType
	if err := r.db.First(&ct, id).Error; err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *ComplaintTypeRepository) GetByName(name string) (*models.ComplaintType, error) {
	var ct models.ComplaintType
	if err := r.db.Where("name = ?", name).First(&ct).Error; err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *ComplaintTypeRepository) List(activeOnly bool) ([]models.ComplaintType, error) {
	q := r.db.Model(&models.ComplaintType{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []models.ComplaintType
	err := q.Order("name ASC").Find(&list).Error
	return list, err
}

func (r *ComplaintTypeRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.ComplaintType{}).Where("id = ?", id).Updates(updates).Error
}

func (r *ComplaintTypeRepository) Delete(id uint) error {
	return r.db.Delete(&models.ComplaintType{}, id).Error
}

func (r *ComplaintTypeRepository) CountComplaints(id uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Complaint{}).Where("complaint_type_id = ?", id).Count(&n).Error
	return n, err
}
