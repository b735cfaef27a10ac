package repository

import (
	"strings"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.Preload("Ward").First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var u models.User
	err := r.db.Where("google_id = ?", googleID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Omit("Ward").Save(u).Error
}

// UpdateFields updates specific columns on a user.
func (r *UserRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *UserRepository) TouchLogin(id uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("last_login_at", time.Now().UTC()).Error
}

type UserFilter struct {
	Role   string
	WardID *uint
	Active *bool
	Search string
}

// List returns users matching the filter with pagination.
func (r *UserRepository) List(f UserFilter, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.WardID != nil {
		q = q.Where("ward_id = ?", *f.WardID)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("full_name LIKE ? OR email LIKE ? OR phone_number LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Preload("Ward").Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}

// ListActiveByRole returns active users with the role, optionally limited to a ward.
func (r *UserRepository) ListActiveByRole(role string, wardID *uint) ([]models.User, error) {
	q := r.db.Where("role = ? AND is_active = ?", role, true)
	if wardID != nil {
		q = q.Where("ward_id = ?", *wardID)
	}
	var users []models.User
	err := q.Order("full_name ASC").Find(&users).Error
	return users, err
}

// FirstWardOfficer returns the longest-serving active officer of a ward.
func (r *UserRepository) FirstWardOfficer(wardID uint, role string) (*models.User, error) {
	var u models.User
	err := r.db.Where("role = ? AND ward_id = ? AND is_active = ?", role, wardID, true).Order("id ASC").First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CountByRole returns the number of accounts per role.
func (r *UserRepository) CountByRole() (map[string]int64, error) {
	var rows []struct {
		Role  string
		Count int64
	}
	err := r.db.Model(&models.User{}).Select("role, COUNT(*) as count").Group("role").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}
