package service

import (
	"errors"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"

	"gorm.io/gorm"
)

var ErrWardRequired = errors.New("ward officers must be assigned to a ward")

// UserService covers administrator user management.
type UserService struct {
	repo     *repository.UserRepository
	wardRepo *repository.WardRepository
}

func NewUserService(repo *repository.UserRepository, wardRepo *repository.WardRepository) *UserService {
	return &UserService{repo: repo, wardRepo: wardRepo}
}

type CreateUserInput struct {
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	WardID      *uint  `json:"ward_id"`
	Department  string `json:"department"`
}

type UpdateUserInput struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	Role        *string `json:"role"`
	WardID      *uint   `json:"ward_id"`
	ClearWard   bool    `json:"clear_ward"`
	Department  *string `json:"department"`
	IsActive    *bool   `json:"is_active"`
}

func (s *UserService) List(f repository.UserFilter, page, limit int) ([]models.User, int64, error) {
	return s.repo.List(f, page, limit)
}

func (s *UserService) Get(id uint) (*models.User, error) {
	u, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *UserService) checkWard(role string, wardID *uint) error {
	if role == domain.RoleWardOfficer && wardID == nil {
		return ErrWardRequired
	}
	if wardID == nil {
		return nil
	}
	if _, err := s.wardRepo.GetByID(*wardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("ward %d does not exist", *wardID)
		}
		return err
	}
	return nil
}

func (s *UserService) Create(in CreateUserInput) (*models.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if !domain.IsValidRole(role) {
		return nil, invalid("unknown role %q", in.Role)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, invalid("full name is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if err := s.checkWard(role, in.WardID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByEmail(email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		Role:         role,
		WardID:       in.WardID,
		Department:   in.Department,
		Language:     "en",
		IsActive:     true,
	}
	if err := s.repo.Create(u); err != nil {
		return nil, err
	}
	return s.Get(u.ID)
}

func (s *UserService) Update(id uint, in UpdateUserInput) (*models.User, error) {
	u, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	role := u.Role
	if in.Role != nil {
		role = strings.ToUpper(*in.Role)
		if !domain.IsValidRole(role) {
			return nil, invalid("unknown role %q", *in.Role)
		}
		updates["role"] = role
	}
	wardID := u.WardID
	if in.ClearWard {
		wardID = nil
		updates["ward_id"] = nil
	} else if in.WardID != nil {
		wardID = in.WardID
		updates["ward_id"] = *in.WardID
	}
	if err := s.checkWard(role, wardID); err != nil {
		return nil, err
	}
	if in.FullName != nil {
		if strings.TrimSpace(*in.FullName) == "" {
			return nil, invalid("full name cannot be empty")
		}
		updates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.PhoneNumber != nil {
		updates["phone_number"] = *in.PhoneNumber
	}
	if in.Department != nil {
		updates["department"] = *in.Department
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateFields(id, updates); err != nil {
			return nil, err
		}
	}
	return s.Get(id)
}

// Deactivate disables sign-in; an administrator cannot deactivate themself.
func (s *UserService) Deactivate(actorID, id uint) error {
	if actorID == id {
		return invalid("you cannot deactivate your own account")
	}
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.repo.UpdateFields(id, map[string]interface{}{"is_active": false})
}

// MaintenanceStaff lists active maintenance team members, limited to the
// officer's ward for ward officers.
func (s *UserService) MaintenanceStaff(role string, wardID *uint) ([]models.User, error) {
	switch role {
	case domain.RoleAdministrator:
		return s.repo.ListActiveByRole(domain.RoleMaintenanceTeam, wardID)
	case domain.RoleWardOfficer:
		if wardID == nil {
			return nil, ErrWardRequired
		}
		return s.repo.ListActiveByRole(domain.RoleMaintenanceTeam, wardID)
	}
	return nil, ErrForbidden
}
