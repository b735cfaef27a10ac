package service

import (
	"errors"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"

	"gorm.io/gorm"
)

var ErrTypeInUse = errors.New("complaint type is in use and cannot be deleted")

type ComplaintTypeService struct {
	repo *repository.ComplaintTypeRepository
}

func NewComplaintTypeService(repo *repository.ComplaintTypeRepository) *ComplaintTypeService {
	return &ComplaintTypeService{repo: repo}
}

type ComplaintTypeInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	SLAHours    *int    `json:"sla_hours"`
	IsActive    *bool   `json:"is_active"`
}

func (s *ComplaintTypeService) List(activeOnly bool) ([]models.ComplaintType, error) {
	return s.repo.List(activeOnly)
}

func (s *ComplaintTypeService) Get(id uint) (*models.ComplaintType, error) {
	ct, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return ct, err
}

func (s *ComplaintTypeService) Create(in ComplaintTypeInput) (*models.ComplaintType, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name is required")
	}
	ct := &models.ComplaintType{
		Name:     strings.TrimSpace(*in.Name),
		Priority: domain.PriorityMedium,
		SLAHours: 48,
		IsActive: true,
	}
	if err := applyTypeInput(ct, in); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByName(ct.Name); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := s.repo.Create(ct); err != nil {
		return nil, err
	}
	return ct, nil
}

func (s *ComplaintTypeService) Update(id uint, in ComplaintTypeInput) (*models.ComplaintType, error) {
	ct, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	oldName := ct.Name
	if err := applyTypeInput(ct, in); err != nil {
		return nil, err
	}
	if ct.Name != oldName {
		if other, err := s.repo.GetByName(ct.Name); err == nil && other.ID != id {
			return nil, ErrConflict
		}
	}
	err = s.repo.UpdateFields(id, map[string]interface{}{
		"name":        ct.Name,
		"description": ct.Description,
		"priority":    ct.Priority,
		"sla_hours":   ct.SLAHours,
		"is_active":   ct.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes an unused type; types with complaints must be deactivated instead.
func (s *ComplaintTypeService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	n, err := s.repo.CountComplaints(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrTypeInUse
	}
	return s.repo.Delete(id)
}

func applyTypeInput(ct *models.ComplaintType, in ComplaintTypeInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return invalid("name cannot be empty")
		}
		ct.Name = name
	}
	if in.Description != nil {
		ct.Description = *in.Description
	}
	if in.Priority != nil {
		p := strings.ToUpper(*in.Priority)
		if !domain.IsValidPriority(p) {
			return invalid("priority must be one of LOW, MEDIUM, HIGH, CRITICAL")
		}
		ct.Priority = p
	}
	if in.SLAHours != nil {
		if *in.SLAHours <= 0 {
			return invalid("sla_hours must be greater than zero")
		}
		ct.SLAHours = *in.SLAHours
	}
	if in.IsActive != nil {
		ct.IsActive = *in.IsActive
	}
	return nil
}
