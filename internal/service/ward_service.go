package service

import (
	"errors"
	"math"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/geo"

	"gorm.io/gorm"
)

// DefaultDetectionRadiusKm bounds the nearest-centre fallback of DetectArea.
const DefaultDetectionRadiusKm = 5.0

var ErrWardInUse = errors.New("ward has complaints and cannot be deleted")

type WardService struct {
	repo     *repository.WardRepository
	settings *SettingsService
}

func NewWardService(repo *repository.WardRepository, settings *SettingsService) *WardService {
	return &WardService{repo: repo, settings: settings}
}

type WardInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (s *WardService) List(activeOnly, withSubZones bool) ([]models.Ward, error) {
	return s.repo.List(activeOnly, withSubZones)
}

func (s *WardService) Get(id uint) (*models.Ward, error) {
	w, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return w, err
}

func (s *WardService) Create(name, description string) (*models.Ward, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("ward name is required")
	}
	if _, err := s.repo.GetByName(name); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w := &models.Ward{Name: name, Description: description, IsActive: true}
	if err := s.repo.Create(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WardService) Update(id uint, in WardInput) (*models.Ward, error) {
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("ward name cannot be empty")
		}
		if name != w.Name {
			if other, err := s.repo.GetByName(name); err == nil && other.ID != id {
				return nil, ErrConflict
			}
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
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

// Delete removes a ward that no complaint references.
func (s *WardService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	n, err := s.repo.CountComplaints(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrWardInUse
	}
	return s.repo.Delete(id)
}

func validateBoundary(poly geo.Polygon) error {
	if err := poly.Validate(); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// SetBoundaries replaces the ward polygon and recomputes its centre and
// bounding box. Only administrators may call it.
func (s *WardService) SetBoundaries(role string, id uint, poly geo.Polygon) (*models.Ward, error) {
	if role != domain.RoleAdministrator {
		return nil, forbidden("only administrators can change ward boundaries")
	}
	if err := validateBoundary(poly); err != nil {
		return nil, err
	}
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	w.SetBoundary(poly)
	err = s.repo.UpdateFields(id, map[string]interface{}{
		"boundaries": w.Boundaries,
		"center_lat": w.CenterLat,
		"center_lng": w.CenterLng,
		"min_lat":    w.MinLat,
		"min_lng":    w.MinLng,
		"max_lat":    w.MaxLat,
		"max_lng":    w.MaxLng,
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

type SubZoneInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (s *WardService) CreateSubZone(wardID uint, name, description string) (*models.SubZone, error) {
	if _, err := s.Get(wardID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("sub-zone name is required")
	}
	if _, err := s.repo.GetSubZoneByName(wardID, name); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	sz := &models.SubZone{WardID: wardID, Name: name, Description: description, IsActive: true}
	if err := s.repo.CreateSubZone(sz); err != nil {
		return nil, err
	}
	return sz, nil
}

func (s *WardService) getSubZone(wardID, id uint) (*models.SubZone, error) {
	sz, err := s.repo.GetSubZone(id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && sz.WardID != wardID) {
		return nil, ErrNotFound
	}
	return sz, err
}

func (s *WardService) UpdateSubZone(wardID, id uint, in SubZoneInput) (*models.SubZone, error) {
	sz, err := s.getSubZone(wardID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("sub-zone name cannot be empty")
		}
		if other, err := s.repo.GetSubZoneByName(wardID, name); err == nil && other.ID != id {
			return nil, ErrConflict
		}
		sz.Name = name
	}
	if in.Description != nil {
		sz.Description = *in.Description
	}
	if in.IsActive != nil {
		sz.IsActive = *in.IsActive
	}
	if err := s.repo.UpdateSubZone(sz); err != nil {
		return nil, err
	}
	return sz, nil
}

func (s *WardService) DeleteSubZone(wardID, id uint) error {
	if _, err := s.getSubZone(wardID, id); err != nil {
		return err
	}
	return s.repo.DeleteSubZone(id)
}

func (s *WardService) SetSubZoneBoundaries(role string, wardID, id uint, poly geo.Polygon) (*models.SubZone, error) {
	if role != domain.RoleAdministrator {
		return nil, forbidden("only administrators can change sub-zone boundaries")
	}
	if err := validateBoundary(poly); err != nil {
		return nil, err
	}
	sz, err := s.getSubZone(wardID, id)
	if err != nil {
		return nil, err
	}
	sz.SetBoundary(poly)
	if err := s.repo.UpdateSubZone(sz); err != nil {
		return nil, err
	}
	return sz, nil
}

// AreaMatch is the result of locating a point among wards.
type AreaMatch struct {
	Ward       *models.Ward    `json:"ward"`
	SubZone    *models.SubZone `json:"sub_zone,omitempty"`
	Exact      bool            `json:"exact"`
	DistanceKm float64         `json:"distance_km"`
}

// DetectArea finds the active ward whose boundary contains p, and the
// sub-zone inside it when one matches. Without an exact match the nearest
// ward centre within the configured radius is returned with Exact false.
func (s *WardService) DetectArea(p geo.Point) (*AreaMatch, error) {
	if !p.Valid() {
		return nil, invalid("latitude must be within ±90 and longitude within ±180")
	}
	wards, err := s.repo.List(true, true)
	if err != nil {
		return nil, err
	}
	for i := range wards {
		w := &wards[i]
		poly, err := w.Polygon()
		if err != nil || poly == nil {
			continue
		}
		if !poly.BoundingBox().Contains(p) || !poly.Contains(p) {
			continue
		}
		m := &AreaMatch{Ward: w, Exact: true}
		for j := range w.SubZones {
			sz := &w.SubZones[j]
			zp, err := sz.Polygon()
			if err == nil && zp != nil && zp.Contains(p) {
				m.SubZone = sz
				break
			}
		}
		if c, ok := w.Center(); ok {
			m.DistanceKm = geo.Distance(c, p)
		}
		return m, nil
	}

	maxKm := DefaultDetectionRadiusKm
	if s.settings != nil {
		maxKm = s.settings.Float(domain.ConfigWardDetectionMaxKm, maxKm)
	}
	var best *models.Ward
	bestKm := math.Inf(1)
	for i := range wards {
		c, ok := wards[i].Center()
		if !ok {
			continue
		}
		if d := geo.Distance(c, p); d < bestKm {
			best, bestKm = &wards[i], d
		}
	}
	if best == nil || bestKm > maxKm {
		return nil, ErrNotFound
	}
	return &AreaMatch{Ward: best, Exact: false, DistanceKm: bestKm}, nil
}
