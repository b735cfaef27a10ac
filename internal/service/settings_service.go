package service

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"

	"gorm.io/gorm"
)

// SettingsService exposes system config rows with typed accessors. Missing
// or inactive keys yield the caller's default.
type SettingsService struct {
	repo *repository.SettingRepository
}

func NewSettingsService(repo *repository.SettingRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) raw(key string) (string, bool) {
	row, err := s.repo.Get(key)
	if err != nil || !row.IsActive {
		return "", false
	}
	return row.Value, true
}

func (s *SettingsService) String(key, def string) string {
	if v, ok := s.raw(key); ok && v != "" {
		return v
	}
	return def
}

func (s *SettingsService) Int(key string, def int) int {
	if v, ok := s.raw(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func (s *SettingsService) Float(key string, def float64) float64 {
	if v, ok := s.raw(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func (s *SettingsService) Bool(key string, def bool) bool {
	if v, ok := s.raw(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func (s *SettingsService) List() ([]models.SystemConfig, error) {
	return s.repo.GetAll()
}

func (s *SettingsService) Get(key string) (*models.SystemConfig, error) {
	row, err := s.repo.Get(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return row, err
}

// Public returns the whitelisted settings as a key/value map.
func (s *SettingsService) Public() (map[string]string, error) {
	rows, err := s.repo.GetMany(domain.PublicConfigKeys)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

type SettingInput struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// Upsert validates the value against its declared type and stores it.
func (s *SettingsService) Upsert(in SettingInput) (*models.SystemConfig, error) {
	key := strings.ToUpper(strings.TrimSpace(in.Key))
	if key == "" {
		return nil, invalid("key is required")
	}
	typ := in.Type
	if typ == "" {
		typ = domain.ConfigTypeString
		if existing, err := s.repo.Get(key); err == nil {
			typ = existing.Type
		}
	}
	if err := validateSettingValue(typ, in.Value); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	row := &models.SystemConfig{Key: key, Value: in.Value, Type: typ, Description: in.Description, IsActive: active}
	if err := s.repo.Set(row); err != nil {
		return nil, err
	}
	return s.repo.Get(key)
}

func (s *SettingsService) Delete(key string) error {
	ok, err := s.repo.Delete(strings.ToUpper(strings.TrimSpace(key)))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func validateSettingValue(typ, value string) error {
	switch typ {
	case domain.ConfigTypeString:
		return nil
	case domain.ConfigTypeNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return invalid("value %q is not a number", value)
		}
	case domain.ConfigTypeBoolean:
		if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
			return invalid("value %q is not a boolean", value)
		}
	case domain.ConfigTypeJSON:
		if !json.Valid([]byte(value)) {
			return invalid("value is not valid JSON")
		}
	default:
		return invalid("unknown type %q", typ)
	}
	return nil
}
