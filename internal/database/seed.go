package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/geo"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// ConfigDefault describes a system config row created when missing.
type ConfigDefault struct {
	Key         string `yaml:"key"`
	Value       string `yaml:"value"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// DefaultSystemConfig is seeded on every `seed` run; existing keys are left alone.
var DefaultSystemConfig = []ConfigDefault{
	{domain.ConfigAppName, "NLC-CMS", domain.ConfigTypeString, "Application name shown to citizens"},
	{domain.ConfigComplaintIDPrefix, "KSC", domain.ConfigTypeString, "Prefix for complaint codes"},
	{domain.ConfigComplaintIDStart, "1", domain.ConfigTypeNumber, "First complaint number"},
	{domain.ConfigComplaintIDLength, "4", domain.ConfigTypeNumber, "Zero-padded width of complaint numbers"},
	{domain.ConfigAutoAssign, "false", domain.ConfigTypeBoolean, "Assign new complaints to the ward officer automatically"},
	{domain.ConfigDefaultSLAHours, "48", domain.ConfigTypeNumber, "SLA hours when a complaint type has none"},
	{domain.ConfigOTPExpiryMinutes, "10", domain.ConfigTypeNumber, "Minutes an OTP stays valid"},
	{domain.ConfigMaxFileSizeMB, "10", domain.ConfigTypeNumber, "Maximum attachment size in MB"},
	{domain.ConfigWardDetectionMaxKm, "5", domain.ConfigTypeNumber, "Maximum distance for nearest-ward fallback"},
	{domain.ConfigCitizenReopenDays, "7", domain.ConfigTypeNumber, "Days a citizen may reopen a resolved complaint"},
	{domain.ConfigNotificationsEmail, "true", domain.ConfigTypeBoolean, "Email citizens on status changes"},
	{domain.ConfigExportMaxRows, "5000", domain.ConfigTypeNumber, "Maximum rows in a report export"},
	{domain.ConfigContactHelpline, "", domain.ConfigTypeString, "Public helpline number"},
	{domain.ConfigGuestSubmissionActive, "true", domain.ConfigTypeBoolean, "Allow guests to file complaints"},
}

// SeedFile is the YAML layout accepted by the seed command.
type SeedFile struct {
	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		FullName string `yaml:"full_name"`
	} `yaml:"admin"`
	Config         []ConfigDefault `yaml:"config"`
	ComplaintTypes []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Priority    string `yaml:"priority"`
		SLAHours    int    `yaml:"sla_hours"`
	} `yaml:"complaint_types"`
	Wards []struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Boundary    [][]float64 `yaml:"boundary"`
		SubZones    []struct {
			Name     string      `yaml:"name"`
			Boundary [][]float64 `yaml:"boundary"`
		} `yaml:"sub_zones"`
	} `yaml:"wards"`
}

func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// SeedAdmin creates the administrator account when no user has that email.
// It returns true when a user was created.
func SeedAdmin(db *gorm.DB, email, password, fullName string) (bool, error) {
	if email == "" || password == "" {
		return false, errors.New("admin email and password are required")
	}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	return true, db.Create(&models.User{
		Email:        strings.ToLower(email),
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         domain.RoleAdministrator,
		IsActive:     true,
	}).Error
}

// SeedConfig inserts missing config keys and returns how many were created.
func SeedConfig(db *gorm.DB, defaults []ConfigDefault) (int, error) {
	created := 0
	for _, d := range defaults {
		var existing models.SystemConfig
		err := db.Where(models.SystemConfig{Key: d.Key}).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}
		typ := d.Type
		if typ == "" {
			typ = domain.ConfigTypeString
		}
		row := models.SystemConfig{Key: d.Key, Value: d.Value, Type: typ, Description: d.Description, IsActive: true}
		if err := db.Create(&row).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// Seed applies a seed file. Existing rows (matched by name) are kept as-is.
func Seed(db *gorm.DB, f *SeedFile) error {
	return db.Transaction(func(tx *gorm.DB) error {
		defaults := make([]ConfigDefault, 0, len(DefaultSystemConfig)+len(f.Config))
		defaults = append(defaults, DefaultSystemConfig...)
		defaults = append(defaults, f.Config...)
		if _, err := SeedConfig(tx, defaults); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if f.Admin.Email != "" {
			if _, err := SeedAdmin(tx, f.Admin.Email, f.Admin.Password, f.Admin.FullName); err != nil {
				return fmt.Errorf("admin: %w", err)
			}
		}
		for _, ct := range f.ComplaintTypes {
			priority := ct.Priority
			if !domain.IsValidPriority(priority) {
				priority = domain.PriorityMedium
			}
			hours := ct.SLAHours
			if hours <= 0 {
				hours = 48
			}
			err := tx.Where(models.ComplaintType{Name: ct.Name}).
				Attrs(models.ComplaintType{Description: ct.Description, Priority: priority, SLAHours: hours, IsActive: true}).
				FirstOrCreate(&models.ComplaintType{}).Error
			if err != nil {
				return fmt.Errorf("complaint type %q: %w", ct.Name, err)
			}
		}
		for _, w := range f.Wards {
			ward := models.Ward{Name: w.Name, Description: w.Description, IsActive: true}
			if poly, err := pairsToPolygon(w.Boundary); err != nil {
				return fmt.Errorf("ward %q: %w", w.Name, err)
			} else if poly != nil {
				ward.SetBoundary(poly)
			}
			if err := tx.Where(models.Ward{Name: w.Name}).Attrs(ward).FirstOrCreate(&ward).Error; err != nil {
				return fmt.Errorf("ward %q: %w", w.Name, err)
			}
			for _, sz := range w.SubZones {
				sub := models.SubZone{WardID: ward.ID, Name: sz.Name, IsActive: true}
				if poly, err := pairsToPolygon(sz.Boundary); err != nil {
					return fmt.Errorf("sub-zone %q: %w", sz.Name, err)
				} else if poly != nil {
					sub.SetBoundary(poly)
				}
				if err := tx.Where(models.SubZone{WardID: ward.ID, Name: sz.Name}).Attrs(sub).FirstOrCreate(&sub).Error; err != nil {
					return fmt.Errorf("sub-zone %q: %w", sz.Name, err)
				}
			}
		}
		return nil
	})
}

func pairsToPolygon(pairs [][]float64) (geo.Polygon, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	poly := make(geo.Polygon, 0, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			return nil, geo.ErrInvalidPolygon
		}
		poly = append(poly, geo.Point{Lat: p[0], Lng: p[1]})
	}
	return poly, poly.Validate()
}
