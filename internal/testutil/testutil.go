// Package testutil holds fixtures shared by repository, service and handler tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/database"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/geo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory SQLite database with every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Config returns a configuration suitable for tests.
func Config() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test", RateLimit: 1000, RateWindow: time.Minute},
		JWT: config.JWTConfig{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessExpiry:  time.Hour,
			RefreshExpiry: 24 * time.Hour,
			Issuer:        "nlc-cms-test",
		},
		OTP: config.OTPConfig{
			Length:          6,
			Expiry:          10 * time.Minute,
			MaxAttempts:     3,
			Cooldown:        0,
			RequestsPerHour: 1000,
		},
		SLA:     config.SLAConfig{DefaultHours: 48, WarnPercent: 80, CheckInterval: time.Minute},
		Storage: config.StorageConfig{Backend: "local", MaxFileSize: 1 << 20},
	}
}

// Password is the plain-text password of every user created by CreateUser.
const Password = "password123"

var passwordHash = func() string {
	h, _ := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	return string(h)
}()

func CreateUser(t *testing.T, db *gorm.DB, role string, wardID *uint) *models.User {
	t.Helper()
	u := &models.User{
		Email:        fmt.Sprintf("%s-%s@example.com", role, uuid.NewString()[:8]),
		FullName:     "Test " + role,
		PasswordHash: passwordHash,
		Role:         role,
		WardID:       wardID,
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SquareBoundary is a one-degree square with its south-west corner at (lat, lng).
func SquareBoundary(lat, lng float64) geo.Polygon {
	return geo.Polygon{
		{Lat: lat, Lng: lng},
		{Lat: lat, Lng: lng + 1},
		{Lat: lat + 1, Lng: lng + 1},
		{Lat: lat + 1, Lng: lng},
	}
}

func CreateWard(t *testing.T, db *gorm.DB, name string, boundary geo.Polygon) *models.Ward {
	t.Helper()
	w := &models.Ward{Name: name, IsActive: true}
	if boundary != nil {
		w.SetBoundary(boundary)
	}
	require.NoError(t, db.Create(w).Error)
	return w
}

func CreateComplaintType(t *testing.T, db *gorm.DB, name string, slaHours int) *models.ComplaintType {
	t.Helper()
	ct := &models.ComplaintType{Name: name, Priority: domain.PriorityMedium, SLAHours: slaHours, IsActive: true}
	require.NoError(t, db.Create(ct).Error)
	return ct
}

// CreateComplaint inserts a complaint directly, bypassing the service.
func CreateComplaint(t *testing.T, db *gorm.DB, typ *models.ComplaintType, ward *models.Ward, submitter *models.User, status string) *models.Complaint {
	t.Helper()
	now := time.Now().UTC()
	c := &models.Complaint{
		Description:     "Streetlight not working",
		ComplaintTypeID: typ.ID,
		Status:          status,
		Priority:        domain.PriorityMedium,
		SLAStatus:       domain.SLAOnTime,
		WardID:          ward.ID,
		ContactEmail:    "citizen@example.com",
		SubmittedOn:     now,
		Deadline:        now.Add(time.Duration(typ.SLAHours) * time.Hour),
	}
	if submitter != nil {
		c.SubmittedByID = &submitter.ID
		c.ContactEmail = submitter.Email
	}
	require.NoError(t, db.Create(c).Error)
	code := domain.FormatComplaintCode("KSC", 1, 4, c.ID)
	require.NoError(t, db.Model(c).Update("code", code).Error)
	c.Code = &code
	return c
}
