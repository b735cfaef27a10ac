package repository

import (
	"errors"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"

	"gorm.io/gorm"
)

type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Issue supersedes any live sessions for the same email and purpose and
// stores the new one.
func (r *OTPRepository) Issue(s *models.OTPSession) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.OTPSession{}).
			Where("email = ? AND purpose = ? AND verified_at IS NULL AND superseded = ?", s.Email, s.Purpose, false).
			Update("superseded", true).Error
		if err != nil {
			return err
		}
		return tx.Create(s).Error
	})
}

// Latest returns the newest live session for email and purpose.
func (r *OTPRepository) Latest(email, purpose string) (*models.OTPSession, error) {
	var s models.OTPSession
	err := r.db.
		Where("email = ? AND purpose = ? AND verified_at IS NULL AND superseded = ?", email, purpose, false).
		Order("created_at DESC").Order("id DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LastIssuedAt returns when the newest session for email and purpose was
// created, verified or not.
func (r *OTPRepository) LastIssuedAt(email, purpose string) (*time.Time, error) {
	var s models.OTPSession
	err := r.db.Where("email = ? AND purpose = ?", email, purpose).Order("created_at DESC").Order("id DESC").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s.CreatedAt, nil
}

// ClaimAttempt counts one verification attempt against the session unless
// it already reached max. It reports false when no attempt was left.
func (r *OTPRepository) ClaimAttempt(id uint, max int) (bool, error) {
	res := r.db.Model(&models.OTPSession{}).
		Where("id = ? AND attempts < ? AND verified_at IS NULL", id, max).
		Update("attempts", gorm.Expr("attempts + 1"))
	return res.RowsAffected == 1, res.Error
}

// Attempts returns the stored attempt count of a session.
func (r *OTPRepository) Attempts(id uint) (int, error) {
	var s models.OTPSession
	if err := r.db.Select("attempts").First(&s, id).Error; err != nil {
		return 0, err
	}
	return s.Attempts, nil
}

// MarkVerified consumes the session; it reports false when it was already used.
func (r *OTPRepository) MarkVerified(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&models.OTPSession{}).Where("id = ? AND verified_at IS NULL", id).Update("verified_at", at)
	return res.RowsAffected == 1, res.Error
}

// CountSince counts sessions issued to email since t, for request throttling.
func (r *OTPRepository) CountSince(email string, t time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.OTPSession{}).Where("email = ? AND created_at >= ?", email, t).Count(&n).Error
	return n, err
}

// PurgeExpired deletes sessions that expired before t.
func (r *OTPRepository) PurgeExpired(t time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", t).Delete(&models.OTPSession{})
	return res.RowsAffected, res.Error
}
