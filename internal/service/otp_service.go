package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/metrics"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/mailer"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrOTPInvalid          = errors.New("invalid verification code")
	ErrOTPExpired          = errors.New("verification code has expired")
	ErrOTPAttemptsExceeded = errors.New("too many incorrect attempts, request a new code")
	ErrOTPCooldown         = errors.New("please wait before requesting another code")
	ErrOTPRateLimited      = errors.New("too many codes requested, try again later")
)

// OTPRequest identifies who a code is for and what it unlocks.
type OTPRequest struct {
	Email       string
	Purpose     string
	ComplaintID *uint
	UserID      *uint
	IP          string
}

type OTPService struct {
	cfg      *config.OTPConfig
	repo     *repository.OTPRepository
	mail     mailer.Mailer
	settings *SettingsService
	logger   *zap.Logger
	now      func() time.Time
}

func NewOTPService(cfg *config.OTPConfig, repo *repository.OTPRepository, mail mailer.Mailer, settings *SettingsService, logger *zap.Logger) *OTPService {
	return &OTPService{
		cfg:      cfg,
		repo:     repo,
		mail:     mail,
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *OTPService) expiry() time.Duration {
	if s.settings != nil {
		if m := s.settings.Int(domain.ConfigOTPExpiryMinutes, 0); m > 0 {
			return time.Duration(m) * time.Minute
		}
	}
	return s.cfg.Expiry
}

// Request issues a fresh code, replacing any unverified code for the same
// email and purpose, and emails it. It returns the expiry time.
func (s *OTPService) Request(ctx context.Context, req OTPRequest) (time.Time, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return time.Time{}, invalid("email is required")
	}
	now := s.now()

	if s.cfg.Cooldown > 0 {
		last, err := s.repo.LastIssuedAt(email, req.Purpose)
		if err != nil {
			return time.Time{}, err
		}
		if last != nil && now.Sub(*last) < s.cfg.Cooldown {
			return time.Time{}, ErrOTPCooldown
		}
	}
	if s.cfg.RequestsPerHour > 0 {
		n, err := s.repo.CountSince(email, now.Add(-time.Hour))
		if err != nil {
			return time.Time{}, err
		}
		if n >= int64(s.cfg.RequestsPerHour) {
			return time.Time{}, ErrOTPRateLimited
		}
	}

	code, err := auth.GenerateCode(s.cfg.Length)
	if err != nil {
		return time.Time{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return time.Time{}, err
	}
	ttl := s.expiry()
	appName := "NLC-CMS"
	if s.settings != nil {
		appName = s.settings.String(domain.ConfigAppName, appName)
	}
	minutes := int(ttl / time.Minute)
	subject, body := mailer.OTPMessage(appName, code, minutes)
	if req.Purpose == domain.OTPPurposePasswordReset {
		subject, body = mailer.PasswordResetMessage(appName, code, minutes)
	}
	// stored only after delivery; a failed send leaves no session
	if s.mail != nil {
		if err := s.mail.Send(ctx, email, subject, body); err != nil {
			s.logger.Warn("otp email failed", zap.String("purpose", req.Purpose), zap.Error(err))
			return time.Time{}, err
		}
	}
	session := &models.OTPSession{
		Email:       email,
		Purpose:     req.Purpose,
		ComplaintID: req.ComplaintID,
		UserID:      req.UserID,
		CodeHash:    string(hash),
		ExpiresAt:   now.Add(ttl),
		IP:          req.IP,
		CreatedAt:   now,
	}
	if err := s.repo.Issue(session); err != nil {
		return time.Time{}, err
	}
	metrics.OTPEvents.WithLabelValues(req.Purpose, "sent").Inc()
	return session.ExpiresAt, nil
}

// Verify checks code against the newest live session and consumes it.
func (s *OTPService) Verify(email, purpose, code string) (*models.OTPSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, invalid("email and code are required")
	}
	session, err := s.repo.Latest(email, purpose)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.fail(purpose, "invalid")
		return nil, ErrOTPInvalid
	}
	if err != nil {
		return nil, err
	}
	now := s.now()
	if session.Expired(now) {
		s.fail(purpose, "expired")
		return nil, ErrOTPExpired
	}
	claimed, err := s.repo.ClaimAttempt(session.ID, s.cfg.MaxAttempts)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.fail(purpose, "locked")
		return nil, ErrOTPAttemptsExceeded
	}
	if bcrypt.CompareHashAndPassword([]byte(session.CodeHash), []byte(code)) != nil {
		s.fail(purpose, "invalid")
		n, err := s.repo.Attempts(session.ID)
		if err != nil {
			return nil, err
		}
		if n >= s.cfg.MaxAttempts {
			return nil, ErrOTPAttemptsExceeded
		}
		return nil, ErrOTPInvalid
	}
	ok, err := s.repo.MarkVerified(session.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOTPInvalid
	}
	session.VerifiedAt = &now
	metrics.OTPEvents.WithLabelValues(purpose, "verified").Inc()
	return session, nil
}

func (s *OTPService) fail(purpose, reason string) {
	metrics.OTPEvents.WithLabelValues(purpose, "failed_"+reason).Inc()
}

// Purge removes expired sessions.
func (s *OTPService) Purge() (int64, error) {
	return s.repo.PurgeExpired(s.now().Add(-24 * time.Hour))
}
