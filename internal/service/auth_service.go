package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrEmailExists     = errors.New("email already registered")
	ErrInvalidCreds    = errors.New("invalid email or password")
	ErrAccountInactive = errors.New("account is deactivated")
	ErrNoPassword      = errors.New("account has no password; sign in with a code or Google")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
)

const minPasswordLength = 8

// Session is what a successful sign-in returns to the client.
type Session struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
	otp      *OTPService
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, otp *OTPService) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, otp: otp}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", invalid("a valid email is required")
	}
	return email, nil
}

func (s *AuthService) issue(u *models.User) (*Session, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role, u.WardID)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return nil, err
	}
	_ = s.userRepo.TouchLogin(u.ID)
	return &Session{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

type RegisterInput struct {
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Language    string `json:"language"`
}

// Register creates a citizen account.
func (s *AuthService) Register(in RegisterInput) (*Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, invalid("full name is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if _, err := s.userRepo.GetByEmail(email); err == nil {
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
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: hash,
		Role:         domain.RoleCitizen,
		Language:     in.Language,
		IsActive:     true,
	}
	if u.Language == "" {
		u.Language = "en"
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(email, password string) (*Session, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCreds
		}
		return nil, err
	}
	if !u.HasPassword() || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCreds
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return s.issue(u)
}

// RequestLoginOTP emails a sign-in code to an existing active account.
// Unknown emails get the same response so accounts cannot be probed.
func (s *AuthService) RequestLoginOTP(ctx context.Context, email, ip string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	u, err := s.userRepo.GetByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		return ErrAccountInactive
	}
	_, err = s.otp.Request(ctx, OTPRequest{Email: email, Purpose: domain.OTPPurposeLogin, UserID: &u.ID, IP: ip})
	return err
}

func (s *AuthService) VerifyLoginOTP(email, code string) (*Session, error) {
	if _, err := s.otp.Verify(email, domain.OTPPurposeLogin, code); err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOTPInvalid
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return s.issue(u)
}

// SessionFor issues tokens for an already verified user, e.g. after a
// guest complaint is confirmed.
func (s *AuthService) SessionFor(u *models.User) (*Session, error) {
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return s.issue(u)
}

func (s *AuthService) RefreshToken(refreshToken string) (*Session, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return s.issue(u)
}

func (s *AuthService) Me(userID uint) (*models.User, error) {
	u, err := s.userRepo.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

type ProfileInput struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	Language    *string `json:"language"`
	AvatarURL   *string `json:"avatar_url"`
}

func (s *AuthService) UpdateProfile(userID uint, in ProfileInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, invalid("full name cannot be empty")
		}
		updates["full_name"] = name
	}
	if in.PhoneNumber != nil {
		updates["phone_number"] = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.Language != nil {
		updates["language"] = *in.Language
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = *in.AvatarURL
	}
	if len(updates) > 0 {
		if err := s.userRepo.UpdateFields(userID, updates); err != nil {
			return nil, err
		}
	}
	return s.Me(userID)
}

func (s *AuthService) SetFCMToken(userID uint, token string) error {
	return s.userRepo.UpdateFields(userID, map[string]interface{}{"fcm_token": strings.TrimSpace(token)})
}

// ChangePassword updates the user's password after checking the current one.
// Accounts without a password may set one directly.
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return ErrInvalidCreds
	}
	if u.HasPassword() && !auth.CheckPassword(u.PasswordHash, currentPassword) {
		return ErrInvalidCreds
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateFields(userID, map[string]interface{}{"password_hash": hash})
}

// ForgotPassword emails a reset code. Unknown emails are ignored silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email, ip string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	u, err := s.userRepo.GetByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.otp.Request(ctx, OTPRequest{Email: email, Purpose: domain.OTPPurposePasswordReset, UserID: &u.ID, IP: ip})
	return err
}

func (s *AuthService) ResetPassword(email, code, newPassword string) (*models.User, error) {
	if len(newPassword) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if _, err := s.otp.Verify(email, domain.OTPPurposePasswordReset, code); err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, ErrOTPInvalid
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateFields(u.ID, map[string]interface{}{"password_hash": hash}); err != nil {
		return nil, err
	}
	return u, nil
}

// LoginWithGoogle finds the user by Google ID, links an existing account
// with the same email, or creates a citizen. The bool reports a new account.
func (s *AuthService) LoginWithGoogle(googleID, email, name, avatarURL string) (*Session, bool, error) {
	u, err := s.userRepo.GetByGoogleID(googleID)
	if err == nil {
		if !u.IsActive {
			return nil, false, ErrAccountInactive
		}
		sess, err := s.issue(u)
		return sess, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.userRepo.GetByEmail(email)
	if err == nil {
		if !existing.IsActive {
			return nil, false, ErrAccountInactive
		}
		updates := map[string]interface{}{"google_id": googleID}
		if avatarURL != "" && existing.AvatarURL == "" {
			updates["avatar_url"] = avatarURL
		}
		if err := s.userRepo.UpdateFields(existing.ID, updates); err != nil {
			return nil, false, err
		}
		existing.GoogleID = &googleID
		sess, err := s.issue(existing)
		return sess, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	gid := googleID
	u = &models.User{
		Email:     email,
		FullName:  name,
		GoogleID:  &gid,
		Role:      domain.RoleCitizen,
		AvatarURL: avatarURL,
		Language:  "en",
		IsActive:  true,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, false, err
	}
	sess, err := s.issue(u)
	return sess, true, err
}

// FindOrCreateCitizen returns the account for email, creating a
// password-less citizen when none exists.
func (s *AuthService) FindOrCreateCitizen(email, fullName, phone string) (*models.User, bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, false, err
	}
	u, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	if strings.TrimSpace(fullName) == "" {
		fullName, _, _ = strings.Cut(email, "@")
	}
	u = &models.User{
		Email:       email,
		FullName:    strings.TrimSpace(fullName),
		PhoneNumber: phone,
		Role:        domain.RoleCitizen,
		Language:    "en",
		IsActive:    true,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}
