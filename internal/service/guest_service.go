package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrGuestSubmissionDisabled = errors.New("guest complaint submission is disabled")

// GuestService handles complaints filed without an account and public
// tracking by complaint code.
type GuestService struct {
	repo       *repository.ComplaintRepository
	complaints *ComplaintService
	auth       *AuthService
	otp        *OTPService
	settings   *SettingsService
	logger     *zap.Logger
}

func NewGuestService(repo *repository.ComplaintRepository, complaints *ComplaintService, auth *AuthService, otp *OTPService, settings *SettingsService, logger *zap.Logger) *GuestService {
	return &GuestService{
		repo:       repo,
		complaints: complaints,
		auth:       auth,
		otp:        otp,
		settings:   settings,
		logger:     logger,
	}
}

// GuestSubmission is returned after a guest files a complaint.
type GuestSubmission struct {
	Complaint    *models.Complaint `json:"complaint"`
	OTPExpiresAt time.Time         `json:"otp_expires_at"`
}

// Submit files the complaint and emails a verification code to the
// contact address.
func (s *GuestService) Submit(ctx context.Context, in CreateComplaintInput, ip string) (*GuestSubmission, error) {
	if !s.settings.Bool(domain.ConfigGuestSubmissionActive, true) {
		return nil, ErrGuestSubmissionDisabled
	}
	email, err := normalizeEmail(in.ContactEmail)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ContactName) == "" {
		return nil, invalid("contact name is required")
	}
	in.ContactEmail = email
	c, err := s.complaints.Create(ctx, nil, in)
	if err != nil {
		return nil, err
	}
	exp, err := s.otp.Request(ctx, OTPRequest{Email: email, Purpose: domain.OTPPurposeGuestVerification, ComplaintID: &c.ID, IP: ip})
	if err != nil {
		// The complaint stands; the guest can ask for another code.
		s.logger.Warn("guest otp not sent", zap.String("code", c.CodeOrEmpty()), zap.Error(err))
		return &GuestSubmission{Complaint: c}, nil
	}
	return &GuestSubmission{Complaint: c, OTPExpiresAt: exp}, nil
}

// GuestVerification is the result of confirming a guest complaint.
type GuestVerification struct {
	*Session
	Complaint  *models.Complaint `json:"complaint"`
	NewAccount bool              `json:"new_account"`
}

// Verify confirms the guest's email, links the complaint to a citizen
// account (created on first use) and signs the citizen in.
func (s *GuestService) Verify(email, code string) (*GuestVerification, error) {
	session, err := s.otp.Verify(email, domain.OTPPurposeGuestVerification, code)
	if err != nil {
		return nil, err
	}
	if session.ComplaintID == nil {
		return nil, ErrOTPInvalid
	}
	c, err := s.complaints.load(*session.ComplaintID)
	if err != nil {
		return nil, err
	}
	u, created, err := s.auth.FindOrCreateCitizen(session.Email, c.ContactName, c.ContactPhone)
	if err != nil {
		return nil, err
	}
	if c.SubmittedByID == nil {
		if err := s.repo.UpdateFields(c.ID, map[string]interface{}{"submitted_by_id": u.ID}); err != nil {
			return nil, err
		}
	}
	sess, err := s.auth.SessionFor(u)
	if err != nil {
		return nil, err
	}
	c, err = s.complaints.load(c.ID)
	if err != nil {
		return nil, err
	}
	return &GuestVerification{Session: sess, Complaint: c, NewAccount: created}, nil
}

// byCodeAndEmail loads a complaint whose contact email matches. A mismatch
// looks exactly like a missing complaint.
func (s *GuestService) byCodeAndEmail(code, email string) (*models.Complaint, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	c, err := s.repo.GetByCode(strings.TrimSpace(code))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if email == "" || !strings.EqualFold(c.ContactEmail, email) {
		return nil, ErrNotFound
	}
	return c, nil
}

// ResendVerification issues a new code for an unconfirmed guest complaint.
func (s *GuestService) ResendVerification(ctx context.Context, complaintCode, email, ip string) (time.Time, error) {
	c, err := s.byCodeAndEmail(complaintCode, email)
	if err != nil {
		return time.Time{}, err
	}
	if c.SubmittedByID != nil {
		return time.Time{}, invalid("complaint %s is already verified", c.CodeOrEmpty())
	}
	return s.otp.Request(ctx, OTPRequest{Email: c.ContactEmail, Purpose: domain.OTPPurposeGuestVerification, ComplaintID: &c.ID, IP: ip})
}

func (s *GuestService) RequestTrackingOTP(ctx context.Context, complaintCode, email, ip string) (time.Time, error) {
	c, err := s.byCodeAndEmail(complaintCode, email)
	if err != nil {
		return time.Time{}, err
	}
	return s.otp.Request(ctx, OTPRequest{Email: c.ContactEmail, Purpose: domain.OTPPurposeComplaintTracking, ComplaintID: &c.ID, IP: ip})
}

// TrackedComplaint is the full view unlocked by a tracking code.
type TrackedComplaint struct {
	Complaint  *models.Complaint  `json:"complaint"`
	StatusLogs []models.StatusLog `json:"status_logs"`
}

func (s *GuestService) VerifyTracking(complaintCode, email, code string) (*TrackedComplaint, error) {
	c, err := s.byCodeAndEmail(complaintCode, email)
	if err != nil {
		return nil, err
	}
	session, err := s.otp.Verify(c.ContactEmail, domain.OTPPurposeComplaintTracking, code)
	if err != nil {
		return nil, err
	}
	if session.ComplaintID == nil || *session.ComplaintID != c.ID {
		return nil, ErrOTPInvalid
	}
	logs, err := s.repo.ListStatusLogs(c.ID)
	if err != nil {
		return nil, err
	}
	s.complaints.refreshSLA(c)
	return &TrackedComplaint{Complaint: c, StatusLogs: logs}, nil
}

// PublicComplaint is what anyone holding a complaint code may see.
type PublicComplaint struct {
	Code        string     `json:"complaint_id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Ward        string     `json:"ward"`
	SubZone     string     `json:"sub_zone,omitempty"`
	SubmittedOn time.Time  `json:"submitted_on"`
	Deadline    time.Time  `json:"deadline"`
	ResolvedOn  *time.Time `json:"resolved_on,omitempty"`
	SLAStatus   string     `json:"sla_status"`
	LastUpdated time.Time  `json:"last_updated"`
}

func (s *GuestService) PublicStatus(complaintCode string) (*PublicComplaint, error) {
	c, err := s.repo.GetByCode(strings.TrimSpace(complaintCode))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.complaints.refreshSLA(c)
	out := &PublicComplaint{
		Code:        c.CodeOrEmpty(),
		Status:      c.Status,
		Priority:    c.Priority,
		SubmittedOn: c.SubmittedOn,
		Deadline:    c.Deadline,
		ResolvedOn:  c.ResolvedOn,
		SLAStatus:   c.SLAStatus,
		LastUpdated: c.UpdatedAt,
	}
	if c.ComplaintType != nil {
		out.Type = c.ComplaintType.Name
	}
	if c.Ward != nil {
		out.Ward = c.Ward.Name
	}
	if c.SubZone != nil {
		out.SubZone = c.SubZone.Name
	}
	return out, nil
}
