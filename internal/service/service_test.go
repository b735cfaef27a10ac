package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/testutil"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/ws"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeMailer records sent mail so tests can read OTP codes back.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To, Subject, Body string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// lastCode returns the newest code mailed to the address.
func (m *fakeMailer) lastCode(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To != to {
			continue
		}
		_, rest, ok := strings.Cut(m.sent[i].Body, "code is: ")
		if !ok {
			continue
		}
		code, _, _ := strings.Cut(rest, "\n")
		return code
	}
	return ""
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type services struct {
	db          *gorm.DB
	cfg         *config.Config
	mail        *fakeMailer
	hub         *ws.Hub
	settings    *SettingsService
	otp         *OTPService
	auth        *AuthService
	wards       *WardService
	types       *ComplaintTypeService
	users       *UserService
	notify      *NotificationService
	complaints  *ComplaintService
	guest       *GuestService
	attachments *AttachmentService
	reports     *ReportService
	monitor     *SLAMonitor
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := testutil.Config()
	logger := zap.NewNop()
	mail := &fakeMailer{}
	hub := ws.NewHub()

	userRepo := repository.NewUserRepository(db)
	wardRepo := repository.NewWardRepository(db)
	typeRepo := repository.NewComplaintTypeRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)

	s := &services{db: db, cfg: cfg, mail: mail, hub: hub}
	s.settings = NewSettingsService(repository.NewSettingRepository(db))
	s.otp = NewOTPService(&cfg.OTP, repository.NewOTPRepository(db), mail, s.settings, logger)
	s.auth = NewAuthService(cfg, userRepo, s.otp)
	s.wards = NewWardService(wardRepo, s.settings)
	s.types = NewComplaintTypeService(typeRepo)
	s.users = NewUserService(userRepo, wardRepo)
	s.notify = NewNotificationService(repository.NewNotificationRepository(db), userRepo, hub, nil, mail, s.settings, logger)
	s.complaints = NewComplaintService(cfg, complaintRepo, typeRepo, wardRepo, userRepo, s.wards, s.settings, s.notify, logger)
	s.guest = NewGuestService(complaintRepo, s.complaints, s.auth, s.otp, s.settings, logger)
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s.attachments = NewAttachmentService(complaintRepo, s.complaints, store, s.settings, cfg.Storage.MaxFileSize, logger)
	s.reports = NewReportService(repository.NewReportRepository(db), complaintRepo, userRepo, s.settings)
	s.monitor = NewSLAMonitor(complaintRepo, userRepo, s.notify, s.otp, cfg.SLA.CheckInterval, cfg.SLA.WarnPercent, logger)
	return s
}
