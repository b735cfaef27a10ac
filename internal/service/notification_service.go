package service

import (
	"context"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/ws"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/mailer"

	"go.uber.org/zap"
)

const pushTimeout = 10 * time.Second

// NotificationService stores in-app notifications and fans them out over
// websocket, FCM and email.
type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	hub      *ws.Hub
	fcm      *FCMService
	mail     mailer.Mailer
	settings *SettingsService
	logger   *zap.Logger
}

func NewNotificationService(
	repo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	hub *ws.Hub,
	fcm *FCMService,
	mail mailer.Mailer,
	settings *SettingsService,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		hub:      hub,
		fcm:      fcm,
		mail:     mail,
		settings: settings,
		logger:   logger,
	}
}

// Notify stores a notification for the user and pushes it to connected
// clients and registered devices.
func (s *NotificationService) Notify(userID uint, complaintID *uint, notifType, title, message string) error {
	n := &models.Notification{
		UserID:      userID,
		ComplaintID: complaintID,
		Type:        notifType,
		Title:       title,
		Message:     message,
	}
	if err := s.repo.Create(n); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.SendToUser(userID, ws.Message{Type: "notification", Data: n})
	}
	s.push(userID, n)
	return nil
}

func (s *NotificationService) push(userID uint, n *models.Notification) {
	if s.fcm == nil || s.userRepo == nil {
		return
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil || u.FCMToken == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		_ = s.fcm.SendComplaintUpdate(ctx, u.FCMToken, n.Type, n.Title, n.Message, n.ComplaintID)
	}()
}

// Broadcast sends a realtime event to ward staff without storing it.
func (s *NotificationService) Broadcast(wardID uint, event string, data interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.SendToWardStaff(wardID, ws.Message{Type: event, Data: data}, domain.RoleWardOfficer, domain.RoleAdministrator)
}

// Email sends mail when email notifications are enabled in system config.
func (s *NotificationService) Email(ctx context.Context, to, subject, body string) {
	if s.mail == nil || to == "" {
		return
	}
	if s.settings != nil && !s.settings.Bool(domain.ConfigNotificationsEmail, true) {
		return
	}
	if err := s.mail.Send(ctx, to, subject, body); err != nil {
		s.logger.Warn("notification email failed", zap.String("to", to), zap.Error(err))
	}
}

func (s *NotificationService) List(userID uint, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	return s.repo.ListByUserID(userID, unreadOnly, limit, (page-1)*limit)
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.repo.CountUnread(userID)
}

func (s *NotificationService) MarkRead(id, userID uint) error {
	ok, err := s.repo.MarkRead(id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	return s.repo.MarkAllRead(userID)
}

func (s *NotificationService) Delete(id, userID uint) error {
	ok, err := s.repo.Delete(id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
