package service

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FCMService sends push notifications via Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
	logger *zap.Logger
}

// NewFCMService returns nil when Firebase is not configured or fails to start.
func NewFCMService(ctx context.Context, serviceAccountPath string, logger *zap.Logger) *FCMService {
	if serviceAccountPath == "" {
		return nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		logger.Warn("firebase init failed, push disabled", zap.Error(err))
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Warn("firebase messaging unavailable, push disabled", zap.Error(err))
		return nil
	}
	return &FCMService{client: client, logger: logger}
}

// Send pushes a notification to one device token.
func (s *FCMService) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if s == nil || token == "" {
		return nil
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Token: token,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		s.logger.Warn("fcm send failed", zap.Error(err))
		return err
	}
	return nil
}

// SendComplaintUpdate pushes a notification about a complaint. FCM data
// values must be strings.
func (s *FCMService) SendComplaintUpdate(ctx context.Context, token, notifType, title, body string, complaintID *uint) error {
	if s == nil || token == "" {
		return nil
	}
	data := map[string]string{"type": notifType}
	if complaintID != nil {
		data["complaint_id"] = fmt.Sprintf("%d", *complaintID)
	}
	return s.Send(ctx, token, title, body, data)
}
