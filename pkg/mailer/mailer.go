// Package mailer sends transactional email through Amazon SES.
package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SES struct {
	client *ses.Client
	from   string
}

func NewSES(ctx context.Context, region, from string) (*SES, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SES{client: ses.NewFromConfig(cfg), from: from}, nil
}

func (m *SES) Send(ctx context.Context, to, subject, body string) error {
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body:    &types.Body{Text: &types.Content{Data: aws.String(body)}},
		},
		Source: aws.String(m.from),
	})
	if err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

// Log writes messages to the logger instead of sending them. Used when
// mail is disabled.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log { return &Log{logger: logger} }

func (m *Log) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Info("mail disabled, message dropped", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func OTPMessage(appName, code string, minutes int) (subject, body string) {
	subject = fmt.Sprintf("%s verification code", appName)
	body = fmt.Sprintf("Your verification code is: %s\n\nIt expires in %d minutes. Do not share it with anyone.", code, minutes)
	return subject, body
}

func StatusMessage(appName, complaintCode, status, comment string) (subject, body string) {
	subject = fmt.Sprintf("%s: complaint %s is now %s", appName, complaintCode, status)
	body = fmt.Sprintf("Your complaint %s has been updated to %s.", complaintCode, status)
	if comment != "" {
		body += "\n\nRemarks: " + comment
	}
	return subject, body
}

func PasswordResetMessage(appName, code string, minutes int) (subject, body string) {
	subject = fmt.Sprintf("%s password reset code", appName)
	body = fmt.Sprintf("Your password reset code is: %s\n\nIt expires in %d minutes. If you did not request a reset you can ignore this email.", code, minutes)
	return subject, body
}
