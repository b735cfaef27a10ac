package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPRequestAndVerify(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	exp, err := s.otp.Request(ctx, OTPRequest{Email: "Guest@Example.com", Purpose: domain.OTPPurposeLogin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), exp, 5*time.Second)

	code := s.mail.lastCode("guest@example.com")
	require.Len(t, code, 6)

	session, err := s.otp.Verify("guest@example.com", domain.OTPPurposeLogin, code)
	require.NoError(t, err)
	assert.NotNil(t, session.VerifiedAt)

	_, err = s.otp.Verify("guest@example.com", domain.OTPPurposeLogin, code)
	assert.ErrorIs(t, err, ErrOTPInvalid, "codes are single use")
}

func TestOTPExpiredCodeIsRejected(t *testing.T) {
	s := newServices(t)
	_, err := s.otp.Request(context.Background(), OTPRequest{Email: "a@example.com", Purpose: domain.OTPPurposeGuestVerification})
	require.NoError(t, err)
	code := s.mail.lastCode("a@example.com")

	s.otp.now = func() time.Time { return time.Now().UTC().Add(11 * time.Minute) }
	_, err = s.otp.Verify("a@example.com", domain.OTPPurposeGuestVerification, code)
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestOTPExpiryFromSystemConfig(t *testing.T) {
	s := newServices(t)
	_, err := s.settings.Upsert(SettingInput{Key: domain.ConfigOTPExpiryMinutes, Value: "2", Type: domain.ConfigTypeNumber})
	require.NoError(t, err)

	exp, err := s.otp.Request(context.Background(), OTPRequest{Email: "b@example.com", Purpose: domain.OTPPurposeLogin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Minute), exp, 5*time.Second)
}

func TestOTPAttemptsExhausted(t *testing.T) {
	s := newServices(t)
	_, err := s.otp.Request(context.Background(), OTPRequest{Email: "c@example.com", Purpose: domain.OTPPurposeLogin})
	require.NoError(t, err)
	code := s.mail.lastCode("c@example.com")

	_, err = s.otp.Verify("c@example.com", domain.OTPPurposeLogin, "000000x")
	assert.ErrorIs(t, err, ErrOTPInvalid)
	_, err = s.otp.Verify("c@example.com", domain.OTPPurposeLogin, "000000x")
	assert.ErrorIs(t, err, ErrOTPInvalid)
	_, err = s.otp.Verify("c@example.com", domain.OTPPurposeLogin, "000000x")
	assert.ErrorIs(t, err, ErrOTPAttemptsExceeded)

	_, err = s.otp.Verify("c@example.com", domain.OTPPurposeLogin, code)
	assert.ErrorIs(t, err, ErrOTPAttemptsExceeded, "the right code no longer works once locked")
}

func TestOTPNewCodeReplacesOld(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	_, err := s.otp.Request(ctx, OTPRequest{Email: "d@example.com", Purpose: domain.OTPPurposeLogin})
	require.NoError(t, err)
	first := s.mail.lastCode("d@example.com")
	_, err = s.otp.Request(ctx, OTPRequest{Email: "d@example.com", Purpose: domain.OTPPurposeLogin})
	require.NoError(t, err)
	second := s.mail.lastCode("d@example.com")

	if first != second {
		_, err = s.otp.Verify("d@example.com", domain.OTPPurposeLogin, first)
		assert.ErrorIs(t, err, ErrOTPInvalid)
	}
	_, err = s.otp.Verify("d@example.com", domain.OTPPurposeLogin, second)
	assert.NoError(t, err)
}

func TestOTPCooldown(t *testing.T) {
	s := newServices(t)
	s.cfg.OTP.Cooldown = time.Minute
	ctx := context.Background()

	_, err := s.otp.Request(ctx, OTPRequest{Email: "e@example.com", Purpose: domain.OTPPurposeLogin})
	require.NoError(t, err)
	_, err = s.otp.Request(ctx, OTPRequest{Email: "e@example.com", Purpose: domain.OTPPurposeLogin})
	assert.ErrorIs(t, err, ErrOTPCooldown)
}

func TestOTPConcurrentWrongCodesRespectAttemptLimit(t *testing.T) {
	s := newServices(t)
	_, err := s.otp.Request(context.Background(), OTPRequest{Email: "f@example.com", Purpose: domain.OTPPurposeLogin})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.otp.Verify("f@example.com", domain.OTPPurposeLogin, "wrong-code")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	locked := 0
	for err := range errs {
		require.Error(t, err)
		if errors.Is(err, ErrOTPAttemptsExceeded) {
			locked++
		}
	}
	assert.GreaterOrEqual(t, locked, 30-s.cfg.OTP.MaxAttempts)

	var session models.OTPSession
	require.NoError(t, s.db.Where("email = ?", "f@example.com").First(&session).Error)
	assert.Equal(t, s.cfg.OTP.MaxAttempts, session.Attempts)
}

type failingMailer struct{}

func (failingMailer) Send(context.Context, string, string, string) error {
	return errors.New("smtp unavailable")
}

func TestOTPFailedSendLeavesNoSession(t *testing.T) {
	s := newServices(t)
	s.cfg.OTP.Cooldown = time.Minute
	s.otp.mail = failingMailer{}

	_, err := s.otp.Request(context.Background(), OTPRequest{Email: "g@example.com", Purpose: domain.OTPPurposeLogin})
	require.Error(t, err)
	var n int64
	require.NoError(t, s.db.Model(&models.OTPSession{}).Where("email = ?", "g@example.com").Count(&n).Error)
	assert.Zero(t, n)

	s.otp.mail = s.mail
	_, err = s.otp.Request(context.Background(), OTPRequest{Email: "g@example.com", Purpose: domain.OTPPurposeLogin})
	require.NoError(t, err, "a failed send does not start the cooldown")
	assert.NotEmpty(t, s.mail.lastCode("g@example.com"))
}
