package service

import (
	"context"
	"testing"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestSubmitAndVerify(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	w := testutil.CreateWard(t, s.db, "Ward G", nil)
	typ := testutil.CreateComplaintType(t, s.db, "Garbage", 48)

	sub, err := s.guest.Submit(ctx, CreateComplaintInput{
		Description:     "Garbage not collected for a week",
		ComplaintTypeID: typ.ID,
		WardID:          &w.ID,
		ContactName:     "Asha Menon",
		ContactEmail:    "Asha@Example.com",
		ContactPhone:    "9999999999",
	}, "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, sub.Complaint.IsGuest)
	assert.Nil(t, sub.Complaint.SubmittedByID)
	assert.False(t, sub.OTPExpiresAt.IsZero())

	code := s.mail.lastCode("asha@example.com")
	require.NotEmpty(t, code)

	_, err = s.guest.Verify("asha@example.com", "000000")
	if code != "000000" {
		assert.ErrorIs(t, err, ErrOTPInvalid)
	}

	res, err := s.guest.Verify("asha@example.com", code)
	require.NoError(t, err)
	assert.True(t, res.NewAccount)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, domain.RoleCitizen, res.User.Role)
	require.NotNil(t, res.Complaint.SubmittedByID)
	assert.Equal(t, res.User.ID, *res.Complaint.SubmittedByID)

	_, err = s.guest.ResendVerification(ctx, res.Complaint.CodeOrEmpty(), "asha@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidInput, "already verified")
}

func TestGuestSubmissionRequiresContact(t *testing.T) {
	s := newServices(t)
	w := testutil.CreateWard(t, s.db, "Ward H", nil)
	typ := testutil.CreateComplaintType(t, s.db, "Water", 24)

	_, err := s.guest.Submit(context.Background(), CreateComplaintInput{
		Description: "Leak", ComplaintTypeID: typ.ID, WardID: &w.ID, ContactName: "X",
	}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.settings.Upsert(SettingInput{Key: domain.ConfigGuestSubmissionActive, Value: "false", Type: domain.ConfigTypeBoolean})
	require.NoError(t, err)
	_, err = s.guest.Submit(context.Background(), CreateComplaintInput{
		Description: "Leak", ComplaintTypeID: typ.ID, WardID: &w.ID, ContactName: "X", ContactEmail: "x@example.com",
	}, "")
	assert.ErrorIs(t, err, ErrGuestSubmissionDisabled)
}

func TestGuestTracking(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	typ := testutil.CreateComplaintType(t, s.db, "Roads", 72)
	c := testutil.CreateComplaint(t, s.db, typ, testutil.CreateWard(t, s.db, "Ward T", nil), nil, domain.StatusRegistered)

	_, err := s.guest.RequestTrackingOTP(ctx, c.CodeOrEmpty(), "someone-else@example.com", "")
	assert.ErrorIs(t, err, ErrNotFound, "a wrong email looks like a missing complaint")
	_, err = s.guest.RequestTrackingOTP(ctx, "KSC9999", c.ContactEmail, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.guest.RequestTrackingOTP(ctx, c.CodeOrEmpty(), "CITIZEN@example.com", "")
	require.NoError(t, err)
	code := s.mail.lastCode(c.ContactEmail)

	tracked, err := s.guest.VerifyTracking(c.CodeOrEmpty(), c.ContactEmail, code)
	require.NoError(t, err)
	assert.Equal(t, c.ID, tracked.Complaint.ID)

	pub, err := s.guest.PublicStatus(c.CodeOrEmpty())
	require.NoError(t, err)
	assert.Equal(t, "Roads", pub.Type)
	assert.Equal(t, "Ward T", pub.Ward)
	assert.Equal(t, domain.StatusRegistered, pub.Status)
}
