package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type complaintFixture struct {
	*services
	ward    *models.Ward
	typ     *models.ComplaintType
	citizen *models.User
	officer *models.User
	crew    *models.User
	admin   *models.User
}

func newComplaintFixture(t *testing.T) *complaintFixture {
	s := newServices(t)
	f := &complaintFixture{services: s}
	f.ward = testutil.CreateWard(t, s.db, "Ward 1", testutil.SquareBoundary(10, 20))
	f.typ = testutil.CreateComplaintType(t, s.db, "Street Lighting", 24)
	f.citizen = testutil.CreateUser(t, s.db, domain.RoleCitizen, nil)
	f.officer = testutil.CreateUser(t, s.db, domain.RoleWardOfficer, &f.ward.ID)
	f.crew = testutil.CreateUser(t, s.db, domain.RoleMaintenanceTeam, &f.ward.ID)
	f.admin = testutil.CreateUser(t, s.db, domain.RoleAdministrator, nil)
	return f
}

func actorOf(u *models.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role, WardID: u.WardID}
}

func (f *complaintFixture) create(t *testing.T) *models.Complaint {
	t.Helper()
	c, err := f.complaints.Create(context.Background(), &Actor{UserID: f.citizen.ID, Role: domain.RoleCitizen}, CreateComplaintInput{
		Description:     "Street light near the school is out",
		ComplaintTypeID: f.typ.ID,
		WardID:          &f.ward.ID,
		Area:            "Gandhi Nagar",
	})
	require.NoError(t, err)
	return c
}

func TestCreateComplaint(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.create(t)

	assert.Equal(t, "KSC0001", c.CodeOrEmpty())
	assert.Equal(t, domain.StatusRegistered, c.Status)
	assert.Equal(t, domain.PriorityMedium, c.Priority, "priority defaults to the type's")
	assert.Equal(t, f.citizen.Email, c.ContactEmail)
	assert.WithinDuration(t, c.SubmittedOn.Add(24*time.Hour), c.Deadline, time.Second)
	assert.Nil(t, c.WardOfficerID, "auto-assign is off by default")

	logs, err := f.complaints.StatusLogs(actorOf(f.citizen), c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.StatusRegistered, logs[0].ToStatus)
}

func TestCreateComplaintCodeSettings(t *testing.T) {
	f := newComplaintFixture(t)
	for key, val := range map[string]string{
		domain.ConfigComplaintIDPrefix: "NLC",
		domain.ConfigComplaintIDStart:  "500",
		domain.ConfigComplaintIDLength: "6",
	} {
		typ := domain.ConfigTypeNumber
		if key == domain.ConfigComplaintIDPrefix {
			typ = domain.ConfigTypeString
		}
		_, err := f.settings.Upsert(SettingInput{Key: key, Value: val, Type: typ})
		require.NoError(t, err)
	}
	c := f.create(t)
	assert.Equal(t, "NLC000500", c.CodeOrEmpty())
}

func TestCreateComplaintDetectsWard(t *testing.T) {
	f := newComplaintFixture(t)
	lat, lng := 10.5, 20.5
	c, err := f.complaints.Create(context.Background(), &Actor{UserID: f.citizen.ID, Role: domain.RoleCitizen}, CreateComplaintInput{
		Description:     "Pothole",
		ComplaintTypeID: f.typ.ID,
		Latitude:        &lat,
		Longitude:       &lng,
	})
	require.NoError(t, err)
	assert.Equal(t, f.ward.ID, c.WardID)

	far := 40.0
	_, err = f.complaints.Create(context.Background(), &Actor{UserID: f.citizen.ID, Role: domain.RoleCitizen}, CreateComplaintInput{
		Description:     "Pothole",
		ComplaintTypeID: f.typ.ID,
		Latitude:        &far,
		Longitude:       &far,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateComplaintAutoAssign(t *testing.T) {
	f := newComplaintFixture(t)
	_, err := f.settings.Upsert(SettingInput{Key: domain.ConfigAutoAssign, Value: "true", Type: domain.ConfigTypeBoolean})
	require.NoError(t, err)

	c := f.create(t)
	require.NotNil(t, c.WardOfficerID)
	assert.Equal(t, f.officer.ID, *c.WardOfficerID)

	n, err := f.notify.UnreadCount(f.officer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateComplaintValidation(t *testing.T) {
	f := newComplaintFixture(t)
	actor := &Actor{UserID: f.citizen.ID, Role: domain.RoleCitizen}

	_, err := f.complaints.Create(context.Background(), actor, CreateComplaintInput{ComplaintTypeID: f.typ.ID, WardID: &f.ward.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.complaints.Create(context.Background(), actor, CreateComplaintInput{Description: "x", ComplaintTypeID: 999, WardID: &f.ward.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.complaints.Create(context.Background(), actor, CreateComplaintInput{Description: "x", ComplaintTypeID: f.typ.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestComplaintLifecycle(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.create(t)

	_, err := f.complaints.Assign(ctx, actorOf(f.crew), c.ID, f.crew.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.complaints.Assign(ctx, actorOf(f.officer), c.ID, f.crew.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, got.Status)
	require.NotNil(t, got.AssignedToID)
	assert.Equal(t, f.crew.ID, *got.AssignedToID)

	n, err := f.notify.UnreadCount(f.crew.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.complaints.UpdateStatus(ctx, actorOf(f.crew), c.ID, domain.StatusClosed, "")
	assert.ErrorIs(t, err, ErrForbidden, "maintenance cannot close")

	_, err = f.complaints.UpdateStatus(ctx, actorOf(f.crew), c.ID, domain.StatusInProgress, "On site")
	require.NoError(t, err)
	got, err = f.complaints.UpdateStatus(ctx, actorOf(f.crew), c.ID, domain.StatusResolved, "Bulb replaced")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, got.Status)
	assert.NotNil(t, got.ResolvedOn)
	assert.Equal(t, domain.SLACompleted, got.SLAStatus)

	got, err = f.complaints.Feedback(actorOf(f.citizen), c.ID, 5, "Quick fix")
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 5, *got.Rating)

	got, err = f.complaints.UpdateStatus(ctx, actorOf(f.citizen), c.ID, domain.StatusClosed, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)

	logs, err := f.complaints.StatusLogs(actorOf(f.citizen), c.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 5)

	assert.Positive(t, f.mail.count(), "status updates by staff email the contact address")
}

func TestStatusTransitionRules(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.create(t)

	_, err := f.complaints.UpdateStatus(ctx, actorOf(f.officer), c.ID, domain.StatusResolved, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.complaints.UpdateStatus(ctx, actorOf(f.admin), c.ID, domain.StatusAssigned, "")
	assert.ErrorIs(t, err, ErrInvalidInput, "ASSIGNED needs an assignee")

	_, err = f.complaints.UpdateStatus(ctx, actorOf(f.citizen), c.ID, domain.StatusClosed, "")
	assert.ErrorIs(t, err, ErrForbidden, "citizens close only resolved complaints")

	other := testutil.CreateWard(t, f.db, "Ward 2", nil)
	outsider := testutil.CreateUser(t, f.db, domain.RoleWardOfficer, &other.ID)
	_, err = f.complaints.UpdateStatus(ctx, actorOf(outsider), c.ID, domain.StatusClosed, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.complaints.UpdateStatus(ctx, actorOf(f.admin), c.ID, "DONE", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConcurrentStatusChangeAppliesOnce(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.create(t)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.complaints.UpdateStatus(ctx, actorOf(f.admin), c.ID, domain.StatusClosed, "Duplicate")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	assert.Equal(t, 1, ok)

	logs, err := f.complaints.StatusLogs(actorOf(f.admin), c.ID)
	require.NoError(t, err)
	closed := 0
	for _, l := range logs {
		if l.ToStatus == domain.StatusClosed {
			closed++
			assert.Equal(t, domain.StatusRegistered, l.FromStatus)
		}
	}
	assert.Equal(t, 1, closed)
}

func TestCitizenReopenWindow(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.create(t)
	_, err := f.complaints.Assign(ctx, actorOf(f.admin), c.ID, f.crew.ID, "")
	require.NoError(t, err)
	_, err = f.complaints.UpdateStatus(ctx, actorOf(f.crew), c.ID, domain.StatusInProgress, "")
	require.NoError(t, err)
	_, err = f.complaints.UpdateStatus(ctx, actorOf(f.crew), c.ID, domain.StatusResolved, "")
	require.NoError(t, err)

	f.complaints.now = func() time.Time { return time.Now().UTC().Add(8 * 24 * time.Hour) }
	_, err = f.complaints.UpdateStatus(ctx, actorOf(f.citizen), c.ID, domain.StatusReopened, "Still dark")
	assert.ErrorIs(t, err, ErrReopenWindowClosed)

	f.complaints.now = func() time.Time { return time.Now().UTC().Add(24 * time.Hour) }
	got, err := f.complaints.UpdateStatus(ctx, actorOf(f.citizen), c.ID, domain.StatusReopened, "Still dark")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReopened, got.Status)
	assert.Nil(t, got.ResolvedOn)
	assert.True(t, got.Deadline.After(time.Now().Add(24*time.Hour)), "reopening restarts the SLA clock")
}

func TestComplaintVisibility(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.create(t)
	stranger := testutil.CreateUser(t, f.db, domain.RoleCitizen, nil)

	_, err := f.complaints.Get(actorOf(stranger), c.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.complaints.Get(actorOf(f.crew), c.ID)
	assert.ErrorIs(t, err, ErrForbidden, "not yet assigned")
	_, err = f.complaints.Get(actorOf(f.officer), c.ID)
	assert.NoError(t, err)
	_, err = f.complaints.Get(actorOf(f.admin), 999)
	assert.ErrorIs(t, err, ErrNotFound)

	list, total, err := f.complaints.List(actorOf(stranger), repository.ComplaintFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestComplaintPastSLAIsOverdue(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.create(t)

	f.complaints.now = func() time.Time { return time.Now().UTC().Add(25 * time.Hour) }
	got, err := f.complaints.Get(actorOf(f.citizen), c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SLAOverdue, got.SLAStatus)
}

func TestUpdateComplaintDetails(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.create(t)
	desc := "Two street lights are out"
	got, err := f.complaints.Update(actorOf(f.citizen), c.ID, UpdateComplaintInput{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, got.Description)

	high := domain.PriorityHigh
	_, err = f.complaints.Update(actorOf(f.citizen), c.ID, UpdateComplaintInput{Priority: &high})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err = f.complaints.Update(actorOf(f.officer), c.ID, UpdateComplaintInput{Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, got.Priority)

	_, err = f.complaints.Assign(context.Background(), actorOf(f.officer), c.ID, f.crew.ID, "")
	require.NoError(t, err)
	_, err = f.complaints.Update(actorOf(f.citizen), c.ID, UpdateComplaintInput{Description: &desc})
	assert.ErrorIs(t, err, ErrForbidden, "owners edit only while REGISTERED")
}
