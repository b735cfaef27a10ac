package service

import (
	"context"
	"testing"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSLAMonitorFlagsOverdueOnce(t *testing.T) {
	s := newServices(t)
	ward := testutil.CreateWard(t, s.db, "Ward S", nil)
	officer := testutil.CreateUser(t, s.db, domain.RoleWardOfficer, &ward.ID)
	typ := testutil.CreateComplaintType(t, s.db, "Sewage", 1)
	late := testutil.CreateComplaint(t, s.db, typ, ward, nil, domain.StatusInProgress)
	testutil.CreateComplaint(t, s.db, testutil.CreateComplaintType(t, s.db, "Parks", 100), ward, nil, domain.StatusRegistered)
	testutil.CreateComplaint(t, s.db, typ, ward, nil, domain.StatusResolved)

	s.monitor.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	res, err := s.monitor.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked, "resolved complaints are skipped")
	assert.Equal(t, 1, res.Breached)
	assert.Equal(t, 1, res.ByStatus[domain.SLAOverdue])
	assert.Equal(t, 1, res.ByStatus[domain.SLAOnTime])

	var got models.Complaint
	require.NoError(t, s.db.First(&got, late.ID).Error)
	assert.Equal(t, domain.SLAOverdue, got.SLAStatus)
	assert.NotNil(t, got.OverdueNotifiedAt)

	n, err := s.notify.UnreadCount(officer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	res, err = s.monitor.Sweep()
	require.NoError(t, err)
	assert.Zero(t, res.Breached)
	n, err = s.notify.UnreadCount(officer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "the officer hears about a breach once")
}

func TestSLAMonitorWarning(t *testing.T) {
	s := newServices(t)
	ward := testutil.CreateWard(t, s.db, "Ward W", nil)
	c := testutil.CreateComplaint(t, s.db, testutil.CreateComplaintType(t, s.db, "Lights", 10), ward, nil, domain.StatusAssigned)

	s.monitor.now = func() time.Time { return time.Now().UTC().Add(9 * time.Hour) }
	res, err := s.monitor.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	var got models.Complaint
	require.NoError(t, s.db.First(&got, c.ID).Error)
	assert.Equal(t, domain.SLAWarning, got.SLAStatus)
}

func TestSLAMonitorStopsOnCancel(t *testing.T) {
	s := newServices(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.monitor.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}
