package service

import (
	"testing"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/testutil"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlyAdminsSetBoundaries(t *testing.T) {
	s := newServices(t)
	w, err := s.wards.Create("Ward 7", "")
	require.NoError(t, err)
	poly := testutil.SquareBoundary(8, 76)

	for _, role := range []string{domain.RoleCitizen, domain.RoleWardOfficer, domain.RoleMaintenanceTeam} {
		_, err := s.wards.SetBoundaries(role, w.ID, poly)
		assert.ErrorIs(t, err, ErrForbidden, role)
	}

	got, err := s.wards.SetBoundaries(domain.RoleAdministrator, w.ID, poly)
	require.NoError(t, err)
	c, ok := got.Center()
	require.True(t, ok)
	assert.InDelta(t, 8.5, c.Lat, 1e-9)
	assert.InDelta(t, 76.5, c.Lng, 1e-9)

	_, err = s.wards.SetBoundaries(domain.RoleAdministrator, w.ID, poly[:2])
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDetectArea(t *testing.T) {
	s := newServices(t)
	w, err := s.wards.Create("Fort Kochi", "")
	require.NoError(t, err)
	_, err = s.wards.SetBoundaries(domain.RoleAdministrator, w.ID, testutil.SquareBoundary(9, 76))
	require.NoError(t, err)
	sz, err := s.wards.CreateSubZone(w.ID, "Beach Road", "")
	require.NoError(t, err)
	_, err = s.wards.SetSubZoneBoundaries(domain.RoleAdministrator, w.ID, sz.ID, geo.Polygon{
		{Lat: 9.1, Lng: 76.1}, {Lat: 9.1, Lng: 76.3}, {Lat: 9.3, Lng: 76.3}, {Lat: 9.3, Lng: 76.1},
	})
	require.NoError(t, err)

	m, err := s.wards.DetectArea(geo.Point{Lat: 9.2, Lng: 76.2})
	require.NoError(t, err)
	assert.True(t, m.Exact)
	assert.Equal(t, w.ID, m.Ward.ID)
	require.NotNil(t, m.SubZone)
	assert.Equal(t, sz.ID, m.SubZone.ID)

	m, err = s.wards.DetectArea(geo.Point{Lat: 9.8, Lng: 76.8})
	require.NoError(t, err)
	assert.Nil(t, m.SubZone)

	_, err = s.wards.DetectArea(geo.Point{Lat: 20, Lng: 80})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.wards.DetectArea(geo.Point{Lat: 95, Lng: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDetectAreaNearestFallback(t *testing.T) {
	s := newServices(t)
	w, err := s.wards.Create("Edge", "")
	require.NoError(t, err)
	_, err = s.wards.SetBoundaries(domain.RoleAdministrator, w.ID, geo.Polygon{
		{Lat: 10, Lng: 76}, {Lat: 10, Lng: 76.02}, {Lat: 10.02, Lng: 76.02}, {Lat: 10.02, Lng: 76},
	})
	require.NoError(t, err)

	m, err := s.wards.DetectArea(geo.Point{Lat: 10.04, Lng: 76.01})
	require.NoError(t, err)
	assert.False(t, m.Exact)
	assert.Equal(t, w.ID, m.Ward.ID)
	assert.Less(t, m.DistanceKm, DefaultDetectionRadiusKm)
}

func TestWardCRUD(t *testing.T) {
	s := newServices(t)
	w, err := s.wards.Create("Ward A", "first")
	require.NoError(t, err)
	_, err = s.wards.Create("Ward A", "")
	assert.ErrorIs(t, err, ErrConflict)

	name := "Ward B"
	got, err := s.wards.Update(w.ID, WardInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ward B", got.Name)

	_, err = s.wards.CreateSubZone(w.ID, "Zone 1", "")
	require.NoError(t, err)
	_, err = s.wards.CreateSubZone(w.ID, "Zone 1", "")
	assert.ErrorIs(t, err, ErrConflict)

	typ := testutil.CreateComplaintType(t, s.db, "Drainage", 24)
	testutil.CreateComplaint(t, s.db, typ, w, nil, domain.StatusRegistered)
	assert.ErrorIs(t, s.wards.Delete(w.ID), ErrWardInUse)

	empty, err := s.wards.Create("Ward C", "")
	require.NoError(t, err)
	require.NoError(t, s.wards.Delete(empty.ID))
	_, err = s.wards.Get(empty.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletedNamesCanBeReused(t *testing.T) {
	s := newServices(t)
	w, err := s.wards.Create("Ward D", "old")
	require.NoError(t, err)
	_, err = s.wards.SetBoundaries(domain.RoleAdministrator, w.ID, testutil.SquareBoundary(8, 76))
	require.NoError(t, err)
	sz, err := s.wards.CreateSubZone(w.ID, "Market", "")
	require.NoError(t, err)
	require.NoError(t, s.wards.DeleteSubZone(w.ID, sz.ID))

	again, err := s.wards.CreateSubZone(w.ID, "Market", "rebuilt")
	require.NoError(t, err)
	assert.Equal(t, "rebuilt", again.Description)
	assert.True(t, again.IsActive)

	require.NoError(t, s.wards.Delete(w.ID))
	revived, err := s.wards.Create("Ward D", "new")
	require.NoError(t, err)
	got, err := s.wards.Get(revived.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Description)
	assert.True(t, got.IsActive)
	assert.Empty(t, got.Boundaries, "a revived ward starts without the old boundary")
	assert.Empty(t, got.SubZones, "sub-zones of the deleted ward stay deleted")

	name := "Potholes"
	ct, err := s.types.Create(ComplaintTypeInput{Name: &name})
	require.NoError(t, err)
	require.NoError(t, s.types.Delete(ct.ID))
	hours := 12
	ct, err = s.types.Create(ComplaintTypeInput{Name: &name, SLAHours: &hours})
	require.NoError(t, err)
	got2, err := s.types.Get(ct.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got2.SLAHours)
}
