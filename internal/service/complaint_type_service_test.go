package service

import (
	"testing"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInactiveComplaintType(t *testing.T) {
	s := newServices(t)
	name, inactive := "Tree cutting", false
	ct, err := s.types.Create(ComplaintTypeInput{Name: &name, IsActive: &inactive})
	require.NoError(t, err)

	got, err := s.types.Get(ct.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, err := s.types.List(true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUpsertInactiveSetting(t *testing.T) {
	s := newServices(t)
	inactive := false
	_, err := s.settings.Upsert(SettingInput{Key: domain.ConfigAppName, Value: "Hidden", IsActive: &inactive})
	require.NoError(t, err)

	row, err := s.settings.Get(domain.ConfigAppName)
	require.NoError(t, err)
	assert.False(t, row.IsActive)
	assert.Equal(t, "NLC-CMS", s.settings.String(domain.ConfigAppName, "NLC-CMS"), "inactive settings fall back to the default")

	public, err := s.settings.Public()
	require.NoError(t, err)
	assert.NotContains(t, public, domain.ConfigAppName)
}
