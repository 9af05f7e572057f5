package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffsync/models"
)

func TestCacheLoadMissing(t *testing.T) {
	cache := NewCache(t.TempDir())

	session, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "nested"))

	companyID := uint(3)
	saved := &Session{
		Token:   "tok-123",
		User:    &models.User{ID: 7, Name: "Ann", Role: models.RoleStaff, Status: models.StatusApproved, CompanyID: &companyID},
		Company: &models.Company{ID: 3, Name: "Acme", HourlyRate: 10},
	}
	require.NoError(t, cache.Save(saved))

	loaded, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "tok-123", loaded.Token)
	require.NotNil(t, loaded.User)
	assert.Equal(t, "Ann", loaded.User.Name)
	assert.Equal(t, models.StatusApproved, loaded.User.Status)
	require.NotNil(t, loaded.Company)
	assert.Equal(t, "Acme", loaded.Company.Name)
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(t.TempDir())
	require.NoError(t, cache.Save(&Session{Token: "tok"}))

	require.NoError(t, cache.Clear())
	session, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, session)

	// Clearing an empty cache is not an error.
	assert.NoError(t, cache.Clear())
}

func TestCacheLoadCorrupted(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("{not json"), 0o600))

	_, err := cache.Load()
	assert.Error(t, err)
}
