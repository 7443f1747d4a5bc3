package pages_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightholme/internal/pages"
	"brightholme/internal/testsupport"
)

func TestSeedDefaultPages(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	require.NoError(t, pages.SeedDefaultPages(logger, db))

	var count int64
	require.NoError(t, db.Model(&pages.Page{}).Count(&count).Error)
	assert.NotZero(t, count)

	// Seeding again must not duplicate or overwrite.
	require.NoError(t, db.Model(&pages.Page{}).Where("slug = ?", "home").
		Update("name", "Renamed Homepage").Error)
	require.NoError(t, pages.SeedDefaultPages(logger, db))

	var after int64
	require.NoError(t, db.Model(&pages.Page{}).Count(&after).Error)
	assert.Equal(t, count, after)

	var home pages.Page
	require.NoError(t, db.Where("slug = ?", "home").First(&home).Error)
	assert.Equal(t, "Renamed Homepage", home.Name, "admin edits survive reseeding")
}

func TestRegistryDisplayName(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)
	require.NoError(t, pages.SeedDefaultPages(logger, db))

	registry, err := pages.LoadRegistry(db)
	require.NoError(t, err)

	assert.Equal(t, "Stored Title", registry.DisplayName("home", "Stored Title", "/"), "event title wins")
	assert.Equal(t, "Homepage", registry.DisplayName("home", "", "/"))
	assert.Equal(t, "Open-day", registry.DisplayName("open-day", "", "/open-day"), "unknown slug capitalized")
	assert.Equal(t, "/mystery", registry.DisplayName("", "", "/mystery"))
	assert.Equal(t, "Unknown", registry.DisplayName("", "", ""))
}

func TestRegistryPublicURL(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)
	require.NoError(t, pages.SeedDefaultPages(logger, db))

	registry, err := pages.LoadRegistry(db)
	require.NoError(t, err)

	assert.Equal(t, "/", registry.PublicURL("home", "/"))
	assert.Equal(t, "/courses", registry.PublicURL("courses", "/courses"))
	assert.Equal(t, "/some/raw/path", registry.PublicURL("not-registered", "/some/raw/path"))
	assert.Equal(t, "#", registry.PublicURL("", ""))
}
