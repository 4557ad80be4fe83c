package srd

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"codex-manager/feature/srd/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB, *models.Source) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	source := &models.Source{Name: "open5e", BaseURL: "https://example.test"}
	require.NoError(t, db.Create(source).Error)

	app := fiber.New()
	feature := NewFeature(db, zap.NewNop())
	require.NoError(t, feature.Load(app))
	return app, db, source
}

func intp(v int) *int { return &v }

func TestHandleListClasses(t *testing.T) {
	app, db, source := setupTestApp(t)
	for _, key := range []string{"wizard", "fighter"} {
		require.NoError(t, db.Create(&models.Class{
			SourceID: source.ID, SourceKey: key, Name: key,
		}).Error)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/srd/classes", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var classes []models.Class
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&classes))
	require.Len(t, classes, 2)
	assert.Equal(t, "fighter", classes[0].SourceKey)
}

func TestHandleGetClassNotFound(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/srd/classes/bard", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleClassFeaturesAtLevel(t *testing.T) {
	app, db, source := setupTestApp(t)
	fighter := &models.Class{SourceID: source.ID, SourceKey: "fighter", Name: "Fighter"}
	require.NoError(t, db.Create(fighter).Error)
	secondWind := &models.Feature{
		SourceID: source.ID, SourceKey: "second-wind", Name: "Second Wind", Level: intp(1),
	}
	require.NoError(t, db.Create(secondWind).Error)
	require.NoError(t, db.Create(&models.ClassFeatureLink{
		SourceID: source.ID, ClassID: fighter.ID, FeatureID: secondWind.ID, Level: intp(1),
	}).Error)

	resp, err := app.Test(httptest.NewRequest("GET", "/srd/classes/fighter/features?level=1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var views []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, "Second Wind", views[0]["name"])

	resp, err = app.Test(httptest.NewRequest("GET", "/srd/classes/fighter/features?level=9", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	views = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	assert.Empty(t, views)
}

func TestHandleVerifyCleanDatabase(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/srd/verify", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report struct {
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Empty(t, report.Errors)
}

func TestHandleSnapshotDiffWithoutSnapshots(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/srd/sources/1/diff", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"No previous snapshot found."}, body["changes"])
}
