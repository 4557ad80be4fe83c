package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"codex-manager/core/srdapi"
	"codex-manager/feature/srd/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func TestCanonicalHashIgnoresKeyOrder(t *testing.T) {
	a, err := CanonicalHash([]byte(`{"b":2,"a":1,"nested":{"y":[1,2],"x":true}}`))
	require.NoError(t, err)
	b, err := CanonicalHash([]byte(`{"nested":{"x":true,"y":[1,2]},"a":1,"b":2}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := CanonicalHash([]byte(`{"a":1,"b":3}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestCanonicalHashRejectsInvalidJSON(t *testing.T) {
	_, err := CanonicalHash([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestEnsureSource(t *testing.T) {
	db := testDB(t)

	src, err := EnsureSource(db, "5e-bits", "https://www.dnd5eapi.co")
	require.NoError(t, err)
	assert.NotZero(t, src.ID)

	again, err := EnsureSource(db, "5e-bits", "https://www.dnd5eapi.co")
	require.NoError(t, err)
	assert.Equal(t, src.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.Source{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertRawEntityLifecycle(t *testing.T) {
	db := testDB(t)
	src, err := EnsureSource(db, "5e-bits", "")
	require.NoError(t, err)

	payload := []byte(`{"index":"fireball","name":"Fireball","level":3}`)
	row, created, updated, err := UpsertRawEntity(db, src.ID, "spell", "fireball", payload, "Fireball", nil, "/api/spells/fireball")
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, updated)
	firstHash := row.RawHash
	firstRetrieved := row.RetrievedAt

	// Same content in a different key order is a no-op beyond freshness.
	reordered := []byte(`{"level":3,"name":"Fireball","index":"fireball"}`)
	row2, created, updated, err := UpsertRawEntity(db, src.ID, "spell", "fireball", reordered, "Fireball", nil, "/api/spells/fireball")
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, updated)
	assert.Equal(t, row.ID, row2.ID)
	assert.Equal(t, firstHash, row2.RawHash)
	assert.False(t, row2.RetrievedAt.Before(firstRetrieved))

	// Changed content rewrites the row.
	changed := []byte(`{"index":"fireball","name":"Fireball","level":4}`)
	row3, created, updated, err := UpsertRawEntity(db, src.ID, "spell", "fireball", changed, "Fireball", nil, "/api/spells/fireball")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, updated)
	assert.Equal(t, row.ID, row3.ID)
	assert.NotEqual(t, firstHash, row3.RawHash)

	var count int64
	require.NoError(t, db.Model(&models.RawEntity{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// fakeSource serves a fixed catalog without any network.
type fakeSource struct {
	docs map[string]map[string]string
}

func (f *fakeSource) ListResources(_ context.Context, kind string) ([]srdapi.ResourceRef, error) {
	refs := make([]srdapi.ResourceRef, 0)
	for key := range f.docs[kind] {
		refs = append(refs, srdapi.ResourceRef{Key: key, URL: fmt.Sprintf("/api/%s/%s", kind, key)})
	}
	return refs, nil
}

func (f *fakeSource) FetchByKey(_ context.Context, kind, key string) (json.RawMessage, error) {
	doc, ok := f.docs[kind][key]
	if !ok {
		return nil, fmt.Errorf("not found: %s/%s", kind, key)
	}
	return json.RawMessage(doc), nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{docs: map[string]map[string]string{
		"classes": {
			"fighter": `{"index":"fighter","name":"Fighter","hit_die":10,"url":"/api/classes/fighter"}`,
		},
		"spells": {
			"fireball": `{"index":"fireball","name":"Fireball","level":3,"school":{"index":"evocation","name":"Evocation"},"desc":["A bright streak."],"url":"/api/spells/fireball"}`,
			"shield":   `{"index":"shield","name":"Shield","level":1,"school":{"index":"abjuration","name":"Abjuration"},"url":"/api/spells/shield"}`,
		},
	}}
}

func TestImporterRunAndIdempotence(t *testing.T) {
	db := testDB(t)
	src, err := EnsureSource(db, "test-source", "")
	require.NoError(t, err)

	imp := NewImporter(db, newFakeSource(), nil, zap.NewNop())
	run, err := imp.Run(context.Background(), src, []string{"classes", "spells"})
	require.NoError(t, err)
	assert.Equal(t, models.RunSuccess, run.Status)
	// 3 raw rows plus 3 projection rows.
	assert.Equal(t, 6, run.CreatedRows)
	assert.Equal(t, 0, run.UpdatedRows)

	var notes map[string]int
	require.NoError(t, json.Unmarshal([]byte(run.Notes), &notes))
	assert.Equal(t, map[string]int{"classes": 1, "spells": 2}, notes)

	var spell models.Spell
	require.NoError(t, db.Where("source_key = ?", "fireball").First(&spell).Error)
	assert.Equal(t, "Fireball", spell.Name)
	assert.Equal(t, 3, spell.Level)
	assert.Equal(t, "Evocation", spell.School)
	assert.NotNil(t, spell.RawEntityID)

	// A second pass over identical upstream content writes nothing.
	run2, err := imp.Run(context.Background(), src, []string{"classes", "spells"})
	require.NoError(t, err)
	assert.Equal(t, 0, run2.CreatedRows)
	assert.Equal(t, 0, run2.UpdatedRows)
	assert.NotEqual(t, run.RunKey, run2.RunKey)

	var rawCount, spellCount int64
	require.NoError(t, db.Model(&models.RawEntity{}).Count(&rawCount).Error)
	require.NoError(t, db.Model(&models.Spell{}).Count(&spellCount).Error)
	assert.Equal(t, int64(3), rawCount)
	assert.Equal(t, int64(2), spellCount)
}

func TestImporterRejectsUnknownKind(t *testing.T) {
	db := testDB(t)
	src, err := EnsureSource(db, "test-source", "")
	require.NoError(t, err)

	imp := NewImporter(db, newFakeSource(), nil, zap.NewNop())
	_, err = imp.Run(context.Background(), src, []string{"planes"})
	assert.ErrorContains(t, err, "unknown kind")
}
