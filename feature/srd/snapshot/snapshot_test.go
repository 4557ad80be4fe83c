package snapshot

import (
	"encoding/json"
	"testing"

	"codex-manager/feature/srd/ingest"
	"codex-manager/feature/srd/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func seedRawSpell(t *testing.T, db *gorm.DB, sourceID uint, key string, level int) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"index": key, "name": key, "level": level})
	require.NoError(t, err)
	_, _, _, err = ingest.UpsertRawEntity(db, sourceID, "spell", key, payload, key, nil, "")
	require.NoError(t, err)
}

func TestDiffWithoutPreviousSnapshot(t *testing.T) {
	changes, err := Diff(nil, &models.ImportSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, []string{"No previous snapshot found."}, changes)
}

func TestSnapshotRecordsCountsAndRunKey(t *testing.T) {
	db := testDB(t)
	source, err := ingest.EnsureSource(db, "open5e", "https://example.test")
	require.NoError(t, err)
	run, err := ingest.BeginRun(db, "ingest", source)
	require.NoError(t, err)
	seedRawSpell(t, db, source.ID, "fireball", 3)

	snap, err := Create(db, source.ID)
	require.NoError(t, err)
	assert.Equal(t, run.RunKey, snap.RunKey)

	var counts map[string]int64
	require.NoError(t, json.Unmarshal([]byte(snap.CountsJSON), &counts))
	assert.Equal(t, int64(1), counts["raw_entities"])
	assert.Equal(t, int64(0), counts["spells"])
	assert.Contains(t, counts, "prerequisites")

	var hashes map[string]string
	require.NoError(t, json.Unmarshal([]byte(snap.HashesJSON), &hashes))
	assert.Contains(t, hashes, "raw_entities_spell")
	assert.Contains(t, hashes, "choice_options")
}

func TestDiffReportsHashChangeWhenCountIsStable(t *testing.T) {
	db := testDB(t)
	source, err := ingest.EnsureSource(db, "open5e", "https://example.test")
	require.NoError(t, err)
	seedRawSpell(t, db, source.ID, "shield", 2)

	older, err := Create(db, source.ID)
	require.NoError(t, err)

	// Same document, one field edited. Row count stays put but the
	// content hash must move.
	seedRawSpell(t, db, source.ID, "shield", 3)
	newer, err := Create(db, source.ID)
	require.NoError(t, err)

	changes, err := Diff(older, newer)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Hash raw_entities changed",
		"Hash raw_entities_spell changed",
	}, changes)
}

func TestDiffCountChangeSuppressesHashEntry(t *testing.T) {
	db := testDB(t)
	source, err := ingest.EnsureSource(db, "open5e", "https://example.test")
	require.NoError(t, err)
	seedRawSpell(t, db, source.ID, "shield", 1)

	older, err := Create(db, source.ID)
	require.NoError(t, err)

	seedRawSpell(t, db, source.ID, "mage-armor", 1)
	newer, err := Create(db, source.ID)
	require.NoError(t, err)

	changes, err := Diff(older, newer)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Count raw_entities: 1 -> 2",
		"Hash raw_entities_spell changed",
	}, changes)
}

func TestDiffNoChanges(t *testing.T) {
	db := testDB(t)
	source, err := ingest.EnsureSource(db, "open5e", "https://example.test")
	require.NoError(t, err)
	seedRawSpell(t, db, source.ID, "light", 0)

	older, err := Create(db, source.ID)
	require.NoError(t, err)
	newer, err := Create(db, source.ID)
	require.NoError(t, err)

	changes, err := Diff(older, newer)
	require.NoError(t, err)
	assert.Equal(t, []string{"No changes detected."}, changes)

	snaps, err := Latest(db, source.ID, 10)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, newer.ID, snaps[0].ID)
}
