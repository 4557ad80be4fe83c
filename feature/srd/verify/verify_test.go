package verify

import (
	"testing"

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

func seedSource(t *testing.T, db *gorm.DB) *models.Source {
	t.Helper()
	source := models.Source{Name: "test-source"}
	require.NoError(t, db.Create(&source).Error)
	return &source
}

func TestEmptyDatabaseIsConsistent(t *testing.T) {
	db := testDB(t)
	report, err := NewVerifier(db, zap.NewNop()).Run()
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, report.Warnings)
}

func TestConsistentGraphPasses(t *testing.T) {
	db := testDB(t)
	source := seedSource(t, db)

	raw := models.RawEntity{
		SourceID: source.ID, EntityType: "spell", SourceKey: "fireball",
		RawJSON: []byte(`{}`), RawHash: "x",
	}
	require.NoError(t, db.Create(&raw).Error)
	spell := models.Spell{
		SourceID: source.ID, SourceKey: "fireball", Name: "Fireball",
		Level: 3, RawEntityID: &raw.ID,
	}
	require.NoError(t, db.Create(&spell).Error)
	class := models.Class{SourceID: source.ID, SourceKey: "wizard", Name: "Wizard"}
	require.NoError(t, db.Create(&class).Error)
	link := models.SpellClassLink{SourceID: source.ID, SpellID: spell.ID, ClassID: class.ID}
	require.NoError(t, db.Create(&link).Error)

	report, err := NewVerifier(db, zap.NewNop()).Run()
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestDanglingRawReference(t *testing.T) {
	db := testDB(t)
	source := seedSource(t, db)

	missing := uint(999)
	spell := models.Spell{
		SourceID: source.ID, SourceKey: "fireball", Name: "Fireball",
		RawEntityID: &missing,
	}
	require.NoError(t, db.Create(&spell).Error)

	report, err := NewVerifier(db, zap.NewNop()).Run()
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Contains(t, report.Errors[0], "Spell missing raw entity")
}

func TestEmptyChoiceGroupAndMissingOwner(t *testing.T) {
	db := testDB(t)
	source := seedSource(t, db)

	group := models.ChoiceGroup{
		SourceID: source.ID, OwnerType: models.OwnerClass, OwnerID: 42,
		ChoiceType: models.ChoiceGeneric, ChooseN: 1, SourceKey: "class:ghost:generic:na:choice",
	}
	require.NoError(t, db.Create(&group).Error)

	report, err := NewVerifier(db, zap.NewNop()).Run()
	require.NoError(t, err)
	require.False(t, report.OK())
	joined := ""
	for _, msg := range report.Errors {
		joined += msg + "\n"
	}
	assert.Contains(t, joined, "Choice group has no options")
	assert.Contains(t, joined, "Choice group missing class owner")
}

func TestPrereqTargetAndReferenceChecks(t *testing.T) {
	db := testDB(t)
	source := seedSource(t, db)

	class := models.Class{SourceID: source.ID, SourceKey: "fighter", Name: "Fighter"}
	require.NoError(t, db.Create(&class).Error)
	feature := models.Feature{SourceID: source.ID, SourceKey: "action-surge", Name: "Action Surge"}
	require.NoError(t, db.Create(&feature).Error)

	good := models.Prerequisite{
		AppliesToType: models.AppliesToFeature, AppliesToID: feature.ID,
		PrereqType: "level", Key: "fighter", Operator: ">=", Value: "2",
	}
	require.NoError(t, db.Create(&good).Error)

	badTarget := models.Prerequisite{
		AppliesToType: models.AppliesToChoiceGroup, AppliesToID: 777,
		PrereqType: "level", Key: "any", Operator: ">=", Value: "1",
	}
	require.NoError(t, db.Create(&badTarget).Error)

	badKey := models.Prerequisite{
		AppliesToType: models.AppliesToFeature, AppliesToID: feature.ID,
		PrereqType: "class", Key: "nonexistent", Operator: "==", Value: "true",
	}
	require.NoError(t, db.Create(&badKey).Error)

	report, err := NewVerifier(db, zap.NewNop()).Run()
	require.NoError(t, err)
	require.False(t, report.OK())
	joined := ""
	for _, msg := range report.Errors {
		joined += msg + "\n"
	}
	assert.Contains(t, joined, "Prerequisite missing choice group apply target")
	assert.Contains(t, joined, "Prerequisite missing class reference")
	assert.NotContains(t, joined, "key=fighter")
}

func TestCoverageHeuristicWarnsNotErrors(t *testing.T) {
	db := testDB(t)
	source := seedSource(t, db)

	raw := models.RawEntity{
		SourceID: source.ID, EntityType: "spell", SourceKey: "fireball",
		RawJSON: []byte(`{}`), RawHash: "x",
	}
	require.NoError(t, db.Create(&raw).Error)
	spell := models.Spell{
		SourceID: source.ID, SourceKey: "fireball", Name: "Fireball",
		Level: 3, RawEntityID: &raw.ID,
	}
	require.NoError(t, db.Create(&spell).Error)
	class := models.Class{SourceID: source.ID, SourceKey: "wizard", Name: "Wizard"}
	require.NoError(t, db.Create(&class).Error)

	report, err := NewVerifier(db, zap.NewNop()).Run()
	require.NoError(t, err)
	assert.True(t, report.OK())
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "no spell class links")
}

func TestGrantOwnerAndReferenceChecks(t *testing.T) {
	db := testDB(t)
	source := seedSource(t, db)

	class := models.Class{SourceID: source.ID, SourceKey: "cleric", Name: "Cleric"}
	require.NoError(t, db.Create(&class).Error)

	grant := models.GrantSpell{
		SourceID: source.ID, OwnerType: "class", OwnerID: class.ID,
		SpellSourceKey: "guidance", Label: "Guidance",
	}
	require.NoError(t, db.Create(&grant).Error)

	orphan := models.GrantProficiency{
		SourceID: source.ID, OwnerType: "feature", OwnerID: 555,
		ProficiencyType: "proficiencies", ProficiencyKey: "light-armor", Label: "Light Armor",
	}
	require.NoError(t, db.Create(&orphan).Error)

	report, err := NewVerifier(db, zap.NewNop()).Run()
	require.NoError(t, err)
	require.False(t, report.OK())
	joined := ""
	for _, msg := range report.Errors {
		joined += msg + "\n"
	}
	assert.Contains(t, joined, "Grant spell missing spells reference")
	assert.Contains(t, joined, "Grant proficiency missing feature owner")
}
