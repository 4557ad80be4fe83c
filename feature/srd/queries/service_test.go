package queries

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

type fixture struct {
	db      *gorm.DB
	service *Service
	source  *models.Source
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	source := &models.Source{Name: "open5e", BaseURL: "https://example.test"}
	require.NoError(t, db.Create(source).Error)
	return &fixture{db: db, service: NewService(db, zap.NewNop()), source: source}
}

func intp(v int) *int { return &v }

func (f *fixture) class(t *testing.T, key string) *models.Class {
	t.Helper()
	class := &models.Class{SourceID: f.source.ID, SourceKey: key, Name: key}
	require.NoError(t, f.db.Create(class).Error)
	return class
}

func (f *fixture) subclass(t *testing.T, key string) *models.Subclass {
	t.Helper()
	subclass := &models.Subclass{SourceID: f.source.ID, SourceKey: key, Name: key}
	require.NoError(t, f.db.Create(subclass).Error)
	return subclass
}

func (f *fixture) feature(t *testing.T, key, name string, level *int) *models.Feature {
	t.Helper()
	feature := &models.Feature{SourceID: f.source.ID, SourceKey: key, Name: name, Level: level}
	require.NoError(t, f.db.Create(feature).Error)
	return feature
}

func (f *fixture) spell(t *testing.T, key, name string, level int) *models.Spell {
	t.Helper()
	spell := &models.Spell{SourceID: f.source.ID, SourceKey: key, Name: name, Level: level}
	require.NoError(t, f.db.Create(spell).Error)
	return spell
}

func (f *fixture) linkClassFeature(t *testing.T, classID, featureID uint, level *int) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.ClassFeatureLink{
		SourceID: f.source.ID, ClassID: classID, FeatureID: featureID, Level: level,
	}).Error)
}

func TestClassFeaturesAtLevelUsesLinkLevelFirst(t *testing.T) {
	f := newFixture(t)
	fighter := f.class(t, "fighter")

	secondWind := f.feature(t, "second-wind", "Second Wind", intp(1))
	actionSurge := f.feature(t, "action-surge", "Action Surge", intp(2))
	// Link level 1 overrides the feature's own level.
	relinked := f.feature(t, "fighting-style", "Fighting Style", intp(4))
	unleveled := f.feature(t, "no-level", "No Level", nil)

	f.linkClassFeature(t, fighter.ID, secondWind.ID, nil)
	f.linkClassFeature(t, fighter.ID, actionSurge.ID, intp(2))
	f.linkClassFeature(t, fighter.ID, relinked.ID, intp(1))
	f.linkClassFeature(t, fighter.ID, unleveled.ID, nil)

	views, err := f.service.ClassFeaturesAtLevel(fighter.ID, 1)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Fighting Style", views[0].Name)
	assert.Equal(t, "Second Wind", views[1].Name)

	views, err = f.service.ClassFeaturesAtLevel(fighter.ID, 2)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Action Surge", views[0].Name)
}

func TestSubclassFeaturesAtLevel(t *testing.T) {
	f := newFixture(t)
	champion := f.subclass(t, "champion")
	improved := f.feature(t, "improved-critical", "Improved Critical", intp(3))
	require.NoError(t, f.db.Create(&models.SubclassFeatureLink{
		SourceID: f.source.ID, SubclassID: champion.ID, FeatureID: improved.ID, Level: intp(3),
	}).Error)

	views, err := f.service.SubclassFeaturesAtLevel(champion.ID, 3)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "improved-critical", views[0].SourceKey)

	views, err = f.service.SubclassFeaturesAtLevel(champion.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestSpellListForClassSorted(t *testing.T) {
	f := newFixture(t)
	wizard := f.class(t, "wizard")
	fireball := f.spell(t, "fireball", "Fireball", 3)
	light := f.spell(t, "light", "Light", 0)
	shield := f.spell(t, "shield", "Shield", 1)
	for _, spell := range []*models.Spell{fireball, light, shield} {
		require.NoError(t, f.db.Create(&models.SpellClassLink{
			SourceID: f.source.ID, SpellID: spell.ID, ClassID: wizard.ID,
		}).Error)
	}

	views, err := f.service.SpellListForClass(wizard.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, []string{"Light", "Shield", "Fireball"},
		[]string{views[0].Name, views[1].Name, views[2].Name})
}

func TestChoicesForClassAtLevel(t *testing.T) {
	f := newFixture(t)
	fighter := f.class(t, "fighter")
	group := &models.ChoiceGroup{
		SourceID: f.source.ID, OwnerType: models.OwnerClass, OwnerID: fighter.ID,
		ChoiceType: "fighting_style", ChooseN: 1, Level: intp(1),
		Label: "Fighting Style", SourceKey: "class:fighter:fighting_style:1:fighting-style",
	}
	require.NoError(t, f.db.Create(group).Error)
	for _, label := range []string{"Defense", "Archery"} {
		require.NoError(t, f.db.Create(&models.ChoiceOption{
			ChoiceGroupID: group.ID, OptionType: "feature",
			OptionSourceKey: label, Label: label,
		}).Error)
	}

	views, err := f.service.ChoicesForClassAtLevel(fighter.ID, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "fighting_style", views[0].ChoiceType)
	require.Len(t, views[0].Options, 2)
	assert.Equal(t, "Archery", views[0].Options[0].Label)
	assert.Equal(t, "Defense", views[0].Options[1].Label)

	views, err = f.service.ChoicesForClassAtLevel(fighter.ID, 2)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestAllAvailableFeatures(t *testing.T) {
	f := newFixture(t)
	fighter := f.class(t, "fighter")
	champion := f.subclass(t, "champion")

	secondWind := f.feature(t, "second-wind", "Second Wind", intp(1))
	actionSurge := f.feature(t, "action-surge", "Action Surge", intp(2))
	extraAttack := f.feature(t, "extra-attack", "Extra Attack", intp(5))
	improved := f.feature(t, "improved-critical", "Improved Critical", intp(3))

	f.linkClassFeature(t, fighter.ID, secondWind.ID, nil)
	f.linkClassFeature(t, fighter.ID, actionSurge.ID, intp(2))
	f.linkClassFeature(t, fighter.ID, extraAttack.ID, intp(5))
	require.NoError(t, f.db.Create(&models.SubclassFeatureLink{
		SourceID: f.source.ID, SubclassID: champion.ID, FeatureID: improved.ID, Level: intp(3),
	}).Error)

	result, err := f.service.AllAvailableFeatures(fighter.ID, &champion.ID, 3)
	require.NoError(t, err)
	require.Len(t, result.ClassFeatures, 2)
	assert.Equal(t, "Second Wind", result.ClassFeatures[0].Name)
	assert.Equal(t, "Action Surge", result.ClassFeatures[1].Name)
	require.Len(t, result.SubclassFeatures, 1)
	assert.Equal(t, "Improved Critical", result.SubclassFeatures[0].Name)

	result, err = f.service.AllAvailableFeatures(fighter.ID, nil, 1)
	require.NoError(t, err)
	require.Len(t, result.ClassFeatures, 1)
	assert.Empty(t, result.SubclassFeatures)
}

func TestGrantedProficienciesForClassLevel(t *testing.T) {
	f := newFixture(t)
	fighter := f.class(t, "fighter")
	drill := f.feature(t, "martial-drill", "Martial Drill", intp(2))
	f.linkClassFeature(t, fighter.ID, drill.ID, intp(2))

	require.NoError(t, f.db.Create(&models.GrantProficiency{
		SourceID: f.source.ID, OwnerType: models.OwnerClass, OwnerID: fighter.ID,
		ProficiencyType: "armor", ProficiencyKey: "heavy-armor", Label: "Heavy Armor",
	}).Error)
	require.NoError(t, f.db.Create(&models.GrantProficiency{
		SourceID: f.source.ID, OwnerType: models.OwnerFeature, OwnerID: drill.ID,
		ProficiencyType: "weapon", ProficiencyKey: "glaives", Label: "Glaives",
	}).Error)

	atOne, err := f.service.GrantedProficienciesForClassLevel(fighter.ID, 1)
	require.NoError(t, err)
	require.Len(t, atOne, 1)
	assert.Equal(t, "heavy-armor", atOne[0].ProficiencyKey)

	atTwo, err := f.service.GrantedProficienciesForClassLevel(fighter.ID, 2)
	require.NoError(t, err)
	require.Len(t, atTwo, 1)
	assert.Equal(t, "glaives", atTwo[0].ProficiencyKey)

	missing, err := f.service.GrantedProficienciesForClassLevel(9999, 1)
	require.NoError(t, err)
	assert.Empty(t, missing)
}
