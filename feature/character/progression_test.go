package character

import (
	"testing"

	charmodels "codex-manager/feature/character/models"
	srdmodels "codex-manager/feature/srd/models"

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
	source  *srdmodels.Source
	hero    *charmodels.Character
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, srdmodels.Migrate(db))
	require.NoError(t, charmodels.Migrate(db))

	source := &srdmodels.Source{Name: "open5e", BaseURL: "https://example.test"}
	require.NoError(t, db.Create(source).Error)
	hero := &charmodels.Character{Name: "Rook"}
	require.NoError(t, db.Create(hero).Error)
	return &fixture{db: db, service: NewService(db, zap.NewNop()), source: source, hero: hero}
}

func intp(v int) *int { return &v }

func (f *fixture) class(t *testing.T, key string) *srdmodels.Class {
	t.Helper()
	class := &srdmodels.Class{SourceID: f.source.ID, SourceKey: key, Name: key}
	require.NoError(t, f.db.Create(class).Error)
	return class
}

func (f *fixture) choiceGroup(t *testing.T, ownerID uint, choiceType string) *srdmodels.ChoiceGroup {
	t.Helper()
	group := &srdmodels.ChoiceGroup{
		SourceID: f.source.ID, OwnerType: srdmodels.OwnerClass, OwnerID: ownerID,
		ChoiceType: choiceType, ChooseN: 1,
		SourceKey: "class:fighter:" + choiceType + ":na:choice",
	}
	require.NoError(t, f.db.Create(group).Error)
	return group
}

func (f *fixture) prereq(t *testing.T, groupID uint, prereqType, key, op, value string) {
	t.Helper()
	require.NoError(t, f.db.Create(&srdmodels.Prerequisite{
		AppliesToType: srdmodels.AppliesToChoiceGroup, AppliesToID: groupID,
		PrereqType: prereqType, Key: key, Operator: op, Value: value,
	}).Error)
}

func TestCompareInt(t *testing.T) {
	assert.True(t, compareInt(">=", 5, 5))
	assert.True(t, compareInt(">", 6, 5))
	assert.False(t, compareInt(">", 5, 5))
	assert.True(t, compareInt("<=", 5, 5))
	assert.True(t, compareInt("<", 4, 5))
	assert.True(t, compareInt("==", 5, 5))
	assert.False(t, compareInt("~=", 5, 5))
}

func TestApplyLevelUpRecordsLevelAndChoice(t *testing.T) {
	f := newFixture(t)
	fighter := f.class(t, "fighter")
	group := f.choiceGroup(t, fighter.ID, "fighting_style")
	option := &srdmodels.ChoiceOption{
		ChoiceGroupID: group.ID, OptionType: "feature",
		OptionSourceKey: "archery", Label: "Archery",
	}
	require.NoError(t, f.db.Create(option).Error)

	row, err := f.service.ApplyLevelUp(LevelUpInput{
		CharacterID: f.hero.ID, ClassID: fighter.ID, Level: 1,
		Choices: []ChoiceSelection{{ChoiceGroupID: group.ID, ChoiceOptionID: &option.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, row.Level)

	var choices []charmodels.CharacterChoice
	require.NoError(t, f.db.Where("character_id = ?", f.hero.ID).Find(&choices).Error)
	require.Len(t, choices, 1)
	assert.Equal(t, "Archery", choices[0].OptionLabel)
	require.NotNil(t, choices[0].ChoiceOptionID)
	assert.Equal(t, option.ID, *choices[0].ChoiceOptionID)
}

func TestApplyLevelUpRejectsDuplicateLevel(t *testing.T) {
	f := newFixture(t)
	fighter := f.class(t, "fighter")

	_, err := f.service.ApplyLevelUp(LevelUpInput{CharacterID: f.hero.ID, ClassID: fighter.ID, Level: 1})
	require.NoError(t, err)

	_, err = f.service.ApplyLevelUp(LevelUpInput{CharacterID: f.hero.ID, ClassID: fighter.ID, Level: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has level 1")
}

func TestApplyLevelUpFailedPrereqRollsBack(t *testing.T) {
	f := newFixture(t)
	fighter := f.class(t, "fighter")
	group := f.choiceGroup(t, fighter.ID, "expertise")
	f.prereq(t, group.ID, srdmodels.PrereqLevel, "any", ">=", "5")

	_, err := f.service.ApplyLevelUp(LevelUpInput{
		CharacterID: f.hero.ID, ClassID: fighter.ID, Level: 1,
		Choices: []ChoiceSelection{{ChoiceGroupID: group.ID, OptionLabel: "Stealth"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prerequisite failed: level >= 5")

	// Nothing sticks when a choice fails.
	var levels []charmodels.CharacterLevel
	require.NoError(t, f.db.Find(&levels).Error)
	assert.Empty(t, levels)
}

func TestLevelPrereqScopedToOtherClassFails(t *testing.T) {
	f := newFixture(t)
	fighter := f.class(t, "fighter")
	f.class(t, "rogue")
	group := f.choiceGroup(t, fighter.ID, "generic")
	f.prereq(t, group.ID, srdmodels.PrereqLevel, "rogue", ">=", "1")

	_, err := f.service.ApplyLevelUp(LevelUpInput{
		CharacterID: f.hero.ID, ClassID: fighter.ID, Level: 3,
		Choices: []ChoiceSelection{{ChoiceGroupID: group.ID, OptionLabel: "anything"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level class rogue")
}

func TestAbilityPrereq(t *testing.T) {
	f := newFixture(t)
	fighter := f.class(t, "fighter")
	group := f.choiceGroup(t, fighter.ID, "generic")
	f.prereq(t, group.ID, srdmodels.PrereqAbility, "str", ">=", "13")

	input := LevelUpInput{
		CharacterID: f.hero.ID, ClassID: fighter.ID, Level: 1,
		Choices: []ChoiceSelection{{ChoiceGroupID: group.ID, OptionLabel: "pick"}},
	}
	_, err := f.service.ApplyLevelUp(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ability str")

	input.AbilityScores = map[string]int{"str": 15}
	_, err = f.service.ApplyLevelUp(input)
	require.NoError(t, err)
}

func TestFeaturePrereqRequiresOwnedFeature(t *testing.T) {
	f := newFixture(t)
	warlock := f.class(t, "warlock")
	pact := &srdmodels.Feature{SourceID: f.source.ID, SourceKey: "pact-of-the-blade", Name: "Pact of the Blade"}
	require.NoError(t, f.db.Create(pact).Error)
	group := f.choiceGroup(t, warlock.ID, "invocation")
	f.prereq(t, group.ID, srdmodels.PrereqFeature, "pact-of-the-blade", "==", "true")

	input := LevelUpInput{
		CharacterID: f.hero.ID, ClassID: warlock.ID, Level: 5,
		Choices: []ChoiceSelection{{ChoiceGroupID: group.ID, OptionLabel: "Thirsting Blade"}},
	}
	_, err := f.service.ApplyLevelUp(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature pact-of-the-blade")

	require.NoError(t, f.db.Create(&charmodels.CharacterFeature{
		CharacterID: f.hero.ID, FeatureID: pact.ID,
	}).Error)
	_, err = f.service.ApplyLevelUp(input)
	require.NoError(t, err)
}

func TestUnsupportedPrereqType(t *testing.T) {
	f := newFixture(t)
	fighter := f.class(t, "fighter")
	group := f.choiceGroup(t, fighter.ID, "generic")
	f.prereq(t, group.ID, "alignment", "lawful-good", "==", "true")

	_, err := f.service.ApplyLevelUp(LevelUpInput{
		CharacterID: f.hero.ID, ClassID: fighter.ID, Level: 1,
		Choices: []ChoiceSelection{{ChoiceGroupID: group.ID, OptionLabel: "x"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported prerequisite type: alignment")
}
