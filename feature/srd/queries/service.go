// Package queries answers character-sheet-style questions over the derived
// relationship graph: what a class unlocks at a level, which spells it can
// learn, which choices it has to make.
package queries

import (
	"errors"
	"fmt"
	"sort"

	"codex-manager/feature/srd/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service resolves derived queries against the normalized tables.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a query service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// FeatureView is a feature paired with the level it unlocks at. Level is
// the link level when present, otherwise the feature's own level.
type FeatureView struct {
	ID        uint   `json:"id"`
	SourceKey string `json:"source_key"`
	Name      string `json:"name"`
	Level     *int   `json:"level"`
	Desc      string `json:"desc"`
}

// SpellView is the spell-list projection of a spell.
type SpellView struct {
	ID        uint   `json:"id"`
	SourceKey string `json:"source_key"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	School    string `json:"school"`
}

// OptionView is one selectable option inside a choice group.
type OptionView struct {
	ID              uint   `json:"id"`
	OptionType      string `json:"option_type"`
	OptionSourceKey string `json:"option_source_key"`
	RefID           *uint  `json:"ref_id"`
	Label           string `json:"label"`
}

// ChoiceView is a choice group with its options, labels sorted.
type ChoiceView struct {
	ID         uint         `json:"id"`
	ChoiceType string       `json:"choice_type"`
	ChooseN    int          `json:"choose_n"`
	Level      *int         `json:"level"`
	Label      string       `json:"label"`
	Notes      string       `json:"notes"`
	SourceKey  string       `json:"source_key"`
	Options    []OptionView `json:"options"`
}

// ProficiencyView is a proficiency grant with its owner.
type ProficiencyView struct {
	ID              uint   `json:"id"`
	OwnerType       string `json:"owner_type"`
	OwnerID         uint   `json:"owner_id"`
	ProficiencyType string `json:"proficiency_type"`
	ProficiencyKey  string `json:"proficiency_key"`
	Label           string `json:"label"`
}

// AvailableFeatures groups the unlocked features by their origin.
type AvailableFeatures struct {
	ClassFeatures    []FeatureView `json:"class_features"`
	SubclassFeatures []FeatureView `json:"subclass_features"`
}

func effectiveLevel(feature *models.Feature, linkLevel *int) *int {
	if linkLevel != nil {
		return linkLevel
	}
	return feature.Level
}

func featureView(feature *models.Feature, level *int) FeatureView {
	return FeatureView{
		ID:        feature.ID,
		SourceKey: feature.SourceKey,
		Name:      feature.Name,
		Level:     level,
		Desc:      feature.Desc,
	}
}

func sortFeatureViews(views []FeatureView) {
	sort.Slice(views, func(i, j int) bool {
		a, b := 0, 0
		if views[i].Level != nil {
			a = *views[i].Level
		}
		if views[j].Level != nil {
			b = *views[j].Level
		}
		if a != b {
			return a < b
		}
		if views[i].Name != views[j].Name {
			return views[i].Name < views[j].Name
		}
		return views[i].ID < views[j].ID
	})
}

type featureLinkRow struct {
	models.Feature
	LinkLevel *int `gorm:"column:link_level"`
}

func (s *Service) featureLinks(linkTable, ownerColumn string, ownerID uint) ([]featureLinkRow, error) {
	var rows []featureLinkRow
	err := s.db.Table("features").
		Select("features.*, "+linkTable+".level AS link_level").
		Joins("JOIN "+linkTable+" ON "+linkTable+".feature_id = features.id").
		Where(linkTable+"."+ownerColumn+" = ?", ownerID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", linkTable, err)
	}
	return rows, nil
}

// ClassFeaturesAtLevel returns the class features that unlock exactly at
// the requested level.
func (s *Service) ClassFeaturesAtLevel(classID uint, level int) ([]FeatureView, error) {
	rows, err := s.featureLinks("class_features", "class_id", classID)
	if err != nil {
		return nil, err
	}
	return filterAtLevel(rows, level), nil
}

// SubclassFeaturesAtLevel returns the subclass features that unlock
// exactly at the requested level.
func (s *Service) SubclassFeaturesAtLevel(subclassID uint, level int) ([]FeatureView, error) {
	rows, err := s.featureLinks("subclass_features", "subclass_id", subclassID)
	if err != nil {
		return nil, err
	}
	return filterAtLevel(rows, level), nil
}

func filterAtLevel(rows []featureLinkRow, level int) []FeatureView {
	views := []FeatureView{}
	for i := range rows {
		effective := effectiveLevel(&rows[i].Feature, rows[i].LinkLevel)
		if effective != nil && *effective == level {
			views = append(views, featureView(&rows[i].Feature, effective))
		}
	}
	sortFeatureViews(views)
	return views
}

// SpellListForClass returns the class spell list sorted by spell level,
// name, then id.
func (s *Service) SpellListForClass(classID uint) ([]SpellView, error) {
	var spells []models.Spell
	err := s.db.
		Joins("JOIN spell_classes ON spell_classes.spell_id = spells.id").
		Where("spell_classes.class_id = ?", classID).
		Find(&spells).Error
	if err != nil {
		return nil, fmt.Errorf("load spell list: %w", err)
	}

	views := make([]SpellView, 0, len(spells))
	for _, spell := range spells {
		views = append(views, SpellView{
			ID:        spell.ID,
			SourceKey: spell.SourceKey,
			Name:      spell.Name,
			Level:     spell.Level,
			School:    spell.School,
		})
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Level != views[j].Level {
			return views[i].Level < views[j].Level
		}
		if views[i].Name != views[j].Name {
			return views[i].Name < views[j].Name
		}
		return views[i].ID < views[j].ID
	})
	return views, nil
}

// ChoicesForClassAtLevel returns the class choice groups pinned to the
// requested level, each with its options sorted by label.
func (s *Service) ChoicesForClassAtLevel(classID uint, level int) ([]ChoiceView, error) {
	var groups []models.ChoiceGroup
	err := s.db.
		Where("owner_type = ? AND owner_id = ? AND level = ?", models.OwnerClass, classID, level).
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("load choice groups: %w", err)
	}
	if len(groups) == 0 {
		return []ChoiceView{}, nil
	}

	groupIDs := make([]uint, 0, len(groups))
	for _, group := range groups {
		groupIDs = append(groupIDs, group.ID)
	}
	var options []models.ChoiceOption
	if err := s.db.Where("choice_group_id IN ?", groupIDs).Find(&options).Error; err != nil {
		return nil, fmt.Errorf("load choice options: %w", err)
	}
	byGroup := make(map[uint][]models.ChoiceOption)
	for _, option := range options {
		byGroup[option.ChoiceGroupID] = append(byGroup[option.ChoiceGroupID], option)
	}

	views := make([]ChoiceView, 0, len(groups))
	for _, group := range groups {
		groupOptions := byGroup[group.ID]
		sort.Slice(groupOptions, func(i, j int) bool {
			if groupOptions[i].Label != groupOptions[j].Label {
				return groupOptions[i].Label < groupOptions[j].Label
			}
			return groupOptions[i].ID < groupOptions[j].ID
		})
		optionViews := make([]OptionView, 0, len(groupOptions))
		for _, option := range groupOptions {
			optionViews = append(optionViews, OptionView{
				ID:              option.ID,
				OptionType:      option.OptionType,
				OptionSourceKey: option.OptionSourceKey,
				RefID:           option.RefID,
				Label:           option.Label,
			})
		}
		views = append(views, ChoiceView{
			ID:         group.ID,
			ChoiceType: group.ChoiceType,
			ChooseN:    group.ChooseN,
			Level:      group.Level,
			Label:      group.Label,
			Notes:      group.Notes,
			SourceKey:  group.SourceKey,
			Options:    optionViews,
		})
	}
	sort.Slice(views, func(i, j int) bool {
		a, b := 0, 0
		if views[i].Level != nil {
			a = *views[i].Level
		}
		if views[j].Level != nil {
			b = *views[j].Level
		}
		if a != b {
			return a < b
		}
		if views[i].ChoiceType != views[j].ChoiceType {
			return views[i].ChoiceType < views[j].ChoiceType
		}
		return views[i].ID < views[j].ID
	})
	return views, nil
}

// AllAvailableFeatures returns every class and subclass feature unlocked
// at or below the requested level. Features with no resolvable level are
// excluded. SubclassID may be nil.
func (s *Service) AllAvailableFeatures(classID uint, subclassID *uint, level int) (*AvailableFeatures, error) {
	classRows, err := s.featureLinks("class_features", "class_id", classID)
	if err != nil {
		return nil, err
	}
	result := &AvailableFeatures{
		ClassFeatures:    filterAtOrBelow(classRows, level),
		SubclassFeatures: []FeatureView{},
	}
	if subclassID != nil {
		subclassRows, err := s.featureLinks("subclass_features", "subclass_id", *subclassID)
		if err != nil {
			return nil, err
		}
		result.SubclassFeatures = filterAtOrBelow(subclassRows, level)
	}
	return result, nil
}

func filterAtOrBelow(rows []featureLinkRow, level int) []FeatureView {
	views := []FeatureView{}
	for i := range rows {
		effective := effectiveLevel(&rows[i].Feature, rows[i].LinkLevel)
		if effective != nil && *effective <= level {
			views = append(views, featureView(&rows[i].Feature, effective))
		}
	}
	sortFeatureViews(views)
	return views
}

// GrantedProficienciesForClassLevel returns the proficiency grants a
// member of the class picks up at the requested level. Class-level grants
// count only at level one, feature grants at the level the feature
// unlocks.
func (s *Service) GrantedProficienciesForClassLevel(classID uint, level int) ([]ProficiencyView, error) {
	var class models.Class
	if err := s.db.First(&class, classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []ProficiencyView{}, nil
		}
		return nil, fmt.Errorf("load class: %w", err)
	}

	views := []ProficiencyView{}
	appendGrants := func(grants []models.GrantProficiency) {
		for _, grant := range grants {
			views = append(views, ProficiencyView{
				ID:              grant.ID,
				OwnerType:       grant.OwnerType,
				OwnerID:         grant.OwnerID,
				ProficiencyType: grant.ProficiencyType,
				ProficiencyKey:  grant.ProficiencyKey,
				Label:           grant.Label,
			})
		}
	}

	if level == 1 {
		var classGrants []models.GrantProficiency
		err := s.db.
			Where("owner_type = ? AND owner_id = ?", models.OwnerClass, classID).
			Find(&classGrants).Error
		if err != nil {
			return nil, fmt.Errorf("load class grants: %w", err)
		}
		appendGrants(classGrants)
	}

	rows, err := s.featureLinks("class_features", "class_id", classID)
	if err != nil {
		return nil, err
	}
	featureIDs := []uint{}
	for i := range rows {
		effective := effectiveLevel(&rows[i].Feature, rows[i].LinkLevel)
		if effective != nil && *effective == level {
			featureIDs = append(featureIDs, rows[i].Feature.ID)
		}
	}
	if len(featureIDs) > 0 {
		var featureGrants []models.GrantProficiency
		err := s.db.
			Where("owner_type = ? AND owner_id IN ?", models.OwnerFeature, featureIDs).
			Find(&featureGrants).Error
		if err != nil {
			return nil, fmt.Errorf("load feature grants: %w", err)
		}
		appendGrants(featureGrants)
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].ProficiencyType != views[j].ProficiencyType {
			return views[i].ProficiencyType < views[j].ProficiencyType
		}
		if views[i].Label != views[j].Label {
			return views[i].Label < views[j].Label
		}
		return views[i].ID < views[j].ID
	})
	return views, nil
}
