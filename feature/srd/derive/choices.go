package derive

import (
	"fmt"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

// ChoiceStats summarizes one choice-extraction pass.
type ChoiceStats struct {
	GroupsCreated  int
	OptionsCreated int
	UnresolvedRefs int
}

type groupKey struct {
	ownerType  string
	ownerID    uint
	choiceType string
	level      int
	sourceKey  string
}

type optionKey struct {
	groupID         uint
	optionType      string
	optionSourceKey string
	label           string
}

func levelKey(level *int) int {
	if level == nil {
		return -1
	}
	return *level
}

// choiceIdentity recomputes the per-node fields that feed the stable group
// key: the unlock level, the label, the normalized options, and the
// inferred choice type. The prerequisite pass reuses it so that a group
// extracted here can be found again by key alone.
func choiceIdentity(choice map[string]any, payload map[string]any, owner *ownerRef, ownerType string) (level *int, label, choiceType, sourceKey string, options []any) {
	level = firstInt(choice, "level")
	if level == nil {
		level = firstInt(payload, "level")
	}
	if level == nil && owner.level != nil {
		level = owner.level
	}
	label = choiceLabel(choice)
	options = extractOptions(choice)
	choiceType = InferChoiceType(choice, options, owner.name, owner.sourceKey)
	if label == "" {
		label = defaultChoiceLabel(choiceType)
	}
	sourceKey = buildChoiceSourceKey(ownerType, owner.sourceKey, choiceType, level, label)
	return level, label, choiceType, sourceKey, options
}

// ExtractChoices walks every raw class and feature document for the source
// and materializes choice groups and options. Existing rows are preloaded
// and matched by stable identity, so an unchanged document writes nothing.
func ExtractChoices(db *gorm.DB, rc *Context) (*ChoiceStats, error) {
	stats := &ChoiceStats{}

	var existingGroups []models.ChoiceGroup
	if err := db.Where("source_id = ?", rc.Source.ID).Find(&existingGroups).Error; err != nil {
		return nil, fmt.Errorf("load choice groups: %w", err)
	}
	groupLookup := make(map[groupKey]*models.ChoiceGroup, len(existingGroups))
	for i := range existingGroups {
		g := &existingGroups[i]
		groupLookup[groupKey{g.OwnerType, g.OwnerID, g.ChoiceType, levelKey(g.Level), g.SourceKey}] = g
	}

	var existingOptions []models.ChoiceOption
	err := db.
		Joins("JOIN choice_groups ON choice_groups.id = choice_options.choice_group_id").
		Where("choice_groups.source_id = ?", rc.Source.ID).
		Find(&existingOptions).Error
	if err != nil {
		return nil, fmt.Errorf("load choice options: %w", err)
	}
	optionKeys := make(map[optionKey]struct{}, len(existingOptions))
	for _, o := range existingOptions {
		optionKeys[optionKey{o.ChoiceGroupID, o.OptionType, o.OptionSourceKey, o.Label}] = struct{}{}
	}

	raws, err := rawEntities(db, rc.Source.ID, models.OwnerClass, models.OwnerFeature)
	if err != nil {
		return nil, err
	}

	for i := range raws {
		raw := &raws[i]
		owner := rc.resolveOwner(raw)
		if owner == nil {
			continue
		}
		payload := decodePayload(raw)

		for _, choice := range collectChoiceNodes(payload) {
			chooseN := firstInt(choice, "choose", "choose_n", "count")
			if chooseN == nil {
				continue
			}
			level, label, choiceType, sourceKey, options := choiceIdentity(choice, payload, owner, raw.EntityType)

			key := groupKey{raw.EntityType, owner.id, choiceType, levelKey(level), sourceKey}
			group := groupLookup[key]
			if group == nil {
				group = &models.ChoiceGroup{
					SourceID:   rc.Source.ID,
					OwnerType:  raw.EntityType,
					OwnerID:    owner.id,
					ChoiceType: choiceType,
					ChooseN:    *chooseN,
					Level:      level,
					Label:      label,
					Notes:      choiceNotes(choice),
					SourceKey:  sourceKey,
				}
				if err := db.Create(group).Error; err != nil {
					return nil, fmt.Errorf("create choice group %s: %w", sourceKey, err)
				}
				stats.GroupsCreated++
				groupLookup[key] = group
			}

			defaultType := defaultOptionType(choiceType)
			for _, option := range options {
				rawType, optSourceKey, optLabel := parseOption(option, defaultType)
				optType := normalizeOptionType(rawType)
				oKey := optionKey{group.ID, optType, optSourceKey, optLabel}
				if _, seen := optionKeys[oKey]; seen {
					continue
				}

				var refID *uint
				switch optType {
				case "feature":
					if feature, ok := rc.Features[optSourceKey]; ok {
						refID = &feature.ID
					} else {
						stats.UnresolvedRefs++
					}
				case "spell":
					if spell, ok := rc.Spells[optSourceKey]; ok {
						refID = &spell.ID
					} else {
						stats.UnresolvedRefs++
					}
				}

				row := models.ChoiceOption{
					ChoiceGroupID:   group.ID,
					OptionType:      optType,
					OptionSourceKey: optSourceKey,
					Label:           optLabel,
					RefID:           refID,
				}
				if err := db.Create(&row).Error; err != nil {
					return nil, fmt.Errorf("create choice option %s/%s: %w", sourceKey, optSourceKey, err)
				}
				optionKeys[oKey] = struct{}{}
				stats.OptionsCreated++
			}
		}
	}

	return stats, nil
}
