// Package character stores characters and applies level-ups against the
// derived rules graph. Prerequisites attached to choice groups are
// evaluated before a selection is recorded; the first failing
// prerequisite aborts the level-up.
package character

import (
	"errors"
	"fmt"
	"strconv"

	charmodels "codex-manager/feature/character/models"
	srdmodels "codex-manager/feature/srd/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service applies character progression.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a progression service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// ChoiceSelection is one selection a player makes during a level-up.
// Either ChoiceOptionID or OptionLabel identifies the picked option; when
// both are set the option's stored label wins.
type ChoiceSelection struct {
	ChoiceGroupID  uint   `json:"choice_group_id"`
	ChoiceOptionID *uint  `json:"choice_option_id"`
	OptionLabel    string `json:"option_label"`
}

// LevelUpInput describes one level-up request.
type LevelUpInput struct {
	CharacterID   uint              `json:"character_id"`
	ClassID       uint              `json:"class_id"`
	SubclassID    *uint             `json:"subclass_id"`
	Level         int               `json:"level"`
	Choices       []ChoiceSelection `json:"choices"`
	AbilityScores map[string]int    `json:"ability_scores"`
}

func compareInt(operator string, left, right int) bool {
	switch operator {
	case ">=":
		return left >= right
	case ">":
		return left > right
	case "<=":
		return left <= right
	case "<":
		return left < right
	case "==":
		return left == right
	default:
		return false
	}
}

// ValidatePrereqs checks every prerequisite against the character's state.
// The first failure is returned as an error naming the requirement.
func (s *Service) ValidatePrereqs(
	tx *gorm.DB,
	characterID uint,
	classID uint,
	subclassID *uint,
	level int,
	prereqs []srdmodels.Prerequisite,
	abilityScores map[string]int,
) error {
	var class srdmodels.Class
	if err := tx.First(&class, classID).Error; err != nil {
		return fmt.Errorf("load class: %w", err)
	}
	subclassKey := ""
	if subclassID != nil {
		var subclass srdmodels.Subclass
		err := tx.First(&subclass, *subclassID).Error
		if err == nil {
			subclassKey = subclass.SourceKey
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load subclass: %w", err)
		}
	}

	var owned []charmodels.CharacterFeature
	if err := tx.Where("character_id = ?", characterID).Find(&owned).Error; err != nil {
		return fmt.Errorf("load character features: %w", err)
	}
	ownedFeatures := make(map[uint]struct{}, len(owned))
	for _, entry := range owned {
		ownedFeatures[entry.FeatureID] = struct{}{}
	}

	for _, prereq := range prereqs {
		switch prereq.PrereqType {
		case srdmodels.PrereqClass:
			if prereq.Key != class.SourceKey {
				return fmt.Errorf("prerequisite failed: class %s", prereq.Key)
			}
		case srdmodels.PrereqSubclass:
			if subclassKey == "" || prereq.Key != subclassKey {
				return fmt.Errorf("prerequisite failed: subclass %s", prereq.Key)
			}
		case srdmodels.PrereqFeature:
			var feature srdmodels.Feature
			err := tx.Where("source_key = ?", prereq.Key).First(&feature).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("prerequisite failed: feature %s", prereq.Key)
			}
			if err != nil {
				return fmt.Errorf("load feature: %w", err)
			}
			if _, ok := ownedFeatures[feature.ID]; !ok {
				return fmt.Errorf("prerequisite failed: feature %s", prereq.Key)
			}
		case srdmodels.PrereqLevel:
			if prereq.Key != "any" && prereq.Key != class.SourceKey {
				return fmt.Errorf("prerequisite failed: level class %s", prereq.Key)
			}
			required, err := strconv.Atoi(prereq.Value)
			if err != nil {
				return fmt.Errorf("bad level prerequisite value %q: %w", prereq.Value, err)
			}
			if !compareInt(prereq.Operator, level, required) {
				return fmt.Errorf("prerequisite failed: level %s %s", prereq.Operator, prereq.Value)
			}
		case srdmodels.PrereqAbility:
			if abilityScores == nil {
				return fmt.Errorf("prerequisite failed: ability %s", prereq.Key)
			}
			score, ok := abilityScores[prereq.Key]
			if !ok {
				return fmt.Errorf("prerequisite failed: ability %s", prereq.Key)
			}
			required, err := strconv.Atoi(prereq.Value)
			if err != nil {
				return fmt.Errorf("bad ability prerequisite value %q: %w", prereq.Value, err)
			}
			if !compareInt(prereq.Operator, score, required) {
				return fmt.Errorf("prerequisite failed: ability %s", prereq.Key)
			}
		default:
			return fmt.Errorf("unsupported prerequisite type: %s", prereq.PrereqType)
		}
	}
	return nil
}

// ApplyLevelUp records one level taken by a character together with the
// choices made at that level. Duplicate levels are rejected and nothing
// is written when any selection fails its prerequisites.
func (s *Service) ApplyLevelUp(input LevelUpInput) (*charmodels.CharacterLevel, error) {
	var levelRow *charmodels.CharacterLevel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing charmodels.CharacterLevel
		err := tx.Where("character_id = ? AND level = ?", input.CharacterID, input.Level).
			First(&existing).Error
		if err == nil {
			return fmt.Errorf("character already has level %d", input.Level)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load character level: %w", err)
		}

		levelRow = &charmodels.CharacterLevel{
			CharacterID: input.CharacterID,
			ClassID:     input.ClassID,
			SubclassID:  input.SubclassID,
			Level:       input.Level,
		}
		if err := tx.Create(levelRow).Error; err != nil {
			return fmt.Errorf("create character level: %w", err)
		}

		for _, choice := range input.Choices {
			if choice.ChoiceGroupID == 0 {
				return errors.New("choice missing choice_group_id")
			}
			var group srdmodels.ChoiceGroup
			if err := tx.First(&group, choice.ChoiceGroupID).Error; err != nil {
				return fmt.Errorf("load choice group %d: %w", choice.ChoiceGroupID, err)
			}
			var prereqs []srdmodels.Prerequisite
			err := tx.Where("applies_to_type = ? AND applies_to_id = ?",
				srdmodels.AppliesToChoiceGroup, group.ID).Find(&prereqs).Error
			if err != nil {
				return fmt.Errorf("load prerequisites: %w", err)
			}
			if err := s.ValidatePrereqs(tx, input.CharacterID, input.ClassID,
				input.SubclassID, input.Level, prereqs, input.AbilityScores); err != nil {
				return err
			}

			label := choice.OptionLabel
			if choice.ChoiceOptionID != nil {
				var option srdmodels.ChoiceOption
				err := tx.First(&option, *choice.ChoiceOptionID).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("choice option not found: %d", *choice.ChoiceOptionID)
				}
				if err != nil {
					return fmt.Errorf("load choice option: %w", err)
				}
				label = option.Label
			}
			record := charmodels.CharacterChoice{
				CharacterID:    input.CharacterID,
				ChoiceGroupID:  group.ID,
				ChoiceOptionID: choice.ChoiceOptionID,
				OptionLabel:    label,
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("create character choice: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("level-up applied",
		zap.Uint("characterID", input.CharacterID),
		zap.Int("level", input.Level))
	return levelRow, nil
}
