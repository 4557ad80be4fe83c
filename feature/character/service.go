package character

import (
	"fmt"

	"codex-manager/feature/character/models"
)

// Sheet loads a character together with its level history and recorded
// choices.
func (s *Service) Sheet(characterID uint) (*CharacterSheet, error) {
	var row models.Character
	if err := s.db.First(&row, characterID).Error; err != nil {
		return nil, err
	}

	var levels []models.CharacterLevel
	err := s.db.Where("character_id = ?", characterID).Order("level").Find(&levels).Error
	if err != nil {
		return nil, fmt.Errorf("load levels: %w", err)
	}
	var choices []models.CharacterChoice
	err = s.db.Where("character_id = ?", characterID).Order("id").Find(&choices).Error
	if err != nil {
		return nil, fmt.Errorf("load choices: %w", err)
	}

	return &CharacterSheet{Character: row, Levels: levels, Choices: choices}, nil
}
