package models

import "time"

// Character is a stored character record. No rule enforcement lives here;
// progression logic validates prerequisites before rows are written.
type Character struct {
	ID    uint   `gorm:"column:id;primaryKey"`
	Name  string `gorm:"column:name;not null;index"`
	Notes string `gorm:"column:notes;type:text"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Character) TableName() string {
	return "characters"
}

// CharacterLevel records one level taken in a class, optionally with a
// subclass. A character holds at most one row per level.
type CharacterLevel struct {
	ID          uint  `gorm:"column:id;primaryKey"`
	CharacterID uint  `gorm:"column:character_id;not null;index;uniqueIndex:uq_character_levels"`
	ClassID     uint  `gorm:"column:class_id;not null"`
	SubclassID  *uint `gorm:"column:subclass_id"`
	Level       int   `gorm:"column:level;not null;uniqueIndex:uq_character_levels"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (CharacterLevel) TableName() string {
	return "character_levels"
}

// CharacterChoice records one resolved selection from a choice group.
type CharacterChoice struct {
	ID             uint   `gorm:"column:id;primaryKey"`
	CharacterID    uint   `gorm:"column:character_id;not null;index"`
	ChoiceGroupID  uint   `gorm:"column:choice_group_id;not null;index"`
	ChoiceOptionID *uint  `gorm:"column:choice_option_id"`
	OptionLabel    string `gorm:"column:option_label"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (CharacterChoice) TableName() string {
	return "character_choices"
}

// CharacterFeature records a feature the character possesses, used when
// evaluating feature prerequisites.
type CharacterFeature struct {
	ID          uint `gorm:"column:id;primaryKey"`
	CharacterID uint `gorm:"column:character_id;not null;index;uniqueIndex:uq_character_features"`
	FeatureID   uint `gorm:"column:feature_id;not null;uniqueIndex:uq_character_features"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (CharacterFeature) TableName() string {
	return "character_features"
}

// CharacterKnownSpell records a spell the character knows.
type CharacterKnownSpell struct {
	ID          uint `gorm:"column:id;primaryKey"`
	CharacterID uint `gorm:"column:character_id;not null;index;uniqueIndex:uq_character_known_spells"`
	SpellID     uint `gorm:"column:spell_id;not null;uniqueIndex:uq_character_known_spells"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (CharacterKnownSpell) TableName() string {
	return "character_known_spells"
}

// CharacterPreparedSpell records a spell the character has prepared.
type CharacterPreparedSpell struct {
	ID          uint `gorm:"column:id;primaryKey"`
	CharacterID uint `gorm:"column:character_id;not null;index;uniqueIndex:uq_character_prepared_spells"`
	SpellID     uint `gorm:"column:spell_id;not null;uniqueIndex:uq_character_prepared_spells"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (CharacterPreparedSpell) TableName() string {
	return "character_prepared_spells"
}

// InventoryItem is a named stack of carried items.
type InventoryItem struct {
	ID          uint   `gorm:"column:id;primaryKey"`
	CharacterID uint   `gorm:"column:character_id;not null;index;uniqueIndex:uq_inventory_items"`
	Name        string `gorm:"column:name;not null;uniqueIndex:uq_inventory_items"`
	Quantity    int    `gorm:"column:quantity;not null;default:1"`
	Notes       string `gorm:"column:notes;type:text"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (InventoryItem) TableName() string {
	return "inventory_items"
}
