package models

import "time"

// GrantProficiency records a proficiency bestowed by an owner entity.
// Identity is (source, owner, proficiency type, key, label); there is no
// resolved reference because proficiencies are not normalized entities.
type GrantProficiency struct {
	ID              uint   `gorm:"column:id;primaryKey"`
	SourceID        uint   `gorm:"column:source_id;not null;index;uniqueIndex:uq_grant_proficiencies_owner"`
	OwnerType       string `gorm:"column:owner_type;not null;index:ix_grant_proficiencies_owner;uniqueIndex:uq_grant_proficiencies_owner"`
	OwnerID         uint   `gorm:"column:owner_id;not null;index:ix_grant_proficiencies_owner;uniqueIndex:uq_grant_proficiencies_owner"`
	ProficiencyType string `gorm:"column:proficiency_type;not null;index;uniqueIndex:uq_grant_proficiencies_owner"`
	ProficiencyKey  string `gorm:"column:proficiency_key;not null;uniqueIndex:uq_grant_proficiencies_owner"`
	Label           string `gorm:"column:label;not null;uniqueIndex:uq_grant_proficiencies_owner"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (GrantProficiency) TableName() string {
	return "grant_proficiencies"
}

// GrantSpell records a spell bestowed by an owner entity. SpellID is the
// resolved reference, nil when the spell has not been normalized yet; a
// later pass may fill it in without changing the grant's identity.
type GrantSpell struct {
	ID             uint   `gorm:"column:id;primaryKey"`
	SourceID       uint   `gorm:"column:source_id;not null;index;uniqueIndex:uq_grant_spells_owner"`
	OwnerType      string `gorm:"column:owner_type;not null;index:ix_grant_spells_owner;uniqueIndex:uq_grant_spells_owner"`
	OwnerID        uint   `gorm:"column:owner_id;not null;index:ix_grant_spells_owner;uniqueIndex:uq_grant_spells_owner"`
	SpellSourceKey string `gorm:"column:spell_source_key;not null;uniqueIndex:uq_grant_spells_owner"`
	Label          string `gorm:"column:label;not null;uniqueIndex:uq_grant_spells_owner"`
	SpellID        *uint  `gorm:"column:spell_id;index"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (GrantSpell) TableName() string {
	return "grant_spells"
}

// GrantFeature records a feature bestowed by an owner entity.
type GrantFeature struct {
	ID               uint   `gorm:"column:id;primaryKey"`
	SourceID         uint   `gorm:"column:source_id;not null;index;uniqueIndex:uq_grant_features_owner"`
	OwnerType        string `gorm:"column:owner_type;not null;index:ix_grant_features_owner;uniqueIndex:uq_grant_features_owner"`
	OwnerID          uint   `gorm:"column:owner_id;not null;index:ix_grant_features_owner;uniqueIndex:uq_grant_features_owner"`
	FeatureSourceKey string `gorm:"column:feature_source_key;not null;uniqueIndex:uq_grant_features_owner"`
	Label            string `gorm:"column:label;not null;uniqueIndex:uq_grant_features_owner"`
	FeatureID        *uint  `gorm:"column:feature_id;index"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (GrantFeature) TableName() string {
	return "grant_features"
}
