package models

import "time"

// Choice group owner types.
const (
	OwnerClass    = "class"
	OwnerSubclass = "subclass"
	OwnerFeature  = "feature"
)

// Choice type vocabulary. Inference is heuristic; see the derive package.
const (
	ChoiceFightingStyle = "fighting_style"
	ChoiceExpertise     = "expertise"
	ChoiceInvocation    = "invocation"
	ChoiceSpell         = "spell"
	ChoiceGeneric       = "generic"
)

// ChoiceGroup represents one "pick N" decision point owned by a class,
// subclass, or feature. SourceKey is the derived stable key
// "{owner_type}:{owner_key}:{choice_type}:{level|na}:{slug(label)}" that
// makes re-runs idempotent: the same logical choice point recomputed from
// an updated document maps to the same row even if its option set grew.
type ChoiceGroup struct {
	ID         uint   `gorm:"column:id;primaryKey"`
	SourceID   uint   `gorm:"column:source_id;not null;index;uniqueIndex:uq_choice_groups_owner_choice"`
	OwnerType  string `gorm:"column:owner_type;not null;index:ix_choice_groups_owner;uniqueIndex:uq_choice_groups_owner_choice"`
	OwnerID    uint   `gorm:"column:owner_id;not null;index:ix_choice_groups_owner;uniqueIndex:uq_choice_groups_owner_choice"`
	ChoiceType string `gorm:"column:choice_type;not null;uniqueIndex:uq_choice_groups_owner_choice"`
	ChooseN    int    `gorm:"column:choose_n;not null"`
	Level      *int   `gorm:"column:level;uniqueIndex:uq_choice_groups_owner_choice"`
	Label      string `gorm:"column:label"`
	Notes      string `gorm:"column:notes;type:text"`
	SourceKey  string `gorm:"column:source_key;not null;index;uniqueIndex:uq_choice_groups_owner_choice"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (ChoiceGroup) TableName() string {
	return "choice_groups"
}

// ChoiceOption is one selectable option within a choice group. RefID is
// the resolved id into the table OptionType points at (features, spells),
// nil when the reference could not be resolved at extraction time.
type ChoiceOption struct {
	ID              uint   `gorm:"column:id;primaryKey"`
	ChoiceGroupID   uint   `gorm:"column:choice_group_id;not null;index;uniqueIndex:uq_choice_options_group_option"`
	OptionType      string `gorm:"column:option_type;not null;uniqueIndex:uq_choice_options_group_option"`
	OptionSourceKey string `gorm:"column:option_source_key;not null;uniqueIndex:uq_choice_options_group_option"`
	Label           string `gorm:"column:label;not null;uniqueIndex:uq_choice_options_group_option"`
	RefID           *uint  `gorm:"column:ref_id"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (ChoiceOption) TableName() string {
	return "choice_options"
}

// Prerequisite supported values.
const (
	AppliesToFeature     = "feature"
	AppliesToChoiceGroup = "choice_group"

	PrereqLevel    = "level"
	PrereqClass    = "class"
	PrereqSubclass = "subclass"
	PrereqAbility  = "ability"
	PrereqFeature  = "feature"
)

// Prerequisite gates a feature or a choice group. Value is stringified and
// interpreted per PrereqType: an integer for level/ability comparisons, the
// sentinel "true" for identity checks. For level prerequisites Key is the
// required class source key, or "any" when no class is specified.
type Prerequisite struct {
	ID            uint   `gorm:"column:id;primaryKey"`
	AppliesToType string `gorm:"column:applies_to_type;not null;index:ix_prerequisites_applies_to"`
	AppliesToID   uint   `gorm:"column:applies_to_id;not null;index:ix_prerequisites_applies_to"`
	PrereqType    string `gorm:"column:prereq_type;not null"`
	Key           string `gorm:"column:prereq_key;not null"`
	Operator      string `gorm:"column:operator;not null"`
	Value         string `gorm:"column:prereq_value;not null"`
	Notes         string `gorm:"column:notes;type:text"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Prerequisite) TableName() string {
	return "prerequisites"
}
