package models

import "time"

// Class is the normalized projection of a raw class document.
type Class struct {
	ID          uint   `gorm:"column:id;primaryKey"`
	SourceID    uint   `gorm:"column:source_id;not null;index;uniqueIndex:uq_classes_source_key"`
	RawEntityID *uint  `gorm:"column:raw_entity_id"`
	SourceKey   string `gorm:"column:source_key;not null;uniqueIndex:uq_classes_source_key"`
	Name        string `gorm:"column:name;not null;index"`
	HitDie      *int   `gorm:"column:hit_die"`
	SRD         *bool  `gorm:"column:srd"`
	APIURL      string `gorm:"column:api_url"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Class) TableName() string {
	return "classes"
}

// Subclass is the normalized projection of a raw subclass document.
type Subclass struct {
	ID             uint   `gorm:"column:id;primaryKey"`
	SourceID       uint   `gorm:"column:source_id;not null;index;uniqueIndex:uq_subclasses_source_key"`
	RawEntityID    *uint  `gorm:"column:raw_entity_id"`
	SourceKey      string `gorm:"column:source_key;not null;uniqueIndex:uq_subclasses_source_key"`
	Name           string `gorm:"column:name;not null;index"`
	ClassSourceKey string `gorm:"column:class_source_key;index"`
	SubclassFlavor string `gorm:"column:subclass_flavor"`
	Desc           string `gorm:"column:subclass_desc;type:text"`
	SRD            *bool  `gorm:"column:srd"`
	APIURL         string `gorm:"column:api_url"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Subclass) TableName() string {
	return "subclasses"
}

// Feature is the normalized projection of a raw feature document.
// Level is the class level at which the feature unlocks, when the
// source declares one.
type Feature struct {
	ID                uint   `gorm:"column:id;primaryKey"`
	SourceID          uint   `gorm:"column:source_id;not null;index;uniqueIndex:uq_features_source_key"`
	RawEntityID       *uint  `gorm:"column:raw_entity_id"`
	SourceKey         string `gorm:"column:source_key;not null;uniqueIndex:uq_features_source_key"`
	Name              string `gorm:"column:name;not null;index"`
	Level             *int   `gorm:"column:level"`
	ClassSourceKey    string `gorm:"column:class_source_key;index"`
	SubclassSourceKey string `gorm:"column:subclass_source_key;index"`
	Desc              string `gorm:"column:feature_desc;type:text"`
	SRD               *bool  `gorm:"column:srd"`
	APIURL            string `gorm:"column:api_url"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Feature) TableName() string {
	return "features"
}

// Spell is the normalized projection of a raw spell document.
type Spell struct {
	ID            uint   `gorm:"column:id;primaryKey"`
	SourceID      uint   `gorm:"column:source_id;not null;index;uniqueIndex:uq_spells_source_key"`
	RawEntityID   *uint  `gorm:"column:raw_entity_id"`
	SourceKey     string `gorm:"column:source_key;not null;uniqueIndex:uq_spells_source_key"`
	Name          string `gorm:"column:name;not null;index"`
	Level         int    `gorm:"column:level;not null"`
	School        string `gorm:"column:school"`
	CastingTime   string `gorm:"column:casting_time"`
	Range         string `gorm:"column:spell_range"`
	Duration      string `gorm:"column:duration"`
	Concentration bool   `gorm:"column:concentration;not null"`
	Ritual        bool   `gorm:"column:ritual;not null"`
	Desc          string `gorm:"column:spell_desc;type:text"`
	HigherLevel   string `gorm:"column:higher_level;type:text"`
	Components    string `gorm:"column:components"`
	Material      string `gorm:"column:material;type:text"`
	SaveDCAbility string `gorm:"column:save_dc_ability"`
	DamageType    string `gorm:"column:damage_type"`
	SRD           *bool  `gorm:"column:srd"`
	APIURL        string `gorm:"column:api_url"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Spell) TableName() string {
	return "spells"
}

// Item is the normalized projection of a raw equipment document.
type Item struct {
	ID                uint   `gorm:"column:id;primaryKey"`
	SourceID          uint   `gorm:"column:source_id;not null;index;uniqueIndex:uq_items_source_key"`
	RawEntityID       *uint  `gorm:"column:raw_entity_id"`
	SourceKey         string `gorm:"column:source_key;not null;uniqueIndex:uq_items_source_key"`
	Name              string `gorm:"column:name;not null;index"`
	EquipmentCategory string `gorm:"column:equipment_category"`
	CostQuantity      *int   `gorm:"column:cost_quantity"`
	CostUnit          string `gorm:"column:cost_unit"`
	Weight            *float64 `gorm:"column:weight"`
	Desc              string `gorm:"column:item_desc;type:text"`
	SRD               *bool  `gorm:"column:srd"`
	APIURL            string `gorm:"column:api_url"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Item) TableName() string {
	return "items"
}

// Condition is the normalized projection of a raw condition document.
type Condition struct {
	ID          uint   `gorm:"column:id;primaryKey"`
	SourceID    uint   `gorm:"column:source_id;not null;index;uniqueIndex:uq_conditions_source_key"`
	RawEntityID *uint  `gorm:"column:raw_entity_id"`
	SourceKey   string `gorm:"column:source_key;not null;uniqueIndex:uq_conditions_source_key"`
	Name        string `gorm:"column:name;not null;index"`
	Desc        string `gorm:"column:condition_desc;type:text"`
	SRD         *bool  `gorm:"column:srd"`
	APIURL      string `gorm:"column:api_url"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Condition) TableName() string {
	return "conditions"
}

// Monster is the normalized projection of a raw monster document.
type Monster struct {
	ID              uint     `gorm:"column:id;primaryKey"`
	SourceID        uint     `gorm:"column:source_id;not null;index;uniqueIndex:uq_monsters_source_key"`
	RawEntityID     *uint    `gorm:"column:raw_entity_id"`
	SourceKey       string   `gorm:"column:source_key;not null;uniqueIndex:uq_monsters_source_key"`
	Name            string   `gorm:"column:name;not null;index"`
	Size            string   `gorm:"column:size"`
	Type            string   `gorm:"column:monster_type"`
	Alignment       string   `gorm:"column:alignment"`
	ArmorClass      *int     `gorm:"column:armor_class"`
	HitPoints       *int     `gorm:"column:hit_points"`
	ChallengeRating *float64 `gorm:"column:challenge_rating"`
	SRD             *bool    `gorm:"column:srd"`
	APIURL          string   `gorm:"column:api_url"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Monster) TableName() string {
	return "monsters"
}
