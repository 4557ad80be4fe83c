package models

import "time"

// ClassFeatureLink joins a class to a feature, with the unlock level when
// the source declares one. Links are scoped by source so that relationships
// from different content sources never collide and can be rebuilt per source.
type ClassFeatureLink struct {
	ID        uint `gorm:"column:id;primaryKey"`
	SourceID  uint `gorm:"column:source_id;not null;index;uniqueIndex:uq_class_features_link"`
	ClassID   uint `gorm:"column:class_id;not null;index;uniqueIndex:uq_class_features_link"`
	FeatureID uint `gorm:"column:feature_id;not null;index;uniqueIndex:uq_class_features_link"`
	Level     *int `gorm:"column:level;index;uniqueIndex:uq_class_features_link"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (ClassFeatureLink) TableName() string {
	return "class_features"
}

// SubclassFeatureLink joins a subclass to a feature.
type SubclassFeatureLink struct {
	ID         uint `gorm:"column:id;primaryKey"`
	SourceID   uint `gorm:"column:source_id;not null;index;uniqueIndex:uq_subclass_features_link"`
	SubclassID uint `gorm:"column:subclass_id;not null;index;uniqueIndex:uq_subclass_features_link"`
	FeatureID  uint `gorm:"column:feature_id;not null;index;uniqueIndex:uq_subclass_features_link"`
	Level      *int `gorm:"column:level;uniqueIndex:uq_subclass_features_link"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (SubclassFeatureLink) TableName() string {
	return "subclass_features"
}

// SpellClassLink joins a spell to a class that can cast it.
type SpellClassLink struct {
	ID       uint `gorm:"column:id;primaryKey"`
	SourceID uint `gorm:"column:source_id;not null;index;uniqueIndex:uq_spell_classes_link"`
	SpellID  uint `gorm:"column:spell_id;not null;index;uniqueIndex:uq_spell_classes_link"`
	ClassID  uint `gorm:"column:class_id;not null;index;uniqueIndex:uq_spell_classes_link"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (SpellClassLink) TableName() string {
	return "spell_classes"
}
