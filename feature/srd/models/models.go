package models

import (
	"time"

	"gorm.io/datatypes"
)

// Source tracks a content source (e.g. "5e-bits").
type Source struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	BaseURL   string    `gorm:"column:base_url"`
	Notes     string    `gorm:"column:notes"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Source) TableName() string {
	return "sources"
}

// RawEntity stores a raw JSON payload fetched from a content source.
// The payload is immutable until the source serves a different document:
// RawHash is a content hash of the canonicalized payload, and the upsert
// discipline only rewrites the row when that hash changes.
type RawEntity struct {
	ID         uint           `gorm:"column:id;primaryKey"`
	SourceID   uint           `gorm:"column:source_id;not null;index;uniqueIndex:uq_raw_entities_source_type_key"`
	EntityType string         `gorm:"column:entity_type;not null;uniqueIndex:uq_raw_entities_source_type_key"`
	SourceKey  string         `gorm:"column:source_key;not null;uniqueIndex:uq_raw_entities_source_type_key"`
	Name       string         `gorm:"column:name;index"`
	SRD        *bool          `gorm:"column:srd"`
	URL        string         `gorm:"column:url"`
	RawJSON    datatypes.JSON `gorm:"column:raw_json;not null"`
	RawHash    string         `gorm:"column:raw_hash;not null;index"`

	RetrievedAt time.Time `gorm:"column:retrieved_at;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (RawEntity) TableName() string {
	return "raw_entities"
}
