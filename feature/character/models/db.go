package models

import "gorm.io/gorm"

// All returns every model in this package, in dependency order.
func All() []any {
	return []any{
		&Character{},
		&CharacterLevel{},
		&CharacterChoice{},
		&CharacterFeature{},
		&CharacterKnownSpell{},
		&CharacterPreparedSpell{},
		&InventoryItem{},
	}
}

// Migrate creates or updates the schema for every model in this package.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
