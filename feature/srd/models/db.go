package models

import "gorm.io/gorm"

// All returns every model in this package, in dependency order.
func All() []any {
	return []any{
		&Source{},
		&RawEntity{},
		&Class{},
		&Subclass{},
		&Feature{},
		&Spell{},
		&Item{},
		&Condition{},
		&Monster{},
		&ChoiceGroup{},
		&ChoiceOption{},
		&Prerequisite{},
		&GrantProficiency{},
		&GrantSpell{},
		&GrantFeature{},
		&ClassFeatureLink{},
		&SubclassFeatureLink{},
		&SpellClassLink{},
		&ImportRun{},
		&ImportSnapshot{},
	}
}

// Migrate creates or updates the schema for every model in this package.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
