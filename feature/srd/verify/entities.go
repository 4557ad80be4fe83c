package verify

import (
	"fmt"

	"gorm.io/gorm"
)

// entityTable describes one normalized projection table for the generic
// entity checks: its name, and the raw entity type its back-references
// must point at.
type entityTable struct {
	table      string
	entityType string
	label      string
}

var entityTables = []entityTable{
	{"classes", "class", "class"},
	{"subclasses", "subclass", "subclass"},
	{"features", "feature", "feature"},
	{"spells", "spell", "spell"},
	{"items", "item", "item"},
	{"conditions", "condition", "condition"},
	{"monsters", "monster", "monster"},
}

type dupRow struct {
	SourceID  uint
	SourceKey string
	Count     int
}

type badRow struct {
	ID          uint
	SourceKey   string
	RawEntityID *uint
}

// checkRawEntities flags duplicate raw documents under the natural key.
func checkRawEntities(db *gorm.DB, report *Report) error {
	type rawDup struct {
		SourceID   uint
		EntityType string
		SourceKey  string
		Count      int
	}
	var dups []rawDup
	err := db.Table("raw_entities").
		Select("source_id, entity_type, source_key, COUNT(*) AS count").
		Group("source_id, entity_type, source_key").
		Having("COUNT(*) > 1").
		Scan(&dups).Error
	if err != nil {
		return fmt.Errorf("check raw entity duplicates: %w", err)
	}
	for _, dup := range dups {
		report.errorf("Duplicate raw entity: source_id=%d entity_type=%s source_key=%s count=%d",
			dup.SourceID, dup.EntityType, dup.SourceKey, dup.Count)
	}
	return nil
}

// checkEntityTable runs the generic checks against one projection table:
// duplicates under (source, source_key), essential-field completeness,
// dangling raw back-references, and back-references to a raw document of
// the wrong type.
func checkEntityTable(db *gorm.DB, spec entityTable, report *Report) error {
	var dups []dupRow
	err := db.Table(spec.table).
		Select("source_id, source_key, COUNT(*) AS count").
		Group("source_id, source_key").
		Having("COUNT(*) > 1").
		Scan(&dups).Error
	if err != nil {
		return fmt.Errorf("check %s duplicates: %w", spec.table, err)
	}
	for _, dup := range dups {
		report.errorf("Duplicate %s: source_id=%d source_key=%s count=%d",
			spec.label, dup.SourceID, dup.SourceKey, dup.Count)
	}

	var incomplete []badRow
	err = db.Table(spec.table).
		Select("id, source_key, raw_entity_id").
		Where("source_key = '' OR name = ''").
		Scan(&incomplete).Error
	if err != nil {
		return fmt.Errorf("check %s essential fields: %w", spec.table, err)
	}
	for _, row := range incomplete {
		report.errorf("%s missing essential fields: id=%d source_key=%s",
			title(spec.label), row.ID, row.SourceKey)
	}

	var dangling []badRow
	err = db.Table(spec.table).
		Select("id, source_key, raw_entity_id").
		Where("raw_entity_id IS NOT NULL AND raw_entity_id NOT IN (?)",
			db.Table("raw_entities").Select("id")).
		Scan(&dangling).Error
	if err != nil {
		return fmt.Errorf("check %s raw references: %w", spec.table, err)
	}
	for _, row := range dangling {
		report.errorf("%s missing raw entity: id=%d source_key=%s",
			title(spec.label), row.ID, row.SourceKey)
	}

	var wrongType []badRow
	err = db.Table(spec.table).
		Select(spec.table+".id, "+spec.table+".source_key, "+spec.table+".raw_entity_id").
		Joins("JOIN raw_entities ON raw_entities.id = "+spec.table+".raw_entity_id").
		Where("raw_entities.entity_type <> ?", spec.entityType).
		Scan(&wrongType).Error
	if err != nil {
		return fmt.Errorf("check %s raw entity types: %w", spec.table, err)
	}
	for _, row := range wrongType {
		report.errorf("%s raw entity type mismatch: id=%d source_key=%s",
			title(spec.label), row.ID, row.SourceKey)
	}

	return nil
}

// checkCrossSource flags projection rows whose source disagrees with the
// source of the raw document they reference.
func checkCrossSource(db *gorm.DB, spec entityTable, report *Report) error {
	var rows []badRow
	err := db.Table(spec.table).
		Select(spec.table+".id, "+spec.table+".source_key, "+spec.table+".raw_entity_id").
		Joins("JOIN raw_entities ON raw_entities.id = "+spec.table+".raw_entity_id").
		Where("raw_entities.source_id <> " + spec.table + ".source_id").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("check %s cross-source references: %w", spec.table, err)
	}
	for _, row := range rows {
		report.errorf("%s references raw entity from another source: id=%d source_key=%s",
			title(spec.label), row.ID, row.SourceKey)
	}
	return nil
}

func title(label string) string {
	if label == "" {
		return label
	}
	return string(label[0]-'a'+'A') + label[1:]
}
