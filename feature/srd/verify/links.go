package verify

import (
	"fmt"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

type linkTable struct {
	table       string
	leftColumn  string
	leftTable   string
	rightColumn string
	rightTable  string
	label       string
}

var linkTables = []linkTable{
	{"class_features", "class_id", "classes", "feature_id", "features", "class feature link"},
	{"subclass_features", "subclass_id", "subclasses", "feature_id", "features", "subclass feature link"},
	{"spell_classes", "spell_id", "spells", "class_id", "classes", "spell class link"},
}

// checkLinks verifies the join tables: both endpoints must exist, and the
// endpoints must belong to the same source as the link itself.
func checkLinks(db *gorm.DB, report *Report) error {
	for _, spec := range linkTables {
		type orphan struct {
			ID  uint
			Ref uint
		}
		for _, end := range []struct {
			column string
			table  string
		}{
			{spec.leftColumn, spec.leftTable},
			{spec.rightColumn, spec.rightTable},
		} {
			var orphans []orphan
			err := db.Table(spec.table).
				Select("id, "+end.column+" AS ref").
				Where(end.column+" NOT IN (?)", db.Table(end.table).Select("id")).
				Scan(&orphans).Error
			if err != nil {
				return fmt.Errorf("check %s %s: %w", spec.table, end.column, err)
			}
			for _, row := range orphans {
				report.errorf("%s missing %s: id=%d %s=%d",
					title(spec.label), end.table, row.ID, end.column, row.Ref)
			}

			var crossSource []orphan
			err = db.Table(spec.table).
				Select(spec.table+".id, "+spec.table+"."+end.column+" AS ref").
				Joins("JOIN "+end.table+" ON "+end.table+".id = "+spec.table+"."+end.column).
				Where(end.table + ".source_id <> " + spec.table + ".source_id").
				Scan(&crossSource).Error
			if err != nil {
				return fmt.Errorf("check %s %s source scope: %w", spec.table, end.column, err)
			}
			for _, row := range crossSource {
				report.errorf("%s crosses sources: id=%d %s=%d",
					title(spec.label), row.ID, end.column, row.Ref)
			}
		}
	}
	return nil
}

// checkCoverage applies the heuristics that catch a structurally valid
// but suspicious graph, per source.
func checkCoverage(db *gorm.DB, report *Report) error {
	var sources []models.Source
	if err := db.Find(&sources).Error; err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	for _, source := range sources {
		counts := make(map[string]int64)
		for _, table := range []string{"spells", "classes", "features", "spell_classes", "class_features", "subclass_features"} {
			var count int64
			if err := db.Table(table).Where("source_id = ?", source.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("count %s: %w", table, err)
			}
			counts[table] = count
		}

		if counts["spells"] > 0 && counts["classes"] > 0 && counts["spell_classes"] == 0 {
			report.warnf("Source %s has spells and classes but no spell class links", source.Name)
		}
		if counts["features"] > 0 && counts["classes"] > 0 &&
			counts["class_features"] == 0 && counts["subclass_features"] == 0 {
			report.warnf("Source %s has features and classes but no feature links", source.Name)
		}

		var rawSpells int64
		err := db.Model(&models.RawEntity{}).
			Where("source_id = ? AND entity_type = ?", source.ID, "spell").
			Count(&rawSpells).Error
		if err != nil {
			return fmt.Errorf("count raw spells: %w", err)
		}
		if rawSpells != counts["spells"] {
			report.warnf("Source %s spell count mismatch: raw=%d normalized=%d",
				source.Name, rawSpells, counts["spells"])
		}
	}

	return nil
}
