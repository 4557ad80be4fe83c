package verify

import (
	"fmt"

	"gorm.io/gorm"
)

type grantTable struct {
	table     string
	keyColumn string
	refTable  string
	label     string
}

var grantTables = []grantTable{
	{"grant_proficiencies", "proficiency_key", "", "grant proficiency"},
	{"grant_spells", "spell_source_key", "spells", "grant spell"},
	{"grant_features", "feature_source_key", "features", "grant feature"},
}

// checkGrants verifies grant rows: duplicates under the identity key,
// owners that do not exist, and spell/feature keys that resolve to
// nothing within the same source.
func checkGrants(db *gorm.DB, report *Report) error {
	ownerTables := map[string]string{
		"class":    "classes",
		"subclass": "subclasses",
		"feature":  "features",
	}

	for _, spec := range grantTables {
		type grantDup struct {
			SourceID  uint
			OwnerType string
			OwnerID   uint
			GrantKey  string
			Label     string
			Count     int
		}
		var dups []grantDup
		err := db.Table(spec.table).
			Select("source_id, owner_type, owner_id, "+spec.keyColumn+" AS grant_key, label, COUNT(*) AS count").
			Group("source_id, owner_type, owner_id, " + spec.keyColumn + ", label").
			Having("COUNT(*) > 1").
			Scan(&dups).Error
		if err != nil {
			return fmt.Errorf("check %s duplicates: %w", spec.table, err)
		}
		for _, dup := range dups {
			report.errorf("Duplicate %s: source_id=%d owner_type=%s owner_id=%d key=%s label=%s count=%d",
				spec.label, dup.SourceID, dup.OwnerType, dup.OwnerID, dup.GrantKey, dup.Label, dup.Count)
		}

		for ownerType, ownerTable := range ownerTables {
			type orphan struct {
				ID      uint
				OwnerID uint
			}
			var orphans []orphan
			err = db.Table(spec.table).
				Select("id, owner_id").
				Where("owner_type = ? AND owner_id NOT IN (?)",
					ownerType, db.Table(ownerTable).Select("id")).
				Scan(&orphans).Error
			if err != nil {
				return fmt.Errorf("check %s %s owners: %w", spec.table, ownerType, err)
			}
			for _, row := range orphans {
				report.errorf("%s missing %s owner: id=%d owner_id=%d",
					title(spec.label), ownerType, row.ID, row.OwnerID)
			}
		}

		if spec.refTable == "" {
			continue
		}
		type badRef struct {
			ID       uint
			GrantKey string
		}
		var badRefs []badRef
		err = db.Table(spec.table).
			Select("id, "+spec.keyColumn+" AS grant_key").
			Where(spec.keyColumn+" NOT IN (?)",
				db.Table(spec.refTable).
					Select("source_key").
					Where(spec.refTable+".source_id = "+spec.table+".source_id")).
			Scan(&badRefs).Error
		if err != nil {
			return fmt.Errorf("check %s references: %w", spec.table, err)
		}
		for _, row := range badRefs {
			report.errorf("%s missing %s reference: id=%d key=%s",
				title(spec.label), spec.refTable, row.ID, row.GrantKey)
		}
	}

	return nil
}
