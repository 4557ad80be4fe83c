package verify

import (
	"fmt"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

// checkPrereqs verifies prerequisites: duplicates under the natural key,
// apply targets that do not exist, and class/subclass/feature keys that
// resolve to nothing.
func checkPrereqs(db *gorm.DB, report *Report) error {
	type prereqDup struct {
		AppliesToType string
		AppliesToID   uint
		PrereqType    string
		PrereqKey     string
		Operator      string
		PrereqValue   string
		Count         int
	}
	var dups []prereqDup
	err := db.Table("prerequisites").
		Select("applies_to_type, applies_to_id, prereq_type, prereq_key, operator, prereq_value, COUNT(*) AS count").
		Group("applies_to_type, applies_to_id, prereq_type, prereq_key, operator, prereq_value").
		Having("COUNT(*) > 1").
		Scan(&dups).Error
	if err != nil {
		return fmt.Errorf("check prerequisite duplicates: %w", err)
	}
	for _, dup := range dups {
		report.errorf("Duplicate prerequisite: applies_to_type=%s applies_to_id=%d prereq_type=%s key=%s operator=%s value=%s count=%d",
			dup.AppliesToType, dup.AppliesToID, dup.PrereqType, dup.PrereqKey, dup.Operator, dup.PrereqValue, dup.Count)
	}

	var missingFeatureTargets []models.Prerequisite
	err = db.Where("applies_to_type = ? AND applies_to_id NOT IN (?)",
		models.AppliesToFeature, db.Table("features").Select("id")).
		Find(&missingFeatureTargets).Error
	if err != nil {
		return fmt.Errorf("check prerequisite feature targets: %w", err)
	}
	for _, prereq := range missingFeatureTargets {
		report.errorf("Prerequisite missing feature apply target: id=%d applies_to_id=%d",
			prereq.ID, prereq.AppliesToID)
	}

	var missingGroupTargets []models.Prerequisite
	err = db.Where("applies_to_type = ? AND applies_to_id NOT IN (?)",
		models.AppliesToChoiceGroup, db.Table("choice_groups").Select("id")).
		Find(&missingGroupTargets).Error
	if err != nil {
		return fmt.Errorf("check prerequisite choice group targets: %w", err)
	}
	for _, prereq := range missingGroupTargets {
		report.errorf("Prerequisite missing choice group apply target: id=%d applies_to_id=%d",
			prereq.ID, prereq.AppliesToID)
	}

	// Level prerequisites with the "any" sentinel are exempt from key
	// resolution; everything else must point at a known entity.
	refTables := map[string]string{
		"class":    "classes",
		"subclass": "subclasses",
		"feature":  "features",
	}
	for prereqType, table := range refTables {
		var missing []models.Prerequisite
		err = db.Where("prereq_type = ? AND prereq_key NOT IN (?)",
			prereqType, db.Table(table).Select("source_key")).
			Find(&missing).Error
		if err != nil {
			return fmt.Errorf("check prerequisite %s references: %w", prereqType, err)
		}
		for _, prereq := range missing {
			report.errorf("Prerequisite missing %s reference: id=%d key=%s",
				prereqType, prereq.ID, prereq.Key)
		}
	}

	var missingLevelClasses []models.Prerequisite
	err = db.Where("prereq_type = ? AND prereq_key <> ? AND prereq_key NOT IN (?)",
		"level", "any", db.Table("classes").Select("source_key")).
		Find(&missingLevelClasses).Error
	if err != nil {
		return fmt.Errorf("check level prerequisite classes: %w", err)
	}
	for _, prereq := range missingLevelClasses {
		report.errorf("Prerequisite missing class reference: id=%d key=%s",
			prereq.ID, prereq.Key)
	}

	return nil
}
