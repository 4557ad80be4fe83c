package verify

import (
	"fmt"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

// checkChoices verifies choice groups and options: orphaned options,
// groups with no options, owners that do not exist, duplicate groups under
// the stable key, and option references that point nowhere.
func checkChoices(db *gorm.DB, report *Report) error {
	var orphaned []models.ChoiceOption
	err := db.Where("choice_group_id NOT IN (?)",
		db.Model(&models.ChoiceGroup{}).Select("id")).
		Find(&orphaned).Error
	if err != nil {
		return fmt.Errorf("check orphaned choice options: %w", err)
	}
	for _, option := range orphaned {
		report.errorf("Choice option missing group: id=%d choice_group_id=%d",
			option.ID, option.ChoiceGroupID)
	}

	var empty []models.ChoiceGroup
	err = db.Where("id NOT IN (?)",
		db.Model(&models.ChoiceOption{}).Select("choice_group_id")).
		Find(&empty).Error
	if err != nil {
		return fmt.Errorf("check empty choice groups: %w", err)
	}
	for _, group := range empty {
		report.errorf("Choice group has no options: id=%d owner_type=%s owner_id=%d",
			group.ID, group.OwnerType, group.OwnerID)
	}

	ownerTables := map[string]string{
		models.OwnerClass:    "classes",
		models.OwnerSubclass: "subclasses",
		models.OwnerFeature:  "features",
	}
	for ownerType, table := range ownerTables {
		var missing []models.ChoiceGroup
		err = db.Where("owner_type = ? AND owner_id NOT IN (?)",
			ownerType, db.Table(table).Select("id")).
			Find(&missing).Error
		if err != nil {
			return fmt.Errorf("check choice group %s owners: %w", ownerType, err)
		}
		for _, group := range missing {
			report.errorf("Choice group missing %s owner: id=%d owner_id=%d",
				ownerType, group.ID, group.OwnerID)
		}
	}

	type groupDup struct {
		SourceID  uint
		SourceKey string
		Count     int
	}
	var dups []groupDup
	err = db.Table("choice_groups").
		Select("source_id, source_key, COUNT(*) AS count").
		Group("source_id, source_key").
		Having("COUNT(*) > 1").
		Scan(&dups).Error
	if err != nil {
		return fmt.Errorf("check choice group duplicates: %w", err)
	}
	for _, dup := range dups {
		report.errorf("Duplicate choice group: source_id=%d source_key=%s count=%d",
			dup.SourceID, dup.SourceKey, dup.Count)
	}

	// Resolved feature options must point at a live feature row.
	type badOption struct {
		ID              uint
		OptionSourceKey string
		RefID           *uint
	}
	var badFeatureRefs []badOption
	err = db.Table("choice_options").
		Select("id, option_source_key, ref_id").
		Where("option_type = ? AND ref_id IS NOT NULL AND ref_id NOT IN (?)",
			"feature", db.Table("features").Select("id")).
		Scan(&badFeatureRefs).Error
	if err != nil {
		return fmt.Errorf("check choice option feature references: %w", err)
	}
	for _, option := range badFeatureRefs {
		report.errorf("Choice option feature reference missing: id=%d option_source_key=%s",
			option.ID, option.OptionSourceKey)
	}

	var badSpellRefs []badOption
	err = db.Table("choice_options").
		Select("id, option_source_key, ref_id").
		Where("option_type = ? AND ref_id IS NOT NULL AND ref_id NOT IN (?)",
			"spell", db.Table("spells").Select("id")).
		Scan(&badSpellRefs).Error
	if err != nil {
		return fmt.Errorf("check choice option spell references: %w", err)
	}
	for _, option := range badSpellRefs {
		report.errorf("Choice option spell reference missing: id=%d option_source_key=%s",
			option.ID, option.OptionSourceKey)
	}

	// Unresolved references are tolerated at extraction time, so they are
	// only worth a warning here.
	var unresolved int64
	err = db.Model(&models.ChoiceOption{}).
		Where("option_type IN ? AND ref_id IS NULL", []string{"feature", "spell"}).
		Count(&unresolved).Error
	if err != nil {
		return fmt.Errorf("count unresolved choice options: %w", err)
	}
	if unresolved > 0 {
		report.warnf("Choice options with unresolved references: count=%d", unresolved)
	}

	return nil
}
