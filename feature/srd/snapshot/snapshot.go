// Package snapshot fingerprints the derived graph for drift detection.
// Each snapshot stores a per-table row count and a per-table hash over the
// sorted natural-key projection of the table, both as sorted-key JSON.
// Diffing the snapshots of two import runs reports what changed without
// having to compare the tables themselves.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

// hashRows digests a sorted projection. Rows are serialized as a JSON
// array of arrays so that the digest depends only on column values and
// order.
func hashRows(rows [][]any) string {
	payload, _ := json.Marshal(rows)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// projection runs one natural-key query and hashes the rows.
func projection(query *gorm.DB, columns int) (string, error) {
	raw, err := query.Rows()
	if err != nil {
		return "", err
	}
	defer raw.Close()

	var rows [][]any
	for raw.Next() {
		cells := make([]any, columns)
		ptrs := make([]any, columns)
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := raw.Scan(ptrs...); err != nil {
			return "", err
		}
		for i, cell := range cells {
			if b, ok := cell.([]byte); ok {
				cells[i] = string(b)
			}
		}
		rows = append(rows, cells)
	}
	return hashRows(rows), raw.Err()
}

func count(db *gorm.DB, table string, where string, args ...any) (int64, error) {
	var n int64
	err := db.Table(table).Where(where, args...).Count(&n).Error
	return n, err
}

// Create computes and persists a snapshot for one source. The snapshot is
// tagged with the run key of the source's most recent import run.
func Create(db *gorm.DB, sourceID uint) (*models.ImportSnapshot, error) {
	var latest models.ImportRun
	runKey := ""
	err := db.Where("source_id = ?", sourceID).Order("id DESC").First(&latest).Error
	if err == nil {
		runKey = latest.RunKey
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load latest run: %w", err)
	}

	counts := make(map[string]int64)
	sourceScoped := []string{
		"raw_entities", "classes", "subclasses", "features", "spells",
		"items", "conditions", "monsters",
		"class_features", "subclass_features", "spell_classes",
		"choice_groups", "grant_proficiencies", "grant_spells", "grant_features",
	}
	for _, table := range sourceScoped {
		n, err := count(db, table, "source_id = ?", sourceID)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	optionCount, err := count(db, "choice_options",
		"choice_group_id IN (?)",
		db.Table("choice_groups").Select("id").Where("source_id = ?", sourceID))
	if err != nil {
		return nil, fmt.Errorf("count choice_options: %w", err)
	}
	counts["choice_options"] = optionCount
	prereqCount, err := count(db, "prerequisites", "1 = 1")
	if err != nil {
		return nil, fmt.Errorf("count prerequisites: %w", err)
	}
	counts["prerequisites"] = prereqCount

	hashes := make(map[string]string)

	hashes["raw_entities"], err = projection(
		db.Table("raw_entities").Select("source_key, raw_hash").
			Where("source_id = ?", sourceID).Order("source_key"), 2)
	if err != nil {
		return nil, fmt.Errorf("hash raw_entities: %w", err)
	}
	for _, entityType := range []string{"class", "subclass", "feature", "spell", "item", "condition", "monster"} {
		hashes["raw_entities_"+entityType], err = projection(
			db.Table("raw_entities").Select("source_key, raw_hash").
				Where("source_id = ? AND entity_type = ?", sourceID, entityType).
				Order("source_key"), 2)
		if err != nil {
			return nil, fmt.Errorf("hash raw_entities_%s: %w", entityType, err)
		}
	}

	for _, table := range []string{"classes", "subclasses", "features", "spells", "items", "conditions", "monsters"} {
		hashes[table], err = projection(
			db.Table(table).Select("source_key, raw_entity_id").
				Where("source_id = ?", sourceID).Order("source_key"), 2)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", table, err)
		}
	}

	hashes["class_features"], err = projection(
		db.Table("class_features").Select("class_id, feature_id, level").
			Where("source_id = ?", sourceID).Order("class_id, feature_id"), 3)
	if err != nil {
		return nil, fmt.Errorf("hash class_features: %w", err)
	}
	hashes["subclass_features"], err = projection(
		db.Table("subclass_features").Select("subclass_id, feature_id, level").
			Where("source_id = ?", sourceID).Order("subclass_id, feature_id"), 3)
	if err != nil {
		return nil, fmt.Errorf("hash subclass_features: %w", err)
	}
	hashes["spell_classes"], err = projection(
		db.Table("spell_classes").Select("class_id, spell_id").
			Where("source_id = ?", sourceID).Order("class_id, spell_id"), 2)
	if err != nil {
		return nil, fmt.Errorf("hash spell_classes: %w", err)
	}

	hashes["choice_groups"], err = projection(
		db.Table("choice_groups").Select("source_key, choice_type, level").
			Where("source_id = ?", sourceID).Order("source_key"), 3)
	if err != nil {
		return nil, fmt.Errorf("hash choice_groups: %w", err)
	}
	hashes["choice_options"], err = projection(
		db.Table("choice_options").
			Select("choice_options.choice_group_id, choice_options.option_type, choice_options.option_source_key, choice_options.label").
			Joins("JOIN choice_groups ON choice_groups.id = choice_options.choice_group_id").
			Where("choice_groups.source_id = ?", sourceID).
			Order("choice_options.choice_group_id, choice_options.label"), 4)
	if err != nil {
		return nil, fmt.Errorf("hash choice_options: %w", err)
	}
	hashes["prerequisites"], err = projection(
		db.Table("prerequisites").
			Select("applies_to_type, applies_to_id, prereq_type, prereq_key, operator, prereq_value").
			Order("applies_to_type, applies_to_id, prereq_type, prereq_key"), 6)
	if err != nil {
		return nil, fmt.Errorf("hash prerequisites: %w", err)
	}
	hashes["grant_proficiencies"], err = projection(
		db.Table("grant_proficiencies").
			Select("owner_type, owner_id, proficiency_type, proficiency_key, label").
			Where("source_id = ?", sourceID).
			Order("owner_type, proficiency_key, owner_id, label"), 5)
	if err != nil {
		return nil, fmt.Errorf("hash grant_proficiencies: %w", err)
	}
	hashes["grant_spells"], err = projection(
		db.Table("grant_spells").Select("owner_type, owner_id, spell_source_key, label").
			Where("source_id = ?", sourceID).
			Order("owner_type, spell_source_key, owner_id, label"), 4)
	if err != nil {
		return nil, fmt.Errorf("hash grant_spells: %w", err)
	}
	hashes["grant_features"], err = projection(
		db.Table("grant_features").Select("owner_type, owner_id, feature_source_key, label").
			Where("source_id = ?", sourceID).
			Order("owner_type, feature_source_key, owner_id, label"), 4)
	if err != nil {
		return nil, fmt.Errorf("hash grant_features: %w", err)
	}

	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return nil, fmt.Errorf("encode counts: %w", err)
	}
	hashesJSON, err := json.Marshal(hashes)
	if err != nil {
		return nil, fmt.Errorf("encode hashes: %w", err)
	}

	snap := models.ImportSnapshot{
		SourceID:   sourceID,
		RunKey:     runKey,
		CountsJSON: string(countsJSON),
		HashesJSON: string(hashesJSON),
	}
	if err := db.Create(&snap).Error; err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return &snap, nil
}

// Latest returns the most recent snapshots for a source, newest first.
func Latest(db *gorm.DB, sourceID uint, limit int) ([]models.ImportSnapshot, error) {
	var snaps []models.ImportSnapshot
	err := db.Where("source_id = ?", sourceID).Order("id DESC").Limit(limit).Find(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	return snaps, nil
}

// Diff compares two snapshots. A nil older snapshot yields the single "no
// previous snapshot" entry. Otherwise the result holds one entry per table
// whose count changed and one entry per table whose hash changed while its
// count did not, each block in sorted table-name order, or the single "no
// changes" entry.
func Diff(older, newer *models.ImportSnapshot) ([]string, error) {
	if older == nil {
		return []string{"No previous snapshot found."}, nil
	}

	var olderCounts, newerCounts map[string]int64
	if err := json.Unmarshal([]byte(older.CountsJSON), &olderCounts); err != nil {
		return nil, fmt.Errorf("decode older counts: %w", err)
	}
	if err := json.Unmarshal([]byte(newer.CountsJSON), &newerCounts); err != nil {
		return nil, fmt.Errorf("decode newer counts: %w", err)
	}
	var olderHashes, newerHashes map[string]string
	if err := json.Unmarshal([]byte(older.HashesJSON), &olderHashes); err != nil {
		return nil, fmt.Errorf("decode older hashes: %w", err)
	}
	if err := json.Unmarshal([]byte(newer.HashesJSON), &newerHashes); err != nil {
		return nil, fmt.Errorf("decode newer hashes: %w", err)
	}

	countChanged := make(map[string]bool)
	var changes []string
	for _, key := range sortedKeys(olderCounts, newerCounts) {
		oldVal := olderCounts[key]
		newVal := newerCounts[key]
		if oldVal != newVal {
			countChanged[key] = true
			changes = append(changes, fmt.Sprintf("Count %s: %d -> %d", key, oldVal, newVal))
		}
	}
	for _, key := range sortedHashKeys(olderHashes, newerHashes) {
		if olderHashes[key] != newerHashes[key] && !countChanged[key] {
			changes = append(changes, fmt.Sprintf("Hash %s changed", key))
		}
	}

	if len(changes) == 0 {
		changes = append(changes, "No changes detected.")
	}
	return changes, nil
}

func sortedKeys(maps ...map[string]int64) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for key := range m {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedHashKeys(maps ...map[string]string) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for key := range m {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
