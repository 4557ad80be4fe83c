package derive

import (
	"fmt"
	"strconv"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

// PrereqStats summarizes one prerequisite-extraction pass.
type PrereqStats struct {
	Created     int
	MissingRefs int
}

// prereqRow is one normalized prerequisite before it is attached.
type prereqRow struct {
	prereqType string
	key        string
	operator   string
	value      string
	notes      string
}

type prereqKey struct {
	appliesToType string
	appliesToID   uint
	prereqType    string
	key           string
	operator      string
	value         string
}

// extractKey normalizes a reference value (object with index/name, or a
// bare string) into a source key.
func extractKey(value any) string {
	switch v := value.(type) {
	case map[string]any:
		if index, ok := stringField(v, "index"); ok {
			return index
		}
		if name, ok := stringField(v, "name"); ok {
			return Slugify(name)
		}
	case string:
		return Slugify(v)
	}
	return ""
}

// extractPrereqNodes finds the prerequisite-bearing value under the first
// recognized key name, normalized to a list of objects.
func extractPrereqNodes(node map[string]any) []map[string]any {
	for _, key := range []string{"prerequisites", "prerequisite", "requirements", "requirement"} {
		switch value := node[key].(type) {
		case []any:
			var entries []map[string]any
			for _, entry := range value {
				if obj, ok := entry.(map[string]any); ok {
					entries = append(entries, obj)
				}
			}
			return entries
		case map[string]any:
			return []map[string]any{value}
		}
	}
	return nil
}

func entryNotes(entry map[string]any) string {
	for _, key := range []string{"name", "desc", "note"} {
		if value, ok := stringField(entry, key); ok {
			return value
		}
	}
	return ""
}

// parsePrereqEntry expands one prerequisite node into normalized rows. A
// single node may yield several rows: a node with both a class and a
// minimum level produces a level row and a class row. Operators default to
// ">=" for numeric checks and "==" for identity checks.
func parsePrereqEntry(entry map[string]any) []prereqRow {
	var rows []prereqRow
	entryType := ""
	if v, ok := stringField(entry, "type"); ok {
		entryType = Slugify(v)
	}
	operator := ""
	if v, ok := stringField(entry, "operator"); ok {
		operator = v
	}
	notes := entryNotes(entry)

	orDefault := func(op, fallback string) string {
		if op != "" {
			return op
		}
		return fallback
	}

	levelValue := coerceInt(entry["level"])
	if levelValue == nil {
		levelValue = coerceInt(entry["minimum_level"])
	}
	hasLevel := levelValue != nil
	classKey := extractKey(entry["class"])
	if hasLevel {
		key := classKey
		if key == "" {
			key = "any"
		}
		rows = append(rows, prereqRow{"level", key, orDefault(operator, ">="), strconv.Itoa(*levelValue), notes})
	}

	_, hasClassField := entry["class"]
	if classKey != "" && (entryType == "class" || (hasClassField && entryType != "level")) {
		rows = append(rows, prereqRow{"class", classKey, orDefault(operator, "=="), "true", notes})
	}

	subclassKey := extractKey(entry["subclass"])
	_, hasSubclassField := entry["subclass"]
	if subclassKey != "" && (entryType == "subclass" || hasSubclassField) {
		rows = append(rows, prereqRow{"subclass", subclassKey, orDefault(operator, "=="), "true", notes})
	}

	abilityKey := extractKey(entry["ability_score"])
	if abilityKey == "" {
		abilityKey = extractKey(entry["ability"])
	}
	minScore := coerceInt(entry["minimum_score"])
	if minScore == nil {
		minScore = coerceInt(entry["score"])
	}
	if minScore == nil {
		minScore = coerceInt(entry["value"])
	}
	if abilityKey != "" && minScore != nil {
		rows = append(rows, prereqRow{"ability", abilityKey, orDefault(operator, ">="), strconv.Itoa(*minScore), notes})
	}

	featureKey := extractKey(entry["feature"])
	if featureKey == "" {
		featureKey = extractKey(entry["prerequisite_feature"])
	}
	_, hasFeatureField := entry["feature"]
	if featureKey != "" && (entryType == "feature" || hasFeatureField) {
		rows = append(rows, prereqRow{"feature", featureKey, orDefault(operator, "=="), "true", notes})
	}

	return rows
}

func parsePrereqNodes(nodes []map[string]any) []prereqRow {
	var rows []prereqRow
	for _, entry := range nodes {
		rows = append(rows, parsePrereqEntry(entry)...)
	}
	return rows
}

// ExtractPrereqs walks raw class and feature documents and attaches
// prerequisites, either to the owning feature (root-level nodes) or to a
// specific choice group (nodes inside a choice point, matched by the
// recomputed stable key). Choice groups that cannot be matched increment
// MissingRefs and are skipped: document and choice extraction may run in
// separate passes.
func ExtractPrereqs(db *gorm.DB, rc *Context) (*PrereqStats, error) {
	stats := &PrereqStats{}

	var groups []models.ChoiceGroup
	if err := db.Where("source_id = ?", rc.Source.ID).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("load choice groups: %w", err)
	}
	groupsBySourceKey := make(map[string]*models.ChoiceGroup, len(groups))
	for i := range groups {
		if groups[i].SourceKey != "" {
			groupsBySourceKey[groups[i].SourceKey] = &groups[i]
		}
	}

	var existing []models.Prerequisite
	if err := db.Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("load prerequisites: %w", err)
	}
	seen := make(map[prereqKey]struct{}, len(existing))
	for _, p := range existing {
		seen[prereqKey{p.AppliesToType, p.AppliesToID, p.PrereqType, p.Key, p.Operator, p.Value}] = struct{}{}
	}

	insert := func(appliesToType string, appliesToID uint, row prereqRow) error {
		key := prereqKey{appliesToType, appliesToID, row.prereqType, row.key, row.operator, row.value}
		if _, dup := seen[key]; dup {
			return nil
		}
		record := models.Prerequisite{
			AppliesToType: appliesToType,
			AppliesToID:   appliesToID,
			PrereqType:    row.prereqType,
			Key:           row.key,
			Operator:      row.operator,
			Value:         row.value,
			Notes:         row.notes,
		}
		if err := db.Create(&record).Error; err != nil {
			return fmt.Errorf("create prerequisite %s/%s: %w", row.prereqType, row.key, err)
		}
		seen[key] = struct{}{}
		stats.Created++
		return nil
	}

	raws, err := rawEntities(db, rc.Source.ID, models.OwnerClass, models.OwnerFeature)
	if err != nil {
		return nil, err
	}

	for i := range raws {
		raw := &raws[i]
		owner := rc.resolveOwner(raw)
		if owner == nil {
			continue
		}
		payload := decodePayload(raw)

		if raw.EntityType == models.OwnerFeature {
			for _, row := range parsePrereqNodes(extractPrereqNodes(payload)) {
				if err := insert(models.AppliesToFeature, owner.id, row); err != nil {
					return nil, err
				}
			}
		}

		for _, choice := range collectChoiceNodes(payload) {
			choicePrereqs := extractPrereqNodes(choice)
			if len(choicePrereqs) == 0 {
				continue
			}

			_, _, _, sourceKey, _ := choiceIdentity(choice, payload, owner, raw.EntityType)
			group := groupsBySourceKey[sourceKey]
			if group == nil {
				stats.MissingRefs++
				continue
			}

			for _, row := range parsePrereqNodes(choicePrereqs) {
				if err := insert(models.AppliesToChoiceGroup, group.ID, row); err != nil {
					return nil, err
				}
			}
		}
	}

	return stats, nil
}
