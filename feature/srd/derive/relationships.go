package derive

import (
	"fmt"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

// LinkStats summarizes one relationship-building pass.
type LinkStats struct {
	ClassFeaturesCreated    int
	SubclassFeaturesCreated int
	SpellClassesCreated     int
	MissingRefs             int
}

// extractClassKeys pulls the referenced class source keys from a spell
// payload, tolerating both the "classes" list and a singular "class"
// object.
func extractClassKeys(payload map[string]any) []string {
	value, ok := payload["classes"]
	if !ok {
		value = payload["class"]
	}
	switch v := value.(type) {
	case map[string]any:
		if index, ok := stringField(v, "index"); ok && index != "" {
			return []string{index}
		}
	case []any:
		var keys []string
		for _, entry := range v {
			if obj, ok := entry.(map[string]any); ok {
				if index, ok := stringField(obj, "index"); ok && index != "" {
					keys = append(keys, index)
				}
			}
		}
		return keys
	}
	return nil
}

// extractFeatureRefs pulls the owning class, subclass, and unlock level
// from a feature payload.
func extractFeatureRefs(payload map[string]any) (classKey, subclassKey string, level *int) {
	if classInfo, ok := payload["class"].(map[string]any); ok {
		classKey, _ = stringField(classInfo, "index")
	}
	if subclassInfo, ok := payload["subclass"].(map[string]any); ok {
		subclassKey, _ = stringField(subclassInfo, "index")
	}
	level = coerceInt(payload["level"])
	return classKey, subclassKey, level
}

type featureLinkKey struct {
	leftID    uint
	featureID uint
	level     int
}

// BuildRelationships derives the join tables: a spell-class link per class
// referenced by a spell document, and class/subclass-feature links from
// each feature document's owner references. All links are scoped by source.
// References to entities that have not been normalized yet increment
// MissingRefs and are skipped, not retried within the pass.
func BuildRelationships(db *gorm.DB, rc *Context) (*LinkStats, error) {
	stats := &LinkStats{}

	var existingClassLinks []models.ClassFeatureLink
	if err := db.Where("source_id = ?", rc.Source.ID).Find(&existingClassLinks).Error; err != nil {
		return nil, fmt.Errorf("load class feature links: %w", err)
	}
	classFeatureKeys := make(map[featureLinkKey]struct{}, len(existingClassLinks))
	for _, link := range existingClassLinks {
		classFeatureKeys[featureLinkKey{link.ClassID, link.FeatureID, levelKey(link.Level)}] = struct{}{}
	}

	var existingSubclassLinks []models.SubclassFeatureLink
	if err := db.Where("source_id = ?", rc.Source.ID).Find(&existingSubclassLinks).Error; err != nil {
		return nil, fmt.Errorf("load subclass feature links: %w", err)
	}
	subclassFeatureKeys := make(map[featureLinkKey]struct{}, len(existingSubclassLinks))
	for _, link := range existingSubclassLinks {
		subclassFeatureKeys[featureLinkKey{link.SubclassID, link.FeatureID, levelKey(link.Level)}] = struct{}{}
	}

	var existingSpellLinks []models.SpellClassLink
	if err := db.Where("source_id = ?", rc.Source.ID).Find(&existingSpellLinks).Error; err != nil {
		return nil, fmt.Errorf("load spell class links: %w", err)
	}
	spellClassKeys := make(map[[2]uint]struct{}, len(existingSpellLinks))
	for _, link := range existingSpellLinks {
		spellClassKeys[[2]uint{link.SpellID, link.ClassID}] = struct{}{}
	}

	spellRaws, err := rawEntities(db, rc.Source.ID, "spell")
	if err != nil {
		return nil, err
	}
	for i := range spellRaws {
		raw := &spellRaws[i]
		spell, ok := rc.Spells[raw.SourceKey]
		if !ok {
			stats.MissingRefs++
			continue
		}
		payload := decodePayload(raw)
		for _, classKey := range extractClassKeys(payload) {
			class, ok := rc.Classes[classKey]
			if !ok {
				stats.MissingRefs++
				continue
			}
			key := [2]uint{spell.ID, class.ID}
			if _, dup := spellClassKeys[key]; dup {
				continue
			}
			link := models.SpellClassLink{SourceID: rc.Source.ID, SpellID: spell.ID, ClassID: class.ID}
			if err := db.Create(&link).Error; err != nil {
				return nil, fmt.Errorf("create spell class link %s/%s: %w", raw.SourceKey, classKey, err)
			}
			spellClassKeys[key] = struct{}{}
			stats.SpellClassesCreated++
		}
	}

	featureRaws, err := rawEntities(db, rc.Source.ID, models.OwnerFeature)
	if err != nil {
		return nil, err
	}
	for i := range featureRaws {
		raw := &featureRaws[i]
		feature, ok := rc.Features[raw.SourceKey]
		if !ok {
			stats.MissingRefs++
			continue
		}
		payload := decodePayload(raw)
		classKey, subclassKey, level := extractFeatureRefs(payload)

		if classKey != "" {
			class, ok := rc.Classes[classKey]
			if !ok {
				stats.MissingRefs++
			} else {
				key := featureLinkKey{class.ID, feature.ID, levelKey(level)}
				if _, dup := classFeatureKeys[key]; !dup {
					link := models.ClassFeatureLink{
						SourceID:  rc.Source.ID,
						ClassID:   class.ID,
						FeatureID: feature.ID,
						Level:     level,
					}
					if err := db.Create(&link).Error; err != nil {
						return nil, fmt.Errorf("create class feature link %s/%s: %w", classKey, raw.SourceKey, err)
					}
					classFeatureKeys[key] = struct{}{}
					stats.ClassFeaturesCreated++
				}
			}
		}

		if subclassKey != "" {
			subclass, ok := rc.Subclasses[subclassKey]
			if !ok {
				stats.MissingRefs++
			} else {
				key := featureLinkKey{subclass.ID, feature.ID, levelKey(level)}
				if _, dup := subclassFeatureKeys[key]; !dup {
					link := models.SubclassFeatureLink{
						SourceID:   rc.Source.ID,
						SubclassID: subclass.ID,
						FeatureID:  feature.ID,
						Level:      level,
					}
					if err := db.Create(&link).Error; err != nil {
						return nil, fmt.Errorf("create subclass feature link %s/%s: %w", subclassKey, raw.SourceKey, err)
					}
					subclassFeatureKeys[key] = struct{}{}
					stats.SubclassFeaturesCreated++
				}
			}
		}
	}

	return stats, nil
}
