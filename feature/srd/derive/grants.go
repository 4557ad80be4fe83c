package derive

import (
	"fmt"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

// GrantStats summarizes one grant-extraction pass.
type GrantStats struct {
	ProficienciesCreated int
	SpellsCreated        int
	FeaturesCreated      int
	MissingRefs          int
}

var proficiencyListKeys = []string{
	"proficiencies",
	"starting_proficiencies",
	"armor_proficiencies",
	"weapon_proficiencies",
	"tool_proficiencies",
	"skill_proficiencies",
}

// extractGrantRef normalizes a grant list entry into (key, label).
func extractGrantRef(item any) (string, string) {
	if node, ok := item.(map[string]any); ok {
		label, hasLabel := stringField(node, "name")
		key, hasKey := stringField(node, "index")
		if !hasKey {
			key, hasKey = stringField(node, "source_key")
		}
		if hasLabel && hasKey {
			return key, label
		}
		if hasLabel {
			return Slugify(label), label
		}
		if hasKey {
			return key, key
		}
	}
	if s, ok := item.(string); ok {
		return Slugify(s), s
	}
	label := stringify(item)
	if label == "" {
		label = "unknown"
	}
	return Slugify(label), label
}

func listField(payload map[string]any, key string) []any {
	list, _ := payload[key].([]any)
	return list
}

func nestedListField(payload map[string]any, parentKey, childKey string) []any {
	if parent, ok := payload[parentKey].(map[string]any); ok {
		list, _ := parent[childKey].([]any)
		return list
	}
	return nil
}

type proficiencyGrant struct {
	profType string
	key      string
	label    string
}

func collectProficiencyGrants(payload map[string]any) []proficiencyGrant {
	var grants []proficiencyGrant
	for _, key := range proficiencyListKeys {
		for _, item := range listField(payload, key) {
			profKey, label := extractGrantRef(item)
			grants = append(grants, proficiencyGrant{key, profKey, label})
		}
	}
	return grants
}

type keyedGrant struct {
	key   string
	label string
}

func collectSpellGrants(payload map[string]any) []keyedGrant {
	var grants []keyedGrant
	for _, item := range listField(payload, "spells") {
		key, label := extractGrantRef(item)
		grants = append(grants, keyedGrant{key, label})
	}
	for _, item := range nestedListField(payload, "spellcasting", "spells") {
		key, label := extractGrantRef(item)
		grants = append(grants, keyedGrant{key, label})
	}
	return grants
}

func collectFeatureGrants(payload map[string]any) []keyedGrant {
	var grants []keyedGrant
	for _, key := range []string{"features", "granted_features"} {
		for _, item := range listField(payload, key) {
			grantKey, label := extractGrantRef(item)
			grants = append(grants, keyedGrant{grantKey, label})
		}
	}
	return grants
}

type ownerGrantKey struct {
	ownerType string
	ownerID   uint
	typeOrKey string
	key       string
	label     string
}

// ExtractGrants scans the well-known list-shaped fields of raw class,
// subclass, and feature documents and materializes grant rows. A grant's
// identity is (owner, key, label) and never includes the resolved
// reference id, so a later pass can fill in a reference that resolves once
// the target entity exists without duplicating the row.
func ExtractGrants(db *gorm.DB, rc *Context) (*GrantStats, error) {
	stats := &GrantStats{}

	var existingProfs []models.GrantProficiency
	if err := db.Where("source_id = ?", rc.Source.ID).Find(&existingProfs).Error; err != nil {
		return nil, fmt.Errorf("load grant proficiencies: %w", err)
	}
	profKeys := make(map[ownerGrantKey]struct{}, len(existingProfs))
	for _, g := range existingProfs {
		profKeys[ownerGrantKey{g.OwnerType, g.OwnerID, g.ProficiencyType, g.ProficiencyKey, g.Label}] = struct{}{}
	}

	var existingSpells []models.GrantSpell
	if err := db.Where("source_id = ?", rc.Source.ID).Find(&existingSpells).Error; err != nil {
		return nil, fmt.Errorf("load grant spells: %w", err)
	}
	spellRows := make(map[ownerGrantKey]*models.GrantSpell, len(existingSpells))
	for i := range existingSpells {
		g := &existingSpells[i]
		spellRows[ownerGrantKey{g.OwnerType, g.OwnerID, "", g.SpellSourceKey, g.Label}] = g
	}

	var existingFeatures []models.GrantFeature
	if err := db.Where("source_id = ?", rc.Source.ID).Find(&existingFeatures).Error; err != nil {
		return nil, fmt.Errorf("load grant features: %w", err)
	}
	featureRows := make(map[ownerGrantKey]*models.GrantFeature, len(existingFeatures))
	for i := range existingFeatures {
		g := &existingFeatures[i]
		featureRows[ownerGrantKey{g.OwnerType, g.OwnerID, "", g.FeatureSourceKey, g.Label}] = g
	}

	raws, err := rawEntities(db, rc.Source.ID, models.OwnerClass, models.OwnerFeature, models.OwnerSubclass)
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

		for _, grant := range collectProficiencyGrants(payload) {
			key := ownerGrantKey{raw.EntityType, owner.id, grant.profType, grant.key, grant.label}
			if _, dup := profKeys[key]; dup {
				continue
			}
			row := models.GrantProficiency{
				SourceID:        rc.Source.ID,
				OwnerType:       raw.EntityType,
				OwnerID:         owner.id,
				ProficiencyType: grant.profType,
				ProficiencyKey:  grant.key,
				Label:           grant.label,
			}
			if err := db.Create(&row).Error; err != nil {
				return nil, fmt.Errorf("create grant proficiency %s: %w", grant.key, err)
			}
			profKeys[key] = struct{}{}
			stats.ProficienciesCreated++
		}

		for _, grant := range collectSpellGrants(payload) {
			key := ownerGrantKey{raw.EntityType, owner.id, "", grant.key, grant.label}
			if existing, dup := spellRows[key]; dup {
				// The identity row exists; a reference that resolves now is
				// filled in without creating a duplicate.
				if existing.SpellID == nil {
					if spell, ok := rc.Spells[grant.key]; ok {
						existing.SpellID = &spell.ID
						if err := db.Model(existing).Update("spell_id", spell.ID).Error; err != nil {
							return nil, fmt.Errorf("resolve grant spell %s: %w", grant.key, err)
						}
					}
				}
				continue
			}
			var spellID *uint
			if spell, ok := rc.Spells[grant.key]; ok {
				spellID = &spell.ID
			} else {
				stats.MissingRefs++
			}
			row := models.GrantSpell{
				SourceID:       rc.Source.ID,
				OwnerType:      raw.EntityType,
				OwnerID:        owner.id,
				SpellSourceKey: grant.key,
				Label:          grant.label,
				SpellID:        spellID,
			}
			if err := db.Create(&row).Error; err != nil {
				return nil, fmt.Errorf("create grant spell %s: %w", grant.key, err)
			}
			spellRows[key] = &row
			stats.SpellsCreated++
		}

		for _, grant := range collectFeatureGrants(payload) {
			key := ownerGrantKey{raw.EntityType, owner.id, "", grant.key, grant.label}
			if existing, dup := featureRows[key]; dup {
				if existing.FeatureID == nil {
					if feature, ok := rc.Features[grant.key]; ok {
						existing.FeatureID = &feature.ID
						if err := db.Model(existing).Update("feature_id", feature.ID).Error; err != nil {
							return nil, fmt.Errorf("resolve grant feature %s: %w", grant.key, err)
						}
					}
				}
				continue
			}
			var featureID *uint
			if feature, ok := rc.Features[grant.key]; ok {
				featureID = &feature.ID
			} else {
				stats.MissingRefs++
			}
			row := models.GrantFeature{
				SourceID:         rc.Source.ID,
				OwnerType:        raw.EntityType,
				OwnerID:          owner.id,
				FeatureSourceKey: grant.key,
				Label:            grant.label,
				FeatureID:        featureID,
			}
			if err := db.Create(&row).Error; err != nil {
				return nil, fmt.Errorf("create grant feature %s: %w", grant.key, err)
			}
			featureRows[key] = &row
			stats.FeaturesCreated++
		}
	}

	return stats, nil
}
