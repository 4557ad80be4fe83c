package derive

import (
	"encoding/json"
	"fmt"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

// Context carries the pre-loaded lookup maps one derivation pass needs:
// every normalized entity for the source keyed by source_key, loaded once
// per pass. Extractors are pure functions of (document, context).
type Context struct {
	Source     *models.Source
	Classes    map[string]*models.Class
	Subclasses map[string]*models.Subclass
	Features   map[string]*models.Feature
	Spells     map[string]*models.Spell
}

// LoadContext builds the lookup context for one source.
func LoadContext(db *gorm.DB, source *models.Source) (*Context, error) {
	rc := &Context{
		Source:     source,
		Classes:    make(map[string]*models.Class),
		Subclasses: make(map[string]*models.Subclass),
		Features:   make(map[string]*models.Feature),
		Spells:     make(map[string]*models.Spell),
	}

	var classes []models.Class
	if err := db.Where("source_id = ?", source.ID).Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("load classes: %w", err)
	}
	for i := range classes {
		rc.Classes[classes[i].SourceKey] = &classes[i]
	}

	var subclasses []models.Subclass
	if err := db.Where("source_id = ?", source.ID).Find(&subclasses).Error; err != nil {
		return nil, fmt.Errorf("load subclasses: %w", err)
	}
	for i := range subclasses {
		rc.Subclasses[subclasses[i].SourceKey] = &subclasses[i]
	}

	var features []models.Feature
	if err := db.Where("source_id = ?", source.ID).Find(&features).Error; err != nil {
		return nil, fmt.Errorf("load features: %w", err)
	}
	for i := range features {
		rc.Features[features[i].SourceKey] = &features[i]
	}

	var spells []models.Spell
	if err := db.Where("source_id = ?", source.ID).Find(&spells).Error; err != nil {
		return nil, fmt.Errorf("load spells: %w", err)
	}
	for i := range spells {
		rc.Spells[spells[i].SourceKey] = &spells[i]
	}

	return rc, nil
}

// ownerRef is the slice of a normalized entity the extractors care about.
type ownerRef struct {
	id        uint
	sourceKey string
	name      string
	level     *int
}

// resolveOwner maps a raw entity onto its normalized owner row, nil when
// the entity has not been normalized yet.
func (rc *Context) resolveOwner(raw *models.RawEntity) *ownerRef {
	switch raw.EntityType {
	case models.OwnerClass:
		if c, ok := rc.Classes[raw.SourceKey]; ok {
			return &ownerRef{id: c.ID, sourceKey: c.SourceKey, name: c.Name}
		}
	case models.OwnerSubclass:
		if s, ok := rc.Subclasses[raw.SourceKey]; ok {
			return &ownerRef{id: s.ID, sourceKey: s.SourceKey, name: s.Name}
		}
	case models.OwnerFeature:
		if f, ok := rc.Features[raw.SourceKey]; ok {
			return &ownerRef{id: f.ID, sourceKey: f.SourceKey, name: f.Name, level: f.Level}
		}
	}
	return nil
}

// rawEntities loads the raw documents of the given types for the source.
func rawEntities(db *gorm.DB, sourceID uint, entityTypes ...string) ([]models.RawEntity, error) {
	var rows []models.RawEntity
	err := db.Where("source_id = ? AND entity_type IN ?", sourceID, entityTypes).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load raw entities: %w", err)
	}
	return rows, nil
}

func decodePayload(raw *models.RawEntity) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(raw.RawJSON, &payload); err != nil {
		return map[string]any{}
	}
	return payload
}
