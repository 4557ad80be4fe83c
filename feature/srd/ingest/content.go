package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

func projectSpell(db *gorm.DB, raw *models.RawEntity) (bool, bool, error) {
	var doc struct {
		Index         string   `json:"index"`
		Name          string   `json:"name"`
		Level         int      `json:"level"`
		School        apiRef   `json:"school"`
		CastingTime   string   `json:"casting_time"`
		Range         string   `json:"range"`
		Duration      string   `json:"duration"`
		Concentration bool     `json:"concentration"`
		Ritual        bool     `json:"ritual"`
		Desc          []string `json:"desc"`
		HigherLevel   []string `json:"higher_level"`
		Components    []string `json:"components"`
		Material      string   `json:"material"`
		DC            *struct {
			DCType apiRef `json:"dc_type"`
		} `json:"dc"`
		Damage *struct {
			DamageType apiRef `json:"damage_type"`
		} `json:"damage"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw.RawJSON, &doc); err != nil {
		return false, false, fmt.Errorf("decode spell %s: %w", raw.SourceKey, err)
	}

	var row models.Spell
	err := db.Where("source_id = ? AND source_key = ?", raw.SourceID, raw.SourceKey).First(&row).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, false, fmt.Errorf("lookup spell %s: %w", raw.SourceKey, err)
	}

	row.SourceID = raw.SourceID
	row.SourceKey = raw.SourceKey
	row.RawEntityID = &raw.ID
	row.Name = doc.Name
	row.Level = doc.Level
	row.School = doc.School.Name
	row.CastingTime = doc.CastingTime
	row.Range = doc.Range
	row.Duration = doc.Duration
	row.Concentration = doc.Concentration
	row.Ritual = doc.Ritual
	row.Desc = joinLines(doc.Desc)
	row.HigherLevel = joinLines(doc.HigherLevel)
	row.Components = strings.Join(doc.Components, ",")
	row.Material = doc.Material
	if doc.DC != nil {
		row.SaveDCAbility = doc.DC.DCType.Name
	}
	if doc.Damage != nil {
		row.DamageType = doc.Damage.DamageType.Name
	}
	row.SRD = raw.SRD
	row.APIURL = doc.URL
	if err := db.Save(&row).Error; err != nil {
		return false, false, fmt.Errorf("save spell %s: %w", raw.SourceKey, err)
	}
	return created, !created, nil
}

func projectItem(db *gorm.DB, raw *models.RawEntity) (bool, bool, error) {
	var doc struct {
		Index             string `json:"index"`
		Name              string `json:"name"`
		EquipmentCategory apiRef `json:"equipment_category"`
		Cost              *struct {
			Quantity int    `json:"quantity"`
			Unit     string `json:"unit"`
		} `json:"cost"`
		Weight *float64 `json:"weight"`
		Desc   []string `json:"desc"`
		URL    string   `json:"url"`
	}
	if err := json.Unmarshal(raw.RawJSON, &doc); err != nil {
		return false, false, fmt.Errorf("decode item %s: %w", raw.SourceKey, err)
	}

	var row models.Item
	err := db.Where("source_id = ? AND source_key = ?", raw.SourceID, raw.SourceKey).First(&row).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, false, fmt.Errorf("lookup item %s: %w", raw.SourceKey, err)
	}

	row.SourceID = raw.SourceID
	row.SourceKey = raw.SourceKey
	row.RawEntityID = &raw.ID
	row.Name = doc.Name
	row.EquipmentCategory = doc.EquipmentCategory.Name
	if doc.Cost != nil {
		qty := doc.Cost.Quantity
		row.CostQuantity = &qty
		row.CostUnit = doc.Cost.Unit
	}
	row.Weight = doc.Weight
	row.Desc = joinLines(doc.Desc)
	row.SRD = raw.SRD
	row.APIURL = doc.URL
	if err := db.Save(&row).Error; err != nil {
		return false, false, fmt.Errorf("save item %s: %w", raw.SourceKey, err)
	}
	return created, !created, nil
}

func projectCondition(db *gorm.DB, raw *models.RawEntity) (bool, bool, error) {
	var doc struct {
		Index string   `json:"index"`
		Name  string   `json:"name"`
		Desc  []string `json:"desc"`
		URL   string   `json:"url"`
	}
	if err := json.Unmarshal(raw.RawJSON, &doc); err != nil {
		return false, false, fmt.Errorf("decode condition %s: %w", raw.SourceKey, err)
	}

	var row models.Condition
	err := db.Where("source_id = ? AND source_key = ?", raw.SourceID, raw.SourceKey).First(&row).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, false, fmt.Errorf("lookup condition %s: %w", raw.SourceKey, err)
	}

	row.SourceID = raw.SourceID
	row.SourceKey = raw.SourceKey
	row.RawEntityID = &raw.ID
	row.Name = doc.Name
	row.Desc = joinLines(doc.Desc)
	row.SRD = raw.SRD
	row.APIURL = doc.URL
	if err := db.Save(&row).Error; err != nil {
		return false, false, fmt.Errorf("save condition %s: %w", raw.SourceKey, err)
	}
	return created, !created, nil
}

// monsterArmorClass tolerates both the scalar and the list-of-objects shape
// that different source revisions use for armor_class.
func monsterArmorClass(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var scalar int
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return &scalar
	}
	var list []struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		v := list[0].Value
		return &v
	}
	return nil
}

func projectMonster(db *gorm.DB, raw *models.RawEntity) (bool, bool, error) {
	var doc struct {
		Index           string          `json:"index"`
		Name            string          `json:"name"`
		Size            string          `json:"size"`
		Type            string          `json:"type"`
		Alignment       string          `json:"alignment"`
		ArmorClass      json.RawMessage `json:"armor_class"`
		HitPoints       *int            `json:"hit_points"`
		ChallengeRating *float64        `json:"challenge_rating"`
		URL             string          `json:"url"`
	}
	if err := json.Unmarshal(raw.RawJSON, &doc); err != nil {
		return false, false, fmt.Errorf("decode monster %s: %w", raw.SourceKey, err)
	}

	var row models.Monster
	err := db.Where("source_id = ? AND source_key = ?", raw.SourceID, raw.SourceKey).First(&row).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, false, fmt.Errorf("lookup monster %s: %w", raw.SourceKey, err)
	}

	row.SourceID = raw.SourceID
	row.SourceKey = raw.SourceKey
	row.RawEntityID = &raw.ID
	row.Name = doc.Name
	row.Size = doc.Size
	row.Type = doc.Type
	row.Alignment = doc.Alignment
	row.ArmorClass = monsterArmorClass(doc.ArmorClass)
	row.HitPoints = doc.HitPoints
	row.ChallengeRating = doc.ChallengeRating
	row.SRD = raw.SRD
	row.APIURL = doc.URL
	if err := db.Save(&row).Error; err != nil {
		return false, false, fmt.Errorf("save monster %s: %w", raw.SourceKey, err)
	}
	return created, !created, nil
}
