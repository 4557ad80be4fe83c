package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

type apiRef struct {
	Index string `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

func projectClass(db *gorm.DB, raw *models.RawEntity) (bool, bool, error) {
	var doc struct {
		Index  string `json:"index"`
		Name   string `json:"name"`
		HitDie *int   `json:"hit_die"`
		URL    string `json:"url"`
	}
	if err := json.Unmarshal(raw.RawJSON, &doc); err != nil {
		return false, false, fmt.Errorf("decode class %s: %w", raw.SourceKey, err)
	}

	var row models.Class
	err := db.Where("source_id = ? AND source_key = ?", raw.SourceID, raw.SourceKey).First(&row).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, false, fmt.Errorf("lookup class %s: %w", raw.SourceKey, err)
	}

	row.SourceID = raw.SourceID
	row.SourceKey = raw.SourceKey
	row.RawEntityID = &raw.ID
	row.Name = doc.Name
	row.HitDie = doc.HitDie
	row.SRD = raw.SRD
	row.APIURL = doc.URL
	if err := db.Save(&row).Error; err != nil {
		return false, false, fmt.Errorf("save class %s: %w", raw.SourceKey, err)
	}
	return created, !created, nil
}

func projectSubclass(db *gorm.DB, raw *models.RawEntity) (bool, bool, error) {
	var doc struct {
		Index          string   `json:"index"`
		Name           string   `json:"name"`
		Class          apiRef   `json:"class"`
		SubclassFlavor string   `json:"subclass_flavor"`
		Desc           []string `json:"desc"`
		URL            string   `json:"url"`
	}
	if err := json.Unmarshal(raw.RawJSON, &doc); err != nil {
		return false, false, fmt.Errorf("decode subclass %s: %w", raw.SourceKey, err)
	}

	var row models.Subclass
	err := db.Where("source_id = ? AND source_key = ?", raw.SourceID, raw.SourceKey).First(&row).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, false, fmt.Errorf("lookup subclass %s: %w", raw.SourceKey, err)
	}

	row.SourceID = raw.SourceID
	row.SourceKey = raw.SourceKey
	row.RawEntityID = &raw.ID
	row.Name = doc.Name
	row.ClassSourceKey = doc.Class.Index
	row.SubclassFlavor = doc.SubclassFlavor
	row.Desc = joinLines(doc.Desc)
	row.SRD = raw.SRD
	row.APIURL = doc.URL
	if err := db.Save(&row).Error; err != nil {
		return false, false, fmt.Errorf("save subclass %s: %w", raw.SourceKey, err)
	}
	return created, !created, nil
}

func projectFeature(db *gorm.DB, raw *models.RawEntity) (bool, bool, error) {
	var doc struct {
		Index    string   `json:"index"`
		Name     string   `json:"name"`
		Level    *int     `json:"level"`
		Class    apiRef   `json:"class"`
		Subclass apiRef   `json:"subclass"`
		Desc     []string `json:"desc"`
		URL      string   `json:"url"`
	}
	if err := json.Unmarshal(raw.RawJSON, &doc); err != nil {
		return false, false, fmt.Errorf("decode feature %s: %w", raw.SourceKey, err)
	}

	var row models.Feature
	err := db.Where("source_id = ? AND source_key = ?", raw.SourceID, raw.SourceKey).First(&row).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, false, fmt.Errorf("lookup feature %s: %w", raw.SourceKey, err)
	}

	row.SourceID = raw.SourceID
	row.SourceKey = raw.SourceKey
	row.RawEntityID = &raw.ID
	row.Name = doc.Name
	row.Level = doc.Level
	row.ClassSourceKey = doc.Class.Index
	row.SubclassSourceKey = doc.Subclass.Index
	row.Desc = joinLines(doc.Desc)
	row.SRD = raw.SRD
	row.APIURL = doc.URL
	if err := db.Save(&row).Error; err != nil {
		return false, false, fmt.Errorf("save feature %s: %w", raw.SourceKey, err)
	}
	return created, !created, nil
}
