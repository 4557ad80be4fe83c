package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

// CanonicalJSON re-serializes a JSON document with object keys sorted, so
// that two documents differing only in key order produce identical bytes.
func CanonicalJSON(payload []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}
	return out, nil
}

// CanonicalHash returns the hex sha256 of the canonicalized payload.
func CanonicalHash(payload []byte) (string, error) {
	canon, err := CanonicalJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// EnsureSource returns the source row with the given name, creating it on
// first use.
func EnsureSource(db *gorm.DB, name, baseURL string) (*models.Source, error) {
	var src models.Source
	err := db.Where("name = ?", name).First(&src).Error
	if err == nil {
		return &src, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup source %q: %w", name, err)
	}
	src = models.Source{Name: name, BaseURL: baseURL}
	if err := db.Create(&src).Error; err != nil {
		return nil, fmt.Errorf("create source %q: %w", name, err)
	}
	return &src, nil
}

// UpsertRawEntity lands one raw document under its natural key
// (source, entity type, source key). The outcome depends on the content
// hash of the canonicalized payload:
//
//   - no existing row: insert, created=true
//   - existing row with the same hash: only RetrievedAt is refreshed
//   - existing row with a different hash: payload, hash and the scalar
//     columns are rewritten, updated=true
func UpsertRawEntity(db *gorm.DB, sourceID uint, entityType, sourceKey string, payload []byte, name string, srd *bool, url string) (*models.RawEntity, bool, bool, error) {
	hash, err := CanonicalHash(payload)
	if err != nil {
		return nil, false, false, err
	}
	now := time.Now().UTC()

	var row models.RawEntity
	err = db.Where("source_id = ? AND entity_type = ? AND source_key = ?", sourceID, entityType, sourceKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.RawEntity{
			SourceID:    sourceID,
			EntityType:  entityType,
			SourceKey:   sourceKey,
			Name:        name,
			SRD:         srd,
			URL:         url,
			RawJSON:     payload,
			RawHash:     hash,
			RetrievedAt: now,
		}
		if err := db.Create(&row).Error; err != nil {
			return nil, false, false, fmt.Errorf("insert raw %s/%s: %w", entityType, sourceKey, err)
		}
		return &row, true, false, nil
	}
	if err != nil {
		return nil, false, false, fmt.Errorf("lookup raw %s/%s: %w", entityType, sourceKey, err)
	}

	if row.RawHash == hash {
		row.RetrievedAt = now
		if err := db.Model(&row).Update("retrieved_at", now).Error; err != nil {
			return nil, false, false, fmt.Errorf("touch raw %s/%s: %w", entityType, sourceKey, err)
		}
		return &row, false, false, nil
	}

	row.Name = name
	row.SRD = srd
	row.URL = url
	row.RawJSON = payload
	row.RawHash = hash
	row.RetrievedAt = now
	if err := db.Save(&row).Error; err != nil {
		return nil, false, false, fmt.Errorf("update raw %s/%s: %w", entityType, sourceKey, err)
	}
	return &row, false, true, nil
}
