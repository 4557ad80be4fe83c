package srd

import (
	"fmt"

	"codex-manager/feature/srd/models"
	"codex-manager/feature/srd/queries"
	"codex-manager/feature/srd/snapshot"
	"codex-manager/feature/srd/verify"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service exposes read access to the derived rules graph.
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	queries  *queries.Service
	verifier *verify.Verifier
}

// NewService creates a new srd service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		logger:   logger,
		queries:  queries.NewService(db, logger),
		verifier: verify.NewVerifier(db, logger),
	}
}

// Queries returns the derived query service.
func (s *Service) Queries() *queries.Service {
	return s.queries
}

// ListClasses returns every normalized class sorted by name.
func (s *Service) ListClasses() ([]models.Class, error) {
	var classes []models.Class
	if err := s.db.Order("name").Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("load classes: %w", err)
	}
	return classes, nil
}

// ClassByKey resolves a class by its source key.
func (s *Service) ClassByKey(key string) (*models.Class, error) {
	var class models.Class
	if err := s.db.Where("source_key = ?", key).First(&class).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

// SubclassByKey resolves a subclass by its source key.
func (s *Service) SubclassByKey(key string) (*models.Subclass, error) {
	var subclass models.Subclass
	if err := s.db.Where("source_key = ?", key).First(&subclass).Error; err != nil {
		return nil, err
	}
	return &subclass, nil
}

// Verify runs the consistency checks over the whole graph.
func (s *Service) Verify() (*verify.Report, error) {
	return s.verifier.Run()
}

// SnapshotDiff compares the two most recent snapshots of a source.
func (s *Service) SnapshotDiff(sourceID uint) ([]string, error) {
	snaps, err := snapshot.Latest(s.db, sourceID, 2)
	if err != nil {
		return nil, err
	}
	switch len(snaps) {
	case 0:
		return []string{"No previous snapshot found."}, nil
	case 1:
		return snapshot.Diff(nil, &snaps[0])
	default:
		return snapshot.Diff(&snaps[1], &snaps[0])
	}
}
