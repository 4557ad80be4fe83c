package verify

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Verifier runs the full consistency suite over the derived graph.
type Verifier struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewVerifier creates a new verifier.
func NewVerifier(db *gorm.DB, logger *zap.Logger) *Verifier {
	return &Verifier{db: db, logger: logger}
}

// Run executes every check and returns the collected report. Only storage
// failures surface as an error; data violations land in the report.
func (v *Verifier) Run() (*Report, error) {
	report := &Report{}

	if err := checkRawEntities(v.db, report); err != nil {
		return nil, err
	}
	for _, spec := range entityTables {
		if err := checkEntityTable(v.db, spec, report); err != nil {
			return nil, err
		}
		if err := checkCrossSource(v.db, spec, report); err != nil {
			return nil, err
		}
	}
	if err := checkChoices(v.db, report); err != nil {
		return nil, err
	}
	if err := checkPrereqs(v.db, report); err != nil {
		return nil, err
	}
	if err := checkGrants(v.db, report); err != nil {
		return nil, err
	}
	if err := checkLinks(v.db, report); err != nil {
		return nil, err
	}
	if err := checkCoverage(v.db, report); err != nil {
		return nil, err
	}

	v.logger.Info("Verification finished",
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}
