package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"codex-manager/feature/srd/models"

	"gorm.io/gorm"
)

// BeginRun opens an import run record for one pass of the given phase.
func BeginRun(db *gorm.DB, phase string, source *models.Source) (*models.ImportRun, error) {
	now := time.Now().UTC()
	run := models.ImportRun{
		Phase:     phase,
		RunKey:    fmt.Sprintf("%s-%d-%d", phase, source.ID, now.UnixNano()),
		Status:    models.RunStarted,
		StartedAt: now,
	}
	run.SourceID = &source.ID
	run.SourceName = source.Name
	if err := db.Create(&run).Error; err != nil {
		return nil, fmt.Errorf("begin %s run: %w", phase, err)
	}
	return &run, nil
}

// FinishRun finalizes a run as successful, recording row counts and any
// per-phase notes as sorted-key JSON.
func FinishRun(db *gorm.DB, run *models.ImportRun, created, updated int, notes map[string]int) error {
	now := time.Now().UTC()
	run.Status = models.RunSuccess
	run.CreatedRows = created
	run.UpdatedRows = updated
	run.FinishedAt = &now
	if len(notes) > 0 {
		buf, err := json.Marshal(notes)
		if err != nil {
			return fmt.Errorf("encode run notes: %w", err)
		}
		run.Notes = string(buf)
	}
	if err := db.Save(run).Error; err != nil {
		return fmt.Errorf("finish run %s: %w", run.RunKey, err)
	}
	return nil
}

// FailRun finalizes a run as failed, keeping the error text and whatever
// counts had accumulated before the abort.
func FailRun(db *gorm.DB, run *models.ImportRun, created, updated int, cause error) error {
	now := time.Now().UTC()
	run.Status = models.RunFailed
	run.CreatedRows = created
	run.UpdatedRows = updated
	run.FinishedAt = &now
	if cause != nil {
		run.Error = cause.Error()
	}
	if err := db.Save(run).Error; err != nil {
		return fmt.Errorf("fail run %s: %w", run.RunKey, err)
	}
	return nil
}
