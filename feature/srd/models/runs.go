package models

import "time"

// Import run statuses.
const (
	RunStarted = "started"
	RunSuccess = "success"
	RunFailed  = "failed"
)

// ImportRun records one ingest or derivation pass. It is created when the
// pass starts and finalized exactly once when the pass ends; failed runs
// keep the error text and whatever counts were accumulated before the abort.
type ImportRun struct {
	ID          uint       `gorm:"column:id;primaryKey"`
	SourceID    *uint      `gorm:"column:source_id;index"`
	SourceName  string     `gorm:"column:source_name"`
	Phase       string     `gorm:"column:phase;index"`
	RunKey      string     `gorm:"column:run_key;uniqueIndex"`
	Status      string     `gorm:"column:status;not null;index"`
	CreatedRows int        `gorm:"column:created_rows;not null;default:0"`
	UpdatedRows int        `gorm:"column:updated_rows;not null;default:0"`
	Notes       string     `gorm:"column:notes;type:text"`
	Error       string     `gorm:"column:error;type:text"`
	StartedAt   time.Time  `gorm:"column:started_at;not null;index"`
	FinishedAt  *time.Time `gorm:"column:finished_at"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (ImportRun) TableName() string {
	return "import_runs"
}

// ImportSnapshot is a point-in-time fingerprint of the derived graph for
// one source: per-table row counts and per-table hashes of the sorted
// natural-key projections, both serialized as sorted-key JSON. Immutable
// once created; used only for diffing against the prior snapshot.
type ImportSnapshot struct {
	ID         uint   `gorm:"column:id;primaryKey"`
	SourceID   uint   `gorm:"column:source_id;not null;index:ix_import_snapshots_source"`
	RunKey     string `gorm:"column:run_key;index:ix_import_snapshots_run_key"`
	CountsJSON string `gorm:"column:counts_json;type:text;not null"`
	HashesJSON string `gorm:"column:hashes_json;type:text;not null"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (ImportSnapshot) TableName() string {
	return "import_snapshots"
}
