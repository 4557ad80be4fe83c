package derive

import (
	"codex-manager/feature/srd/ingest"
	"codex-manager/feature/srd/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Derivation run phases.
const (
	PhaseChoices       = "choices"
	PhasePrereqs       = "prereqs"
	PhaseGrants        = "grants"
	PhaseRelationships = "relationships"
)

// Deriver runs the extraction passes for one source. Each phase executes
// inside its own transaction under a recorded import run; a failed phase
// rolls back its writes and stops the sequence.
type Deriver struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDeriver creates a new deriver.
func NewDeriver(db *gorm.DB, logger *zap.Logger) *Deriver {
	return &Deriver{db: db, logger: logger}
}

func (d *Deriver) runPhase(source *models.Source, phase string, body func(tx *gorm.DB, rc *Context) (int, map[string]int, error)) (map[string]int, error) {
	run, err := ingest.BeginRun(d.db, phase, source)
	if err != nil {
		return nil, err
	}

	var created int
	var notes map[string]int
	err = d.db.Transaction(func(tx *gorm.DB) error {
		rc, err := LoadContext(tx, source)
		if err != nil {
			return err
		}
		created, notes, err = body(tx, rc)
		return err
	})
	if err != nil {
		if failErr := ingest.FailRun(d.db, run, created, 0, err); failErr != nil {
			d.logger.Error("Failed to record failed run", zap.Error(failErr))
		}
		return nil, err
	}

	if err := ingest.FinishRun(d.db, run, created, 0, notes); err != nil {
		return nil, err
	}
	d.logger.Info("Derivation phase finished",
		zap.String("phase", phase),
		zap.String("run_key", run.RunKey),
		zap.Int("created", created))
	return notes, nil
}

// Choices runs the choice-extraction phase.
func (d *Deriver) Choices(source *models.Source) (map[string]int, error) {
	return d.runPhase(source, PhaseChoices, func(tx *gorm.DB, rc *Context) (int, map[string]int, error) {
		stats, err := ExtractChoices(tx, rc)
		if err != nil {
			return 0, nil, err
		}
		notes := map[string]int{
			"choice_groups_created":     stats.GroupsCreated,
			"choice_options_created":    stats.OptionsCreated,
			"missing_option_refs_count": stats.UnresolvedRefs,
		}
		return stats.GroupsCreated + stats.OptionsCreated, notes, nil
	})
}

// Prereqs runs the prerequisite-extraction phase.
func (d *Deriver) Prereqs(source *models.Source) (map[string]int, error) {
	return d.runPhase(source, PhasePrereqs, func(tx *gorm.DB, rc *Context) (int, map[string]int, error) {
		stats, err := ExtractPrereqs(tx, rc)
		if err != nil {
			return 0, nil, err
		}
		notes := map[string]int{
			"prereqs_created":    stats.Created,
			"missing_refs_count": stats.MissingRefs,
		}
		return stats.Created, notes, nil
	})
}

// Grants runs the grant-extraction phase.
func (d *Deriver) Grants(source *models.Source) (map[string]int, error) {
	return d.runPhase(source, PhaseGrants, func(tx *gorm.DB, rc *Context) (int, map[string]int, error) {
		stats, err := ExtractGrants(tx, rc)
		if err != nil {
			return 0, nil, err
		}
		notes := map[string]int{
			"grant_proficiencies_created": stats.ProficienciesCreated,
			"grant_spells_created":        stats.SpellsCreated,
			"grant_features_created":      stats.FeaturesCreated,
			"missing_refs_count":          stats.MissingRefs,
		}
		return stats.ProficienciesCreated + stats.SpellsCreated + stats.FeaturesCreated, notes, nil
	})
}

// Relationships runs the relationship-building phase.
func (d *Deriver) Relationships(source *models.Source) (map[string]int, error) {
	return d.runPhase(source, PhaseRelationships, func(tx *gorm.DB, rc *Context) (int, map[string]int, error) {
		stats, err := BuildRelationships(tx, rc)
		if err != nil {
			return 0, nil, err
		}
		notes := map[string]int{
			"class_features_created":    stats.ClassFeaturesCreated,
			"subclass_features_created": stats.SubclassFeaturesCreated,
			"spell_classes_created":     stats.SpellClassesCreated,
			"missing_refs_count":        stats.MissingRefs,
		}
		return stats.ClassFeaturesCreated + stats.SubclassFeaturesCreated + stats.SpellClassesCreated, notes, nil
	})
}

// All runs every derivation phase in dependency order and merges the
// per-phase notes.
func (d *Deriver) All(source *models.Source) (map[string]int, error) {
	merged := make(map[string]int)
	phases := []func(*models.Source) (map[string]int, error){
		d.Choices,
		d.Prereqs,
		d.Grants,
		d.Relationships,
	}
	for _, phase := range phases {
		notes, err := phase(source)
		if err != nil {
			return merged, err
		}
		for key, value := range notes {
			merged[key] += value
		}
	}
	return merged, nil
}
