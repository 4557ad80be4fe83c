package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"codex-manager/core/srdapi"
	"codex-manager/core/utils"
	"codex-manager/feature/srd/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PhaseIngest is the run phase recorded for import passes.
const PhaseIngest = "ingest"

type kindSpec struct {
	// apiKind is the listing path segment on the content source.
	apiKind string
	// entityType is the raw_entities type discriminator.
	entityType string
	project    func(db *gorm.DB, raw *models.RawEntity) (bool, bool, error)
}

var kinds = []kindSpec{
	{apiKind: "classes", entityType: "class", project: projectClass},
	{apiKind: "subclasses", entityType: "subclass", project: projectSubclass},
	{apiKind: "features", entityType: "feature", project: projectFeature},
	{apiKind: "spells", entityType: "spell", project: projectSpell},
	{apiKind: "equipment", entityType: "item", project: projectItem},
	{apiKind: "conditions", entityType: "condition", project: projectCondition},
	{apiKind: "monsters", entityType: "monster", project: projectMonster},
}

// KindNames lists the importable kinds in import order.
func KindNames() []string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.apiKind)
	}
	return names
}

// Importer drives one or more kinds from a content source into the raw and
// projection tables. The archive is optional; when nil, payloads are only
// stored in the database.
type Importer struct {
	db      *gorm.DB
	api     srdapi.ContentSource
	archive *Archive
	logger  *zap.Logger
}

// NewImporter creates a new importer.
func NewImporter(db *gorm.DB, api srdapi.ContentSource, archive *Archive, logger *zap.Logger) *Importer {
	return &Importer{
		db:      db,
		api:     api,
		archive: archive,
		logger:  logger,
	}
}

// payloadMeta pulls the scalar columns the raw row carries alongside the
// payload itself.
func payloadMeta(payload []byte) (name string, srd *bool, url string) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", nil, ""
	}
	if v, ok := doc["name"]; ok && v != nil {
		name = utils.ToString(v)
	}
	// Some source revisions carry srd as a bare bool, others as "true".
	if v, ok := doc["srd"]; ok && v != nil {
		b := utils.ToBool(v)
		srd = &b
	}
	if v, ok := doc["url"]; ok && v != nil {
		url = utils.ToString(v)
	}
	return name, srd, url
}

func (i *Importer) importKind(ctx context.Context, source *models.Source, spec kindSpec) (created, updated, fetched int, err error) {
	refs, err := i.api.ListResources(ctx, spec.apiKind)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("list %s: %w", spec.apiKind, err)
	}
	i.logger.Info("Importing kind",
		zap.String("kind", spec.apiKind),
		zap.Int("resources", len(refs)))

	for _, ref := range refs {
		payload, err := i.api.FetchByKey(ctx, spec.apiKind, ref.Key)
		if err != nil {
			return created, updated, fetched, fmt.Errorf("fetch %s/%s: %w", spec.apiKind, ref.Key, err)
		}
		fetched++

		name, srd, url := payloadMeta(payload)
		if name == "" {
			name = ref.Name
		}
		if url == "" {
			url = ref.URL
		}

		raw, rawCreated, rawUpdated, err := UpsertRawEntity(i.db, source.ID, spec.entityType, ref.Key, payload, name, srd, url)
		if err != nil {
			return created, updated, fetched, err
		}
		if rawCreated {
			created++
		}
		if rawUpdated {
			updated++
		}

		if i.archive != nil && (rawCreated || rawUpdated) {
			if err := i.archive.Store(ctx, spec.entityType, ref.Key, payload); err != nil {
				return created, updated, fetched, err
			}
		}

		projCreated, _, err := spec.project(i.db, raw)
		if err != nil {
			return created, updated, fetched, err
		}
		if projCreated {
			created++
		} else if rawUpdated {
			updated++
		}
	}
	return created, updated, fetched, nil
}

// Run imports the named kinds (all kinds when only is empty) for one source
// under a recorded import run. The run row is finalized on both the success
// and the failure path.
func (i *Importer) Run(ctx context.Context, source *models.Source, only []string) (*models.ImportRun, error) {
	selected, err := selectKinds(only)
	if err != nil {
		return nil, err
	}

	run, err := BeginRun(i.db, PhaseIngest, source)
	if err != nil {
		return nil, err
	}

	var created, updated int
	notes := make(map[string]int)
	for _, spec := range selected {
		c, u, fetched, err := i.importKind(ctx, source, spec)
		created += c
		updated += u
		notes[spec.apiKind] = fetched
		if err != nil {
			if failErr := FailRun(i.db, run, created, updated, err); failErr != nil {
				i.logger.Error("Failed to record failed run", zap.Error(failErr))
			}
			return run, err
		}
	}

	if err := FinishRun(i.db, run, created, updated, notes); err != nil {
		return run, err
	}
	i.logger.Info("Import finished",
		zap.String("run_key", run.RunKey),
		zap.Int("created", created),
		zap.Int("updated", updated))
	return run, nil
}

func selectKinds(only []string) ([]kindSpec, error) {
	if len(only) == 0 {
		return kinds, nil
	}
	byName := make(map[string]kindSpec, len(kinds))
	for _, k := range kinds {
		byName[k.apiKind] = k
	}
	selected := make([]kindSpec, 0, len(only))
	for _, name := range only {
		spec, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown kind %q (known: %v)", name, KindNames())
		}
		selected = append(selected, spec)
	}
	return selected, nil
}
