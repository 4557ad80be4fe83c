package cmd

import (
	"fmt"

	"codex-manager/core/srdapi"
	"codex-manager/core/storage"
	"codex-manager/feature/srd/ingest"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestNoArchive bool

// ingestCmd fetches raw documents and lands them in the database.
var ingestCmd = &cobra.Command{
	Use:   "ingest [kinds...]",
	Short: "Fetch upstream content and land it content-addressed",
	Long: fmt.Sprintf(`Fetches documents from the configured content API, stores each payload
with its content hash, and projects the normalized rows. Unchanged
payloads are skipped; re-running against identical content creates
nothing.

Known kinds: %v. With no arguments every kind is imported.`, ingest.KindNames()),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}

		var archive *ingest.Archive
		if !ingestNoArchive {
			client, err := storage.NewClient(e.cfg.Storage)
			if err != nil {
				return fmt.Errorf("create storage client: %w", err)
			}
			archive = ingest.NewArchive(client, e.cfg.Storage.Bucket, e.logger)
			if err := archive.EnsureBucket(cmd.Context()); err != nil {
				return fmt.Errorf("ensure archive bucket: %w", err)
			}
		}

		api := srdapi.NewClient(e.cfg.API)
		importer := ingest.NewImporter(e.db, api, archive, e.logger)

		run, err := importer.Run(cmd.Context(), e.source, args)
		if err != nil {
			return err
		}
		e.logger.Info("Ingest finished",
			zap.String("runKey", run.RunKey),
			zap.Int("created", run.CreatedRows),
			zap.Int("updated", run.UpdatedRows))
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestNoArchive, "no-archive", false,
		"skip archiving raw payloads to object storage")
	RootCmd.AddCommand(ingestCmd)
}
