package cmd

import (
	"encoding/json"
	"fmt"

	"codex-manager/core/storage"
	"codex-manager/feature/srd/ingest"
	"codex-manager/feature/srd/snapshot"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var snapshotExport bool

// snapshotCmd groups the snapshot subcommands.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create and compare import snapshots",
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Fingerprint the current state of the source",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		snap, err := snapshot.Create(e.db, e.source.ID)
		if err != nil {
			return err
		}
		e.logger.Info("Snapshot created",
			zap.Uint("snapshotID", snap.ID),
			zap.String("runKey", snap.RunKey))

		if snapshotExport {
			client, err := storage.NewClient(e.cfg.Storage)
			if err != nil {
				return fmt.Errorf("create storage client: %w", err)
			}
			archive := ingest.NewArchive(client, e.cfg.Storage.Bucket, e.logger)
			if err := archive.EnsureBucket(cmd.Context()); err != nil {
				return fmt.Errorf("ensure archive bucket: %w", err)
			}
			report, err := json.Marshal(snap)
			if err != nil {
				return fmt.Errorf("encode snapshot report: %w", err)
			}
			name := fmt.Sprintf("snapshot-%d", snap.ID)
			if err := archive.StoreReport(cmd.Context(), name, report); err != nil {
				return err
			}
			e.logger.Info("Snapshot exported", zap.String("object", ingest.ReportName(name)))
		}
		return nil
	},
}

var snapshotDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the two most recent snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		snaps, err := snapshot.Latest(e.db, e.source.ID, 2)
		if err != nil {
			return err
		}

		var changes []string
		switch len(snaps) {
		case 0:
			changes = []string{"No previous snapshot found."}
		case 1:
			changes, err = snapshot.Diff(nil, &snaps[0])
		default:
			changes, err = snapshot.Diff(&snaps[1], &snaps[0])
		}
		if err != nil {
			return err
		}
		for _, change := range changes {
			e.logger.Info(change)
		}
		return nil
	},
}

func init() {
	snapshotCreateCmd.Flags().BoolVar(&snapshotExport, "export", false,
		"export the snapshot report to object storage")
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotDiffCmd)
	RootCmd.AddCommand(snapshotCmd)
}
