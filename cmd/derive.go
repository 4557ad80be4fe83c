package cmd

import (
	"fmt"
	"sort"

	"codex-manager/feature/srd/derive"
	"codex-manager/feature/srd/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// deriveCmd runs the extraction passes over the landed raw documents.
var deriveCmd = &cobra.Command{
	Use:   "derive [phase]",
	Short: "Extract choices, prerequisites, grants, and relationships",
	Long: `Walks the raw documents and derives the structured graph: choice
groups with their options, prerequisites, grants, and entity
relationships. Each phase runs in its own transaction and is recorded
as an import run.

Phases: choices, prereqs, grants, relationships. With no argument every
phase runs in order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		deriver := derive.NewDeriver(e.db, e.logger)

		phase := "all"
		if len(args) == 1 {
			phase = args[0]
		}
		var notes map[string]int
		var source *models.Source = e.source
		switch phase {
		case "all":
			notes, err = deriver.All(source)
		case derive.PhaseChoices:
			notes, err = deriver.Choices(source)
		case derive.PhasePrereqs:
			notes, err = deriver.Prereqs(source)
		case derive.PhaseGrants:
			notes, err = deriver.Grants(source)
		case derive.PhaseRelationships:
			notes, err = deriver.Relationships(source)
		default:
			return fmt.Errorf("unknown phase %q", phase)
		}
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(notes))
		for key := range notes {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fields := make([]zap.Field, 0, len(keys))
		for _, key := range keys {
			fields = append(fields, zap.Int(key, notes[key]))
		}
		e.logger.Info("Derivation finished", fields...)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(deriveCmd)
}
