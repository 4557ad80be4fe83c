package cmd

import (
	"codex-manager/core/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// infoCmd inspects the database schema and row counts.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show database tables and row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}

		tables, err := database.GetTableNames(e.db)
		if err != nil {
			return err
		}
		for _, table := range tables {
			var count int64
			if err := e.db.Table(table).Count(&count).Error; err != nil {
				return err
			}
			e.logger.Info("table",
				zap.String("name", table),
				zap.Int64("rows", count))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(infoCmd)
}
