package cmd

import (
	"fmt"

	"codex-manager/feature/srd/verify"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// verifyCmd runs every consistency check and fails on errors.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run consistency checks over the derived graph",
	Long: `Checks the whole graph for duplicates, dangling references,
cross-source links, and coverage gaps. Warnings are reported but do not
fail the command; any error does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}

		report, err := verify.NewVerifier(e.db, e.logger).Run()
		if err != nil {
			return err
		}
		for _, warning := range report.Warnings {
			e.logger.Warn(warning)
		}
		for _, msg := range report.Errors {
			e.logger.Error(msg)
		}
		if !report.OK() {
			return fmt.Errorf("verification failed with %d errors", len(report.Errors))
		}
		e.logger.Info("Verification passed", zap.Int("warnings", len(report.Warnings)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(verifyCmd)
}
