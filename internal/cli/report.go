package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/depersonalizer/internal/paths"
	"github.com/mesh-intelligence/depersonalizer/internal/report"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [file]",
		Short: "Show a saved run report",
		Long:  "Render the report of the last run, or of the given JSON lines report file.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := paths.LastReport(sess.stateDir)
			if len(args) == 1 {
				path = args[0]
			}
			reports, err := report.ReadFile(path)
			if err != nil {
				return err
			}
			run := types.RunReport{Reports: reports}
			for _, rep := range reports {
				run.Duration += rep.Duration
			}
			if flags.jsonMode {
				return report.WriteJSON(cmd.OutOrStdout(), run)
			}
			return report.Render(cmd.OutOrStdout(), run)
		},
	}
}
