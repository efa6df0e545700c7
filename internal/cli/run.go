package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/depersonalizer/internal/paths"
	"github.com/mesh-intelligence/depersonalizer/internal/report"
	"github.com/mesh-intelligence/depersonalizer/pkg/depersonalizer"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

var runFlagKeys = map[string]string{
	"driver":     cfgKeyDriver,
	"dsn":        cfgKeyDSN,
	"locale":     cfgKeyLocale,
	"workers":    cfgKeyWorkers,
	"batch-size": cfgKeyBatchSize,
	"fail-fast":  cfgKeyFailFast,
}

func newRunCmd() *cobra.Command {
	var (
		reportFile string
		seed       uint64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Depersonalize the configured record types",
		Long: "Replace eligible fields of every configured record type with generated values.\n" +
			"Batches already written stay applied when the run is interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd, runFlagKeys)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			run, runErr := depersonalizer.RunDepersonalization(ctx, cfg, depersonalizer.SQLOpener(cfg), depersonalizer.WithSeed(seed))
			if len(run.Reports) == 0 {
				return runErr
			}

			if reportFile == "" {
				reportFile = paths.LastReport(sess.stateDir)
			}
			if err := report.WriteFile(reportFile, run); err != nil {
				log.WithError(err).Error("writing run report")
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: run report not saved: %s\n", err)
			} else {
				log.Infof("run report written to %s", reportFile)
			}

			if flags.jsonMode {
				if err := report.WriteJSON(cmd.OutOrStdout(), run); err != nil {
					return errors.Join(runErr, err)
				}
				return runErr
			}
			if err := report.Render(cmd.OutOrStdout(), run); err != nil {
				return errors.Join(runErr, err)
			}
			return runErr
		},
	}
	fs := cmd.Flags()
	addRunFlags(fs)
	fs.StringVar(&reportFile, "report-file", "", "where to write the JSON lines run report (default: <state-dir>/reports/last-run.jsonl)")
	fs.Uint64Var(&seed, "seed", 0, "generator seed for reproducible values; 0 picks a random seed")
	return cmd
}

// addRunFlags registers the flags bound by runFlagKeys.
func addRunFlags(fs *pflag.FlagSet) {
	addStoreFlags(fs)
	fs.String("locale", "", "generator locale")
	fs.Int("workers", 0, "number of record types processed concurrently")
	fs.Int("batch-size", 0, "records written per bulk update")
	fs.Bool("fail-fast", false, "stop the remaining record types after the first failure")
}

// loadRunConfig binds the command's flags for keys and resolves the
// configuration.
func loadRunConfig(cmd *cobra.Command, keys map[string]string) (types.Config, error) {
	if err := bindFlags(sess.v, cmd.Flags(), keys); err != nil {
		return types.Config{}, err
	}
	return decodeConfig(sess.v)
}
