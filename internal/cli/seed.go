package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/depersonalizer/internal/generator"
	"github.com/mesh-intelligence/depersonalizer/internal/sqlstore"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

func newSeedCmd() *cobra.Command {
	var (
		rows int
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo tables filled with realistic personal data",
		Long: "Create the demo tables " + strings.Join(sqlstore.DemoTables(), ", ") + " when missing\n" +
			"and append rows to them. Intended for trying the tool on a scratch database.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows <= 0 {
				return fmt.Errorf("--rows must be positive, got %d", rows)
			}
			cfg, err := loadRunConfig(cmd, map[string]string{
				"driver": cfgKeyDriver,
				"dsn":    cfgKeyDSN,
				"locale": cfgKeyLocale,
			})
			if err != nil {
				return err
			}
			reg, err := generator.Builtin(cfg.Locale, seed)
			if err != nil {
				return &types.ConfigurationError{Err: err}
			}
			store, err := sqlstore.Open(cmd.Context(), cfg.Driver, cfg.DSN)
			if err != nil {
				return &types.StoreError{RecordType: "*", Op: types.OpOpen, Err: err}
			}
			defer store.Close()

			if err := store.Seed(cmd.Context(), reg, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d rows into %s\n", rows, strings.Join(sqlstore.DemoTables(), ", "))
			return nil
		},
	}
	addStoreFlags(cmd.Flags())
	cmd.Flags().String("locale", "", "generator locale")
	cmd.Flags().IntVar(&rows, "rows", 100, "rows appended to each demo table")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "generator seed; 0 picks a random seed")
	return cmd
}
