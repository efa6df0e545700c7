package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/depersonalizer/internal/generator"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

func newGeneratorsCmd() *cobra.Command {
	var sample bool
	cmd := &cobra.Command{
		Use:   "generators",
		Short: "List the generator paths usable in field source maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd, map[string]string{"locale": cfgKeyLocale})
			if err != nil {
				return err
			}
			reg, err := generator.Builtin(cfg.Locale, 0)
			if err != nil {
				return &types.ConfigurationError{Err: err}
			}

			out := cmd.OutOrStdout()
			if flags.jsonMode {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(reg.Paths())
			}
			for _, path := range reg.Paths() {
				if !sample {
					fmt.Fprintln(out, path)
					continue
				}
				g, err := reg.Resolve(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-28s %v\n", path, g())
			}
			return nil
		},
	}
	cmd.Flags().String("locale", "", "generator locale")
	cmd.Flags().BoolVar(&sample, "sample", false, "print one generated value per path")
	return cmd
}
