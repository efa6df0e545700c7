package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/depersonalizer/pkg/depersonalizer"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration without touching the store",
		Long: "Check that every field name eligible for replacement has a generator mapping\n" +
			"that resolves for the configured locale.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd, runFlagKeys)
			if err != nil {
				return err
			}
			if err := depersonalizer.Check(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.jsonMode {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			fmt.Fprintf(out, "Configuration OK: %s\n", plural(len(cfg.RecordTypes), "record type"))
			for _, rt := range cfg.RecordTypes {
				fmt.Fprintf(out, "  %s (%s): %s\n", rt.Name, rt.TableName(), strings.Join(cfg.EligibleFieldNames(rt), ", "))
			}
			return nil
		},
	}
	addRunFlags(cmd.Flags())
	return cmd
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
