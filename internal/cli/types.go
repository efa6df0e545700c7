package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/depersonalizer/internal/orchestrator"
	"github.com/mesh-intelligence/depersonalizer/internal/sqlstore"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// catalogListing is the JSON form of the types command.
type catalogListing struct {
	Tables     []string          `json:"tables"`
	Configured map[string]string `json:"configured"`
	Missing    []string          `json:"missing"`
}

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the store's tables and the record types configured for them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd, storeFlagKeys)
			if err != nil {
				return err
			}
			store, err := sqlstore.Open(cmd.Context(), cfg.Driver, cfg.DSN)
			if err != nil {
				return &types.StoreError{RecordType: "*", Op: types.OpOpen, Err: err}
			}
			defer store.Close()

			tables, err := store.RecordTables(cmd.Context())
			if err != nil {
				return &types.StoreError{RecordType: "*", Op: types.OpList, Err: err}
			}
			present, missing := orchestrator.Select(tables, cfg.RecordTypes)
			listing := catalogListing{
				Tables: tables,
				Configured: lo.SliceToMap(present, func(rt types.RecordTypeConfig) (string, string) {
					return rt.TableName(), rt.Name
				}),
				Missing: lo.Map(missing, func(rt types.RecordTypeConfig, _ int) string { return rt.Name }),
			}

			out := cmd.OutOrStdout()
			if flags.jsonMode {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}

			headerfmt := color.New(color.FgGreen, color.Underline).SprintFunc()
			tbl := uitable.New()
			tbl.AddRow(headerfmt("TABLE"), headerfmt("RECORD TYPE"))
			for _, table := range tables {
				name, ok := listing.Configured[table]
				if !ok {
					name = "-"
				}
				tbl.AddRow(table, name)
			}
			fmt.Fprintln(out, tbl)
			for _, name := range listing.Missing {
				fmt.Fprintf(out, "%s %s is configured but has no table\n", color.YellowString("missing"), name)
			}
			return nil
		},
	}
	addStoreFlags(cmd.Flags())
	return cmd
}
