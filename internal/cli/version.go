package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/depersonalizer/pkg/depersonalizer"
)

const modulePath = "github.com/mesh-intelligence/depersonalizer"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the depersonalize version",
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "depersonalize v%s\nmodule: %s\n", depersonalizer.Version, modulePath)
			return nil
		},
	}
}
