package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wheelres/pkg/buildinfo"
)

// versionCommand creates the version command.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), appName)
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
