package cli

import (
	"github.com/spf13/cobra"
)

const modulePath = "github.com/mesh-intelligence/formdraft"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the draftctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			writeLine(cmd.OutOrStdout(), "draftctl v%s\nmodule: %s", Version, modulePath)
		},
	}
}
