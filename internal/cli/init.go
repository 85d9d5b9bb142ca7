package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/formdraft/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize draft storage",
		Long:  "Create the configuration and data directories, write a default config.yaml, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := writeConfigIfMissing(a.configDir, a.flags.dataDir)
			if err != nil {
				return sysError("%w", err)
			}
			if err := a.withStore(func(types.Store) error { return nil }); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writeLine(out, "Draft storage initialized")
			if created {
				writeLine(out, "  wrote:   %s/%s", a.configDir, configFileExt)
			}
			writeLine(out, "  config:  %s", a.configDir)
			writeLine(out, "  backend: %s", a.settings.Store.Backend)
			writeLine(out, "  data:    %s", a.settings.Store.DataDir)
			return nil
		},
	}
}
