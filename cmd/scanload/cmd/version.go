package cmd

import (
	"github.com/spf13/cobra"

	"github.com/G-Research/scanload/internal/scanload/build"
)

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return build.PrintVersion(cmd.OutOrStdout())
		},
	}
	return cmd
}
