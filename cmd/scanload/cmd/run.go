package cmd

import (
	"github.com/spf13/cobra"

	"github.com/G-Research/scanload/internal/common/app"
	"github.com/G-Research/scanload/internal/scanload"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs every configured scan job until its duration elapses or a shutdown signal is received",
		RunE:  runScanLoad,
	}
	return cmd
}

func runScanLoad(_ *cobra.Command, _ []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	return scanload.Run(app.CreateContextWithShutdown(), config)
}
