package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/G-Research/scanload/internal/common"
	commonconfig "github.com/G-Research/scanload/internal/common/config"
	"github.com/G-Research/scanload/internal/scanload/configuration"
)

const (
	CustomConfigLocation string = "config"
)

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "scanload",
		SilenceUsage: true,
		Short:        "Generates full-table and reversed partition scan load against a cluster under test",
	}

	cmd.PersistentFlags().StringSlice(
		CustomConfigLocation,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)")
	if err := viper.BindPFlag(CustomConfigLocation, cmd.PersistentFlags().Lookup(CustomConfigLocation)); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		runCmd(),
		versionCmd(),
	)

	return cmd
}

func loadConfig() (configuration.ScanLoadConfig, error) {
	var config configuration.ScanLoadConfig
	userSpecifiedConfigs := viper.GetStringSlice(CustomConfigLocation)

	common.LoadConfig(&config, "./config/scanload", userSpecifiedConfigs, configuration.CustomHooks...)

	config.ApplyDefaults()
	err := config.Validate()
	if err != nil {
		commonconfig.LogValidationErrors(err)
	}
	return config, err
}
