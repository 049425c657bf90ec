// =============================================================================
// Pre-Alert Engine - Config Command
// =============================================================================
//
// COMMAND USAGE:
//   prealert config init [--force]
//   prealert config show
//
// `init` writes config.yaml (or --config) with the defaults, the configured
// directories, and a starter dataset for the 810 manifest.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/prealert-engine/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a default configuration and example dataset",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = "config.yaml"
		}
		if err := config.WriteDefault(path, configForce); err != nil {
			return err
		}

		cfg := config.Default()
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
		datasetPath, err := config.WriteExampleDataset(cfg.DatasetsDir, configForce)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote %s\n", path)
		fmt.Fprintf(out, "Wrote %s\n", datasetPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(appConfig)
		if err != nil {
			return err
		}
		logger.Debug("showing configuration", zap.String("config", cfgFile))
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing files")
}
