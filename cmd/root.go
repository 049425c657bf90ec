// =============================================================================
// Pre-Alert Engine - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (prealert)
//   ├── generateCmd  (prealert generate)
//   ├── summarizeCmd (prealert summarize)
//   ├── filterCmd    (prealert filter)
//   ├── compareCmd   (prealert compare)
//   ├── processCmd   (prealert process)
//   ├── boardCmd     (prealert board)
//   ├── configCmd    (prealert config init)
//   └── versionCmd   (prealert version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the main configuration through viper
//   3. Setting up the zap logger
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/prealert-engine/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file. When empty,
// config.yaml in the working directory is used if present.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig and logger are set by loadConfig before any command runs.
var (
	appConfig *config.MainConfig
	logger    = zap.NewNop()
)

// skipConfigAnnotation marks commands that run without loading config.yaml.
const skipConfigAnnotation = "skip-config"

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "prealert",
	Short: "Pre-Alert Engine - Summarize, filter and reconcile shipment pre-alerts",
	Long: `Pre-Alert Engine loads shipment line items from carrier manifests and
pre-alert submissions (CSV, XLSX or YAML), totals them per master air waybill,
searches them, and flags field-level mismatches between two sources.

Key Features:
  - Sample data generation with seeded, reproducible quantities
  - Dataset-specific column mapping and transformation rules
  - Row-level validation with detailed error logs
  - Mismatch reports as XML or highlighted XLSX workbooks
  - Concurrent processing with automatic file archival

Example Usage:
  prealert generate --count 15 --prefix S1     # Print a sample shipment
  prealert compare 810.csv prealert.xlsx       # Flag differing rows
  prealert compare --demo --report xlsx        # Reproduce the sample modal
  prealert process                             # Process the input directory`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return nil
		}
		return loadConfig()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Sync fails on stderr for some terminals; nothing useful to do.
		_ = logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if verbose {
			fmt.Fprintln(os.Stderr, eris.ToString(err, true))
		}
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config flag: Allows the user to specify a custom configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the main configuration file (default is ./config.yaml when present)",
	)

	// --verbose flag: Enables debug logging and error traces.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// loadConfig reads the main configuration and builds the logger.
func loadConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	l, err := config.InitLogger(cfg.Log)
	if err != nil {
		return err
	}

	appConfig = cfg
	logger = l
	logger.Debug("configuration loaded", zap.String("config", cfgFile))
	return nil
}
