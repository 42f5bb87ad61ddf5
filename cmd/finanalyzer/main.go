package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Multiple --config flags supported
	serverPort  int
	serverHost  string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "finanalyzer",
	Short: "Financial document analyzer",
	Long:  `Analyzes PDF and DOCX financial documents with a team of LLM analyst roles and serves the results over HTTP.`,
	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		// Auto-discover config file if not specified
		if len(configFiles) == 0 {
			if _, err := os.Stat("finanalyzer.toml"); err == nil {
				configFiles = append(configFiles, "finanalyzer.toml")
			} else if _, err := os.Stat("deployments/local/finanalyzer.toml"); err == nil {
				configFiles = append(configFiles, "deployments/local/finanalyzer.toml")
			}
		}

		var err error
		config, err = common.LoadFromFiles(configFiles...)
		if err != nil {
			return fmt.Errorf("failed to load configuration %v: %w", configFiles, err)
		}

		common.ApplyFlagOverrides(config, serverPort, serverHost)
		logger = common.SetupLogger(config)

		logger.Debug().
			Strs("config_files", configFiles).
			Str("provider", string(config.LLM.DefaultProvider)).
			Str("data_dir", config.Storage.DataDir).
			Str("log_level", config.Logging.Level).
			Msg("Resolved configuration")
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times, later files override earlier ones)")
	rootCmd.PersistentFlags().IntVarP(&serverPort, "port", "p", 0, "Server port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "", "Server host (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	common.LoadVersionFromFile()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
