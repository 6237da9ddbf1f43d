package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dtatools/transferlog/internal/config"
	"github.com/dtatools/transferlog/internal/domain"
	"github.com/dtatools/transferlog/internal/logger"
)

var (
	cfgPath    string
	logLevel   string
	logFile    string
	historyDir string
	noHistory  bool

	cfg *config.Config
)

func buildRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "transferlog",
		Short: "Record media transfers with file inventories and checksums",
		Long: `transferlog records data transfers between networks. Each operation
produces two artifacts in the output folder: a per-operation detail CSV
listing every file with its SHA-256 hash and archive contents, and a
row appended to the annual summary log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			return loadConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Shutdown()
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: search standard locations)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file with rotation")
	root.PersistentFlags().StringVar(&historyDir, "history-dir", "", "Operation history directory (default: user config dir)")
	root.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Disable operation history recording")

	root.AddCommand(buildTransferCommand())
	root.AddCommand(buildRequestCommand())
	root.AddCommand(buildHistoryCommand())

	return root
}

func initLogger() error {
	logCfg := logger.Config{
		Level:  logger.ParseLevel(logLevel),
		Format: logger.FormatText,
		Writer: os.Stderr,
	}
	if logFile != "" {
		logCfg.File = logger.FileConfig{
			Enabled:    true,
			Path:       logFile,
			MaxSizeMB:  10,
			MaxAgeDays: 30,
			MaxBackups: 5,
		}
	}
	return logger.Init(logCfg)
}

// loadConfig reads the config file, falling back to shipped defaults
// when none exists and no explicit path was given
func loadConfig() error {
	c, err := config.Load(cfgPath)
	if err != nil {
		if cfgPath == "" && errors.Is(err, domain.ErrConfigNotFound) {
			logger.Get().Debug("no config file found, using defaults")
			cfg = config.Default()
			return nil
		}
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	return nil
}

// resolveHistoryDir returns the operation history location, or empty
// when history is disabled
func resolveHistoryDir() string {
	if noHistory {
		return ""
	}
	if historyDir != "" {
		return historyDir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "transferlog")
}
