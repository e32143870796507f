package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/gigmatch/internal/config"
	"github.com/okian/gigmatch/pkg/logger"
)

const app = "gigmatch"

// Flags shared by every command.
var (
	cfgFile  string
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:           app,
	Short:         "gigmatch ranks agents for gigs and tracks their engagements",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides GIGMATCH_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&logJSON, "json", "j", false, "json format for logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString(app + ": " + err.Error() + "\n")
		os.Exit(1)
	}
}

// loadConfig layers the --config file and flag overrides on top of config.Load
// and initializes the global logger from the result.
func loadConfig(ctx context.Context) (*config.Config, error) {
	if cfgFile != "" {
		if err := os.Setenv("GIGMATCH_CONFIG", cfgFile); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logJSON {
		cfg.LogFormat = "json"
	}

	if err := initLogging(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogging applies the configured encoder and level. An invalid level falls back to info.
func initLogging(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(logger.WithJSON(strings.EqualFold(cfg.LogFormat, "json"))); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}
