package helpers

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/paylens/analytics/internal/config"
	"github.com/paylens/analytics/internal/logging"
)

// ConfigFlag is the persistent flag naming the YAML configuration file.
const ConfigFlag = "config"

// LoadConfig loads the configuration named by the --config flag of cmd or
// its parents. Without the flag only defaults and environment apply.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	var path string
	if f := cmd.Flag(ConfigFlag); f != nil {
		path = f.Value.String()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the command logger from cfg, writing to the command's
// error stream.
func NewLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	logCfg := cfg.Log
	logCfg.Output = cmd.ErrOrStderr()
	return logging.NewWithComponent(logCfg, "cli")
}
