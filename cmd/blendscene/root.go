package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Faultbox/blendscene/internal/config"
	"github.com/Faultbox/blendscene/internal/logger"
	"github.com/Faultbox/blendscene/pkg/blend"
)

var (
	overrides config.Overrides
	cfg       *config.Config
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&overrides.ConfigPath, "config", "c", "", "Path to config file (.yaml or .toml)")
	flags.BoolVar(&overrides.Debug, "debug", false, "Enable debug logging")
	flags.StringVar(&overrides.LogFile, "log-file", "", "Also write logs to this file")
	flags.StringVar(&overrides.LogFormat, "log-format", "", "Log file format: console or json")
	flags.BoolVar(&overrides.NoFixUp, "no-fixup", false, "Keep Z-up coordinates")
}

var rootCmd = &cobra.Command{
	Use:           "blendscene",
	Short:         "Resolve object records of a file dump into a scene graph",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(overrides)
		if err != nil {
			return err
		}
		return logger.Init(cfg.Logging)
	},
}

func loadDump(path string) (*blend.MemoryFile, error) {
	f, err := blend.LoadDumpFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	logger.Log.Debug("dump loaded")
	return f, nil
}

func parseAddress(s string) (blend.Address, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return blend.Null, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return blend.Address(v), nil
}
