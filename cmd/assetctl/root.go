package main

import (
	"fmt"

	"github.com/samvad-hq/samvad-asset-loader/internal/app"
	"github.com/samvad-hq/samvad-asset-loader/internal/config"
	"github.com/samvad-hq/samvad-asset-loader/internal/logger"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	base         string
	resourcesDir string
	logLevel     string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "assetctl",
		Short:         "Fetch game assets as JSON, raw blobs or whole tile maps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.base, "base", "", "base URL or directory relative paths resolve against (bundle: reads the bundle)")
	cmd.PersistentFlags().StringVar(&flags.resourcesDir, "resources", "", "prefix for tileset image names")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newJSONCmd(flags),
		newBinaryCmd(flags),
		newMapCmd(flags),
		newBundleCmd(flags),
	)
	return cmd
}

// setup loads config, applies flag overrides and builds the runtime.
func setup(cmd *cobra.Command, flags *rootFlags) (*app.Runtime, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if flags.base != "" {
		cfg.BaseURL = flags.base
	}
	if flags.resourcesDir != "" {
		cfg.ResourcesDir = flags.resourcesDir
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	log, err := logger.New(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	logger.DebugObj("assetctl starting", "config", cfg)

	rt, err := app.NewRuntime(cmd.Context(), cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runtime", "error", err.Error())
		_ = logger.Close()
		return nil, nil, err
	}

	cleanup := func() {
		rt.Close()
		_ = logger.Close()
	}
	return rt, cleanup, nil
}
