package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/approval-console/internal/config"
	"github.com/garyjia/approval-console/internal/container"
	"github.com/garyjia/approval-console/pkg/utils"
)

type rootOptions struct {
	configPath string
	baseURL    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "approvalctl",
		Short:         "Command line access to the approval console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Upstream approval API base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "Log level written to stderr")

	cmd.AddCommand(newSchemaCmd(opts))
	cmd.AddCommand(newDepartmentsCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newTemplateCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// start loads configuration and starts a container without serving HTTP.
// The caller closes the container.
func (o *rootOptions) start(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load(o.configPath, ".env")
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.Upstream.BaseURL = o.baseURL
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      o.logLevel,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		return nil, err
	}

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		logger.Error("Failed to start container", zap.Error(err))
		return nil, err
	}
	return c, nil
}
