package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yunkee-lee/mcp-tmap/pkg/config"
	"github.com/yunkee-lee/mcp-tmap/pkg/server"
	"github.com/yunkee-lee/mcp-tmap/pkg/version"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to a YAML config file")
	cmd.Flags().String("transport", string(config.TransportStdio), "Transport: stdio or http")
	cmd.Flags().String("http-addr", config.DefaultHTTPAddr, "Listen address for the http transport")
	cmd.Flags().Duration("timeout", config.Default().Timeout, "Timeout of a single TMAP request (0 disables it)")
}

// loadConfig loads the configuration and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		transport, _ := flags.GetString("transport")
		cfg.Transport = config.Transport(transport)
	}
	if flags.Changed("http-addr") {
		cfg.HTTPAddr, _ = flags.GetString("http-addr")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = slog.LevelDebug.String()
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level, _ := cfg.Level()
	logger := newLogger(cmd.ErrOrStderr(), level)
	slog.SetDefault(logger)

	logger.Info("starting TMAP MCP server",
		"version", version.BuildVersion,
		"transport", cfg.Transport,
		"log_level", level.String())

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("server initialized, waiting for requests")
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
