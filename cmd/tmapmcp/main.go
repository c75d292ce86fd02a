// Command tmapmcp runs the TMAP MCP server.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yunkee-lee/mcp-tmap/pkg/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tmapmcp",
		Short: "TMAP MCP server",
		Long:  "tmapmcp serves TMAP public transit routing and address geocoding as MCP tools.",
		// Without a subcommand the server is started.
		RunE: runServe,
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	addServeFlags(cmd)

	cmd.Version = version.BuildVersion
	cmd.SetVersionTemplate(version.String() + "\n")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newGenerateConfigCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}

// newLogger logs to w, which must not be stdout when stdio is the transport.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
