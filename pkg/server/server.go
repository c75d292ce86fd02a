// Package server provides the MCP server implementation for the TMAP integration.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/yunkee-lee/mcp-tmap/pkg/config"
	"github.com/yunkee-lee/mcp-tmap/pkg/telemetry"
	"github.com/yunkee-lee/mcp-tmap/pkg/tmap"
	"github.com/yunkee-lee/mcp-tmap/pkg/tools"
	"github.com/yunkee-lee/mcp-tmap/pkg/tools/prompts"
	"github.com/yunkee-lee/mcp-tmap/pkg/version"
)

// ServerName is the name of the MCP server
const ServerName = "mcp_tmap"

// Server encapsulates the MCP server with TMAP tools.
type Server struct {
	cfg      config.Config
	logger   *slog.Logger
	srv      *server.MCPServer
	client   *tmap.Client
	observer *telemetry.Observer

	clientOpts []tmap.Option
}

// Option configures a Server.
type Option func(*Server)

// WithClientOptions appends options to the TMAP client built by NewServer.
func WithClientOptions(opts ...tmap.Option) Option {
	return func(s *Server) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// WithObserver records upstream requests and tool calls into o instead of
// the global OpenTelemetry providers.
func WithObserver(o *telemetry.Observer) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// NewServer creates a new TMAP MCP server with all tools and prompts
// registered. It fails with a tmap Auth error when cfg has no API key.
func NewServer(cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info("initializing TMAP MCP server",
		"name", ServerName,
		"version", version.BuildVersion,
		"transport", cfg.Transport)

	if s.observer == nil {
		observer, err := telemetry.NewGlobalObserver()
		if err != nil {
			return nil, fmt.Errorf("failed to create telemetry observer: %w", err)
		}
		s.observer = observer
	}

	clientOpts := []tmap.Option{
		tmap.WithTimeout(cfg.Timeout),
		tmap.WithLogger(logger.With("component", "tmap")),
		tmap.WithObserver(s.observer),
	}
	client, err := tmap.NewClient(cfg.APIKey, append(clientOpts, s.clientOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create TMAP client: %w", err)
	}
	s.client = client

	s.srv = server.NewMCPServer(
		ServerName,
		version.BuildVersion,
		server.WithToolCapabilities(false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(prompts.Instructions),
		server.WithToolHandlerMiddleware(loggingMiddleware(logger)),
	)

	facade := tools.NewFacade(client, logger, s.observer)
	registry := tools.NewRegistry(facade, logger)
	if err := registry.RegisterTools(s.srv); err != nil {
		return nil, err
	}
	prompts.RegisterPrompts(s.srv)

	return s, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.srv
}

// Run serves the configured transport until ctx is cancelled or the client
// goes away.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case config.TransportHTTP:
		return s.ListenAndServe(ctx, s.cfg.HTTPAddr)
	default:
		return s.ServeStdio(ctx, os.Stdin, os.Stdout)
	}
}

// ServeStdio serves MCP over in and out, one JSON-RPC message per line. It
// returns nil when in reaches EOF or ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stdio := server.NewStdioServer(s.srv)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	s.logger.Info("serving MCP over stdio")
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
