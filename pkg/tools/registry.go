package tools

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registry holds all MCP tool registrations for the TMAP service.
type Registry struct {
	facade *Facade
	logger *slog.Logger
}

// NewRegistry creates a new MCP tool registry.
func NewRegistry(facade *Facade, logger *slog.Logger) *Registry {
	return &Registry{
		facade: facade,
		logger: logger,
	}
}

// ToolDefinition represents a TMAP MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     server.ToolHandlerFunc
}

// GetToolDefinitions returns all TMAP MCP tool definitions.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        PublicTransitRoutesToolName,
			Description: "Retrieve public transit routes between two places",
			Tool:        PublicTransitRoutesTool(),
			Handler:     r.facade.HandlePublicTransitRoutes,
		},
		{
			Name:        FullTextAddressGeocodingToolName,
			Description: "Convert a full-text address to coordinates",
			Tool:        FullTextAddressGeocodingTool(),
			Handler:     r.facade.HandleFullTextAddressGeocoding,
		},
	}
}

// RegisterTools registers all tools with the MCP server. Arguments are
// checked against each tool's input schema before its handler runs.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) error {
	for _, def := range r.GetToolDefinitions() {
		handler, err := withArgumentValidation(def.Tool, def.Handler)
		if err != nil {
			return fmt.Errorf("failed to register tool %s: %w", def.Name, err)
		}
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, handler)
	}
	return nil
}
