package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TransitPromptName is the name of the transit routes prompt.
const TransitPromptName = "transit_routes"

// RegisterTransitPrompts registers all transit-related prompts with the MCP server
func RegisterTransitPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt(TransitPromptName,
		mcp.WithPromptDescription("Instructions for planning a public transit trip in South Korea"),
		mcp.WithArgument("origin",
			mcp.ArgumentDescription("Starting address or place"),
		),
		mcp.WithArgument("destination",
			mcp.ArgumentDescription("Destination address or place"),
		),
	), TransitPromptHandler)
}

// TransitPromptHandler returns the prompt for the transit routes tool
func TransitPromptHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text := `You have access to publicTransitRoutes, which finds public transit routes between two points.
When using this tool:

1. It needs WGS84 coordinates as strings; geocode addresses with fullTextAddressGeocoding first
2. startLon/destLon take [newLon] and startLat/destLat take [newLat] of the first candidate
3. Set language to 0 for Korean or 1 for English
4. The API is often rate-limited. Ask the user whether to proceed before calling it
5. If the call fails with "Rate limited", report it and wait for the user; do not retry on your own

READING THE RESPONSE:
- itineraries are ranked; the first one is the recommended route
- totalTime and sectionTime are in seconds, distances in meters
- legs are in travel order; chain them with [start.name] to describe the trip
- mode is the transportation mode (WALK, BUS, SUBWAY, ...) and route names the line`

	origin := strings.TrimSpace(request.Params.Arguments["origin"])
	destination := strings.TrimSpace(request.Params.Arguments["destination"])
	if origin != "" && destination != "" {
		text += fmt.Sprintf("\n\nPlan a trip from %q to %q.", origin, destination)
	}

	return mcp.NewGetPromptResult(
		"Transit Routes Usage Guidelines",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(text),
			),
		},
	), nil
}
