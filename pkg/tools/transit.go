package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// PublicTransitRoutesToolName is the MCP name of the transit routes tool.
const PublicTransitRoutesToolName = "publicTransitRoutes"

const transitDescription = `Retrieves public transportation routes from start to destination.

Returns the route plan:
- itineraries: route details, best ranked first
  - fare.regular.totalFare: total fare
  - totalTime: in seconds
  - transferCount
  - totalWalkDistance: in meters
  - totalDistance: in meters
  - totalWalkTime: in seconds
  - legs: legs in the route, in travel order
    - distance: in meters
    - sectionTime: in seconds
    - mode: transportation mode
    - route: transportation route
    - start: starting point of the leg
    - end: destination of the leg

The API is often rate-limited. Ask the user before calling it.`

// PublicTransitRoutesTool returns a tool definition for transit route lookup
func PublicTransitRoutesTool() mcp.Tool {
	return mcp.NewTool(PublicTransitRoutesToolName,
		mcp.WithDescription(transitDescription),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithString("startLon",
			mcp.Required(),
			mcp.Description("Longitude of the starting point (WGS84)"),
		),
		mcp.WithString("startLat",
			mcp.Required(),
			mcp.Description("Latitude of the starting point (WGS84)"),
		),
		mcp.WithString("destLon",
			mcp.Required(),
			mcp.Description("Longitude of the destination (WGS84)"),
		),
		mcp.WithString("destLat",
			mcp.Required(),
			mcp.Description("Latitude of the destination (WGS84)"),
		),
		mcp.WithNumber("language",
			integer(),
			mcp.Description("Language of the route: 0 for Korean, 1 for English"),
			mcp.DefaultNumber(0),
		),
		mcp.WithString("searchTime",
			mcp.Description("Time the route is searched for (yyyymmddhhmi). Tells whether transportation is in operation; see [service] in the response."),
		),
	)
}

// HandlePublicTransitRoutes implements the publicTransitRoutes tool.
func (f *Facade) HandlePublicTransitRoutes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := f.logger.With("tool", PublicTransitRoutesToolName)

	args := TransitArgs{
		StartLon:   req.GetString("startLon", ""),
		StartLat:   req.GetString("startLat", ""),
		DestLon:    req.GetString("destLon", ""),
		DestLat:    req.GetString("destLat", ""),
		Language:   req.GetInt("language", 0),
		SearchTime: req.GetString("searchTime", ""),
	}

	result, err := f.PublicTransitRoutes(ctx, args)
	if err != nil {
		logger.Debug("rejected arguments", "error", err)
		return nil, err
	}
	return toolResult(logger, result), nil
}
