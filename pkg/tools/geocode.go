package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// FullTextAddressGeocodingToolName is the MCP name of the geocoding tool.
const FullTextAddressGeocodingToolName = "fullTextAddressGeocoding"

// FullTextAddressGeocodingTool returns a tool definition for geocoding addresses
func FullTextAddressGeocodingTool() mcp.Tool {
	return mcp.NewTool(FullTextAddressGeocodingToolName,
		mcp.WithDescription(`Converts the given address to coordinates (geocoding).

Returns a list of coordinates ordered by relevancy:
- newLat: latitude
- newLon: longitude
- newLatEntr: latitude of the entrance
- newLonEntr: longitude of the entrance`),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Address to convert, street or lot-number format"),
		),
	)
}

// HandleFullTextAddressGeocoding implements the fullTextAddressGeocoding tool.
func (f *Facade) HandleFullTextAddressGeocoding(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := f.logger.With("tool", FullTextAddressGeocodingToolName)

	result, err := f.FullTextAddressGeocoding(ctx, req.GetString("address", ""))
	if err != nil {
		logger.Debug("rejected arguments", "error", err)
		return nil, err
	}
	return toolResult(logger, result), nil
}
