package prompts

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GeocodingPromptName is the name of the geocoding prompt.
const GeocodingPromptName = "address_geocoding"

// RegisterGeocodingPrompts registers all geocoding-related prompts with the MCP server
func RegisterGeocodingPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt(GeocodingPromptName,
		mcp.WithPromptDescription("Instructions for converting a Korean address into coordinates"),
		mcp.WithArgument("address",
			mcp.ArgumentDescription("Address to geocode"),
		),
	), GeocodingPromptHandler)
}

// GeocodingPromptHandler returns the prompt for the geocoding tool
func GeocodingPromptHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text := `You have access to fullTextAddressGeocoding, which converts a Korean address into coordinates.
When using this tool:

1. Pass the full address as written, street (도로명) or lot-number (지번) format
2. Candidates are ordered by relevancy; use the first one
3. [newLat] is the latitude and [newLon] is the longitude
4. [newLatEntr] and [newLonEntr] point at the building entrance when available
5. An inaccurate address returns coordinates of a similar location, so tell the user when the match looks off

EXAMPLES:
✅ GOOD: "서울특별시 종로구 세종대로 1"
✅ GOOD: "서울 중구 을지로 281"
❌ BAD: "" (empty addresses are rejected)

An empty list means TMAP found no candidate. Failures come back as {"success": false, "error": "..."}.`

	if address := strings.TrimSpace(request.Params.Arguments["address"]); address != "" {
		text += "\n\nGeocode this address: " + address
	}

	return mcp.NewGetPromptResult(
		"Address Geocoding Usage Guidelines",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(text),
			),
		},
	), nil
}
