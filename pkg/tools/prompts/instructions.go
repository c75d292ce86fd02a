// Package prompts provides server instructions and prompt templates for use
// with the MCP server.
package prompts

import (
	"github.com/mark3labs/mcp-go/server"
)

// Instructions is returned to clients on initialize.
const Instructions = `TMAP MCP provides tools for accessing the mobility platform provided by TMAP in South Korea.

- publicTransitRoutes: Retrieves public transit routes between two places.
  The response contains [legs], which are legs of the retrieved route.
  Use [start.name] in each leg to return a chain of legs.
  The underlying API is often rate-limited, so you have to ask a user if they really want to proceed with this tool.
- fullTextAddressGeocoding: Converts an address in full text into coordinates.
  The response contains a list of coordinates, which are ordered by the relevancy.
  If the entered address is not accurate, the response contains coordinates of a similar location.
  Use the first item in the response to return the coordinates.
  [newLat] is the latitude and [newLon] is the longitude.

Failures are returned as {"success": false, "error": "..."}. Do not retry a rate-limited call without asking the user.`

// RegisterPrompts registers all prompts with the MCP server
func RegisterPrompts(s *server.MCPServer) {
	RegisterTransitPrompts(s)
	RegisterGeocodingPrompts(s)
}
