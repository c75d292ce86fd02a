package tmap

import (
	"encoding/json"
	"fmt"
)

// Language selects the language of transit route names and guidance.
type Language int

const (
	LanguageKorean  Language = 0
	LanguageEnglish Language = 1
)

// Valid reports whether l is a language accepted by the transit API.
func (l Language) Valid() bool {
	return l == LanguageKorean || l == LanguageEnglish
}

// TransitQuery describes a public transit route search. Coordinates are WGS84
// decimal degrees, kept as strings so they reach the API exactly as given.
type TransitQuery struct {
	StartLon   string
	StartLat   string
	DestLon    string
	DestLat    string
	Language   Language
	Count      int    // number of itineraries; DefaultCount when <= 0
	SearchTime string // searchDttm, omitted when empty
}

// Plan is the metaData.plan object of a transit routes response, unchanged.
// Numbers are kept as json.Number.
type Plan map[string]any

// Itinerary is one candidate route of a Plan.
type Itinerary struct {
	Fare              Fare    `json:"fare"`
	TotalTime         float64 `json:"totalTime"`         // seconds
	TransferCount     int     `json:"transferCount"`
	TotalWalkDistance float64 `json:"totalWalkDistance"` // meters
	TotalDistance     float64 `json:"totalDistance"`     // meters
	TotalWalkTime     float64 `json:"totalWalkTime"`     // seconds
	Legs              []Leg   `json:"legs"`
}

// Fare holds the regular fare of an itinerary.
type Fare struct {
	Regular struct {
		TotalFare float64 `json:"totalFare"`
	} `json:"regular"`
}

// Leg is one travel segment of an itinerary. Legs chain start to end.
type Leg struct {
	Distance    float64 `json:"distance"`    // meters
	SectionTime float64 `json:"sectionTime"` // seconds
	Mode        string  `json:"mode"`
	Route       string  `json:"route,omitempty"`
	Start       Stop    `json:"start"`
	End         Stop    `json:"end"`
}

// Stop is the start or end point of a leg.
type Stop struct {
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
}

// Itineraries decodes the itineraries of the plan in their upstream order.
func (p Plan) Itineraries() ([]Itinerary, error) {
	raw, ok := p["itineraries"]
	if !ok || raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode itineraries: %w", err)
	}
	var itineraries []Itinerary
	if err := json.Unmarshal(data, &itineraries); err != nil {
		return nil, fmt.Errorf("failed to decode itineraries: %w", err)
	}
	return itineraries, nil
}

// Coordinate is one geocoding candidate, unchanged from the API.
type Coordinate map[string]any

// Lat returns the latitude (newLat).
func (c Coordinate) Lat() string { return c.str("newLat") }

// Lon returns the longitude (newLon).
func (c Coordinate) Lon() string { return c.str("newLon") }

// EntranceLat returns the latitude of the entrance (newLatEntr).
func (c Coordinate) EntranceLat() string { return c.str("newLatEntr") }

// EntranceLon returns the longitude of the entrance (newLonEntr).
func (c Coordinate) EntranceLon() string { return c.str("newLonEntr") }

func (c Coordinate) str(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}
