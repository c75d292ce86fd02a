// Package tools provides the TMAP MCP tools implementations.
package tools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yunkee-lee/mcp-tmap/pkg/telemetry"
	"github.com/yunkee-lee/mcp-tmap/pkg/tmap"
)

// Service is the part of the TMAP client used by the tools.
type Service interface {
	GetTransitRoutes(ctx context.Context, q tmap.TransitQuery) (tmap.Plan, error)
	FullAddressGeocoding(ctx context.Context, address string, count int) ([]tmap.Coordinate, error)
}

// Facade validates tool arguments, delegates to the Service and turns every
// Service failure into an ErrorEnvelope. The returned Go error is reserved
// for *ValidationError.
type Facade struct {
	service  Service
	logger   *slog.Logger
	observer *telemetry.Observer
}

// NewFacade creates a facade over service. logger and observer may be nil.
func NewFacade(service Service, logger *slog.Logger, observer *telemetry.Observer) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{
		service:  service,
		logger:   logger,
		observer: observer,
	}
}

// PublicTransitRoutes looks up transit routes between two points.
func (f *Facade) PublicTransitRoutes(ctx context.Context, args TransitArgs) (res Result[tmap.Plan], err error) {
	start := time.Now()
	defer func() {
		f.observer.ObserveTool(ctx, PublicTransitRoutesToolName, err == nil && res.OK(), time.Since(start))
	}()

	if verr := args.validate(); verr != nil {
		return Result[tmap.Plan]{}, verr
	}

	plan, callErr := f.service.GetTransitRoutes(ctx, tmap.TransitQuery{
		StartLon:   args.StartLon,
		StartLat:   args.StartLat,
		DestLon:    args.DestLon,
		DestLat:    args.DestLat,
		Language:   tmap.Language(args.Language),
		SearchTime: args.SearchTime,
	})
	if callErr != nil {
		f.logger.Warn("transit route lookup failed", "tool", PublicTransitRoutesToolName, "error", callErr)
		return Failure[tmap.Plan](callErr), nil
	}
	if plan == nil {
		plan = tmap.Plan{}
	}
	return Success(plan), nil
}

// FullTextAddressGeocoding converts a free-text address into coordinate
// candidates, best match first.
func (f *Facade) FullTextAddressGeocoding(ctx context.Context, address string) (res Result[[]tmap.Coordinate], err error) {
	start := time.Now()
	defer func() {
		f.observer.ObserveTool(ctx, FullTextAddressGeocodingToolName, err == nil && res.OK(), time.Since(start))
	}()

	if strings.TrimSpace(address) == "" {
		return Result[[]tmap.Coordinate]{}, &ValidationError{Field: "address", Message: "must not be empty"}
	}

	coordinates, callErr := f.service.FullAddressGeocoding(ctx, address, tmap.DefaultCount)
	if callErr != nil {
		f.logger.Warn("geocoding failed", "tool", FullTextAddressGeocodingToolName, "error", callErr)
		return Failure[[]tmap.Coordinate](callErr), nil
	}
	if coordinates == nil {
		coordinates = []tmap.Coordinate{}
	}
	return Success(coordinates), nil
}

func (a TransitArgs) validate() error {
	if !tmap.Language(a.Language).Valid() {
		return &ValidationError{Field: "language", Message: "must be 0 (Korean) or 1 (English)"}
	}
	coordinates := []struct {
		field, value string
	}{
		{"startLon", a.StartLon},
		{"startLat", a.StartLat},
		{"destLon", a.DestLon},
		{"destLat", a.DestLat},
	}
	for _, c := range coordinates {
		if strings.TrimSpace(c.value) == "" {
			return &ValidationError{Field: c.field, Message: "must not be empty"}
		}
	}
	return nil
}
