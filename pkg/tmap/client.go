// Package tmap provides a client for the TMAP transit and geocoding APIs
// published on the SK open API platform.
package tmap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yunkee-lee/mcp-tmap/pkg/telemetry"
)

const (
	// DefaultBaseURL is the SK open API gateway
	DefaultBaseURL = "https://apis.openapi.sk.com"

	// AppKeyEnv is the environment variable holding the app key
	AppKeyEnv = "SK_OPEN_API_APP_KEY"

	// DefaultCount is the number of itineraries or coordinates requested
	DefaultCount = 10

	// DefaultTimeout bounds a single round trip
	DefaultTimeout = 30 * time.Second

	transitRoutesPath = "/transit/routes"
	fullAddrGeoPath   = "/tmap/geo/fullAddrGeo"

	// addressFlagFull accepts both street and lot-number (지번) addresses
	addressFlagFull = "F02"

	maxErrorBody = 64 << 10
)

// Client calls the TMAP API. It holds no mutable per-call state and is safe
// for concurrent use.
type Client struct {
	baseURL    string
	headers    http.Header
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	observer   *telemetry.Observer

	rateLimitWarning *rate.Sometimes
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests. It takes precedence
// over WithTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the round trip timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger for the client
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver records every request into the given observer.
func WithObserver(o *telemetry.Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a client authenticated with appKey. It fails with an
// Auth error, before any request is made, when appKey is blank.
func NewClient(appKey string, opts ...Option) (*Client, error) {
	appKey = strings.TrimSpace(appKey)
	if appKey == "" {
		return nil, &Error{Kind: KindAuth, Message: "missing app key (set " + AppKeyEnv + ")"}
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		headers: http.Header{},
		timeout: DefaultTimeout,
		logger:  slog.Default(),

		rateLimitWarning: &rate.Sometimes{Interval: time.Minute},
	}
	c.headers.Set("appKey", appKey)
	c.headers.Set("Accept", "application/json")
	c.headers.Set("Content-Type", "application/json")

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type transitRoutesRequest struct {
	StartX     string `json:"startX"`
	StartY     string `json:"startY"`
	EndX       string `json:"endX"`
	EndY       string `json:"endY"`
	Lang       int    `json:"lang"`
	Count      int    `json:"count"`
	Format     string `json:"format"`
	SearchDttm string `json:"searchDttm,omitempty"`
}

// GetTransitRoutes searches public transit routes and returns the
// metaData.plan object of the response. The plan is empty, not an error,
// when the response carries none.
func (c *Client) GetTransitRoutes(ctx context.Context, q TransitQuery) (Plan, error) {
	count := q.Count
	if count <= 0 {
		count = DefaultCount
	}

	payload, err := json.Marshal(transitRoutesRequest{
		StartX:     q.StartLon,
		StartY:     q.StartLat,
		EndX:       q.DestLon,
		EndY:       q.DestLat,
		Lang:       int(q.Language),
		Count:      count,
		Format:     "json",
		SearchDttm: q.SearchTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode transit request: %w", err)
	}

	body, err := c.do(ctx, "transitRoutes", http.MethodPost, c.baseURL+transitRoutesPath, payload)
	if err != nil {
		return nil, err
	}

	plan := Plan{}
	if meta, ok := body["metaData"].(map[string]any); ok {
		if p, ok := meta["plan"].(map[string]any); ok {
			plan = Plan(p)
		}
	}
	return plan, nil
}

// FullAddressGeocoding converts a full-text address into coordinate
// candidates ordered by relevancy. The slice is empty, not an error, when
// the response carries no candidates.
func (c *Client) FullAddressGeocoding(ctx context.Context, address string, count int) ([]Coordinate, error) {
	if count <= 0 {
		count = DefaultCount
	}

	reqURL, err := url.Parse(c.baseURL + fullAddrGeoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := reqURL.Query()
	q.Add("version", "1")
	q.Add("addressFlag", addressFlagFull)
	q.Add("fullAddr", address)
	q.Add("count", strconv.Itoa(count))
	q.Add("format", "json")
	reqURL.RawQuery = q.Encode()

	body, err := c.do(ctx, "fullAddrGeo", http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	coordinates := []Coordinate{}
	if info, ok := body["coordinateInfo"].(map[string]any); ok {
		if list, ok := info["coordinate"].([]any); ok {
			for _, item := range list {
				if m, ok := item.(map[string]any); ok {
					coordinates = append(coordinates, Coordinate(m))
				}
			}
		}
	}
	return coordinates, nil
}

// do performs one round trip and decodes the JSON object in the response.
// The response body is always drained and closed before it returns.
func (c *Client) do(ctx context.Context, operation, method, reqURL string, payload []byte) (result map[string]any, err error) {
	ctx, end := c.observer.StartUpstream(ctx, operation, method)
	statusCode := 0
	defer func() {
		end(statusCode, errorKind(err), err)
	}()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.headers.Clone()

	c.logger.Debug("sending TMAP request", "operation", operation, "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to communicate with TMAP: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	statusCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := errorFromStatus(resp.StatusCode, statusMessage(resp.StatusCode, reqURL, data))
		c.logFailure(operation, apiErr)
		return nil, apiErr
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&result); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to decode TMAP response: %w", err)
	}
	if result == nil {
		result = map[string]any{}
	}
	return result, nil
}

func (c *Client) logFailure(operation string, apiErr *Error) {
	if apiErr.Kind == KindRateLimit {
		c.rateLimitWarning.Do(func() {
			c.logger.Warn("TMAP rate limit reached, confirm with the user before calling again",
				"operation", operation)
		})
		return
	}
	c.logger.Debug("TMAP request failed",
		"operation", operation,
		"status", apiErr.StatusCode,
		"kind", apiErr.Kind.String())
}

// statusMessage describes a failed response: status, URL and the upstream
// error message when the body carries one.
func statusMessage(statusCode int, reqURL string, body []byte) string {
	msg := fmt.Sprintf("HTTP %d for url '%s'", statusCode, reqURL)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return msg
	}
	switch {
	case envelope.Error.Code != "" && envelope.Error.Message != "":
		return fmt.Sprintf("%s: %s (%s)", msg, envelope.Error.Message, envelope.Error.Code)
	case envelope.Error.Message != "":
		return msg + ": " + envelope.Error.Message
	case envelope.Error.Code != "":
		return msg + ": " + envelope.Error.Code
	}
	return msg
}

func errorKind(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind.String()
	}
	return "request"
}
