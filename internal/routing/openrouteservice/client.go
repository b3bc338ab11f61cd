// Package openrouteservice implements the routing provider against the
// OpenRouteService directions API.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/airaware/airaware/internal/provider/resilience"
	"github.com/airaware/airaware/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultTimeout bounds one directions request.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL overrides the API base URL (optional).
	BaseURL string

	// HTTPClient overrides the transport (optional). When nil a
	// resilient client with circuit breaking and retries is used.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry receives provider health state (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenRouteService directions client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates an OpenRouteService client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SupportedProfiles returns the routing profiles ORS can serve.
func (c *Client) SupportedProfiles() []routing.Profile {
	return []routing.Profile{
		routing.ProfileWalk,
		routing.ProfileBike,
		routing.ProfileDrive,
	}
}

// GetDirections retrieves route alternatives between two points.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	maxAlts := req.MaxAlternatives
	if maxAlts <= 0 {
		maxAlts = 2
	}

	orsReq := orsRequest{
		Coordinates: [][]float64{
			{req.Origin.Lon, req.Origin.Lat},
			{req.Destination.Lon, req.Destination.Lat},
		},
		AlternativeRoutes: &alternativeRoutesOpts{
			// The first route is not counted as an alternative.
			TargetCount: maxAlts + 1,
		},
		Geometry: true,
		Units:    "m",
	}

	body, err := json.Marshal(orsReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, req.Profile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json, application/geo+json")

	c.logger.Debug().
		Str("profile", string(req.Profile)).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting directions")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach directions provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}

	var orsResp orsResponse
	if err := json.Unmarshal(respBody, &orsResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	result := c.toDirectionsResponse(&orsResp)

	c.logger.Debug().
		Int("route_count", len(result.Routes)).
		Msg("received directions")

	return result, nil
}

// handleErrorResponse maps ORS error payloads to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var orsErr orsErrorResponse
	_ = json.Unmarshal(body, &orsErr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "directions quota exceeded, try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusForbidden || statusCode == http.StatusUnauthorized:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "directions access denied, check the API key",
			Err:      routing.ErrProviderUnavailable,
		}
	case statusCode == http.StatusNotFound:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	case statusCode == http.StatusBadRequest && orsErr.Error.Code == orsErrorCodeNotFound:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  orsErr.Error.Message,
			Err:      routing.ErrNoRouteFound,
		}
	case statusCode == http.StatusBadRequest:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  orsErr.Error.Message,
			Err:      routing.ErrInvalidCoordinates,
		}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "directions provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("directions provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

func (c *Client) toDirectionsResponse(resp *orsResponse) *routing.DirectionsResponse {
	routes := make([]routing.Route, 0, len(resp.Routes))

	for i := range resp.Routes {
		r := &resp.Routes[i]
		routes = append(routes, routing.Route{
			GeometryPolyline: r.Geometry,
			DistanceMeters:   int(r.Summary.Distance),
			DurationSeconds:  int(r.Summary.Duration),
			Summary:          summarize(r.Segments),
		})
	}

	return &routing.DirectionsResponse{
		Routes:    routes,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}
}

// summarize names the route after its longest step, which is usually the
// dominant road or path.
func summarize(segments []routeSegment) string {
	var name string
	var longest float64

	for i := range segments {
		for _, step := range segments[i].Steps {
			if step.Name != "" && step.Name != "-" && step.Distance > longest {
				name = step.Name
				longest = step.Distance
			}
		}
	}

	if name == "" {
		return ""
	}
	return "via " + name
}
