// Package waqi provides a client for the World Air Quality Index API.
package waqi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/airaware/airaware/internal/airquality"
	"github.com/airaware/airaware/internal/aqi"
	"github.com/airaware/airaware/internal/provider/resilience"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the base URL for the WAQI API.
	DefaultBaseURL = "https://api.waqi.info"

	// ProviderName identifies this provider.
	ProviderName = "waqi"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the WAQI client.
type ClientConfig struct {
	// Token is the WAQI API token (required).
	Token string

	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a WAQI API client.
type Client struct {
	token      string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new WAQI client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout != 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		token:      cfg.Token,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// API response types (from the WAQI API).

type feedResponse struct {
	Status string   `json:"status"`
	Data   feedData `json:"data"`
}

type feedData struct {
	// AQI is decoded loosely: the API reports "-" when the index is
	// unavailable. Non-numeric values become a nil RawObservation.AQI,
	// which the validator rejects.
	AQI         json.RawMessage          `json:"aqi"`
	IDX         int                      `json:"idx"`
	City        cityData                 `json:"city"`
	DominentPol string                   `json:"dominentpol"`
	IAQI        map[string]subIndexValue `json:"iaqi"`
	Time        timeData                 `json:"time"`
}

type cityData struct {
	Geo  []float64 `json:"geo"`
	Name string    `json:"name"`
}

type subIndexValue struct {
	V float64 `json:"v"`
}

type timeData struct {
	ISO string `json:"iso"`
}

type boundsResponse struct {
	Status string          `json:"status"`
	Data   []boundsStation `json:"data"`
}

type boundsStation struct {
	Lat     float64       `json:"lat"`
	Lon     float64       `json:"lon"`
	UID     int           `json:"uid"`
	AQI     string        `json:"aqi"`
	Station boundsDetails `json:"station"`
}

type boundsDetails struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// FetchByCoordinate retrieves the observation for the station nearest to
// the given coordinate.
func (c *Client) FetchByCoordinate(ctx context.Context, lat, lon float64) (*airquality.RawObservation, error) {
	endpoint := fmt.Sprintf("%s/feed/geo:%s;%s/?token=%s",
		c.baseURL,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
		url.QueryEscape(c.token),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from feed endpoint", resp.StatusCode)
	}

	var result feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("%w: feed status %q", airquality.ErrProviderUnavailable, result.Status)
	}

	c.logger.Debug().
		Int("station_idx", result.Data.IDX).
		Str("station_name", result.Data.City.Name).
		Msg("received feed observation")

	return c.toRawObservation(&result.Data), nil
}

// FetchNearby retrieves observations for all stations inside a bounding
// box of radiusKm around the coordinate. The bounds endpoint reports
// composite AQI only; per-pollutant sub-indices are absent, so PM2.5 is
// later derived from the composite index during normalization.
func (c *Client) FetchNearby(ctx context.Context, lat, lon, radiusKm float64) ([]*airquality.RawObservation, error) {
	// Degrees per km: 1/111 for latitude, widened by cos(lat) for longitude.
	latDelta := radiusKm / 111.0
	lonDelta := radiusKm / (111.0 * cosDegrees(lat))

	endpoint := fmt.Sprintf("%s/map/bounds/?latlng=%.4f,%.4f,%.4f,%.4f&token=%s",
		c.baseURL,
		lat-latDelta, lon-lonDelta,
		lat+latDelta, lon+lonDelta,
		url.QueryEscape(c.token),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bounds: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from bounds endpoint", resp.StatusCode)
	}

	var result boundsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode bounds response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("%w: bounds status %q", airquality.ErrProviderUnavailable, result.Status)
	}

	observations := make([]*airquality.RawObservation, 0, len(result.Data))
	for i := range result.Data {
		observations = append(observations, c.toBoundsObservation(&result.Data[i]))
	}

	c.logger.Debug().
		Int("station_count", len(observations)).
		Float64("radius_km", radiusKm).
		Msg("received bounds observations")

	return observations, nil
}

// toRawObservation converts a feed payload to the engine DTO.
func (c *Client) toRawObservation(d *feedData) *airquality.RawObservation {
	raw := &airquality.RawObservation{
		AQI:               parseLooseNumber(d.AQI),
		StationID:         strconv.Itoa(d.IDX),
		StationName:       d.City.Name,
		DominantPollutant: d.DominentPol,
		ObservedAt:        d.Time.ISO,
		SubIndices:        make(map[aqi.Pollutant]float64, len(d.IAQI)),
	}

	// WAQI reports geo as [lat, lon].
	if len(d.City.Geo) == 2 {
		raw.Latitude = &d.City.Geo[0]
		raw.Longitude = &d.City.Geo[1]
	}

	for name, v := range d.IAQI {
		if p := toPollutant(name); p != "" {
			raw.SubIndices[p] = v.V
		}
	}

	return raw
}

// toBoundsObservation converts a bounds station to the engine DTO.
func (c *Client) toBoundsObservation(s *boundsStation) *airquality.RawObservation {
	lat, lon := s.Lat, s.Lon
	raw := &airquality.RawObservation{
		Latitude:    &lat,
		Longitude:   &lon,
		StationID:   strconv.Itoa(s.UID),
		StationName: s.Station.Name,
		ObservedAt:  s.Station.Time,
	}

	if v, err := strconv.ParseFloat(s.AQI, 64); err == nil {
		raw.AQI = &v
	}

	return raw
}

// parseLooseNumber parses a JSON value that may be a number, a quoted
// number, or a placeholder like "-". Returns nil unless numeric.
func parseLooseNumber(msg json.RawMessage) *float64 {
	if len(msg) == 0 {
		return nil
	}
	text := strings.Trim(strings.TrimSpace(string(msg)), `"`)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &v
}

// toPollutant maps a WAQI iaqi key to our pollutant type.
func toPollutant(name string) aqi.Pollutant {
	switch strings.ToLower(name) {
	case "pm25":
		return aqi.PollutantPM25
	case "pm10":
		return aqi.PollutantPM10
	case "o3":
		return aqi.PollutantO3
	case "no2":
		return aqi.PollutantNO2
	case "so2":
		return aqi.PollutantSO2
	case "co":
		return aqi.PollutantCO
	default:
		return ""
	}
}

func cosDegrees(deg float64) float64 {
	c := math.Cos(deg * math.Pi / 180)
	// Clamp so polar queries don't divide by ~0.
	if c < 0.1 {
		return 0.1
	}
	return c
}
