package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airaware/airaware/internal/airquality"
	"github.com/airaware/airaware/internal/api"
	"github.com/airaware/airaware/internal/api/handler"
	"github.com/airaware/airaware/internal/api/models"
	"github.com/airaware/airaware/internal/aqi"
	"github.com/airaware/airaware/internal/cache"
	"github.com/airaware/airaware/internal/history"
	"github.com/airaware/airaware/internal/route"
	"github.com/airaware/airaware/internal/routing"
	"github.com/airaware/airaware/pkg/polyline"
)

// fakeAirProvider serves canned observations around central Bangkok.
type fakeAirProvider struct{}

func (p *fakeAirProvider) FetchByCoordinate(_ context.Context, lat, lon float64) (*airquality.RawObservation, error) {
	return p.observation("station-a", "Lumphini", lat, lon, 155), nil
}

func (p *fakeAirProvider) FetchNearby(_ context.Context, lat, lon, _ float64) ([]*airquality.RawObservation, error) {
	return []*airquality.RawObservation{
		p.observation("station-a", "Lumphini", lat+0.02, lon, 155),
		p.observation("station-b", "Sathorn", lat-0.02, lon+0.01, 120),
		p.observation("station-c", "Silom", lat, lon-0.03, 140),
	}, nil
}

func (p *fakeAirProvider) Name() string { return "fakeair" }

func (p *fakeAirProvider) observation(id, name string, lat, lon, aqiValue float64) *airquality.RawObservation {
	return &airquality.RawObservation{
		AQI:               &aqiValue,
		Latitude:          &lat,
		Longitude:         &lon,
		StationID:         id,
		StationName:       name,
		DominantPollutant: "pm25",
		SubIndices: map[aqi.Pollutant]float64{
			aqi.PollutantPM25: aqiValue,
		},
		ObservedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// fakeRouteProvider returns two alternatives: a short one and a longer
// detour.
type fakeRouteProvider struct{}

func (p *fakeRouteProvider) GetDirections(_ context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	direct := polyline.Encode([]polyline.Coordinate{
		{Lat: req.Origin.Lat, Lon: req.Origin.Lon},
		{Lat: (req.Origin.Lat + req.Destination.Lat) / 2, Lon: (req.Origin.Lon + req.Destination.Lon) / 2},
		{Lat: req.Destination.Lat, Lon: req.Destination.Lon},
	})
	detour := polyline.Encode([]polyline.Coordinate{
		{Lat: req.Origin.Lat, Lon: req.Origin.Lon},
		{Lat: req.Origin.Lat + 0.01, Lon: req.Origin.Lon + 0.01},
		{Lat: req.Destination.Lat, Lon: req.Destination.Lon},
	})
	return &routing.DirectionsResponse{
		Routes: []routing.Route{
			{GeometryPolyline: direct, DistanceMeters: 4200, DurationSeconds: 720, Summary: "via Rama IV Road"},
			{GeometryPolyline: detour, DistanceMeters: 5300, DurationSeconds: 960, Summary: "via Sukhumvit Road"},
		},
		Provider:  p.Name(),
		FetchedAt: time.Now(),
	}, nil
}

func (p *fakeRouteProvider) Name() string { return "fakeroutes" }

func (p *fakeRouteProvider) SupportedProfiles() []routing.Profile {
	return []routing.Profile{routing.ProfileWalk, routing.ProfileBike, routing.ProfileDrive}
}

// downAirProvider simulates an unreachable upstream.
type downAirProvider struct{}

func (p *downAirProvider) FetchByCoordinate(context.Context, float64, float64) (*airquality.RawObservation, error) {
	return nil, airquality.ErrProviderUnavailable
}

func (p *downAirProvider) FetchNearby(context.Context, float64, float64, float64) ([]*airquality.RawObservation, error) {
	return nil, airquality.ErrProviderUnavailable
}

func (p *downAirProvider) Name() string { return "downair" }

func newTestRouter() http.Handler {
	return newTestRouterWith(&fakeAirProvider{})
}

func newTestRouterWith(provider airquality.Provider) http.Handler {
	logger := zerolog.New(io.Discard)

	airSvc := airquality.NewService(airquality.ServiceConfig{
		Provider:  provider,
		Logger:    logger,
		Readings:  cache.NewMemory[*airquality.StationReading](),
		Estimates: cache.NewMemory[*airquality.InterpolatedPoint](),
	})

	routingSvc := routing.NewService(routing.ServiceConfig{
		Provider:   &fakeRouteProvider{},
		Logger:     logger,
		Directions: cache.NewMemory[*routing.DirectionsResponse](),
	})

	sampler := route.NewSampler(route.SamplerConfig{
		Source: airSvc,
		Logger: logger,
	})

	historySvc := history.NewService(history.ServiceConfig{
		Repository: history.NewInMemoryRepository(),
		Logger:     logger,
	})

	return api.NewRouter(api.RouterConfig{
		Version:           "test",
		BuildTime:         "2026-01-01T00:00:00Z",
		Logger:            logger,
		AirQualityService: airSvc,
		HistoryService:    historySvc,
		RoutingService:    routingSvc,
		Sampler:           sampler,
		ReadyChecks: map[string]handler.ReadyCheck{
			"cache": func(context.Context) error { return nil },
		},
	})
}

func postJSON(t *testing.T, router http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "ok", health.Details["cache"])
}

func TestRouter_SystemStatus(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.NotEmpty(t, status.Subsystems)
}

func TestRouter_CurrentAirQuality(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/air-quality/current?lat=13.7563&lon=100.5018", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.AirQualityResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, 155, resp.AQI)
	require.NotNil(t, resp.PM25)
	assert.Greater(t, *resp.PM25, 0.0)
	assert.Equal(t, string(airquality.FreshnessFresh), resp.Freshness)
	require.NotNil(t, resp.Station)
	assert.Equal(t, "station-a", resp.Station.ID)
}

func TestRouter_CurrentAirQuality_MissingCoords(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/air-quality/current?lat=13.7563", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)

	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_InterpolatedAirQuality(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/air-quality/interpolated?lat=13.7563&lon=100.5018", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.InterpolatedResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Greater(t, resp.PM25, 0.0)
	assert.Greater(t, resp.Confidence, 0.0)
	assert.NotEmpty(t, resp.Contributors)
}

func TestRouter_InterpolatedAirQuality_ProviderDown(t *testing.T) {
	router := newTestRouterWith(&downAirProvider{})

	// Provider failure with an empty cache is "no data", not a server
	// error.
	req := httptest.NewRequest(http.MethodGet, "/v1/air-quality/interpolated?lat=13.7563&lon=100.5018", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)
	assert.Equal(t, models.ProblemTypeNoData, problem.Type)
}

func TestRouter_RiskScore_ProvidedPM25(t *testing.T) {
	router := newTestRouter()

	pm25 := 80.0
	w := postJSON(t, router, "/v1/risk/score", models.RiskScoreRequest{
		PM25:            &pm25,
		DurationMinutes: 45,
		ActivityLevel:   "moderate",
		IsOutdoor:       true,
		Person: models.PersonInput{
			Age:      34,
			Diseases: []string{"asthma"},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RiskScoreResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Greater(t, resp.Score, 0.0)
	assert.NotEmpty(t, resp.Level)
	assert.Equal(t, "provided", resp.PM25Source)
	assert.Equal(t, pm25, resp.PM25)
	require.NotNil(t, resp.Breakdown)
	assert.InDelta(t, 1.5, resp.Breakdown.Sensitivity, 1e-9)
}

func TestRouter_RiskScore_ResolvesFromStation(t *testing.T) {
	router := newTestRouter()

	w := postJSON(t, router, "/v1/risk/score", models.RiskScoreRequest{
		Location:        &models.Point{Lat: 13.7563, Lon: 100.5018},
		DurationMinutes: 30,
		ActivityLevel:   "light",
		IsOutdoor:       true,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RiskScoreResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "station", resp.PM25Source)
	assert.Greater(t, resp.PM25, 0.0)
	assert.Equal(t, string(airquality.FreshnessFresh), resp.Freshness)
}

func TestRouter_RiskScore_RecordsAssessment(t *testing.T) {
	router := newTestRouter()

	pm25 := 60.0
	w := postJSON(t, router, "/v1/risk/score", models.RiskScoreRequest{
		PM25:            &pm25,
		DurationMinutes: 30,
		ActivityLevel:   "light",
		IsOutdoor:       true,
		SubjectID:       "subj-1",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RiskScoreResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.NotEmpty(t, resp.AssessmentID)

	req := httptest.NewRequest(http.MethodGet, "/v1/risk/assessments?subjectId=subj-1", http.NoBody)
	lw := httptest.NewRecorder()
	router.ServeHTTP(lw, req)

	assert.Equal(t, http.StatusOK, lw.Code)

	var list models.AssessmentListResponse
	err = json.Unmarshal(lw.Body.Bytes(), &list)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, resp.AssessmentID, list.Items[0].ID)
}

func TestRouter_RiskScore_ValidationError(t *testing.T) {
	router := newTestRouter()

	// Neither pm25 nor location supplied.
	w := postJSON(t, router, "/v1/risk/score", models.RiskScoreRequest{
		DurationMinutes: 30,
		ActivityLevel:   "light",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)

	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.Errors)
}

func TestRouter_RankRoutes(t *testing.T) {
	router := newTestRouter()

	w := postJSON(t, router, "/v1/routes/rank", models.RouteRankRequest{
		Origin:      models.Point{Lat: 13.7563, Lon: 100.5018},
		Destination: models.Point{Lat: 13.7663, Lon: 100.5118},
		TravelMode:  "walking",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RouteRankResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.Len(t, resp.Routes, 2)
	assert.NotEmpty(t, resp.TradeOff)
	assert.Equal(t, 720, resp.Routes[resp.FastestIndex].DurationSeconds)
	for _, rt := range resp.Routes {
		assert.True(t, rt.HasData)
		assert.Greater(t, rt.AveragePM25, 0.0)
		assert.NotEmpty(t, rt.GeometryPolyline)
		assert.Positive(t, rt.SampleCount)
	}
}

func TestRouter_RankRoutes_ValidationError(t *testing.T) {
	router := newTestRouter()

	// Missing travel mode.
	w := postJSON(t, router, "/v1/routes/rank", models.RouteRankRequest{
		Origin:      models.Point{Lat: 13.7563, Lon: 100.5018},
		Destination: models.Point{Lat: 13.7663, Lon: 100.5118},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
