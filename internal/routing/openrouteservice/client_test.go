package openrouteservice_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airaware/airaware/internal/geo"
	"github.com/airaware/airaware/internal/routing"
	"github.com/airaware/airaware/internal/routing/openrouteservice"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*openrouteservice.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := openrouteservice.NewClient(openrouteservice.ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
	return client, server
}

func walkRequest() routing.DirectionsRequest {
	return routing.DirectionsRequest{
		Origin:      geo.Point{Lat: 13.7563, Lon: 100.5018},
		Destination: geo.Point{Lat: 13.7651, Lon: 100.5381},
		Profile:     routing.ProfileWalk,
	}
}

func TestGetDirectionsParsesRoutes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/foot-walking", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		var body struct {
			Coordinates [][]float64 `json:"coordinates"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Coordinates, 2)
		// ORS coordinate order is [lon, lat].
		assert.InDelta(t, 100.5018, body.Coordinates[0][0], 1e-9)
		assert.InDelta(t, 13.7563, body.Coordinates[0][1], 1e-9)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"routes": [
				{
					"summary": {"distance": 4321.5, "duration": 3100.2},
					"geometry": "_p~iF~ps|U_ulLnnqC",
					"segments": [{
						"distance": 4321.5,
						"duration": 3100.2,
						"steps": [
							{"distance": 900.0, "instruction": "Head north", "name": "Rama IV Road"},
							{"distance": 120.0, "instruction": "Turn left", "name": "-"}
						]
					}]
				},
				{
					"summary": {"distance": 5102.0, "duration": 2800.0},
					"geometry": "_p~iF~ps|U_c_Vf}fR"
				}
			]
		}`))
	})

	resp, err := client.GetDirections(context.Background(), walkRequest())
	require.NoError(t, err)
	require.Len(t, resp.Routes, 2)

	assert.Equal(t, 4321, resp.Routes[0].DistanceMeters)
	assert.Equal(t, 3100, resp.Routes[0].DurationSeconds)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC", resp.Routes[0].GeometryPolyline)
	assert.Equal(t, "via Rama IV Road", resp.Routes[0].Summary)
	assert.Empty(t, resp.Routes[1].Summary)
	assert.Equal(t, openrouteservice.ProviderName, resp.Provider)
}

func TestGetDirectionsNoRouteFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 2009, "message": "Route could not be found"}}`))
	})

	_, err := client.GetDirections(context.Background(), walkRequest())
	assert.ErrorIs(t, err, routing.ErrNoRouteFound)
}

func TestGetDirectionsRateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetDirections(context.Background(), walkRequest())
	assert.ErrorIs(t, err, routing.ErrRateLimitExceeded)

	var provErr *routing.Error
	require.ErrorAs(t, err, &provErr)
	assert.True(t, provErr.IsRetryable())
}

func TestGetDirectionsForbidden(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.GetDirections(context.Background(), walkRequest())
	assert.ErrorIs(t, err, routing.ErrProviderUnavailable)
}

func TestGetDirectionsServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetDirections(context.Background(), walkRequest())
	assert.ErrorIs(t, err, routing.ErrProviderUnavailable)
}

func TestSupportedProfiles(t *testing.T) {
	client := openrouteservice.NewClient(openrouteservice.ClientConfig{
		APIKey: "k",
		Logger: zerolog.Nop(),
	})

	assert.Equal(t, openrouteservice.ProviderName, client.Name())
	assert.Contains(t, client.SupportedProfiles(), routing.ProfileWalk)
	assert.Contains(t, client.SupportedProfiles(), routing.ProfileDrive)
}
