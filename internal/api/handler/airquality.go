// Package handler provides HTTP handlers for the AirAware API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/airaware/airaware/internal/airquality"
	"github.com/airaware/airaware/internal/api/models"
	"github.com/airaware/airaware/internal/api/response"
)

// AirQualityHandler handles air quality endpoints.
type AirQualityHandler struct {
	service *airquality.Service
}

// NewAirQualityHandler creates a new AirQualityHandler.
func NewAirQualityHandler(service *airquality.Service) *AirQualityHandler {
	return &AirQualityHandler{service: service}
}

// Current handles GET /v1/air-quality/current - nearest station reading.
func (h *AirQualityHandler) Current(w http.ResponseWriter, r *http.Request) {
	lat, lon, fieldErrs := parseLatLon(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid coordinates", fieldErrs)
		return
	}

	useCache := r.URL.Query().Get("cache") != "false"

	reading, freshness, err := h.service.Fetch(r.Context(), lat, lon, useCache)
	if err != nil {
		switch {
		case errors.Is(err, airquality.ErrNoData):
			response.NoData(w, r, "no air quality reading available for this location")
		case errors.Is(err, airquality.ErrProviderUnavailable):
			response.ServiceUnavailable(w, r, "air quality provider is unavailable")
		default:
			response.InternalError(w, r, "failed to fetch air quality")
		}
		return
	}

	resp := models.AirQualityResponse{
		AQI:         reading.AQI,
		PM25:        reading.PM25,
		PM10:        reading.PM10,
		DominantPol: reading.DominantPollutant,
		Freshness:   string(freshness),
	}

	if reading.StationID != "" {
		station := &models.StationInfo{
			ID:   reading.StationID,
			Name: reading.StationName,
		}
		if reading.HasLocation {
			station.Point = &models.Point{Lat: reading.Latitude, Lon: reading.Longitude}
		}
		resp.Station = station
	}

	if !reading.ObservedAt.IsZero() {
		observed := models.Timestamp(reading.ObservedAt)
		resp.ObservedAt = &observed
	}
	if age, ok := h.service.ReadingAge(lat, lon); ok {
		seconds := int64(age.Seconds())
		resp.AgeSeconds = &seconds
	}

	if freshness == airquality.FreshnessStale {
		w.Header().Set("Warning", `110 - "Response is Stale"`)
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// Interpolated handles GET /v1/air-quality/interpolated - IDW estimate
// from nearby stations.
func (h *AirQualityHandler) Interpolated(w http.ResponseWriter, r *http.Request) {
	lat, lon, fieldErrs := parseLatLon(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid coordinates", fieldErrs)
		return
	}

	estimate, freshness, err := h.service.EstimateAt(r.Context(), lat, lon)
	if err != nil {
		switch {
		case errors.Is(err, airquality.ErrNoStationsInRange):
			response.NoData(w, r, "no stations within interpolation range")
		case errors.Is(err, airquality.ErrNoData):
			response.NoData(w, r, "no air quality estimate available for this location")
		case errors.Is(err, airquality.ErrProviderUnavailable):
			response.ServiceUnavailable(w, r, "air quality provider is unavailable")
		default:
			response.InternalError(w, r, "failed to estimate air quality")
		}
		return
	}

	contributors := make([]models.ContributorInfo, 0, len(estimate.Contributors))
	for _, c := range estimate.Contributors {
		contributors = append(contributors, models.ContributorInfo{
			StationID:  c.StationID,
			Weight:     c.Weight,
			DistanceKm: c.DistanceKm,
		})
	}

	response.JSON(w, r, http.StatusOK, models.InterpolatedResponse{
		Point:        models.Point{Lat: estimate.Latitude, Lon: estimate.Longitude},
		PM25:         estimate.PM25,
		AQI:          estimate.AQI,
		Confidence:   estimate.Confidence,
		Contributors: contributors,
		Freshness:    string(freshness),
	})
}

// parseLatLon extracts and validates lat/lon query parameters.
func parseLatLon(r *http.Request) (float64, float64, []models.FieldError) {
	var fieldErrs []models.FieldError

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "lat",
			Message: "must be a number between -90 and 90",
		})
	}

	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "lon",
			Message: "must be a number between -180 and 180",
		})
	}

	return lat, lon, fieldErrs
}
