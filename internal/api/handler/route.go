package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/airaware/airaware/internal/api/models"
	"github.com/airaware/airaware/internal/api/response"
	"github.com/airaware/airaware/internal/geo"
	"github.com/airaware/airaware/internal/risk"
	"github.com/airaware/airaware/internal/route"
	"github.com/airaware/airaware/internal/routing"
	"github.com/airaware/airaware/pkg/polyline"
)

// RouteHandler handles route ranking endpoints.
type RouteHandler struct {
	routing *routing.Service
	sampler *route.Sampler
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routingSvc *routing.Service, sampler *route.Sampler) *RouteHandler {
	return &RouteHandler{
		routing: routingSvc,
		sampler: sampler,
	}
}

// Rank handles POST /v1/routes/rank - fetch alternatives, sample their
// exposure, and rank them by personal health risk.
func (h *RouteHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var input models.RouteRankRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	fieldErrs := validateRankRequest(&input)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid route rank request", fieldErrs)
		return
	}

	mode := risk.TravelMode(input.TravelMode)

	directions, err := h.routing.GetDirections(r.Context(), routing.DirectionsRequest{
		Origin:          geo.Point{Lat: input.Origin.Lat, Lon: input.Origin.Lon},
		Destination:     geo.Point{Lat: input.Destination.Lat, Lon: input.Destination.Lon},
		Profile:         routing.ProfileForMode(mode),
		MaxAlternatives: input.MaxAlternatives,
	})
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrNoRouteFound):
			response.NotFound(w, r, "no route found between the given points")
		case errors.Is(err, routing.ErrInvalidCoordinates):
			response.BadRequest(w, r, "invalid coordinates", nil)
		case errors.Is(err, routing.ErrRateLimitExceeded), errors.Is(err, routing.ErrProviderUnavailable):
			response.ServiceUnavailable(w, r, "directions provider is unavailable")
		default:
			response.InternalError(w, r, "failed to fetch directions")
		}
		return
	}
	if len(directions.Routes) == 0 {
		response.NotFound(w, r, "no route found between the given points")
		return
	}

	candidates := make([]*route.Candidate, 0, len(directions.Routes))
	for _, dr := range directions.Routes {
		candidate, err := route.CandidateFromPolyline(dr.GeometryPolyline, dr.DistanceMeters, dr.DurationSeconds)
		if err != nil {
			continue
		}
		candidate.Summary = dr.Summary
		candidates = append(candidates, candidate)
	}
	if len(candidates) == 0 {
		response.InternalError(w, r, "directions provider returned no usable geometry")
		return
	}

	for _, candidate := range candidates {
		if err := h.sampler.Annotate(r.Context(), candidate); err != nil {
			if errors.Is(err, r.Context().Err()) {
				return
			}
			response.InternalError(w, r, "failed to sample route exposure")
			return
		}
	}

	diseases := make([]risk.Disease, 0, len(input.Person.Diseases))
	for _, d := range input.Person.Diseases {
		diseases = append(diseases, risk.Disease(d))
	}

	ranking, err := route.Rank(route.RankRequest{
		Candidates: candidates,
		TravelMode: mode,
		Person: risk.PersonProfile{
			Age:           input.Person.Age,
			Diseases:      diseases,
			SmokingStatus: input.Person.Smoker,
		},
	})
	if err != nil {
		if errors.Is(err, route.ErrNoExposureData) {
			response.NoData(w, r, "no air quality data along any route")
			return
		}
		response.InternalError(w, r, "failed to rank routes")
		return
	}

	ranked := make([]models.RankedRoute, 0, len(ranking.Analyses))
	for i, a := range ranking.Analyses {
		ranked = append(ranked, models.RankedRoute{
			Index:            a.Index,
			GeometryPolyline: encodeGeometry(candidates[i]),
			Summary:          candidates[i].Summary,
			DistanceMeters:   a.DistanceMeters,
			DurationSeconds:  a.DurationSeconds,
			AveragePM25:      a.AveragePM25,
			MaxPM25:          a.MaxPM25,
			SampleCount:      a.SampleCount,
			HasData:          a.HasData,
			Score:            a.Risk.Score,
			Level:            string(a.Risk.Level),
		})
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, models.RouteRankResponse{
		Routes:       ranked,
		SafestIndex:  ranking.SafestIndex,
		FastestIndex: ranking.FastestIndex,
		TradeOff:     ranking.TradeOff,
		GeneratedAt:  models.Timestamp(time.Now()),
	})
}

func validateRankRequest(input *models.RouteRankRequest) []models.FieldError {
	var fieldErrs []models.FieldError

	if !input.Origin.Valid() {
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "origin",
			Message: "coordinates out of range",
		})
	}
	if !input.Destination.Valid() {
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "destination",
			Message: "coordinates out of range",
		})
	}
	if input.TravelMode == "" || !risk.TravelMode(input.TravelMode).Valid() {
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "travelMode",
			Message: "must be one of walking, cycling, motorcycle, bus, car, metro",
		})
	}

	for _, d := range input.Person.Diseases {
		switch risk.Disease(d) {
		case risk.DiseaseAsthma, risk.DiseaseCOPD, risk.DiseaseCardiovascular, risk.DiseaseElderly, risk.DiseaseGeneral:
		default:
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   "person.diseases",
				Message: "unknown disease tag: " + d,
			})
		}
	}

	return fieldErrs
}

func encodeGeometry(c *route.Candidate) string {
	coords := make([]polyline.Coordinate, len(c.Coordinates))
	for i, p := range c.Coordinates {
		coords[i] = polyline.Coordinate{Lat: p.Lat, Lon: p.Lon}
	}
	return polyline.Encode(coords)
}
