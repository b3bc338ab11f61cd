package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/airaware/airaware/internal/airquality"
	"github.com/airaware/airaware/internal/api/models"
	"github.com/airaware/airaware/internal/api/response"
	"github.com/airaware/airaware/internal/history"
	"github.com/airaware/airaware/internal/risk"
)

// RiskHandler handles risk scoring endpoints.
type RiskHandler struct {
	airQuality *airquality.Service
	history    *history.Service
}

// NewRiskHandler creates a new RiskHandler. The history service is
// optional; without it assessments are computed but never recorded.
func NewRiskHandler(airQuality *airquality.Service, historySvc *history.Service) *RiskHandler {
	return &RiskHandler{
		airQuality: airQuality,
		history:    historySvc,
	}
}

// Score handles POST /v1/risk/score - compute a personal health risk index.
func (h *RiskHandler) Score(w http.ResponseWriter, r *http.Request) {
	var input models.RiskScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	fieldErrs := validateRiskRequest(&input)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid risk score request", fieldErrs)
		return
	}

	// Resolve PM2.5: explicit value wins, otherwise look it up.
	pm25, source, freshness, ok := h.resolvePM25(w, r, &input)
	if !ok {
		return
	}

	activity := risk.ActivityLevel(input.ActivityLevel)
	if input.ActivityLevel == "" {
		activity = risk.ActivityLight
	}

	diseases := make([]risk.Disease, 0, len(input.Person.Diseases))
	for _, d := range input.Person.Diseases {
		diseases = append(diseases, risk.Disease(d))
	}

	result := risk.ComputePHRI(risk.ExposureProfile{
		PM25:            pm25,
		DurationMinutes: input.DurationMinutes,
		ActivityLevel:   activity,
		IsOutdoor:       input.IsOutdoor,
		HasMask:         input.HasMask,
		TravelMode:      risk.TravelMode(input.TravelMode),
	}, risk.PersonProfile{
		Age:           input.Person.Age,
		Diseases:      diseases,
		SmokingStatus: input.Person.Smoker,
	})

	resp := models.RiskScoreResponse{
		Score:      result.Score,
		Level:      string(result.Level),
		PM25Source: source,
		PM25:       pm25,
		Freshness:  freshness,
	}
	if result.Breakdown != nil {
		resp.Breakdown = &models.RiskBreakdown{
			EffectivePM25:      result.Breakdown.EffectivePM25,
			Hours:              result.Breakdown.Hours,
			ActivityMultiplier: result.Breakdown.ActivityMultiplier,
			DoseFactor:         result.Breakdown.DoseFactor,
			Sensitivity:        result.Breakdown.Sensitivity,
		}
	}

	if h.history != nil && input.SubjectID != "" {
		assessment := &history.Assessment{
			SubjectID:       input.SubjectID,
			PM25:            pm25,
			DurationMinutes: input.DurationMinutes,
			ActivityLevel:   activity,
			TravelMode:      risk.TravelMode(input.TravelMode),
			Score:           result.Score,
			Level:           result.Level,
		}
		if input.Location != nil {
			assessment.Latitude = input.Location.Lat
			assessment.Longitude = input.Location.Lon
		}
		// Recording is best effort; the score is still returned.
		if err := h.history.Record(r.Context(), assessment); err == nil {
			resp.AssessmentID = assessment.ID
		}
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// resolvePM25 determines the concentration to score against. Writes the
// error response itself and returns ok=false when resolution fails.
func (h *RiskHandler) resolvePM25(w http.ResponseWriter, r *http.Request, input *models.RiskScoreRequest) (float64, string, string, bool) {
	if input.PM25 != nil {
		return *input.PM25, "provided", "", true
	}

	reading, freshness, err := h.airQuality.Fetch(r.Context(), input.Location.Lat, input.Location.Lon, true)
	if err == nil && reading.PM25 != nil {
		return *reading.PM25, "station", string(freshness), true
	}

	// No station PM2.5; fall back to interpolation.
	estimate, freshness, err := h.airQuality.EstimateAt(r.Context(), input.Location.Lat, input.Location.Lon)
	if err != nil {
		switch {
		case errors.Is(err, airquality.ErrNoStationsInRange), errors.Is(err, airquality.ErrNoData):
			response.NoData(w, r, "no PM2.5 data available for this location")
		case errors.Is(err, airquality.ErrProviderUnavailable):
			response.ServiceUnavailable(w, r, "air quality provider is unavailable")
		default:
			response.InternalError(w, r, "failed to resolve PM2.5")
		}
		return 0, "", "", false
	}

	return estimate.PM25, "interpolated", string(freshness), true
}

func validateRiskRequest(input *models.RiskScoreRequest) []models.FieldError {
	var fieldErrs []models.FieldError

	if input.PM25 == nil && input.Location == nil {
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "pm25",
			Message: "either pm25 or location is required",
		})
	}
	if input.PM25 != nil && *input.PM25 < 0 {
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "pm25",
			Message: "must not be negative",
		})
	}
	if input.Location != nil && !input.Location.Valid() {
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "location",
			Message: "coordinates out of range",
		})
	}
	if input.DurationMinutes <= 0 {
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "durationMinutes",
			Message: "must be greater than zero",
		})
	}

	switch risk.ActivityLevel(input.ActivityLevel) {
	case "", risk.ActivityRest, risk.ActivityLight, risk.ActivityModerate, risk.ActivityHeavy:
	default:
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "activityLevel",
			Message: "must be one of rest, light, moderate, heavy",
		})
	}

	if input.TravelMode != "" && !risk.TravelMode(input.TravelMode).Valid() {
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   "travelMode",
			Message: "unknown travel mode",
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

// ListAssessments handles GET /v1/risk/assessments - history for a subject.
func (h *RiskHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		response.ServiceUnavailable(w, r, "assessment history is not configured")
		return
	}

	subjectID := r.URL.Query().Get("subjectId")
	if subjectID == "" {
		response.BadRequest(w, r, "subjectId is required", []models.FieldError{
			{Field: "subjectId", Message: "required"},
		})
		return
	}

	opts := history.ListOptions{Cursor: r.URL.Query().Get("cursor")}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := parsePositiveInt(limit)
		if err != nil {
			response.BadRequest(w, r, "invalid limit", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer"},
			})
			return
		}
		opts.Limit = n
	}

	page, err := h.history.ListBySubject(r.Context(), subjectID, opts)
	if err != nil {
		response.InternalError(w, r, "failed to list assessments")
		return
	}

	items := make([]models.AssessmentRecord, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, models.AssessmentRecord{
			ID:              a.ID,
			SubjectID:       a.SubjectID,
			Point:           models.Point{Lat: a.Latitude, Lon: a.Longitude},
			PM25:            a.PM25,
			DurationMinutes: a.DurationMinutes,
			ActivityLevel:   string(a.ActivityLevel),
			TravelMode:      string(a.TravelMode),
			Score:           a.Score,
			Level:           string(a.Level),
			CreatedAt:       models.Timestamp(a.CreatedAt),
		})
	}

	resp := models.AssessmentListResponse{
		Items: items,
		Meta:  models.PagedResponseMeta{Limit: opts.Limit},
	}
	if page.NextCursor != "" {
		resp.Meta.NextCursor = &page.NextCursor
	}

	response.JSON(w, r, http.StatusOK, resp)
}
