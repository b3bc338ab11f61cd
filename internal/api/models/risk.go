package models

// RiskScoreRequest asks for a personal health risk score. PM2.5 may be
// supplied directly or resolved from a location.
type RiskScoreRequest struct {
	// PM25 is the concentration in µg/m³. Optional when Location is set.
	PM25 *float64 `json:"pm25,omitempty"`

	// Location resolves PM2.5 from the air quality engine when PM25 is
	// not supplied.
	Location *Point `json:"location,omitempty"`

	DurationMinutes float64 `json:"durationMinutes"`
	ActivityLevel   string  `json:"activityLevel"`
	IsOutdoor       bool    `json:"isOutdoor"`
	HasMask         bool    `json:"hasMask"`
	TravelMode      string  `json:"travelMode,omitempty"`

	Person PersonInput `json:"person"`

	// SubjectID, when set, records the assessment for history views.
	SubjectID string `json:"subjectId,omitempty"`
}

// PersonInput describes the exposed person.
type PersonInput struct {
	Age      int      `json:"age,omitempty"`
	Diseases []string `json:"diseases,omitempty"`
	Smoker   bool     `json:"smoker,omitempty"`
}

// RiskScoreResponse carries the computed score.
type RiskScoreResponse struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`

	// PM25Source is "provided", "station" or "interpolated".
	PM25Source string  `json:"pm25Source"`
	PM25       float64 `json:"pm25"`
	Freshness  string  `json:"freshness,omitempty"`

	Breakdown *RiskBreakdown `json:"breakdown,omitempty"`

	// AssessmentID is set when the assessment was recorded.
	AssessmentID string `json:"assessmentId,omitempty"`
}

// RiskBreakdown explains the factors behind a score.
type RiskBreakdown struct {
	EffectivePM25      float64 `json:"effectivePm25"`
	Hours              float64 `json:"hours"`
	ActivityMultiplier float64 `json:"activityMultiplier"`
	DoseFactor         float64 `json:"doseFactor"`
	Sensitivity        float64 `json:"sensitivity"`
}

// AssessmentRecord is the history view of a recorded assessment.
type AssessmentRecord struct {
	ID              string    `json:"id"`
	SubjectID       string    `json:"subjectId,omitempty"`
	Point           Point     `json:"point"`
	PM25            float64   `json:"pm25"`
	DurationMinutes float64   `json:"durationMinutes"`
	ActivityLevel   string    `json:"activityLevel"`
	TravelMode      string    `json:"travelMode,omitempty"`
	Score           float64   `json:"score"`
	Level           string    `json:"level"`
	CreatedAt       Timestamp `json:"createdAt"`
}

// AssessmentListResponse is one page of assessment history.
type AssessmentListResponse struct {
	Items []AssessmentRecord `json:"items"`
	Meta  PagedResponseMeta  `json:"meta"`
}
