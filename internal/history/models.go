// Package history persists risk assessments so clients can show
// exposure trends over time.
package history

import (
	"errors"
	"time"

	"github.com/airaware/airaware/internal/risk"
)

// ErrAssessmentNotFound indicates the requested assessment does not exist.
var ErrAssessmentNotFound = errors.New("assessment not found")

// Assessment is one scored exposure episode.
type Assessment struct {
	ID        string `json:"id"`
	SubjectID string `json:"subjectId,omitempty"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	PM25            float64            `json:"pm25"`
	DurationMinutes float64            `json:"durationMinutes"`
	ActivityLevel   risk.ActivityLevel `json:"activityLevel"`
	TravelMode      risk.TravelMode    `json:"travelMode,omitempty"`

	Score float64        `json:"score"`
	Level risk.RiskLevel `json:"level"`

	CreatedAt time.Time `json:"createdAt"`
}
