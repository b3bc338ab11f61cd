package models

// RouteRankRequest asks for route alternatives ranked by health risk.
type RouteRankRequest struct {
	Origin      Point  `json:"origin"`
	Destination Point  `json:"destination"`
	TravelMode  string `json:"travelMode"`

	// MaxAlternatives caps the number of alternatives (default: 2).
	MaxAlternatives int `json:"maxAlternatives,omitempty"`

	Person PersonInput `json:"person"`
}

// RouteRankResponse carries the ranked alternatives.
type RouteRankResponse struct {
	Routes       []RankedRoute `json:"routes"`
	SafestIndex  int           `json:"safestIndex"`
	FastestIndex int           `json:"fastestIndex"`
	TradeOff     string        `json:"tradeOff"`
	GeneratedAt  Timestamp     `json:"generatedAt"`
}

// RankedRoute is one scored route alternative.
type RankedRoute struct {
	Index            int    `json:"index"`
	GeometryPolyline string `json:"geometryPolyline"`
	Summary          string `json:"summary,omitempty"`
	DistanceMeters   int    `json:"distanceMeters"`
	DurationSeconds  int    `json:"durationSeconds"`

	AveragePM25 float64 `json:"averagePm25"`
	MaxPM25     float64 `json:"maxPm25"`
	SampleCount int     `json:"sampleCount"`
	HasData     bool    `json:"hasData"`

	Score float64 `json:"score"`
	Level string  `json:"level"`
}
