package models

// AirQualityResponse is the payload for current air quality at a point.
type AirQualityResponse struct {
	Station     *StationInfo `json:"station,omitempty"`
	AQI         int          `json:"aqi"`
	PM25        *float64     `json:"pm25,omitempty"`
	PM10        *float64     `json:"pm10,omitempty"`
	DominantPol string       `json:"dominantPollutant,omitempty"`

	// Freshness is "fresh", "stale" or "unavailable". Stale data is still
	// served so clients can degrade gracefully through provider outages.
	Freshness  string     `json:"freshness"`
	ObservedAt *Timestamp `json:"observedAt,omitempty"`
	AgeSeconds *int64     `json:"ageSeconds,omitempty"`
}

// StationInfo identifies the reporting station.
type StationInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Point *Point `json:"point,omitempty"`
}

// InterpolatedResponse is the payload for an interpolated estimate.
type InterpolatedResponse struct {
	Point      Point   `json:"point"`
	PM25       float64 `json:"pm25"`
	AQI        float64 `json:"aqi"`
	Confidence float64 `json:"confidence"`

	Contributors []ContributorInfo `json:"contributors"`
	Freshness    string            `json:"freshness"`
}

// ContributorInfo describes one station's share of an estimate.
type ContributorInfo struct {
	StationID  string  `json:"stationId"`
	Weight     float64 `json:"weight"`
	DistanceKm float64 `json:"distanceKm"`
}
