package openrouteservice

// orsRequest is the directions API request body. ORS expects GeoJSON
// [lon, lat] coordinate order.
type orsRequest struct {
	Coordinates       [][]float64            `json:"coordinates"`
	AlternativeRoutes *alternativeRoutesOpts `json:"alternative_routes,omitempty"`
	Geometry          bool                   `json:"geometry"`
	Units             string                 `json:"units"`
}

type alternativeRoutesOpts struct {
	TargetCount int `json:"target_count"`
}

type orsResponse struct {
	Routes []orsRoute `json:"routes"`
}

type orsRoute struct {
	Summary  routeSummary   `json:"summary"`
	Segments []routeSegment `json:"segments,omitempty"`
	Geometry string         `json:"geometry"`
}

type routeSummary struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

type routeSegment struct {
	Distance float64     `json:"distance"`
	Duration float64     `json:"duration"`
	Steps    []routeStep `json:"steps,omitempty"`
}

type routeStep struct {
	Distance    float64 `json:"distance"`
	Instruction string  `json:"instruction"`
	Name        string  `json:"name"`
}

type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// orsErrorCodeNotFound is the ORS body code for "no routable point",
// which arrives wrapped in an HTTP 400.
const orsErrorCodeNotFound = 2009
