// Package aqi converts between AQI sub-index values and physical
// concentrations using EPA-style piecewise-linear breakpoint tables.
package aqi

import "math"

// Pollutant identifies the pollutant a sub-index or concentration refers to.
type Pollutant string

const (
	PollutantPM25 Pollutant = "PM25"
	PollutantPM10 Pollutant = "PM10"
	PollutantO3   Pollutant = "O3"
	PollutantNO2  Pollutant = "NO2"
	PollutantSO2  Pollutant = "SO2"
	PollutantCO   Pollutant = "CO"
)

// breakpoint maps an AQI range to a concentration range.
type breakpoint struct {
	aqiLow, aqiHigh   float64
	concLow, concHigh float64
}

// EPA breakpoint tables. Concentrations in µg/m³.
var breakpointTables = map[Pollutant][]breakpoint{
	PollutantPM25: {
		{0, 50, 0.0, 12.0},
		{51, 100, 12.1, 35.4},
		{101, 150, 35.5, 55.4},
		{151, 200, 55.5, 150.4},
		{201, 300, 150.5, 250.4},
		{301, 400, 250.5, 350.4},
		{401, 500, 350.5, 500.4},
	},
	PollutantPM10: {
		{0, 50, 0, 54},
		{51, 100, 55, 154},
		{101, 150, 155, 254},
		{151, 200, 255, 354},
		{201, 300, 355, 424},
		{301, 400, 425, 504},
		{401, 500, 505, 604},
	},
}

// Concentration is the result of converting an AQI sub-index.
type Concentration struct {
	// Value is the concentration in µg/m³ when Converted is true,
	// otherwise the raw sub-index passed through unchanged.
	Value float64

	// Converted reports whether a breakpoint table was applied.
	// Callers must not treat an unconverted value as µg/m³.
	Converted bool
}

// ConcentrationFromAQI converts an AQI sub-index to a concentration.
// Values outside the table clamp to the nearest bracket extreme rather
// than failing: upstream networks report sub-indices beyond the nominal
// 0-500 scale during severe episodes.
// Pollutants without a breakpoint table (NO2, O3, SO2, CO) are passed
// through as raw sub-indices with Converted=false.
func ConcentrationFromAQI(pollutant Pollutant, aqiValue float64) Concentration {
	table, ok := breakpointTables[pollutant]
	if !ok {
		return Concentration{Value: aqiValue, Converted: false}
	}

	if aqiValue <= table[0].aqiLow {
		return Concentration{Value: table[0].concLow, Converted: true}
	}
	last := table[len(table)-1]
	if aqiValue >= last.aqiHigh {
		return Concentration{Value: last.concHigh, Converted: true}
	}

	for _, bp := range table {
		if aqiValue >= bp.aqiLow && aqiValue <= bp.aqiHigh {
			fraction := (aqiValue - bp.aqiLow) / (bp.aqiHigh - bp.aqiLow)
			return Concentration{
				Value:     bp.concLow + fraction*(bp.concHigh-bp.concLow),
				Converted: true,
			}
		}
	}

	// Between brackets (e.g. AQI 50.5): snap into the bracket above.
	for _, bp := range table {
		if aqiValue < bp.aqiLow {
			return Concentration{Value: bp.concLow, Converted: true}
		}
	}
	return Concentration{Value: last.concHigh, Converted: true}
}

// AQIFromConcentration converts a concentration in µg/m³ back to an AQI
// sub-index, rounded to the nearest integer as published indices are.
// Returns ok=false when the pollutant has no breakpoint table.
func AQIFromConcentration(pollutant Pollutant, concentration float64) (float64, bool) {
	table, ok := breakpointTables[pollutant]
	if !ok {
		return 0, false
	}

	if concentration <= table[0].concLow {
		return table[0].aqiLow, true
	}
	last := table[len(table)-1]
	if concentration >= last.concHigh {
		return last.aqiHigh, true
	}

	for _, bp := range table {
		if concentration >= bp.concLow && concentration <= bp.concHigh {
			fraction := (concentration - bp.concLow) / (bp.concHigh - bp.concLow)
			return math.Round(bp.aqiLow + fraction*(bp.aqiHigh-bp.aqiLow)), true
		}
	}

	// Concentration fell between two brackets' edges.
	for _, bp := range table {
		if concentration < bp.concLow {
			return bp.aqiLow, true
		}
	}
	return last.aqiHigh, true
}

// HasTable reports whether a breakpoint table exists for the pollutant.
func HasTable(pollutant Pollutant) bool {
	_, ok := breakpointTables[pollutant]
	return ok
}
