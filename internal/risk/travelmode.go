package risk

// TravelMode adjusts ambient PM2.5 to the concentration actually
// breathed in that mode. Enclosed filtered cabins see less of the street
// concentration; open-air modes see all of it.
type TravelMode string

const (
	TravelWalking    TravelMode = "walking"
	TravelCycling    TravelMode = "cycling"
	TravelMotorcycle TravelMode = "motorcycle"
	TravelBus        TravelMode = "bus"
	TravelCar        TravelMode = "car"
	TravelMetro      TravelMode = "metro"
)

var travelDoseFactors = map[TravelMode]float64{
	TravelWalking:    1.0,
	TravelCycling:    0.9,
	TravelMotorcycle: 0.9,
	TravelBus:        0.7,
	TravelCar:        0.5,
	TravelMetro:      0.35,
}

// DoseFactor returns the fraction of ambient PM2.5 inhaled in this mode.
// Unknown or empty modes behave as walking, the most conservative case.
func (m TravelMode) DoseFactor() float64 {
	if f, ok := travelDoseFactors[m]; ok {
		return f
	}
	return travelDoseFactors[TravelWalking]
}

// Valid reports whether m is a recognized travel mode.
func (m TravelMode) Valid() bool {
	_, ok := travelDoseFactors[m]
	return ok
}
