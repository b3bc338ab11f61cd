// Package polyline implements Google's encoded polyline algorithm at the
// standard 1e-5 precision used by OpenRouteService and most routing APIs.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import "math"

const precision = 1e5

// Coordinate is a decoded polyline vertex.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Decode expands an encoded polyline into its vertices. An empty string
// decodes to nil.
func Decode(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}

	coords := make([]Coordinate, 0, len(encoded)/4)
	var lat, lon, index int

	for index < len(encoded) {
		dLat, next := decodeDelta(encoded, index)
		lat += dLat

		dLon, next := decodeDelta(encoded, next)
		lon += dLon
		index = next

		coords = append(coords, Coordinate{
			Lat: float64(lat) / precision,
			Lon: float64(lon) / precision,
		})
	}

	return coords
}

// Encode compresses vertices into an encoded polyline string.
func Encode(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(coords)*4)
	var prevLat, prevLon int

	for _, c := range coords {
		lat := int(math.Round(c.Lat * precision))
		lon := int(math.Round(c.Lon * precision))

		buf = appendDelta(buf, lat-prevLat)
		buf = appendDelta(buf, lon-prevLon)

		prevLat, prevLon = lat, lon
	}

	return string(buf)
}

// LengthMeters sums the haversine distance along the vertices.
func LengthMeters(coords []Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += haversineMeters(coords[i-1], coords[i])
	}
	return total
}

// decodeDelta reads one zigzag varint starting at index and returns the
// signed delta and the index after it.
func decodeDelta(encoded string, index int) (int, int) {
	var result, shift int

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index
	}
	return result >> 1, index
}

func appendDelta(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

const earthRadiusMeters = 6371000

func haversineMeters(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
