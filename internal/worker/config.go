// Package worker provides background job processing for AirAware.
package worker

import (
	"time"
)

// WarmTarget represents a geographic region whose air quality caches are
// kept warm.
type WarmTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon coordinates to warm.
	// Typically dense district centers and transit hubs.
	Points []Point

	// Priority determines warm order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// WarmConfig holds configuration for the cache warm job.
type WarmConfig struct {
	// Targets are the geographic regions to warm.
	// If empty, uses DefaultWarmTargets.
	Targets []WarmTarget

	// Concurrency is the number of concurrent warm operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each point.
	// Default: 30 seconds
	Timeout time.Duration

	// WarmReadings enables warming of nearest-station readings.
	// Default: true
	WarmReadings bool

	// WarmEstimates enables warming of interpolated estimates.
	// Default: true
	WarmEstimates bool
}

// DefaultWarmConfig returns the default warm configuration.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		Targets:       DefaultWarmTargets(),
		Concurrency:   3,
		Timeout:       30 * time.Second,
		WarmReadings:  true,
		WarmEstimates: true,
	}
}

// DefaultWarmTargets returns the default warm targets for the Bangkok
// metropolitan region, where PM2.5 episodes drive most traffic.
func DefaultWarmTargets() []WarmTarget {
	return []WarmTarget{
		{
			Name:     "Bangkok Central",
			Priority: 1,
			Points: []Point{
				{Lat: 13.7563, Lon: 100.5018}, // Phra Nakhon
				{Lat: 13.7308, Lon: 100.5418}, // Lumphini
				{Lat: 13.7246, Lon: 100.5286}, // Silom
				{Lat: 13.7466, Lon: 100.5347}, // Pathum Wan
			},
		},
		{
			Name:     "Bangkok East",
			Priority: 1,
			Points: []Point{
				{Lat: 13.7372, Lon: 100.5600}, // Sukhumvit
				{Lat: 13.7200, Lon: 100.5854}, // Phra Khanong
				{Lat: 13.6905, Lon: 100.6088}, // Bang Na
			},
		},
		{
			Name:     "Bangkok North",
			Priority: 2,
			Points: []Point{
				{Lat: 13.8199, Lon: 100.5143}, // Chatuchak
				{Lat: 13.8538, Lon: 100.5856}, // Lat Phrao
				{Lat: 13.9126, Lon: 100.6068}, // Don Mueang
			},
		},
		{
			Name:     "Thonburi",
			Priority: 2,
			Points: []Point{
				{Lat: 13.7207, Lon: 100.4770}, // Thonburi
				{Lat: 13.6900, Lon: 100.4650}, // Rat Burana
			},
		},
		{
			Name:     "Nonthaburi",
			Priority: 3,
			Points: []Point{
				{Lat: 13.8622, Lon: 100.5144}, // Nonthaburi
			},
		},
		{
			Name:     "Samut Prakan",
			Priority: 3,
			Points: []Point{
				{Lat: 13.5991, Lon: 100.5998}, // Samut Prakan
			},
		},
		{
			Name:     "Chiang Mai",
			Priority: 3,
			Points: []Point{
				{Lat: 18.7883, Lon: 98.9853}, // Chiang Mai Old City
			},
		},
	}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c WarmConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to warm.
func (c WarmConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
