// Package geofence checks that a submitted position lies within a circular
// zone around a configured center.
package geofence

import (
	"math"

	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/constants"
)

// Distance returns the great-circle distance in meters between two
// coordinates given in degrees (haversine, mean Earth radius).
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return constants.EarthRadiusMeters * c
}

// WithinZone reports whether (lat, lon) is at most radiusMeters from the
// center, together with the computed distance.
func WithinZone(lat, lon, centerLat, centerLon, radiusMeters float64) (bool, float64) {
	d := Distance(lat, lon, centerLat, centerLon)
	return d <= radiusMeters, d
}

// Policy is the geofence configuration of one tenant.
type Policy struct {
	Enabled      bool
	CenterLat    float64
	CenterLon    float64
	RadiusMeters float64
}

// FromConfig converts geofence settings into a Policy.
func FromConfig(c config.GeoFenceConfig) Policy {
	return Policy{
		Enabled:      c.Enabled,
		CenterLat:    c.CenterLat,
		CenterLon:    c.CenterLon,
		RadiusMeters: c.RadiusMeters,
	}
}

// Result of a policy check.
type Result struct {
	Allowed bool
	// Distance from the center in meters, rounded to the nearest meter.
	// Zero when the policy is disabled.
	Distance int
}

// Check evaluates a position against the policy. A disabled policy allows
// every position.
func (p Policy) Check(lat, lon float64) Result {
	if !p.Enabled {
		return Result{Allowed: true}
	}
	ok, d := WithinZone(lat, lon, p.CenterLat, p.CenterLon, p.RadiusMeters)
	return Result{Allowed: ok, Distance: int(math.Round(d))}
}
