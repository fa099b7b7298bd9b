// Package geo decides whether a coordinate lies inside a designated
// circular area. It is pure computation with no I/O.
package geo

import "math"

// earthRadiusM is the mean Earth radius used by the haversine formula.
const earthRadiusM = 6371000

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Area is a circle around a center point, radius in meters.
type Area struct {
	Center  Point   `json:"center"`
	RadiusM float64 `json:"radius_m"`
}

// DistanceM returns the great-circle distance between two points in
// meters using the haversine formula.
func DistanceM(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// IsWithin reports whether p lies inside area, boundary inclusive.
func IsWithin(p Point, area Area) bool {
	return DistanceM(p, area.Center) <= area.RadiusM
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
