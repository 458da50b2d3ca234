package timezone

import "math"

// GeoLocation is a point on the globe, both angles in radians.
type GeoLocation struct {
	Latitude  float64
	Longitude float64
}

const earthRadius float64 = 6371e3 // metres

// GreatCircleDistance computes the Haversine distance between two points
// in metres. See http://www.movable-type.co.uk/scripts/latlong.html
func (l GeoLocation) GreatCircleDistance(loc GeoLocation) float64 {
	dLat := loc.Latitude - l.Latitude
	dLon := loc.Longitude - l.Longitude

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(l.Latitude)*math.Cos(loc.Latitude)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
