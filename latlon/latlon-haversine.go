package latlon

import "math"

// Distance is the great-circle distance between two positions, in the given unit.
func Distance(from, to LatLon, unit Unit) float64 {
	φ1 := toRadians(from.Lat)
	φ2 := toRadians(to.Lat)
	Δφ := φ2 - φ1

	Δλ := toRadians(to.Lon - from.Lon)

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	if a > 1 {
		a = 1
	}
	δ := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return unit.radius() * δ
}

// DistanceNm is Distance in nautical miles.
func DistanceNm(from, to LatLon) float64 {
	return Distance(from, to, NauticalMiles)
}

// DistanceMeters is Distance in meters.
func DistanceMeters(from, to LatLon) float64 {
	return Distance(from, to, Meters)
}

// Bearing is the initial great-circle bearing from one position to another,
// in radians within [0, 2π).
func Bearing(from, to LatLon) float64 {
	φ1 := toRadians(from.Lat)
	φ2 := toRadians(to.Lat)

	Δλ := toRadians(to.Lon - from.Lon)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	y := math.Sin(Δλ) * math.Cos(φ2)
	θ := math.Atan2(y, x)

	return wrap2π(θ)
}

// BearingDeg is Bearing in degrees within [0, 360).
func BearingDeg(from, to LatLon) float64 {
	return wrap360(toDegrees(Bearing(from, to)))
}

// Destination projects a position along a bearing (radians) for a distance in meters.
func Destination(from LatLon, bearing float64, distance float64) LatLon {
	φ1 := toRadians(from.Lat)
	λ1 := toRadians(from.Lon)
	θ := bearing

	δ := distance / RMeters

	φ2 := math.Asin(math.Sin(φ1)*math.Cos(δ) + math.Cos(φ1)*math.Sin(δ)*math.Cos(θ))
	λ2 := λ1 + math.Atan2(math.Sin(θ)*math.Sin(δ)*math.Cos(φ1), math.Cos(δ)-math.Sin(φ1)*math.Sin(φ2))

	return LatLon{Lat: toDegrees(φ2), Lon: wrap180(toDegrees(λ2))}
}
