package latlon

import "math"

const π = math.Pi

// Earth radius for each distance unit
const (
	RMeters       = 6371e3
	RNauticalMile = 3440.065
)

// Unit selects the radius used by Distance.
type Unit int

const (
	NauticalMiles Unit = iota
	Meters
)

func (u Unit) radius() float64 {
	if u == Meters {
		return RMeters
	}
	return RNauticalMile
}

// LatLon is a position in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat" yaml:"lat" msgpack:"lat"`
	Lon float64 `json:"lon" yaml:"lon" msgpack:"lon"`
}

func toRadians(a float64) float64 {
	return a * π / 180.0
}

func toDegrees(a float64) float64 {
	return a * 180.0 / π
}

// ToRadians converts degrees to radians.
func ToRadians(a float64) float64 {
	return toRadians(a)
}

func wrap360(d float64) float64 {
	if 0.0 <= d && d < 360.0 {
		return d
	}
	d = math.Mod(d, 360.0)
	if d < 0 {
		d += 360.0
	}
	if d >= 360.0 {
		d = 0
	}
	return d
}

func wrap2π(θ float64) float64 {
	if 0.0 <= θ && θ < 2*π {
		return θ
	}
	θ = math.Mod(θ, 2*π)
	if θ < 0 {
		θ += 2 * π
	}
	if θ >= 2*π {
		θ = 0
	}
	return θ
}

func wrap180(d float64) float64 {
	d = wrap360(d + 180.0)
	return d - 180.0
}
