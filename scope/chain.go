// Package scope sizes the anchor chain for a depth and a vessel, and
// derives the swing radius an anchored boat is expected to stay within.
package scope

import "math"

const (
	airDensity   = 1.23
	dragCoef     = 1.0
	gravity      = 9.81
	knotToMeterS = 0.514444

	windageFactor   = 0.8
	maxDisplacement = 1.5

	swingMargin = 1.15
)

// Wind scenarios in knots
const (
	CalmKt     = 15.0
	ModerateKt = 25.0
	StormKt    = 45.0
)

// Absolute floors in meters
const (
	MinFloorM         = 15.0
	RecommendedFloorM = MinFloorM + 5
	StormFloorM       = MinFloorM + 15
)

// Recommendation holds the chain lengths in whole meters.
type Recommendation struct {
	Min         float64 `json:"min"`
	Recommended float64 `json:"recommended"`
	Storm       float64 `json:"storm"`
}

type scenario struct {
	windKt     float64
	loaFactor  float64
	scopeRatio float64
	floor      float64
}

var scenarios = [3]scenario{
	{windKt: CalmKt, loaFactor: 0.5, scopeRatio: 5, floor: MinFloorM},
	{windKt: ModerateKt, loaFactor: 1.0, scopeRatio: 6, floor: RecommendedFloorM},
	{windKt: StormKt, loaFactor: 1.0, scopeRatio: 7, floor: StormFloorM},
}

// Calculate returns the min/recommended/storm chain lengths for the depth.
func Calculate(depth float64, v Vessel) Recommendation {
	var out [3]float64
	for i, s := range scenarios {
		var l float64
		switch {
		case v.Catenary && v.WindLoa:
			l = math.Max(Catenary(depth, s.windKt, s.loaFactor, v), WindLoa(depth, s.windKt, v))
		case v.Catenary:
			l = Catenary(depth, s.windKt, s.loaFactor, v)
		case v.WindLoa:
			l = WindLoa(depth, s.windKt, v)
		default:
			l = s.scopeRatio * (depth + v.FreeboardM)
		}
		out[i] = math.Ceil(math.Max(l, s.floor))
	}
	return Recommendation{Min: out[0], Recommended: out[1], Storm: out[2]}
}

// WindageArea is the estimated lateral area exposed to the wind, in m².
func WindageArea(v Vessel) float64 {
	f := 1 + 0.05*(v.DisplacementTons-5)
	if f > maxDisplacement {
		f = maxDisplacement
	}
	return v.FreeboardM * v.WaterlineM * windageFactor * f
}

// ChainMass is the chain's linear mass in kg/m.
func ChainMass(v Vessel) float64 {
	k := 0.020
	if v.ChainMaterial == Stainless {
		k = 0.022
	}
	return v.ChainDiameterMm * v.ChainDiameterMm * k
}

// WindForce is the drag on the vessel in newtons for a wind in knots.
func WindForce(windKt float64, v Vessel) float64 {
	s := windKt * knotToMeterS
	return 0.5 * airDensity * s * s * WindageArea(v) * dragCoef
}

// Catenary is the chain length needed for the chain to meet the bottom
// tangentially under the wind load, plus a share of the boat length.
func Catenary(depth, windKt, loaFactor float64, v Vessel) float64 {
	y := depth + v.FreeboardM
	m := ChainMass(v)
	if m <= 0 {
		return 0
	}
	a := WindForce(windKt, v) / (m * gravity)
	return math.Sqrt(y*(y+2*a)) + v.LengthM*loaFactor
}

// WindLoa is the empirical wind-and-length rule.
func WindLoa(depth, windKt float64, v Vessel) float64 {
	f := 1.0
	switch {
	case depth >= 15:
		f = 2.0
	case depth >= 8:
		f = 1.5
	}
	return windKt*f + v.LengthM
}

// SwingRadius is the radius the boat may wander within around the anchor,
// in meters. It is zero when the chain cannot reach past the depth or the
// depth is not positive, which keeps the drag alarm on.
func SwingRadius(chainLength, depth, boatLength float64) float64 {
	if depth <= 0 || chainLength <= depth {
		return 0
	}
	return (math.Sqrt(chainLength*chainLength-depth*depth) + boatLength) * swingMargin
}
