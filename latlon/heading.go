package latlon

import "math"

// NormalizeHeading maps a heading in degrees into [0, 360).
func NormalizeHeading(h float64) float64 {
	return wrap360(h)
}

// HeadingDelta is the signed shortest turn from one heading to another, in
// degrees within (-180, 180].
func HeadingDelta(from, to float64) float64 {
	d := wrap360(to - from)
	if d > 180 {
		d -= 360
	}
	return d
}

// HeadingDifference is the absolute shortest angle between two headings.
func HeadingDifference(a, b float64) float64 {
	return math.Abs(HeadingDelta(a, b))
}
