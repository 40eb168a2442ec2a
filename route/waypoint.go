package route

import (
	"github.com/google/uuid"

	"github.com/a-bouts/nav-watch/latlon"
)

// Target is where the user asked to navigate to.
type Target struct {
	ID     string        `json:"id"`
	Name   string        `json:"name,omitempty"`
	Latlon latlon.LatLon `json:"latlon"`
}

// NewTarget creates a target with a fresh identifier. Name may be empty
// for a plain coordinate.
func NewTarget(name string, p latlon.LatLon) Target {
	return Target{
		ID:     uuid.NewString(),
		Name:   name,
		Latlon: p,
	}
}

func indexOf(waypoints []latlon.LatLon, from int, p latlon.LatLon) int {
	for i := from; i < len(waypoints); i++ {
		if waypoints[i] == p {
			return i
		}
	}
	return -1
}

// trimFrom returns the route restarted at pos and continuing with the
// waypoints from index i onward.
func trimFrom(waypoints []latlon.LatLon, pos latlon.LatLon, i int) []latlon.LatLon {
	trimmed := make([]latlon.LatLon, 0, len(waypoints)-i+1)
	trimmed = append(trimmed, pos)
	return append(trimmed, waypoints[i:]...)
}

// degenerate routes have fewer than two distinct points.
func degenerate(waypoints []latlon.LatLon) bool {
	for i := 1; i < len(waypoints); i++ {
		if waypoints[i] != waypoints[0] {
			return false
		}
	}
	return true
}
