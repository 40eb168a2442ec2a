package route

import (
	"context"
	"errors"

	"github.com/a-bouts/nav-watch/latlon"
)

// ErrNoNavigationData is returned by a Router that has no water routing
// data loaded.
var ErrNoNavigationData = errors.New("no navigation data loaded")

// Calculation is the answer of the route service. A calculation with a
// FailureReason is a classified failure, not a transport error.
type Calculation struct {
	Success       bool            `json:"success"`
	Waypoints     []latlon.LatLon `json:"waypoints"`
	FailureReason string          `json:"failureReason,omitempty"`
}

// Router computes a water route between two positions. Calls can take up to
// a couple of minutes and must return when ctx is cancelled.
type Router interface {
	CalculateRoute(ctx context.Context, start, end latlon.LatLon) (Calculation, error)
}

// SegmentChecker tells whether the straight segment between two positions
// crosses land.
type SegmentChecker interface {
	CheckRoute(ctx context.Context, start, end latlon.LatLon) (crossesLand bool, err error)
}
