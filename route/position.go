package route

import (
	"time"

	"github.com/a-bouts/nav-watch/latlon"
)

// Fix is one sample of the vessel position stream.
type Fix struct {
	Latlon     latlon.LatLon `json:"latlon"`
	HeadingDeg float64       `json:"heading"`
	SpeedKt    float64       `json:"speed"`
	Time       time.Time     `json:"time"`
}
