package land

import (
	"context"
	"fmt"
	"math"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-watch/latlon"
)

// Land is a bitmap, 1 for land and 0 for sea, row by row from lat0 and lon0.
type Land struct {
	lat0   float64
	lon0   float64
	step   float64
	nlat   int
	nlon   int
	data   []byte
	sample float64
}

// Distance between two samples along a checked segment, in meters
const sampleMeters = 100.0

// New wraps a bitmap of nlat rows and nlon columns spaced by step degrees.
func New(lat0, lon0, step float64, nlat, nlon int, data []byte) (*Land, error) {
	if need := (nlat*nlon + 7) / 8; len(data) < need {
		return nil, fmt.Errorf("land bitmap holds %d bytes, %d needed", len(data), need)
	}
	return &Land{
		lat0:   lat0,
		lon0:   lon0,
		step:   step,
		nlat:   nlat,
		nlon:   nlon,
		data:   data,
		sample: sampleMeters,
	}, nil
}

// InitLand loads the world bitmap at 1/120 degree.
func InitLand(file string) (*Land, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		log.Errorf("Error reading file '%s'", file)
		return nil, err
	}

	step := 360.0 / 43200.0
	l, err := New(-90.0, -180.0, step, 21601, 43200, b)
	if err != nil {
		return nil, fmt.Errorf("loading '%s': %w", file, err)
	}
	log.Infof("Land loaded from '%s'", file)
	return l, nil
}

// IsLand check if location is land or sea. Outside the bitmap is sea.
func (l *Land) IsLand(lat float64, lon float64) bool {
	di := int(math.Round(lat/l.step)) - int(math.Round(l.lat0/l.step))
	dj := int(math.Round(lon/l.step)) - int(math.Round(l.lon0/l.step))

	if di < 0 || di >= l.nlat || dj < 0 || dj >= l.nlon {
		return false
	}

	p := di*l.nlon + dj

	pB := p / 8
	pb := uint(p % 8)

	return ((l.data[pB] >> (7 - pb)) & 0x01) == 0x01
}

// CheckRoute samples the great circle from start to end every 100 m.
func (l *Land) CheckRoute(ctx context.Context, start, end latlon.LatLon) (bool, error) {
	d := latlon.DistanceMeters(start, end)
	b := latlon.Bearing(start, end)

	n := int(math.Ceil(d / l.sample))
	for i := 0; i <= n; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}

		p := end
		if i < n {
			p = latlon.Destination(start, b, float64(i)*l.sample)
		}
		if l.IsLand(p.Lat, p.Lon) {
			log.Debugf("Segment crosses land at (%f,%f)", p.Lat, p.Lon)
			return true, nil
		}
	}
	return false, nil
}
