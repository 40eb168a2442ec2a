package anchor

import "github.com/a-bouts/nav-watch/latlon"

// Track is a bounded log of boat positions, oldest first. A position is
// only kept when the boat moved at least minStep meters since the last one.
type Track struct {
	points  []latlon.LatLon
	start   int
	size    int
	minStep float64
}

func NewTrack(capacity int, minStepM float64) *Track {
	if capacity < 1 {
		capacity = 1
	}
	return &Track{
		points:  make([]latlon.LatLon, capacity),
		minStep: minStepM,
	}
}

func (t *Track) Len() int {
	return t.size
}

func (t *Track) last() latlon.LatLon {
	return t.points[(t.start+t.size-1)%len(t.points)]
}

// Add records p and reports whether it was kept.
func (t *Track) Add(p latlon.LatLon) bool {
	if t.size > 0 && latlon.DistanceMeters(t.last(), p) < t.minStep {
		return false
	}
	if t.size < len(t.points) {
		t.points[(t.start+t.size)%len(t.points)] = p
		t.size++
		return true
	}
	t.points[t.start] = p
	t.start = (t.start + 1) % len(t.points)
	return true
}

func (t *Track) Points() []latlon.LatLon {
	out := make([]latlon.LatLon, t.size)
	for i := 0; i < t.size; i++ {
		out[i] = t.points[(t.start+i)%len(t.points)]
	}
	return out
}

func (t *Track) Clear() {
	t.start = 0
	t.size = 0
}
