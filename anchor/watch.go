// Package anchor watches an anchored boat and raises the drag alarm when it
// leaves its swing circle.
package anchor

import (
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-watch/latlon"
	"github.com/a-bouts/nav-watch/scope"
)

type Config struct {
	TrackCapacity int
	TrackMinStepM float64
}

func DefaultConfig() Config {
	return Config{
		TrackCapacity: 1000,
		TrackMinStepM: 2,
	}
}

// State is the part of the watch shared between clients.
type State struct {
	AnchorPosition latlon.LatLon `json:"anchorPosition" msgpack:"anchorPosition"`
	ChainLengthM   float64       `json:"chainLength" msgpack:"chainLength"`
	DepthM         float64       `json:"depth" msgpack:"depth"`
	SwingRadiusM   float64       `json:"swingRadius" msgpack:"swingRadius"`
	Active         bool          `json:"active" msgpack:"active"`
}

// Watch is not safe for concurrent use.
type Watch struct {
	cfg        Config
	boatLength float64

	state    State
	dragging bool
	track    *Track
	last     *latlon.LatLon

	publish func(State)
	echo    bool
}

// NewWatch creates a watch. publish, when not nil, receives every local
// change; it must not block.
func NewWatch(cfg Config, boatLength float64, publish func(State)) *Watch {
	return &Watch{
		cfg:        cfg,
		boatLength: boatLength,
		track:      NewTrack(cfg.TrackCapacity, cfg.TrackMinStepM),
		publish:    publish,
	}
}

func (w *Watch) State() State {
	return w.state
}

func (w *Watch) Active() bool {
	return w.state.Active
}

func (w *Watch) Dragging() bool {
	return w.dragging
}

func (w *Watch) Track() []latlon.LatLon {
	return w.track.Points()
}

// SetBoatLength updates the length used for the swing radius.
func (w *Watch) SetBoatLength(l float64) {
	w.boatLength = l
}

func (w *Watch) broadcast() {
	if w.publish == nil {
		return
	}
	w.echo = true
	w.publish(w.state)
}

// Place sets chain length and depth. Until the watch is active the anchor
// is put ahead of the boat at the horizontal reach of the chain; once
// active the anchor stays where it was dropped. It reports whether the new
// swing radius set the drag alarm off.
func (w *Watch) Place(boat latlon.LatLon, headingDeg, chainLengthM, depthM float64) bool {
	w.state.ChainLengthM = chainLengthM
	w.state.DepthM = depthM
	w.state.SwingRadiusM = scope.SwingRadius(chainLengthM, depthM, w.boatLength)

	if !w.state.Active {
		reach := math.Sqrt(math.Max(chainLengthM*chainLengthM-depthM*depthM, 0))
		w.state.AnchorPosition = latlon.Destination(boat, latlon.ToRadians(headingDeg), reach)
	}

	log.WithFields(log.Fields{
		"chain":  chainLengthM,
		"depth":  depthM,
		"radius": w.state.SwingRadiusM,
	}).Info("Anchor placed")

	started := w.reevaluate()
	w.broadcast()
	return started
}

// Activate turns the watch on and reports whether the boat is already
// dragging.
func (w *Watch) Activate() bool {
	w.state.Active = true
	w.track.Clear()
	w.dragging = false
	started := w.reevaluate()

	log.WithFields(log.Fields{
		"lat":    w.state.AnchorPosition.Lat,
		"lon":    w.state.AnchorPosition.Lon,
		"radius": w.state.SwingRadiusM,
	}).Info("Anchor watch on")

	w.broadcast()
	return started
}

func (w *Watch) Deactivate() {
	w.state.Active = false
	w.track.Clear()
	w.dragging = false

	log.Info("Anchor watch off")

	w.broadcast()
}

// Update processes a boat position and reports whether the drag alarm just
// went off.
func (w *Watch) Update(boat latlon.LatLon) bool {
	w.last = &boat
	if !w.state.Active {
		return false
	}
	started := w.evaluate(boat)
	w.track.Add(boat)
	return started
}

// Check re-evaluates the last known position, for timer driven alarms.
func (w *Watch) Check() bool {
	if !w.state.Active || w.last == nil {
		return false
	}
	return w.evaluate(*w.last)
}

// reevaluate checks the last position after a change of the watch. Before
// any fix the boat is taken to be on the anchor, which still drags with a
// zero radius.
func (w *Watch) reevaluate() bool {
	if !w.state.Active {
		return false
	}
	if w.last == nil {
		return w.evaluate(w.state.AnchorPosition)
	}
	return w.evaluate(*w.last)
}

// IsDragging is the drag verdict: the boat is outside the swing radius.
// A radius of zero always drags.
func IsDragging(boat latlon.LatLon, s State) bool {
	if s.SwingRadiusM <= 0 {
		return true
	}
	return latlon.DistanceMeters(boat, s.AnchorPosition) > s.SwingRadiusM
}

func (w *Watch) evaluate(boat latlon.LatLon) bool {
	was := w.dragging
	w.dragging = IsDragging(boat, w.state)
	if w.dragging && !was {
		log.WithField("distance", latlon.DistanceMeters(boat, w.state.AnchorPosition)).Warn("Anchor dragging")
		return true
	}
	if !w.dragging && was {
		log.Info("Anchor holding")
	}
	return false
}

// Apply takes a state received from the sync channel. The echo of the last
// local change is dropped; anything else overwrites the local state.
// started reports whether the new state set the drag alarm off.
func (w *Watch) Apply(s State) (applied, started bool) {
	if w.echo {
		w.echo = false
		return false, false
	}

	was := w.state.Active
	w.state = s

	if s.Active != was || !s.Active {
		w.track.Clear()
		w.dragging = false
	}
	started = w.reevaluate()

	log.WithField("active", s.Active).Debug("Anchor watch synchronized")
	return true, started
}

// Snapshot is the watch state for presentation.
type Snapshot struct {
	State
	Dragging bool            `json:"dragging"`
	Track    []latlon.LatLon `json:"track"`
}

func (w *Watch) Snapshot() Snapshot {
	return Snapshot{
		State:    w.state,
		Dragging: w.dragging,
		Track:    w.Track(),
	}
}
