package route

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-watch/latlon"
)

// State of the navigation.
type State int

const (
	Idle State = iota
	Loading
	Active
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Active:
		return "active"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, v := range []State{Idle, Loading, Active, Failed} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown navigation state '%s'", text)
}

// Config holds the tuned constants of the tracker.
type Config struct {
	// Arrival radius while the autopilot follows the route
	FollowArrivalNm float64
	// Arrival radius otherwise
	ArrivalNm float64

	SkipCooldown time.Duration
	RouteTimeout time.Duration
	CheckTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		FollowArrivalNm: 0.016,
		ArrivalNm:       0.08,
		SkipCooldown:    5 * time.Second,
		RouteTimeout:    150 * time.Second,
		CheckTimeout:    10 * time.Second,
	}
}

// Outcome reports what a fix changed.
type Outcome struct {
	Arrived  bool
	Consumed int
	Checking bool
}

// Tracker follows the active route. It is not safe for concurrent use: all
// methods, and the completions handed to post, must run on the same loop.
type Tracker struct {
	cfg     Config
	router  Router
	checker SegmentChecker
	post    func(func())
	now     func() time.Time

	state     State
	target    *Target
	waypoints []latlon.LatLon
	distances []float64
	lastErr   *Error
	position  *latlon.LatLon

	generation uint64
	cancel     context.CancelFunc

	checkInFlight bool
	lastCheck     time.Time
}

// NewTracker creates a tracker. post must schedule its argument on the
// goroutine that owns the tracker.
func NewTracker(cfg Config, router Router, checker SegmentChecker, post func(func())) *Tracker {
	return &Tracker{
		cfg:     cfg,
		router:  router,
		checker: checker,
		post:    post,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for the skip-ahead cooldown.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

func (t *Tracker) State() State {
	return t.state
}

func (t *Tracker) Target() *Target {
	return t.target
}

// Err is the last classified failure, nil once dismissed or on a new navigation.
func (t *Tracker) Err() *Error {
	return t.lastErr
}

func (t *Tracker) DismissError() {
	t.lastErr = nil
}

// Active is true while there is a route to follow.
func (t *Tracker) Active() bool {
	return t.state == Active && t.target != nil
}

// Waypoints returns a copy of the route, index 0 being the vessel.
func (t *Tracker) Waypoints() []latlon.LatLon {
	return append([]latlon.LatLon(nil), t.waypoints...)
}

// CheckInFlight is true while a skip-ahead verification is outstanding.
func (t *Tracker) CheckInFlight() bool {
	return t.checkInFlight
}

// Line is the polyline to display: the route when it is ready, otherwise a
// direct line from the vessel to the target unless a calculation is running.
func (t *Tracker) Line() []latlon.LatLon {
	if t.target == nil || t.position == nil {
		return nil
	}
	if len(t.waypoints) >= 2 {
		return t.Waypoints()
	}
	if t.state == Loading {
		return nil
	}
	return []latlon.LatLon{*t.position, t.target.Latlon}
}

// Navigate starts a new navigation from the vessel position to target. Any
// previous calculation is abandoned and its result ignored.
func (t *Tracker) Navigate(from latlon.LatLon, target Target) {
	t.stop()

	t.target = &target
	t.waypoints = nil
	t.distances = nil
	t.lastErr = nil
	t.position = &from
	t.state = Loading

	logger := log.WithFields(log.Fields{
		"target": target.ID,
		"name":   target.Name,
	})

	if t.router == nil {
		logger.Warn("No route service, using direct line")
		t.direct(from)
		return
	}

	gen := t.generation
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.RouteTimeout)
	t.cancel = cancel

	logger.Infof("Route from (%f,%f) to (%f,%f)", from.Lat, from.Lon, target.Latlon.Lat, target.Latlon.Lon)

	go func() {
		calc, err := t.router.CalculateRoute(ctx, from, target.Latlon)
		t.post(func() {
			t.routeCalculated(gen, from, calc, err)
		})
	}()
}

// Cancel drops the target and the route.
func (t *Tracker) Cancel() {
	if t.target != nil {
		log.WithField("target", t.target.ID).Info("Navigation cancelled")
	}
	t.stop()
	t.reset(Idle)
	t.lastErr = nil
}

func (t *Tracker) stop() {
	t.generation++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Tracker) reset(state State) {
	t.state = state
	t.target = nil
	t.waypoints = nil
	t.distances = nil
}

func (t *Tracker) direct(from latlon.LatLon) {
	t.waypoints = []latlon.LatLon{from, t.target.Latlon}
	t.state = Active
}

func (t *Tracker) fail(e *Error) {
	log.WithField("kind", e.Kind).Warnf("Route failed: %s", e.Message)
	t.stop()
	t.reset(Failed)
	t.lastErr = e
}

func (t *Tracker) routeCalculated(gen uint64, from latlon.LatLon, calc Calculation, err error) {
	if gen != t.generation {
		log.Debug("Ignoring superseded route")
		return
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}

	switch {
	case err != nil && errors.Is(err, ErrNoNavigationData):
		t.fail(NewError(NoNavigationData, err.Error()))

	case err != nil:
		log.WithError(err).Warn("Route service failed, using direct line")
		t.direct(t.current(from))

	case calc.FailureReason != "":
		t.fail(NewError(Classify(calc.FailureReason), calc.FailureReason))

	case !degenerate(calc.Waypoints):
		t.waypoints = append([]latlon.LatLon(nil), calc.Waypoints...)
		t.waypoints[0] = t.current(from)
		t.state = Active
		log.Infof("Route ready with %d waypoints", len(t.waypoints))

	default:
		log.Warn("Route service returned no waypoints, using direct line")
		t.direct(t.current(from))
	}
}

func (t *Tracker) current(fallback latlon.LatLon) latlon.LatLon {
	if t.position != nil {
		return *t.position
	}
	return fallback
}

func (t *Tracker) threshold(following bool) float64 {
	if following {
		return t.cfg.FollowArrivalNm
	}
	return t.cfg.ArrivalNm
}

// Update processes a position fix. following selects the tighter arrival
// radius used while the autopilot steers the route.
func (t *Tracker) Update(fix Fix, following bool) Outcome {
	pos := fix.Latlon
	t.position = &pos

	var out Outcome
	if t.state != Active || len(t.waypoints) < 2 {
		return out
	}

	t.waypoints[0] = pos
	t.distances = make([]float64, len(t.waypoints))
	for i := 1; i < len(t.waypoints); i++ {
		t.distances[i] = latlon.DistanceNm(pos, t.waypoints[i])
	}

	threshold := t.threshold(following)
	last := len(t.waypoints) - 1

	if t.distances[last] < threshold {
		log.WithField("target", t.target.ID).Info("Arrived")
		t.stop()
		t.reset(Idle)
		out.Arrived = true
		return out
	}

	reached := -1
	for i := 1; i < last; i++ {
		if t.distances[i] < threshold {
			reached = i
		}
	}
	if reached > 0 {
		log.Debugf("Waypoint %d reached", reached)
		t.waypoints = trimFrom(t.waypoints, pos, reached+1)
		t.distances = append([]float64{0}, t.distances[reached+1:]...)
		out.Consumed = reached
	}

	out.Checking = t.skipAhead(pos)
	return out
}

// skipAhead looks for a later waypoint closer than the next one and asks
// the segment checker whether going straight to it stays on water.
func (t *Tracker) skipAhead(pos latlon.LatLon) bool {
	if t.checker == nil || t.checkInFlight || len(t.waypoints) < 3 {
		return false
	}

	now := t.now()
	if !t.lastCheck.IsZero() && now.Sub(t.lastCheck) < t.cfg.SkipCooldown {
		return false
	}
	t.lastCheck = now

	next := t.distances[1]
	candidate := -1
	for j := 2; j < len(t.waypoints); j++ {
		if t.distances[j] < next {
			candidate = j
			break
		}
	}
	if candidate < 0 {
		return false
	}

	to := t.waypoints[candidate]
	gen := t.generation
	t.checkInFlight = true

	log.Debugf("Checking shortcut to waypoint %d", candidate)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.cfg.CheckTimeout)
		defer cancel()

		crossesLand, err := t.checker.CheckRoute(ctx, pos, to)
		t.post(func() {
			t.segmentChecked(gen, to, crossesLand, err)
		})
	}()
	return true
}

func (t *Tracker) segmentChecked(gen uint64, to latlon.LatLon, crossesLand bool, err error) {
	t.checkInFlight = false

	if err != nil {
		log.WithError(err).Warn("Shortcut verification failed")
		return
	}
	if gen != t.generation || t.state != Active || crossesLand {
		return
	}

	i := indexOf(t.waypoints, 1, to)
	if i < 0 {
		return
	}

	log.Infof("Skipping %d waypoints", i-1)
	t.waypoints = trimFrom(t.waypoints, t.current(t.waypoints[0]), i)
	t.distances = nil
}

// Snapshot is the tracker state for presentation.
type Snapshot struct {
	State            State           `json:"state"`
	Target           *Target         `json:"target,omitempty"`
	Waypoints        []latlon.LatLon `json:"waypoints"`
	Line             []latlon.LatLon `json:"line"`
	DistanceToNextNm float64         `json:"distanceToNext"`
	Error            *Error          `json:"error,omitempty"`
}

func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		State:     t.state,
		Waypoints: t.Waypoints(),
		Line:      t.Line(),
		Error:     t.lastErr,
	}
	if t.target != nil {
		target := *t.target
		s.Target = &target
	}
	if len(t.distances) > 1 {
		s.DistanceToNextNm = t.distances[1]
	}
	return s
}
