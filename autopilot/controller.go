// Package autopilot steers the target heading along the active route and
// warns ahead of course changes.
package autopilot

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-watch/latlon"
	"github.com/a-bouts/nav-watch/route"
)

type Config struct {
	TransitionSteps int
	StepInterval    time.Duration
	// Heading changes above this are eased, smaller ones applied at once
	TransitionDeg float64

	WarningDeg     float64
	WarningHorizon time.Duration
	MinSpeedKt     float64
}

func DefaultConfig() Config {
	return Config{
		TransitionSteps: 10,
		StepInterval:    50 * time.Millisecond,
		TransitionDeg:   10,
		WarningDeg:      5,
		WarningHorizon:  120 * time.Second,
		MinSpeedKt:      0.1,
	}
}

// Route is what the controller needs from the route tracker. Target is nil
// once the navigation is over; Active is false while a route is computed.
type Route interface {
	Target() *route.Target
	Active() bool
	Waypoints() []latlon.LatLon
}

type State struct {
	TargetHeadingDeg float64            `json:"targetHeading"`
	Active           bool               `json:"active"`
	FollowingRoute   bool               `json:"followingRoute"`
	Transition       *HeadingTransition `json:"transition,omitempty"`
}

// CourseChangeWarning announces the next leg.
type CourseChangeWarning struct {
	SecondsUntil  float64 `json:"secondsUntil"`
	NewHeadingDeg float64 `json:"newHeading"`
	Dismissed     bool    `json:"dismissed"`
}

type Controller struct {
	cfg   Config
	state State

	warning     *CourseChangeWarning
	dismissed   bool
	lastWarning float64
	warned      bool
}

func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

func (c *Controller) State() State {
	s := c.state
	if s.Transition != nil {
		tr := *s.Transition
		s.Transition = &tr
	}
	return s
}

// Warning returns the current course change warning, nil if none.
func (c *Controller) Warning() *CourseChangeWarning {
	if c.warning == nil {
		return nil
	}
	w := *c.warning
	w.Dismissed = c.dismissed
	return &w
}

func (c *Controller) DismissWarning() {
	c.dismissed = true
}

func (c *Controller) Following() bool {
	return c.state.Active && c.state.FollowingRoute
}

// SetActive engages or releases the autopilot. Releasing it also stops
// following the route.
func (c *Controller) SetActive(active bool) {
	c.state.Active = active
	if !active {
		c.state.FollowingRoute = false
		c.state.Transition = nil
		c.clearWarning()
	}
	log.WithField("active", active).Info("Autopilot")
}

// SetFollowRoute starts or stops steering along the route. Following
// engages the autopilot; stopping leaves it engaged on its current heading.
func (c *Controller) SetFollowRoute(follow bool) {
	if !follow {
		c.StopFollowing()
		return
	}
	c.state.Active = true
	c.state.FollowingRoute = true
	log.Info("Autopilot following route")
}

func (c *Controller) StopFollowing() {
	if c.state.FollowingRoute {
		log.Info("Autopilot stopped following route")
	}
	c.state.FollowingRoute = false
	c.clearWarning()
}

func (c *Controller) clearWarning() {
	c.warning = nil
	c.dismissed = false
	c.warned = false
	c.lastWarning = 0
}

// SetTargetHeading steers to a heading, easing large changes. A running
// transition is replaced, starting from the heading it had reached.
func (c *Controller) SetTargetHeading(deg float64) {
	to := latlon.NormalizeHeading(deg)

	d := latlon.HeadingDifference(c.state.TargetHeadingDeg, to)
	switch {
	case d > c.cfg.TransitionDeg && c.cfg.TransitionSteps > 0:
		c.state.Transition = &HeadingTransition{
			FromDeg:    c.state.TargetHeadingDeg,
			ToDeg:      to,
			TotalSteps: c.cfg.TransitionSteps,
		}
	case d > 0:
		c.state.TargetHeadingDeg = to
		c.state.Transition = nil
	default:
		c.state.Transition = nil
	}
}

// Tick advances the running transition by one step. It returns false once
// no transition is running.
func (c *Controller) Tick() bool {
	tr := c.state.Transition
	if tr == nil {
		return false
	}
	tr.StepIndex++
	c.state.TargetHeadingDeg = tr.heading()
	if tr.done() {
		c.state.TargetHeadingDeg = latlon.NormalizeHeading(tr.ToDeg)
		c.state.Transition = nil
		return false
	}
	return true
}

// Update steers toward the next waypoint while following the route.
func (c *Controller) Update(fix route.Fix, r Route) {
	if !c.Following() {
		return
	}
	if r.Target() == nil {
		log.Info("Navigation target lost")
		c.StopFollowing()
		return
	}

	// Keep the heading while the route is computed
	wps := r.Waypoints()
	if !r.Active() || len(wps) < 2 {
		c.warning = nil
		return
	}

	pos := fix.Latlon
	bearing := latlon.BearingDeg(pos, wps[1])

	c.updateWarning(fix, wps, bearing)
	c.SetTargetHeading(bearing)
}

func (c *Controller) updateWarning(fix route.Fix, wps []latlon.LatLon, bearing float64) {
	if len(wps) < 3 {
		c.warning = nil
		return
	}

	next := latlon.BearingDeg(wps[1], wps[2])
	if latlon.HeadingDifference(bearing, next) <= c.cfg.WarningDeg {
		c.warning = nil
		return
	}

	secs := math.Inf(1)
	if fix.SpeedKt > c.cfg.MinSpeedKt {
		secs = latlon.DistanceNm(fix.Latlon, wps[1]) / fix.SpeedKt * 3600
	}
	if secs > c.cfg.WarningHorizon.Seconds() {
		c.warning = nil
		return
	}

	if c.warned && latlon.HeadingDifference(c.lastWarning, next) > c.cfg.WarningDeg {
		c.dismissed = false
	}
	c.lastWarning = next
	c.warned = true

	c.warning = &CourseChangeWarning{
		SecondsUntil:  secs,
		NewHeadingDeg: next,
	}
}
