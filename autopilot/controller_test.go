package autopilot

import (
	"math"
	"testing"

	"github.com/a-bouts/nav-watch/latlon"
	"github.com/a-bouts/nav-watch/route"
)

type fakeRoute struct {
	active    bool
	loading   bool
	waypoints []latlon.LatLon
}

func (r *fakeRoute) Target() *route.Target {
	if !r.active && !r.loading {
		return nil
	}
	t := route.NewTarget("", r.waypoints[len(r.waypoints)-1])
	return &t
}

func (r *fakeRoute) Active() bool {
	return r.active
}

func (r *fakeRoute) Waypoints() []latlon.LatLon {
	return r.waypoints
}

var origin = latlon.LatLon{Lat: 43.0, Lon: 5.0}

func at(from latlon.LatLon, bearingDeg, meters float64) latlon.LatLon {
	return latlon.Destination(from, latlon.ToRadians(bearingDeg), meters)
}

func TestEaseInOut(t *testing.T) {
	if easeInOut(0) != 0 || easeInOut(1) != 1 || easeInOut(0.5) != 0.5 {
		t.Errorf("easeInOut(0, 0.5, 1) = %f, %f, %f; want 0, 0.5, 1", easeInOut(0), easeInOut(0.5), easeInOut(1))
	}
	prev := 0.0
	for i := 1; i <= 10; i++ {
		v := easeInOut(float64(i) / 10)
		if v < prev {
			t.Errorf("easeInOut(%f) = %f; want >= %f", float64(i)/10, v, prev)
		}
		prev = v
	}
}

func TestSetTargetHeadingSmallChange(t *testing.T) {
	c := NewController(DefaultConfig())
	c.SetActive(true)

	c.SetTargetHeading(8)
	s := c.State()
	if s.TargetHeadingDeg != 8 || s.Transition != nil {
		t.Errorf("State() = %+v; want heading 8 without transition", s)
	}
}

func TestSetTargetHeadingTransition(t *testing.T) {
	c := NewController(DefaultConfig())
	c.SetActive(true)
	c.SetTargetHeading(350)
	for c.Tick() {
	}
	if h := c.State().TargetHeadingDeg; h != 350 {
		t.Fatalf("TargetHeadingDeg = %f; want 350", h)
	}

	c.SetTargetHeading(30)
	s := c.State()
	if s.Transition == nil || s.Transition.TotalSteps != 10 {
		t.Fatalf("State() = %+v; want a 10 step transition", s)
	}

	steps := 0
	for c.Tick() {
		steps++
		h := c.State().TargetHeadingDeg
		// shortest way from 350 to 30 goes through north
		if h > 30 && h < 350 {
			t.Errorf("step %d heading = %f; want within [350, 30] through 0", steps, h)
		}
	}
	if steps != 9 {
		t.Errorf("Tick() ran %d intermediate steps; want 9", steps)
	}
	s = c.State()
	if s.TargetHeadingDeg != 30 || s.Transition != nil {
		t.Errorf("State() = %+v; want heading 30 without transition", s)
	}
}

func TestSetTargetHeadingSupersedes(t *testing.T) {
	c := NewController(DefaultConfig())
	c.SetActive(true)

	c.SetTargetHeading(90)
	c.Tick()
	c.Tick()
	mid := c.State().TargetHeadingDeg

	c.SetTargetHeading(90.5)
	s := c.State()
	if s.Transition == nil || s.Transition.FromDeg != mid || s.Transition.ToDeg != 90.5 || s.Transition.StepIndex != 0 {
		t.Errorf("State() = %+v; want new transition from %f to 90.5", s, mid)
	}

	c.SetTargetHeading(200)
	s = c.State()
	if s.Transition == nil || s.Transition.FromDeg != mid || s.Transition.ToDeg != 200 || s.Transition.StepIndex != 0 {
		t.Errorf("State() = %+v; want new transition from %f to 200", s, mid)
	}

	c.SetTargetHeading(mid + 3)
	s = c.State()
	if s.Transition != nil || math.Abs(s.TargetHeadingDeg-(mid+3)) > 1e-9 {
		t.Errorf("State() = %+v; want direct heading %f", s, mid+3)
	}
}

func TestUpdateFollowsRoute(t *testing.T) {
	c := NewController(DefaultConfig())
	c.SetFollowRoute(true)
	if !c.State().Active {
		t.Fatalf("SetFollowRoute(true) did not engage the autopilot")
	}

	wp1 := at(origin, 5, 2000)
	r := &fakeRoute{active: true, waypoints: []latlon.LatLon{origin, wp1}}

	c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)
	if h := c.State().TargetHeadingDeg; math.Abs(h-5) > 0.01 {
		t.Errorf("TargetHeadingDeg = %f; want ~5", h)
	}
	if c.Warning() != nil {
		t.Errorf("Warning() = %+v; want nil with a single leg", c.Warning())
	}
}

func TestUpdateTargetLost(t *testing.T) {
	c := NewController(DefaultConfig())
	c.SetFollowRoute(true)

	c.Update(route.Fix{Latlon: origin}, &fakeRoute{})

	s := c.State()
	if s.FollowingRoute {
		t.Errorf("FollowingRoute = true; want false once the target is lost")
	}
	if !s.Active {
		t.Errorf("Active = false; want the autopilot left engaged")
	}
}

func TestUpdateWhileRouteLoading(t *testing.T) {
	c := NewController(DefaultConfig())
	c.SetFollowRoute(true)

	wp1 := at(origin, 0, 185.2)
	r := &fakeRoute{active: true, waypoints: []latlon.LatLon{origin, wp1, at(wp1, 90, 2000)}}
	c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)
	for c.Tick() {
	}
	if c.Warning() == nil {
		t.Fatalf("Warning() = nil; want a warning on the first route")
	}

	// a new navigation is being computed
	r.active, r.loading = false, true
	c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)

	s := c.State()
	if !s.FollowingRoute || !s.Active {
		t.Errorf("State() = %+v; want still following while the route loads", s)
	}
	if math.Abs(s.TargetHeadingDeg) > 0.01 || s.Transition != nil {
		t.Errorf("TargetHeadingDeg = %f; want the heading kept", s.TargetHeadingDeg)
	}
	if c.Warning() != nil {
		t.Errorf("Warning() = %+v; want nil without a route", c.Warning())
	}

	r.active, r.loading = true, false
	r.waypoints = []latlon.LatLon{origin, at(origin, 45, 2000)}
	c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)
	if s := c.State(); s.Transition == nil || math.Abs(s.Transition.ToDeg-45) > 0.01 {
		t.Errorf("State() = %+v; want steering to the new route", s)
	}
}

func TestCourseChangeWarning(t *testing.T) {
	c := NewController(DefaultConfig())
	c.SetFollowRoute(true)

	wp1 := at(origin, 0, 185.2)
	wp2 := at(wp1, 90, 2000)
	r := &fakeRoute{active: true, waypoints: []latlon.LatLon{origin, wp1, wp2}}

	// 0.1 nm at 6 kt is 60 s
	c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)
	w := c.Warning()
	if w == nil {
		t.Fatalf("Warning() = nil; want a warning")
	}
	if math.Abs(w.SecondsUntil-60) > 0.5 {
		t.Errorf("SecondsUntil = %f; want ~60", w.SecondsUntil)
	}
	if math.Abs(w.NewHeadingDeg-90) > 0.1 {
		t.Errorf("NewHeadingDeg = %f; want ~90", w.NewHeadingDeg)
	}

	c.DismissWarning()
	c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)
	if w := c.Warning(); w == nil || !w.Dismissed {
		t.Errorf("Warning() = %+v; want dismissed", w)
	}

	// next leg swings by more than 5 degrees
	r.waypoints = []latlon.LatLon{origin, wp1, at(wp1, 120, 2000)}
	c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)
	if w := c.Warning(); w == nil || w.Dismissed {
		t.Errorf("Warning() = %+v; want re-armed", w)
	}
}

func TestCourseChangeWarningCleared(t *testing.T) {
	wp1 := at(origin, 0, 185.2)

	t.Run("slow boat", func(t *testing.T) {
		c := NewController(DefaultConfig())
		c.SetFollowRoute(true)
		r := &fakeRoute{active: true, waypoints: []latlon.LatLon{origin, wp1, at(wp1, 90, 2000)}}

		c.Update(route.Fix{Latlon: origin, SpeedKt: 0.05}, r)
		if w := c.Warning(); w != nil {
			t.Errorf("Warning() = %+v; want nil when not making way", w)
		}
	})

	t.Run("far from waypoint", func(t *testing.T) {
		c := NewController(DefaultConfig())
		c.SetFollowRoute(true)
		far := at(origin, 0, 5000)
		r := &fakeRoute{active: true, waypoints: []latlon.LatLon{origin, far, at(far, 90, 2000)}}

		c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)
		if w := c.Warning(); w != nil {
			t.Errorf("Warning() = %+v; want nil beyond the horizon", w)
		}
	})

	t.Run("straight on", func(t *testing.T) {
		c := NewController(DefaultConfig())
		c.SetFollowRoute(true)
		r := &fakeRoute{active: true, waypoints: []latlon.LatLon{origin, wp1, at(wp1, 3, 2000)}}

		c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)
		if w := c.Warning(); w != nil {
			t.Errorf("Warning() = %+v; want nil for a small course change", w)
		}
	})
}

func TestSetActiveFalse(t *testing.T) {
	c := NewController(DefaultConfig())
	c.SetFollowRoute(true)
	c.SetTargetHeading(120)

	c.SetActive(false)
	s := c.State()
	if s.Active || s.FollowingRoute || s.Transition != nil {
		t.Errorf("State() = %+v; want released", s)
	}
}

func TestReengageResetsDismissal(t *testing.T) {
	c := NewController(DefaultConfig())
	c.SetFollowRoute(true)

	wp1 := at(origin, 0, 185.2)
	r := &fakeRoute{active: true, waypoints: []latlon.LatLon{origin, wp1, at(wp1, 90, 2000)}}
	c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)
	c.DismissWarning()

	c.SetActive(false)
	c.SetFollowRoute(true)
	c.Update(route.Fix{Latlon: origin, SpeedKt: 6}, r)
	if w := c.Warning(); w == nil || w.Dismissed {
		t.Errorf("Warning() = %+v; want a fresh warning after re-engaging", w)
	}
}
