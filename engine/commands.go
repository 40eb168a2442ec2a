package engine

import (
	"context"

	"github.com/a-bouts/nav-watch/anchor"
	"github.com/a-bouts/nav-watch/autopilot"
	"github.com/a-bouts/nav-watch/latlon"
	"github.com/a-bouts/nav-watch/route"
	"github.com/a-bouts/nav-watch/scope"
)

// HandleFix feeds a position fix to the tracker, the autopilot and the
// anchor watch, in that order.
func (e *Engine) HandleFix(ctx context.Context, fix route.Fix) error {
	return e.Do(ctx, func() { e.handleFix(fix) })
}

// Navigate starts navigating from the last fix to p.
func (e *Engine) Navigate(ctx context.Context, name string, p latlon.LatLon) (route.Target, error) {
	target := route.NewTarget(name, p)
	var err error
	if derr := e.Do(ctx, func() {
		if e.last == nil {
			err = ErrNoPosition
			return
		}
		e.tracker.Navigate(e.last.Latlon, target)
	}); derr != nil {
		return route.Target{}, derr
	}
	if err != nil {
		return route.Target{}, err
	}
	return target, nil
}

func (e *Engine) CancelNavigation(ctx context.Context) error {
	return e.Do(ctx, e.stopNavigation)
}

func (e *Engine) DismissError(ctx context.Context) error {
	return e.Do(ctx, e.tracker.DismissError)
}

func (e *Engine) SetAutopilot(ctx context.Context, active bool) error {
	return e.Do(ctx, func() { e.pilot.SetActive(active) })
}

func (e *Engine) SetFollowRoute(ctx context.Context, follow bool) error {
	return e.Do(ctx, func() {
		e.pilot.SetFollowRoute(follow)
		if follow && e.last != nil {
			e.pilot.Update(*e.last, e.tracker)
		}
	})
}

func (e *Engine) SetHeading(ctx context.Context, deg float64) error {
	return e.Do(ctx, func() { e.pilot.SetTargetHeading(deg) })
}

func (e *Engine) DismissWarning(ctx context.Context) error {
	return e.Do(ctx, e.pilot.DismissWarning)
}

// PlaceAnchor sets chain length and depth, dropping the anchor ahead of the
// boat while the watch is off.
func (e *Engine) PlaceAnchor(ctx context.Context, chainLengthM, depthM float64) error {
	var err error
	if derr := e.Do(ctx, func() {
		if e.last == nil {
			err = ErrNoPosition
			return
		}
		if e.watch.Place(e.last.Latlon, e.last.HeadingDeg, chainLengthM, depthM) {
			e.notifyDragging()
		}
	}); derr != nil {
		return derr
	}
	return err
}

// ActivateAnchor turns the watch on and stops any navigation.
func (e *Engine) ActivateAnchor(ctx context.Context) error {
	return e.Do(ctx, func() {
		e.stopNavigation()
		if e.watch.Activate() {
			e.notifyDragging()
		}
	})
}

func (e *Engine) DeactivateAnchor(ctx context.Context) error {
	return e.Do(ctx, e.watch.Deactivate)
}

// CheckAnchor re-evaluates the last fix against the swing radius. It is
// meant for a timer and does not wait.
func (e *Engine) CheckAnchor() {
	e.post(func() {
		if e.watch.Check() {
			e.notifyDragging()
		}
	})
}

// Recommend returns the chain lengths for depth.
func (e *Engine) Recommend(ctx context.Context, depthM float64) (scope.Recommendation, error) {
	var r scope.Recommendation
	err := e.Do(ctx, func() { r = scope.Calculate(depthM, e.vessel) })
	return r, err
}

// SetVessel replaces the vessel parameters. The boat length is used from the
// next anchor placement on.
func (e *Engine) SetVessel(ctx context.Context, v scope.Vessel) error {
	return e.Do(ctx, func() {
		e.vessel = v
		e.watch.SetBoatLength(v.LengthM)
	})
}

func (e *Engine) Vessel(ctx context.Context) (scope.Vessel, error) {
	var v scope.Vessel
	err := e.Do(ctx, func() { v = e.vessel })
	return v, err
}

// Snapshot is everything a presentation layer displays.
type Snapshot struct {
	Client    string                         `json:"client"`
	Position  *route.Fix                     `json:"position,omitempty"`
	Route     route.Snapshot                 `json:"route"`
	Autopilot autopilot.State                `json:"autopilot"`
	Warning   *autopilot.CourseChangeWarning `json:"warning,omitempty"`
	Anchor    anchor.Snapshot                `json:"anchor"`
	Scope     *scope.Recommendation          `json:"scope,omitempty"`
}

func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := e.Do(ctx, func() {
		s = Snapshot{
			Client:    e.id,
			Route:     e.tracker.Snapshot(),
			Autopilot: e.pilot.State(),
			Warning:   e.pilot.Warning(),
			Anchor:    e.watch.Snapshot(),
		}
		if e.last != nil {
			fix := *e.last
			s.Position = &fix
		}
		if depth := s.Anchor.DepthM; depth > 0 {
			r := scope.Calculate(depth, e.vessel)
			s.Scope = &r
		}
	})
	return s, err
}
