package anchor

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/a-bouts/nav-watch/latlon"
	"github.com/a-bouts/nav-watch/scope"
)

var anchorage = latlon.LatLon{Lat: 42.5, Lon: 3.1}

func at(bearingDeg, meters float64) latlon.LatLon {
	return latlon.Destination(anchorage, latlon.ToRadians(bearingDeg), meters)
}

func TestTrack(t *testing.T) {
	tr := NewTrack(3, 2)

	if !tr.Add(at(0, 0)) {
		t.Errorf("Add(first) = false; want true")
	}
	if tr.Add(at(0, 1)) {
		t.Errorf("Add(1m) = true; want false")
	}
	if !tr.Add(at(0, 3)) || !tr.Add(at(0, 6)) || !tr.Add(at(0, 9)) {
		t.Errorf("Add(>=2m) = false; want true")
	}

	pts := tr.Points()
	if len(pts) != 3 || pts[0] != at(0, 3) || pts[2] != at(0, 9) {
		t.Errorf("Points() = %v; want the 3 latest, oldest first", pts)
	}

	tr.Clear()
	if tr.Len() != 0 || len(tr.Points()) != 0 {
		t.Errorf("Len() after Clear() = %d; want 0", tr.Len())
	}
}

func TestTrackCapacity(t *testing.T) {
	tr := NewTrack(1000, 2)
	for i := 0; i < 1500; i++ {
		tr.Add(at(90, float64(i)*3))
	}
	if tr.Len() != 1000 {
		t.Errorf("Len() = %d; want 1000", tr.Len())
	}
	pts := tr.Points()
	if pts[0] != at(90, 500*3) || pts[999] != at(90, 1499*3) {
		t.Errorf("Points() does not hold the latest 1000 positions")
	}
}

func TestPlace(t *testing.T) {
	w := NewWatch(DefaultConfig(), 10, nil)

	w.Place(anchorage, 90, 25, 7)
	s := w.State()

	reach := math.Sqrt(25*25 - 7*7)
	if d := latlon.DistanceMeters(anchorage, s.AnchorPosition); math.Abs(d-reach) > 0.01 {
		t.Errorf("anchor distance = %f; want %f", d, reach)
	}
	if b := latlon.BearingDeg(anchorage, s.AnchorPosition); math.Abs(b-90) > 0.01 {
		t.Errorf("anchor bearing = %f; want 90", b)
	}
	if s.SwingRadiusM != scope.SwingRadius(25, 7, 10) {
		t.Errorf("SwingRadiusM = %f; want %f", s.SwingRadiusM, scope.SwingRadius(25, 7, 10))
	}

	w.Place(anchorage, 0, 40, 7)
	if w.State().AnchorPosition == s.AnchorPosition {
		t.Errorf("inactive watch did not move the anchor")
	}

	w.Activate()
	dropped := w.State().AnchorPosition
	w.Place(at(180, 50), 270, 50, 8)

	s = w.State()
	if s.AnchorPosition != dropped {
		t.Errorf("active watch moved the anchor to %v; want %v", s.AnchorPosition, dropped)
	}
	if s.ChainLengthM != 50 || s.SwingRadiusM != scope.SwingRadius(50, 8, 10) {
		t.Errorf("State() = %+v; want chain 50 and its radius", s)
	}
}

func TestDragging(t *testing.T) {
	w := NewWatch(DefaultConfig(), 10, nil)
	w.Apply(State{AnchorPosition: anchorage, ChainLengthM: 30, DepthM: 5, SwingRadiusM: 30, Active: true})

	if started := w.Update(at(45, 20)); started || w.Dragging() {
		t.Errorf("Update(20m) dragging = %t; want false", w.Dragging())
	}

	if started := w.Update(at(45, 35)); !started || !w.Dragging() {
		t.Errorf("Update(35m) = %t, dragging = %t; want alarm started", started, w.Dragging())
	}
	if started := w.Update(at(45, 36)); started || !w.Dragging() {
		t.Errorf("Update(36m) = %t, dragging = %t; want still dragging without a new alarm", started, w.Dragging())
	}

	if w.Update(at(45, 25)); w.Dragging() {
		t.Errorf("Update(25m) dragging = true; want false")
	}

	pts := w.Track()
	if len(pts) != 3 {
		t.Errorf("Track() = %d points; want 3", len(pts))
	}
}

func TestDraggingTrackDenoise(t *testing.T) {
	w := NewWatch(DefaultConfig(), 10, nil)
	w.Apply(State{AnchorPosition: anchorage, SwingRadiusM: 30, Active: true})

	for i := 0; i < 10; i++ {
		w.Update(at(0, 10+float64(i)*0.7))
	}
	if n := len(w.Track()); n != 4 {
		t.Errorf("Track() = %d points; want 4 for 0.7m steps", n)
	}
}

func TestZeroRadiusAlwaysDrags(t *testing.T) {
	w := NewWatch(DefaultConfig(), 10, nil)
	w.Place(anchorage, 0, 5, 0)

	if !w.Activate() || !w.Dragging() {
		t.Errorf("Activate() without a fix, dragging = %t with a zero swing radius; want alarm started", w.Dragging())
	}
	if w.Update(w.State().AnchorPosition) || !w.Dragging() {
		t.Errorf("Update() on the anchor, dragging = %t; want still dragging without a new alarm", w.Dragging())
	}
}

func TestActivateWhileOutside(t *testing.T) {
	w := NewWatch(DefaultConfig(), 10, nil)
	w.Place(anchorage, 0, 30, 5)
	w.Update(at(180, 100))

	if !w.Activate() || !w.Dragging() {
		t.Errorf("Activate() 100m off, dragging = %t; want alarm started", w.Dragging())
	}
	if w.Check() {
		t.Errorf("Check() = true; want the alarm reported once")
	}
}

func TestPlaceShorterChainWhileActive(t *testing.T) {
	w := NewWatch(DefaultConfig(), 10, nil)
	w.Update(anchorage)
	if w.Place(anchorage, 0, 30, 5) {
		t.Errorf("Place() on an inactive watch = true; want false")
	}
	if w.Activate() {
		t.Errorf("Activate() on the boat position = true; want false")
	}

	if !w.Place(anchorage, 0, 5.5, 5) || !w.Dragging() {
		t.Errorf("Place(5.5m chain), radius %f, dragging = %t; want alarm started", w.State().SwingRadiusM, w.Dragging())
	}
	if w.Place(anchorage, 0, 5.4, 5) {
		t.Errorf("Place() while dragging = true; want no new alarm")
	}
}

func TestApplyStartsAlarm(t *testing.T) {
	w := NewWatch(DefaultConfig(), 10, nil)
	w.Update(at(90, 200))

	applied, started := w.Apply(State{AnchorPosition: anchorage, SwingRadiusM: 30, Active: true})
	if !applied || !started || !w.Dragging() {
		t.Errorf("Apply() = %t, %t, dragging = %t; want applied with alarm started", applied, started, w.Dragging())
	}

	applied, started = w.Apply(State{AnchorPosition: at(90, 190), SwingRadiusM: 30, Active: true})
	if !applied || started || w.Dragging() {
		t.Errorf("Apply(anchor nearby) = %t, %t, dragging = %t; want applied and holding", applied, started, w.Dragging())
	}
}

func TestCheckMatchesUpdate(t *testing.T) {
	w := NewWatch(DefaultConfig(), 10, nil)
	w.Apply(State{AnchorPosition: anchorage, SwingRadiusM: 30, Active: true})

	w.Update(at(0, 40))
	fromFix := w.Dragging()

	w.Apply(State{AnchorPosition: anchorage, SwingRadiusM: 30, Active: true})
	w.Check()
	if w.Dragging() != fromFix || w.Dragging() != IsDragging(at(0, 40), w.State()) {
		t.Errorf("Check() dragging = %t; want %t", w.Dragging(), fromFix)
	}
}

func TestDeactivate(t *testing.T) {
	w := NewWatch(DefaultConfig(), 10, nil)
	w.Place(anchorage, 0, 30, 5)
	w.Activate()
	w.Update(at(0, 100))
	w.Update(at(0, 110))

	w.Deactivate()
	if w.Dragging() || len(w.Track()) != 0 || w.Active() {
		t.Errorf("after Deactivate() dragging = %t, track = %d, active = %t", w.Dragging(), len(w.Track()), w.Active())
	}

	if w.Update(at(0, 200)); w.Dragging() || len(w.Track()) != 0 {
		t.Errorf("inactive watch evaluated a fix")
	}
}

func TestEchoSuppression(t *testing.T) {
	var published []State
	w := NewWatch(DefaultConfig(), 10, func(s State) {
		published = append(published, s)
	})

	w.Place(anchorage, 0, 30, 5)
	if len(published) != 1 {
		t.Fatalf("published %d states; want 1", len(published))
	}

	if applied, _ := w.Apply(published[0]); applied {
		t.Errorf("Apply(echo) = true; want the echo dropped")
	}

	remote := State{AnchorPosition: at(90, 100), ChainLengthM: 40, DepthM: 6, SwingRadiusM: 50, Active: true}
	if applied, _ := w.Apply(remote); !applied {
		t.Errorf("Apply(remote) = false; want applied")
	}
	if w.State() != remote {
		t.Errorf("State() = %+v; want %+v", w.State(), remote)
	}

	w.Deactivate()
	if len(published) != 2 || published[1].Active {
		t.Errorf("published = %+v; want deactivation published", published)
	}
}

func TestHub(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := hub.Channel("boat").Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := hub.Channel("boat").Subscribe(ctx)
	other, _ := hub.Channel("other").Subscribe(ctx)

	s := State{AnchorPosition: anchorage, SwingRadiusM: 12, Active: true}
	if err := hub.Channel("boat").Publish(ctx, s); err != nil {
		t.Fatal(err)
	}

	for _, ch := range []<-chan State{a, b} {
		select {
		case got := <-ch:
			if got != s {
				t.Errorf("received %+v; want %+v", got, s)
			}
		case <-time.After(time.Second):
			t.Errorf("state not delivered")
		}
	}

	select {
	case got := <-other:
		t.Errorf("other session received %+v", got)
	default:
	}

	cancel()
	select {
	case _, ok := <-a:
		if ok {
			t.Errorf("subscription still open after cancel")
		}
	case <-time.After(time.Second):
		t.Errorf("subscription not closed after cancel")
	}
}
