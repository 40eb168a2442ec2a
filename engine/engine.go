// Package engine runs the route tracker, the autopilot and the anchor watch
// on a single event loop. Fixes, commands and the completion of background
// requests are all events; they are processed one at a time, in order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/a-bouts/nav-watch/anchor"
	"github.com/a-bouts/nav-watch/autopilot"
	"github.com/a-bouts/nav-watch/latlon"
	"github.com/a-bouts/nav-watch/route"
	"github.com/a-bouts/nav-watch/scope"
)

var (
	// ErrStopped is returned by commands once Run has returned.
	ErrStopped = errors.New("engine stopped")
	// ErrNoPosition is returned by commands that need a fix before any arrived.
	ErrNoPosition = errors.New("no position fix yet")
)

// Notifier delivers alarms to the crew.
type Notifier interface {
	Send(message string) error
}

type Config struct {
	Route     route.Config
	Autopilot autopilot.Config
	Anchor    anchor.Config

	QueueSize int
}

func DefaultConfig() Config {
	return Config{
		Route:     route.DefaultConfig(),
		Autopilot: autopilot.DefaultConfig(),
		Anchor:    anchor.DefaultConfig(),
		QueueSize: 64,
	}
}

type Engine struct {
	cfg Config
	id  string

	events chan func()
	done   chan struct{}
	outbox chan anchor.State

	vessel   scope.Vessel
	channel  anchor.Channel
	notifier Notifier

	tracker *route.Tracker
	pilot   *autopilot.Controller
	watch   *anchor.Watch

	last *route.Fix
}

// New creates an engine. router, checker, channel and notifier may be nil:
// navigation then uses direct lines, skip-ahead is off, the anchor watch is
// local and alarms are only logged.
func New(cfg Config, vessel scope.Vessel, router route.Router, checker route.SegmentChecker, channel anchor.Channel, notifier Notifier) *Engine {
	e := &Engine{
		cfg:      cfg,
		id:       uuid.NewString(),
		events:   make(chan func(), cfg.QueueSize),
		done:     make(chan struct{}),
		outbox:   make(chan anchor.State, cfg.QueueSize),
		vessel:   vessel,
		channel:  channel,
		notifier: notifier,
	}

	e.tracker = route.NewTracker(cfg.Route, router, checker, e.post)
	e.pilot = autopilot.NewController(cfg.Autopilot)

	var publish func(anchor.State)
	if channel != nil {
		publish = e.enqueue
	}
	e.watch = anchor.NewWatch(cfg.Anchor, vessel.LengthM, publish)

	return e
}

// ID identifies this engine among the clients of a session.
func (e *Engine) ID() string {
	return e.id
}

// Run processes events until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	stop := sync.OnceFunc(func() { close(e.done) })
	defer stop()

	logger := log.WithField("client", e.id)

	g, ctx := errgroup.WithContext(ctx)

	if e.channel != nil {
		states, err := e.channel.Subscribe(ctx)
		if err != nil {
			return fmt.Errorf("anchor sync: %w", err)
		}
		g.Go(func() error {
			for s := range states {
				s := s
				e.post(func() { e.applyRemote(s) })
			}
			return nil
		})
		g.Go(func() error {
			e.publishLoop(ctx)
			return nil
		})
	}

	g.Go(func() error {
		defer stop()

		interval := e.cfg.Autopilot.StepInterval
		if interval <= 0 {
			interval = autopilot.DefaultConfig().StepInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("Engine started")
		for {
			select {
			case f := <-e.events:
				f()
			case <-ticker.C:
				e.pilot.Tick()
			case <-ctx.Done():
				logger.Info("Engine stopped")
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}

// post schedules f on the loop. It never blocks once the engine stopped.
func (e *Engine) post(f func()) {
	select {
	case e.events <- f:
	case <-e.done:
	}
}

// Do runs f on the loop and waits for it.
func (e *Engine) Do(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	select {
	case e.events <- func() { f(); close(finished) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
}

func (e *Engine) enqueue(s anchor.State) {
	select {
	case e.outbox <- s:
	default:
		log.WithField("client", e.id).Warn("Anchor outbox full, state not published")
	}
}

func (e *Engine) publishLoop(ctx context.Context) {
	for {
		select {
		case s := <-e.outbox:
			if err := e.channel.Publish(ctx, s); err != nil {
				log.WithError(err).Warn("Anchor state not published")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) notify(message string) {
	log.WithField("client", e.id).Warn(message)
	if e.notifier == nil {
		return
	}
	go func() {
		if err := e.notifier.Send(message); err != nil {
			log.WithError(err).Warn("Notification failed")
		}
	}()
}

func (e *Engine) applyRemote(s anchor.State) {
	was := e.watch.Active()
	applied, started := e.watch.Apply(s)
	if !applied {
		return
	}
	if s.Active && !was {
		e.stopNavigation()
	}
	if started {
		e.notifyDragging()
	}
}

func (e *Engine) stopNavigation() {
	e.tracker.Cancel()
	e.pilot.StopFollowing()
}

func (e *Engine) handleFix(fix route.Fix) {
	e.last = &fix

	var name string
	if t := e.tracker.Target(); t != nil {
		name = t.Name
	}

	out := e.tracker.Update(fix, e.pilot.Following())
	if out.Arrived {
		e.notify(fmt.Sprintf("Arrived at %s", displayName(name)))
	}

	e.pilot.Update(fix, e.tracker)

	if e.watch.Update(fix.Latlon) {
		e.notifyDragging()
	}
}

func (e *Engine) notifyDragging() {
	s := e.watch.State()
	if e.last == nil {
		e.notify(fmt.Sprintf("Anchor dragging: swing radius %.0f m", s.SwingRadiusM))
		return
	}
	d := latlon.DistanceMeters(e.last.Latlon, s.AnchorPosition)
	e.notify(fmt.Sprintf("Anchor dragging: %.0f m from the anchor, swing radius %.0f m", d, s.SwingRadiusM))
}

func displayName(name string) string {
	if name == "" {
		return "destination"
	}
	return name
}
