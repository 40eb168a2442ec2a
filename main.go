package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/jasonlvhit/gocron"
	"github.com/peterbourgon/ff"
	"github.com/pkg/profile"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/a-bouts/nav-watch/anchor"
	"github.com/a-bouts/nav-watch/api"
	"github.com/a-bouts/nav-watch/engine"
	"github.com/a-bouts/nav-watch/land"
	"github.com/a-bouts/nav-watch/pathfinder"
	"github.com/a-bouts/nav-watch/route"
	"github.com/a-bouts/nav-watch/scope"
	"github.com/a-bouts/nav-watch/xmpp"
)

type options struct {
	addr       string
	cpuprofile bool
	logLevel   string
	logFile    string

	routeURL   string
	landFile   string
	vesselFile string

	redisAddr string
	session   string

	xmpp       xmpp.Config
	engine     engine.Config
	pathfinder pathfinder.Config
}

func parseFlags(args []string) (options, error) {
	o := options{
		engine:     engine.DefaultConfig(),
		pathfinder: pathfinder.DefaultConfig(),
	}

	fs := flag.NewFlagSet("nav-watch", flag.ContinueOnError)
	fs.StringVar(&o.addr, "addr", ":8888", "http listen address")
	fs.BoolVar(&o.cpuprofile, "cpuprofile", false, "write a cpu profile")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level")
	fs.StringVar(&o.logFile, "log-file", "", "also log to this file, rotated")
	_ = fs.String("config", "", "config file")

	fs.StringVar(&o.routeURL, "route-service-url", "", "water routing service")
	fs.StringVar(&o.landFile, "land-file", "", "land bitmap for offline segment checks")
	fs.StringVar(&o.vesselFile, "vessel-file", "", "vessel parameters (yaml)")

	fs.StringVar(&o.redisAddr, "redis-addr", "", "redis for anchor watch sharing")
	fs.StringVar(&o.session, "session", "default", "anchor watch sharing session")

	fs.StringVar(&o.xmpp.Host, "xmpp-host", "", "")
	fs.StringVar(&o.xmpp.Jid, "xmpp-jid", "", "")
	fs.StringVar(&o.xmpp.Password, "xmpp-password", "", "")
	fs.StringVar(&o.xmpp.To, "xmpp-to", "", "")

	r := &o.engine.Route
	fs.Float64Var(&r.ArrivalNm, "arrival-nm", r.ArrivalNm, "waypoint arrival radius")
	fs.Float64Var(&r.FollowArrivalNm, "follow-arrival-nm", r.FollowArrivalNm, "waypoint arrival radius while following the route")
	fs.DurationVar(&r.SkipCooldown, "skip-cooldown", r.SkipCooldown, "minimum delay between shortcut checks")
	fs.DurationVar(&r.RouteTimeout, "route-timeout", r.RouteTimeout, "")
	fs.DurationVar(&r.CheckTimeout, "check-timeout", r.CheckTimeout, "")

	a := &o.engine.Autopilot
	fs.DurationVar(&a.StepInterval, "heading-step-interval", a.StepInterval, "heading transition step")
	fs.DurationVar(&a.WarningHorizon, "warning-horizon", a.WarningHorizon, "course change warning horizon")

	w := &o.engine.Anchor
	fs.IntVar(&w.TrackCapacity, "track-capacity", w.TrackCapacity, "anchor track positions")
	fs.Float64Var(&w.TrackMinStepM, "track-min-step", w.TrackMinStepM, "anchor track minimum movement in meters")

	p := &o.pathfinder
	fs.Float64Var(&p.CheckRate, "check-rate", p.CheckRate, "segment checks per second")

	err := ff.Parse(fs, args,
		ff.WithEnvVarNoPrefix(),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
	return o, err
}

func setupLogging(o options) error {
	level, err := log.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if o.logFile != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   o.logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}))
	}
	return nil
}

func run(ctx context.Context, o options) error {
	vessel := scope.DefaultVessel()
	if o.vesselFile != "" {
		v, err := scope.LoadVessel(o.vesselFile)
		if err != nil {
			return err
		}
		vessel = v
	}

	var (
		router  route.Router
		checker route.SegmentChecker
		channel anchor.Channel
		notify  engine.Notifier
	)

	if o.routeURL != "" {
		o.pathfinder.BaseURL = o.routeURL
		o.pathfinder.Timeout = o.engine.Route.RouteTimeout
		c := pathfinder.NewClient(o.pathfinder)
		router = c
		checker = c
	} else {
		log.Warn("No route service, navigation uses direct lines")
	}

	if o.landFile != "" {
		log.Info("Load lands")
		l, err := land.InitLand(o.landFile)
		if err != nil {
			return err
		}
		checker = l
	}

	if o.redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: o.redisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis %s: %w", o.redisAddr, err)
		}
		channel = anchor.NewRedisChannel(rdb, o.session)
	}

	x := xmpp.Xmpp{Config: o.xmpp}
	if x.Configured() {
		notify = x
	}

	e := engine.New(o.engine, vessel, router, checker, channel, notify)

	s := gocron.NewScheduler()
	if err := scheduleChecks(s, e); err != nil {
		log.WithError(err).Error("Anchor check not scheduled")
	}
	stopCron := s.Start()
	defer func() { stopCron <- true }()

	h := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(api.InitServer(e))

	accessLog := log.StandardLogger().WriterLevel(log.DebugLevel)
	defer accessLog.Close()

	srv := &http.Server{
		Addr:              o.addr,
		Handler:           handlers.CombinedLoggingHandler(accessLog, h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.Run(ctx)
	})

	g.Go(func() error {
		log.Infof("Start server on %s", o.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// scheduleChecks re-evaluates the anchor watch every second, so an alarm
// fires even when fixes stop coming.
func scheduleChecks(s *gocron.Scheduler, e *engine.Engine) error {
	return s.Every(1).Second().Do(e.CheckAnchor)
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}

	if err := setupLogging(o); err != nil {
		log.Fatal(err)
	}

	if o.cpuprofile {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		log.WithError(err).Error("nav-watch stopped")
		os.Exit(1)
	}
}
