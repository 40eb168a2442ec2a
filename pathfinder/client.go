// Package pathfinder is the client of the water routing service.
package pathfinder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/a-bouts/nav-watch/latlon"
	"github.com/a-bouts/nav-watch/route"
)

// Reason reported by the service when it has no routing data loaded.
const noNavigationData = "NO_NAVIGATION_DATA"

type Config struct {
	BaseURL string
	Timeout time.Duration

	// Segment checks per second, and burst
	CheckRate  float64
	CheckBurst int

	CacheSize int
	CacheTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout:    150 * time.Second,
		CheckRate:  1,
		CheckBurst: 2,
		CacheSize:  256,
		CacheTTL:   10 * time.Minute,
	}
}

// Client implements route.Router and route.SegmentChecker over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	checks     *expirable.LRU[string, bool]
}

var (
	_ route.Router         = (*Client)(nil)
	_ route.SegmentChecker = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.CheckRate), cfg.CheckBurst),
		checks:     expirable.NewLRU[string, bool](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

type segment struct {
	Start latlon.LatLon `json:"start"`
	End   latlon.LatLon `json:"end"`
}

type checkResult struct {
	CrossesLand bool `json:"crossesLand"`
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// CalculateRoute asks the service for a water route. A service without
// routing data yields route.ErrNoNavigationData.
func (c *Client) CalculateRoute(ctx context.Context, start, end latlon.LatLon) (route.Calculation, error) {
	var calc route.Calculation

	t0 := time.Now()
	if err := c.post(ctx, "/route", segment{Start: start, End: end}, &calc); err != nil {
		return route.Calculation{}, err
	}

	if calc.FailureReason == noNavigationData {
		return route.Calculation{}, fmt.Errorf("route service: %w", route.ErrNoNavigationData)
	}

	log.WithFields(log.Fields{
		"success":   calc.Success,
		"waypoints": len(calc.Waypoints),
		"reason":    calc.FailureReason,
	}).Infof("Route took %s", time.Since(t0).String())

	return calc, nil
}

// cacheKey rounds both ends to about 10 m.
func cacheKey(start, end latlon.LatLon) string {
	return fmt.Sprintf("%.4f,%.4f:%.4f,%.4f", start.Lat, start.Lon, end.Lat, end.Lon)
}

// CheckRoute asks whether the straight segment crosses land. Answers are
// cached and requests rate limited.
func (c *Client) CheckRoute(ctx context.Context, start, end latlon.LatLon) (bool, error) {
	key := cacheKey(start, end)
	if crosses, ok := c.checks.Get(key); ok {
		return crosses, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}

	var res checkResult
	if err := c.post(ctx, "/check", segment{Start: start, End: end}, &res); err != nil {
		return false, err
	}

	c.checks.Add(key, res.CrossesLand)
	return res.CrossesLand, nil
}
