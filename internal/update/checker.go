// Package update polls GitHub for new releases using conditional
// requests and an adaptive check interval.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/llehouerou/rhythm/internal/state"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// ErrRateLimited is returned when GitHub refuses the request with 403 or 429.
var ErrRateLimited = errors.New("github rate limit exceeded")

// Status describes how a check was answered.
type Status int

const (
	StatusUpdated Status = iota
	StatusNotModified
	StatusRateLimited
)

func (s Status) String() string {
	switch s {
	case StatusUpdated:
		return "updated"
	case StatusNotModified:
		return "not modified"
	case StatusRateLimited:
		return "rate limited"
	default:
		return "unknown"
	}
}

// Release is the subset of the GitHub release payload we use.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	Body        string    `json:"body"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`
	PublishedAt time.Time `json:"published_at"`
}

// Result is the outcome of a single check.
type Result struct {
	Status Status
	// Release is the latest known release. On 304 it is rebuilt from the
	// stored state, and it is nil when nothing has been seen yet.
	Release   *Release
	Available bool
	NextCheck time.Time
}

// Store persists the checker state between runs.
type Store interface {
	GetUpdateState() (*state.UpdateState, error)
	SaveUpdateState(s state.UpdateState) error
}

// Config selects the repository and the version to compare against.
type Config struct {
	APIURL             string
	Owner              string
	Repo               string
	Token              string
	CurrentVersion     string
	IncludePrereleases bool
}

// Checker performs conditional release checks.
type Checker struct {
	cfg        Config
	store      Store
	httpClient *http.Client
	clock      clockwork.Clock
	log        *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClock overrides the clock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Checker) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Checker) {
		if log != nil {
			c.log = log
		}
	}
}

// NewChecker creates a checker for cfg backed by store.
func NewChecker(cfg Config, store Store, opts ...Option) *Checker {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")

	c := &Checker{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		clock:      clockwork.NewRealClock(),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clock returns the clock used by the checker.
func (c *Checker) Clock() clockwork.Clock {
	return c.clock
}

func (c *Checker) releaseURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.cfg.APIURL, c.cfg.Owner, c.cfg.Repo)
}

// Check asks GitHub for the latest release, sending the stored validators
// so unchanged releases cost a 304. The new schedule is persisted.
func (c *Checker) Check(ctx context.Context) (Result, error) {
	st, err := c.store.GetUpdateState()
	if err != nil {
		return Result{}, fmt.Errorf("load update state: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.releaseURL(), http.NoBody)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "rhythm-update-checker")
	if st.ETag != "" {
		req.Header.Set("If-None-Match", st.ETag)
	}
	if st.LastModified != "" {
		req.Header.Set("If-Modified-Since", st.LastModified)
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	now := c.clock.Now()
	var res Result

	switch resp.StatusCode {
	case http.StatusOK:
		var rel Release
		if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
			return Result{}, fmt.Errorf("decode release: %w", err)
		}
		st.ETag = resp.Header.Get("ETag")
		st.LastModified = resp.Header.Get("Last-Modified")
		st.NotModifiedCount = 0
		st.LatestVersion = rel.TagName
		st.LatestURL = rel.HTMLURL

		res.Status = StatusUpdated
		res.Release = &rel
		res.Available = c.isUpdate(rel)

	case http.StatusNotModified:
		st.NotModifiedCount++
		res.Status = StatusNotModified
		if st.LatestVersion != "" {
			rel := Release{TagName: st.LatestVersion, HTMLURL: st.LatestURL}
			res.Release = &rel
			res.Available = c.isUpdate(rel)
		}

	case http.StatusForbidden, http.StatusTooManyRequests:
		next := now.Add(Interval(st.NotModifiedCount))
		if reset, ok := rateLimitReset(resp.Header); ok && reset.After(next) {
			next = reset
		}
		st.LastChecked = now
		st.NextCheck = next
		if err := c.store.SaveUpdateState(*st); err != nil {
			return Result{}, fmt.Errorf("save update state: %w", err)
		}
		c.log.Warn("update check rate limited",
			"status", StatusRateLimited.String(),
			"etag", st.ETag,
			"not_modified", st.NotModifiedCount,
			"next_check", next)
		return Result{Status: StatusRateLimited, NextCheck: next}, ErrRateLimited

	default:
		return Result{}, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	st.LastChecked = now
	st.NextCheck = now.Add(Interval(st.NotModifiedCount))
	if err := c.store.SaveUpdateState(*st); err != nil {
		return Result{}, fmt.Errorf("save update state: %w", err)
	}
	res.NextCheck = st.NextCheck

	c.log.Info("update check done",
		"status", res.Status.String(),
		"etag", st.ETag,
		"not_modified", st.NotModifiedCount,
		"next_check", res.NextCheck,
		"latest", st.LatestVersion,
		"available", res.Available)

	return res, nil
}

// isUpdate applies the pre-release policy before comparing versions.
func (c *Checker) isUpdate(rel Release) bool {
	if rel.Draft {
		return false
	}
	if !c.cfg.IncludePrereleases && (rel.Prerelease || isPrerelease(rel.TagName)) {
		return false
	}
	return IsNewer(rel.TagName, c.cfg.CurrentVersion)
}

// rateLimitReset reads X-RateLimit-Reset, a unix timestamp in seconds.
func rateLimitReset(h http.Header) (time.Time, bool) {
	v := h.Get("X-RateLimit-Reset")
	if v == "" {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}
