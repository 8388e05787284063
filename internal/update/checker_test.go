package update

import (
	"context"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/rhythm/internal/state"
)

// fakeGitHub serves /repos/o/r/releases/latest with ETag support.
type fakeGitHub struct {
	mu       sync.Mutex
	release  Release
	etag     string
	status   int // forced status, 0 for normal behaviour
	reset    int64
	requests []*http.Request
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Clone(context.Background()))

	if r.URL.Path != "/repos/o/r/releases/latest" {
		http.NotFound(w, r)
		return
	}
	if f.status != 0 {
		if f.reset != 0 {
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(f.reset, 10))
		}
		w.WriteHeader(f.status)
		return
	}
	if f.etag != "" && r.Header.Get("If-None-Match") == f.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", f.etag)
	w.Header().Set("Last-Modified", "Mon, 02 Jan 2026 15:04:05 GMT")
	_ = json.NewEncoder(w).Encode(f.release)
}

func (f *fakeGitHub) lastRequest() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeGitHub) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeGitHub) set(fn func(*fakeGitHub)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestChecker(t *testing.T, gh *fakeGitHub, cfg Config, opts ...Option) (*Checker, *state.Mock, *clockwork.FakeClock) {
	t.Helper()
	srv := httptest.NewServer(gh)
	t.Cleanup(srv.Close)

	cfg.APIURL = srv.URL
	cfg.Owner, cfg.Repo = "o", "r"
	if cfg.CurrentVersion == "" {
		cfg.CurrentVersion = "v1.0.0"
	}
	store := state.NewMock()
	clock := clockwork.NewFakeClockAt(testStart)
	opts = append([]Option{WithClock(clock), WithHTTPClient(srv.Client())}, opts...)
	return NewChecker(cfg, store, opts...), store, clock
}

func TestCheck_UpdateAvailable(t *testing.T) {
	gh := &fakeGitHub{
		etag:    `"abc"`,
		release: Release{TagName: "v1.2.0", HTMLURL: "https://example.com/v1.2.0"},
	}
	c, store, _ := newTestChecker(t, gh, Config{Token: "secret"})

	res, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, res.Status)
	assert.True(t, res.Available)
	require.NotNil(t, res.Release)
	assert.Equal(t, "v1.2.0", res.Release.TagName)
	assert.Equal(t, testStart.Add(6*time.Hour), res.NextCheck)

	req := gh.lastRequest()
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
	assert.Equal(t, "application/vnd.github+json", req.Header.Get("Accept"))
	assert.NotEmpty(t, req.Header.Get("User-Agent"))
	assert.Empty(t, req.Header.Get("If-None-Match"))

	st, _ := store.GetUpdateState()
	assert.Equal(t, `"abc"`, st.ETag)
	assert.Equal(t, "Mon, 02 Jan 2026 15:04:05 GMT", st.LastModified)
	assert.Equal(t, 0, st.NotModifiedCount)
	assert.Equal(t, "v1.2.0", st.LatestVersion)
	assert.Equal(t, testStart, st.LastChecked)
}

func TestCheck_NotModifiedBacksOff(t *testing.T) {
	gh := &fakeGitHub{etag: `"abc"`, release: Release{TagName: "v1.2.0"}}
	c, store, clock := newTestChecker(t, gh, Config{})

	_, err := c.Check(context.Background())
	require.NoError(t, err)

	want := []time.Duration{12 * time.Hour, 24 * time.Hour, 72 * time.Hour, 72 * time.Hour}
	for i, interval := range want {
		res, err := c.Check(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusNotModified, res.Status)
		assert.Equal(t, clock.Now().Add(interval), res.NextCheck, "check %d", i+2)
		assert.True(t, res.Available, "cached release should still be reported")
		assert.Equal(t, `"abc"`, gh.lastRequest().Header.Get("If-None-Match"))
		assert.Equal(t, "Mon, 02 Jan 2026 15:04:05 GMT", gh.lastRequest().Header.Get("If-Modified-Since"))
	}

	st, _ := store.GetUpdateState()
	assert.Equal(t, 4, st.NotModifiedCount)
}

func TestCheck_NewReleaseResetsCounter(t *testing.T) {
	gh := &fakeGitHub{etag: `"one"`, release: Release{TagName: "v1.1.0"}}
	c, store, _ := newTestChecker(t, gh, Config{})

	for range 3 {
		_, err := c.Check(context.Background())
		require.NoError(t, err)
	}
	gh.set(func(f *fakeGitHub) {
		f.etag = `"two"`
		f.release = Release{TagName: "v1.3.0"}
	})

	res, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, res.Status)

	st, _ := store.GetUpdateState()
	assert.Equal(t, 0, st.NotModifiedCount)
	assert.Equal(t, `"two"`, st.ETag)
	assert.Equal(t, "v1.3.0", st.LatestVersion)
}

func TestCheck_NotNewer(t *testing.T) {
	gh := &fakeGitHub{release: Release{TagName: "v1.0.0"}}
	c, _, _ := newTestChecker(t, gh, Config{})

	res, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Available)
}

func TestCheck_PrereleasePolicy(t *testing.T) {
	tests := []struct {
		name    string
		release Release
		include bool
		want    bool
	}{
		{"flagged prerelease excluded", Release{TagName: "v2.0.0", Prerelease: true}, false, false},
		{"semver prerelease excluded", Release{TagName: "v2.0.0-rc.1"}, false, false},
		{"prerelease included", Release{TagName: "v2.0.0-rc.1", Prerelease: true}, true, true},
		{"draft never", Release{TagName: "v2.0.0", Draft: true}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gh := &fakeGitHub{release: tt.release}
			c, _, _ := newTestChecker(t, gh, Config{IncludePrereleases: tt.include})

			res, err := c.Check(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Available)
		})
	}
}

func TestCheck_RateLimited(t *testing.T) {
	reset := testStart.Add(10 * time.Hour)
	gh := &fakeGitHub{status: http.StatusForbidden, reset: reset.Unix()}
	c, store, _ := newTestChecker(t, gh, Config{})

	res, err := c.Check(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, StatusRateLimited, res.Status)
	assert.True(t, res.NextCheck.Equal(reset), "NextCheck = %v, want %v", res.NextCheck, reset)

	st, _ := store.GetUpdateState()
	assert.True(t, st.NextCheck.Equal(reset))
	assert.Equal(t, 0, st.NotModifiedCount)
}

func TestCheck_RateLimitResetBeforeInterval(t *testing.T) {
	gh := &fakeGitHub{status: http.StatusTooManyRequests, reset: testStart.Add(time.Minute).Unix()}
	c, _, _ := newTestChecker(t, gh, Config{})

	res, err := c.Check(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, testStart.Add(6*time.Hour), res.NextCheck)
}

func TestCheck_ServerErrorKeepsState(t *testing.T) {
	gh := &fakeGitHub{status: http.StatusInternalServerError}
	c, store, _ := newTestChecker(t, gh, Config{})

	_, err := c.Check(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 0, store.Saves())
}

func TestCheck_SaveError(t *testing.T) {
	gh := &fakeGitHub{release: Release{TagName: "v1.0.1"}}
	c, store, _ := newTestChecker(t, gh, Config{})
	store.SetSaveError(assert.AnError)

	_, err := c.Check(context.Background())
	require.ErrorIs(t, err, assert.AnError)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "updated", StatusUpdated.String())
	assert.Equal(t, "not modified", StatusNotModified.String())
	assert.Equal(t, "rate limited", StatusRateLimited.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestCheck_LogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	gh := &fakeGitHub{etag: `"abc"`, release: Release{TagName: "v1.2.0"}}
	c, _, clock := newTestChecker(t, gh, Config{}, WithLogger(log))

	_, err := c.Check(context.Background())
	require.NoError(t, err)
	_, err = c.Check(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry struct {
		Level       string    `json:"level"`
		Status      string    `json:"status"`
		ETag        string    `json:"etag"`
		NotModified int       `json:"not_modified"`
		NextCheck   time.Time `json:"next_check"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "not modified", entry.Status)
	assert.Equal(t, `"abc"`, entry.ETag)
	assert.Equal(t, 1, entry.NotModified)
	assert.True(t, entry.NextCheck.Equal(clock.Now().Add(12*time.Hour)), "next_check = %v", entry.NextCheck)
}

func TestCheck_LogsRateLimit(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	gh := &fakeGitHub{status: http.StatusTooManyRequests}
	c, _, _ := newTestChecker(t, gh, Config{}, WithLogger(log))

	_, err := c.Check(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "rate limited", entry["status"])
	assert.Contains(t, entry, "etag")
	assert.Contains(t, entry, "not_modified")
	assert.Contains(t, entry, "next_check")
}
