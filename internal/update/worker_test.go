package update

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/rhythm/internal/notify"
	"github.com/llehouerou/rhythm/internal/state"
	"github.com/llehouerou/rhythm/internal/testutil"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (r *recordingNotifier) Notify(n notify.Notification) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.sent = append(r.sent, n)
	return uint32(len(r.sent)), nil
}

func (r *recordingNotifier) Close(uint32) error { return nil }

func (r *recordingNotifier) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Title)
	}
	return out
}

func verifyNoLeaks(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPGoroutines()...) })
}

// runWorker starts w.Run and returns a stop function yielding its error.
func runWorker(t *testing.T, w *Worker) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not stop")
			return nil
		}
	}
}

func blockUntilSleeping(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1), "worker never went to sleep")
}

func TestWorker_ChecksAndNotifiesOnce(t *testing.T) {
	verifyNoLeaks(t)

	gh := &fakeGitHub{etag: `"v12"`, release: Release{TagName: "v1.2.0", HTMLURL: "https://example.com/r"}}
	c, store, clock := newTestChecker(t, gh, Config{})
	n := &recordingNotifier{}
	w := NewWorker(c, n)

	stop := runWorker(t, w)

	blockUntilSleeping(t, clock)
	assert.Equal(t, 1, gh.count())
	assert.Equal(t, []string{"Rhythm v1.2.0 available"}, n.titles())

	clock.Advance(6 * time.Hour)
	blockUntilSleeping(t, clock)
	assert.Equal(t, 2, gh.count())
	assert.Len(t, n.titles(), 1, "same version must not be announced twice")

	st, _ := store.GetUpdateState()
	assert.Equal(t, "v1.2.0", st.NotifiedVersion)
	assert.Equal(t, 1, st.NotModifiedCount)

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestWorker_WaitsForStoredNextCheck(t *testing.T) {
	verifyNoLeaks(t)

	gh := &fakeGitHub{release: Release{TagName: "v1.0.0"}}
	c, store, clock := newTestChecker(t, gh, Config{})
	require.NoError(t, store.SaveUpdateState(state.UpdateState{NextCheck: testStart.Add(2 * time.Hour)}))
	w := NewWorker(c, nil)

	stop := runWorker(t, w)

	blockUntilSleeping(t, clock)
	assert.Equal(t, 0, gh.count())

	clock.Advance(2 * time.Hour)
	blockUntilSleeping(t, clock)
	assert.Equal(t, 1, gh.count())

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestWorker_RetriesWithBackoff(t *testing.T) {
	verifyNoLeaks(t)

	gh := &fakeGitHub{status: http.StatusBadGateway}
	c, _, clock := newTestChecker(t, gh, Config{})
	w := NewWorker(c, nil)

	stop := runWorker(t, w)

	blockUntilSleeping(t, clock)
	assert.Equal(t, 1, gh.count())

	clock.Advance(time.Minute)
	blockUntilSleeping(t, clock)
	assert.Equal(t, 2, gh.count())

	// Second retry waits two minutes.
	clock.Advance(time.Minute)
	assert.Equal(t, 2, gh.count())
	clock.Advance(time.Minute)
	blockUntilSleeping(t, clock)
	assert.Equal(t, 3, gh.count())

	// Recovery resets to the normal schedule.
	gh.set(func(f *fakeGitHub) {
		f.status = 0
		f.release = Release{TagName: "v1.0.0"}
	})
	clock.Advance(4 * time.Minute)
	blockUntilSleeping(t, clock)
	assert.Equal(t, 4, gh.count())

	clock.Advance(time.Hour)
	assert.Equal(t, 4, gh.count())

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestWorker_CheckNowNotifiesNewVersions(t *testing.T) {
	gh := &fakeGitHub{release: Release{TagName: "v1.1.0"}}
	c, store, _ := newTestChecker(t, gh, Config{})
	n := &recordingNotifier{}
	w := NewWorker(c, n)

	_, err := w.CheckNow(context.Background())
	require.NoError(t, err)
	_, err = w.CheckNow(context.Background())
	require.NoError(t, err)
	assert.Len(t, n.titles(), 1)

	gh.set(func(f *fakeGitHub) { f.release = Release{TagName: "v1.2.0"} })
	res, err := w.CheckNow(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, []string{"Rhythm v1.1.0 available", "Rhythm v1.2.0 available"}, n.titles())

	st, _ := store.GetUpdateState()
	assert.Equal(t, "v1.2.0", st.NotifiedVersion)
}

func TestWorker_NotifyFailureIsRetried(t *testing.T) {
	gh := &fakeGitHub{release: Release{TagName: "v1.1.0"}}
	c, store, _ := newTestChecker(t, gh, Config{})
	n := &recordingNotifier{err: errors.New("dbus gone")}
	w := NewWorker(c, n)

	_, err := w.CheckNow(context.Background())
	require.NoError(t, err, "notification failures are not check failures")

	st, _ := store.GetUpdateState()
	assert.Empty(t, st.NotifiedVersion)

	n.mu.Lock()
	n.err = nil
	n.mu.Unlock()
	_, err = w.CheckNow(context.Background())
	require.NoError(t, err)
	assert.Len(t, n.titles(), 1)
}
