package update

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/llehouerou/rhythm/internal/notify"
)

// Retry delays after a failed check. The delay doubles up to BaseInterval.
const retryInitial = time.Minute

// Worker runs the checker on its schedule and raises a desktop
// notification the first time each new version is seen.
type Worker struct {
	checker  *Checker
	store    Store
	notifier notify.Notifier
	clock    clockwork.Clock
	log      *slog.Logger
}

// NewWorker creates a worker. A nil notifier disables notifications.
func NewWorker(checker *Checker, notifier notify.Notifier) *Worker {
	if notifier == nil {
		notifier = notify.Nop()
	}
	return &Worker{
		checker:  checker,
		store:    checker.store,
		notifier: notifier,
		clock:    checker.clock,
		log:      checker.log,
	}
}

// Run checks for updates until ctx is cancelled. It sleeps until the
// stored next check time, so restarting the process keeps the schedule.
func (w *Worker) Run(ctx context.Context) error {
	retry := retryInitial

	for {
		if err := w.sleep(ctx, w.untilDue()); err != nil {
			return err
		}

		_, err := w.CheckNow(ctx)
		switch {
		case err == nil, errors.Is(err, ErrRateLimited):
			retry = retryInitial
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			w.log.Warn("update check failed", "error", err, "retry_in", retry)
			if err := w.sleep(ctx, retry); err != nil {
				return err
			}
			retry = min(retry*2, BaseInterval)
		}
	}
}

// CheckNow runs one check regardless of the schedule and notifies
// if it found a version the user has not been told about.
func (w *Worker) CheckNow(ctx context.Context) (Result, error) {
	res, err := w.checker.Check(ctx)
	if err != nil {
		return res, err
	}
	if res.Available && res.Release != nil {
		if err := w.notifyOnce(*res.Release); err != nil {
			w.log.Warn("update notification failed", "error", err)
		}
	}
	return res, nil
}

func (w *Worker) notifyOnce(rel Release) error {
	st, err := w.store.GetUpdateState()
	if err != nil {
		return fmt.Errorf("load update state: %w", err)
	}
	if st.NotifiedVersion == rel.TagName {
		return nil
	}

	if _, err := w.notifier.Notify(notify.UpdateAvailable(rel.TagName, rel.HTMLURL)); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	w.log.Info("update available", "version", rel.TagName, "url", rel.HTMLURL)

	st.NotifiedVersion = rel.TagName
	if err := w.store.SaveUpdateState(*st); err != nil {
		return fmt.Errorf("save update state: %w", err)
	}
	return nil
}

// untilDue returns how long to wait before the next scheduled check.
func (w *Worker) untilDue() time.Duration {
	st, err := w.store.GetUpdateState()
	if err != nil {
		w.log.Warn("load update state", "error", err)
		return retryInitial
	}
	if st.NextCheck.IsZero() {
		return 0
	}
	return st.NextCheck.Sub(w.clock.Now())
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.clock.After(d):
		return nil
	}
}
