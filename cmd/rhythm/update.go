package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/rhythm/internal/errmsg"
	"github.com/llehouerou/rhythm/internal/notify"
	"github.com/llehouerou/rhythm/internal/update"
	"github.com/llehouerou/rhythm/internal/version"
)

func newUpdateCmd(a *app) *cobra.Command {
	var current string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check GitHub for new Rhythm releases",
	}
	cmd.PersistentFlags().StringVar(&current, "current", "", "Version to compare against (default: this build)")

	currentVersion := func() string {
		if current != "" {
			return current
		}
		return version.Get().Version
	}

	cmd.AddCommand(
		newUpdateCheckCmd(a, currentVersion),
		newUpdateWatchCmd(a, currentVersion),
		newUpdateStatusCmd(a, currentVersion),
		newUpdateResetCmd(a),
	)
	return cmd
}

// updateWorker wires the checker to the state database and, when enabled,
// desktop notifications.
func (a *app) updateWorker(current string) (*update.Worker, error) {
	st, err := a.state()
	if err != nil {
		return nil, err
	}

	cfg := a.cfg.GetUpdateConfig()
	checker := update.NewChecker(update.Config{
		APIURL:             cfg.APIURL,
		Owner:              cfg.Owner,
		Repo:               cfg.Repo,
		Token:              cfg.Token,
		CurrentVersion:     current,
		IncludePrereleases: cfg.IncludePrereleases,
	}, st,
		update.WithHTTPClient(a.httpClient),
		update.WithClock(a.clock),
		update.WithLogger(a.log),
	)

	notifier := notify.Nop()
	if cfg.NotifyEnabled() {
		if notifier, err = a.newNotifier(); err != nil {
			a.log.Warn("desktop notifications unavailable", "error", err)
			notifier = notify.Nop()
		}
	}
	return update.NewWorker(checker, notifier), nil
}

func newUpdateCheckCmd(a *app, current func() string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check for a new release, honouring the polling schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if !force {
				st, err := a.state()
				if err != nil {
					return err
				}
				s, err := st.GetUpdateState()
				if err != nil {
					return errmsg.Error(errmsg.OpUpdateCheck, err)
				}
				if now := a.clock.Now(); s.NextCheck.After(now) {
					fmt.Fprintf(out, "Next check %s (use --force to check now)\n", relTime(s.NextCheck, now))
					if s.LatestVersion != "" && update.IsNewer(s.LatestVersion, current()) {
						fmt.Fprintf(out, "Update available: %s %s\n", s.LatestVersion, s.LatestURL)
					}
					return nil
				}
			}

			w, err := a.updateWorker(current())
			if err != nil {
				return err
			}
			res, err := w.CheckNow(cmd.Context())
			if errors.Is(err, update.ErrRateLimited) {
				fmt.Fprintf(out, "Rate limited by GitHub, next check %s\n", relTime(res.NextCheck, a.clock.Now()))
				return nil
			}
			if err != nil {
				return errmsg.Error(errmsg.OpUpdateCheck, err)
			}
			printCheckResult(out, res, current(), a.clock.Now())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Check now even if the next check is not due")
	return cmd
}

func newUpdateWatchCmd(a *app, current func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep polling in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.updateWorker(current())
			if err != nil {
				return err
			}
			a.log.Info("watching for updates", "current", current())
			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return errmsg.Error(errmsg.OpUpdateWatch, err)
			}
			return nil
		},
	}
}

func newUpdateStatusCmd(a *app, current func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored update-check state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.state()
			if err != nil {
				return err
			}
			s, err := st.GetUpdateState()
			if err != nil {
				return errmsg.Error(errmsg.OpUpdateStatus, err)
			}

			now := a.clock.Now()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current version: %s\n", current())
			if s.LatestVersion == "" {
				fmt.Fprintln(out, "Latest version:  unknown")
			} else {
				fmt.Fprintf(out, "Latest version:  %s %s\n", s.LatestVersion, s.LatestURL)
			}
			fmt.Fprintf(out, "Last checked:    %s\n", relTime(s.LastChecked, now))
			fmt.Fprintf(out, "Next check:      %s\n", relTime(s.NextCheck, now))
			fmt.Fprintf(out, "Not modified:    %s in a row (interval %s)\n",
				humanize.Comma(int64(s.NotModifiedCount)), update.Interval(s.NotModifiedCount))
			if s.ETag != "" {
				fmt.Fprintf(out, "ETag:            %s\n", s.ETag)
			}
			if s.NotifiedVersion != "" {
				fmt.Fprintf(out, "Notified:        %s\n", s.NotifiedVersion)
			}
			return nil
		},
	}
}

func newUpdateResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget cached validators and the backoff counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.state()
			if err != nil {
				return err
			}
			if err := st.ResetUpdateState(); err != nil {
				return errmsg.Error(errmsg.OpUpdateCheck, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Update state cleared")
			return nil
		},
	}
}

func printCheckResult(w io.Writer, res update.Result, current string, now time.Time) {
	switch {
	case res.Available:
		fmt.Fprintf(w, "Update available: %s %s\n", res.Release.TagName, res.Release.HTMLURL)
	case res.Release != nil:
		fmt.Fprintf(w, "Up to date (%s, latest %s)\n", current, res.Release.TagName)
	default:
		fmt.Fprintf(w, "Up to date (%s)\n", current)
	}
	fmt.Fprintf(w, "GitHub answered: %s, next check %s\n", res.Status, relTime(res.NextCheck, now))
}

func relTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
