package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/llehouerou/rhythm/internal/config"
	"github.com/llehouerou/rhythm/internal/errmsg"
	"github.com/llehouerou/rhythm/internal/logging"
	"github.com/llehouerou/rhythm/internal/notify"
	"github.com/llehouerou/rhythm/internal/state"
)

// app carries what the commands share. Fields are filled by the root
// command before any subcommand runs; tests preset them.
type app struct {
	configPath string
	logLevel   string
	dbPath     string

	cfg *config.Config
	log *slog.Logger

	st          state.Interface
	httpClient  *http.Client
	clock       clockwork.Clock
	newNotifier func() (notify.Notifier, error)
}

func newApp() *app {
	return &app{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		clock:       clockwork.NewRealClock(),
		newNotifier: notify.New,
	}
}

// state opens the database on first use.
func (a *app) state() (state.Interface, error) {
	if a.st != nil {
		return a.st, nil
	}
	var (
		m   *state.Manager
		err error
	)
	if a.dbPath != "" {
		m, err = state.OpenPath(a.dbPath)
	} else {
		m, err = state.Open()
	}
	if err != nil {
		return nil, errmsg.Error(errmsg.OpStateOpen, err)
	}
	a.st = m
	return m, nil
}

func (a *app) close() {
	if a.st != nil {
		_ = a.st.Close()
		a.st = nil
	}
}

func (a *app) setup() error {
	if a.cfg == nil {
		var (
			cfg *config.Config
			err error
		)
		if a.configPath != "" {
			cfg, err = config.LoadFrom(a.configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return errmsg.Error(errmsg.OpConfigLoad, err)
		}
		a.cfg = cfg
	}

	if a.log == nil {
		level := a.cfg.Log.Level
		if a.logLevel != "" {
			level = a.logLevel
		}
		a.log = logging.Init(level, a.cfg.Log.Format)
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rhythm",
		Short:         "Lyrics, update checks and widget data for the Rhythm player",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: ~/.config/rhythm/config.toml, ./config.toml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "State database path (default: $XDG_DATA_HOME/rhythm/rhythm.db)")

	cmd.AddCommand(
		newLyricsCmd(a),
		newUpdateCmd(a),
		newWidgetCmd(a),
		newVersionCmd(),
	)
	return cmd
}
