package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultLrclibURL = "https://lrclib.net/api"
	DefaultAPIURL    = "https://api.github.com"
	DefaultOwner     = "rhythm-player"
	DefaultRepo      = "rhythm"
)

type Config struct {
	// Lyrics lookup and caching
	Lyrics LyricsConfig `koanf:"lyrics"`

	// Release polling (enables desktop notifications when notify is on)
	Update UpdateConfig `koanf:"update"`

	Log LogConfig `koanf:"log"`
}

// LyricsConfig holds lyrics lookup settings.
type LyricsConfig struct {
	CacheDir  string `koanf:"cache_dir"`  // where fetched .lrc files are kept (default: $XDG_CACHE_HOME/rhythm/lyrics)
	Online    *bool  `koanf:"online"`     // query lrclib.net when no local file exists (default: true)
	LrclibURL string `koanf:"lrclib_url"` // API endpoint override
}

// UpdateConfig holds release checker settings.
type UpdateConfig struct {
	Owner              string `koanf:"owner"`
	Repo               string `koanf:"repo"`
	IncludePrereleases bool   `koanf:"include_prereleases"`
	Token              string `koanf:"token"`   // optional GitHub token for a higher rate limit
	Notify             *bool  `koanf:"notify"`  // desktop notification on new version (default: true)
	APIURL             string `koanf:"api_url"` // GitHub API endpoint override
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error" (default: "info")
	Format string `koanf:"format"` // "text" or "json" (default: "text")
}

// Load reads the config files found in the default search paths.
func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given TOML files in order (last wins).
// Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.Lyrics.CacheDir != "" {
		cfg.Lyrics.CacheDir = expandPath(cfg.Lyrics.CacheDir)
	}
	cfg.Lyrics.LrclibURL = strings.TrimSuffix(cfg.Lyrics.LrclibURL, "/")
	cfg.Update.APIURL = strings.TrimSuffix(cfg.Update.APIURL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/rhythm/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rhythm", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetLyricsConfig returns the lyrics configuration with defaults applied.
func (c *Config) GetLyricsConfig() LyricsConfig {
	cfg := c.Lyrics

	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(xdg.CacheHome, "rhythm", "lyrics")
	}
	if cfg.Online == nil {
		cfg.Online = boolPtr(true)
	}
	if cfg.LrclibURL == "" {
		cfg.LrclibURL = DefaultLrclibURL
	}

	return cfg
}

// GetUpdateConfig returns the update configuration with defaults applied.
func (c *Config) GetUpdateConfig() UpdateConfig {
	cfg := c.Update

	if cfg.Owner == "" {
		cfg.Owner = DefaultOwner
	}
	if cfg.Repo == "" {
		cfg.Repo = DefaultRepo
	}
	if cfg.Notify == nil {
		cfg.Notify = boolPtr(true)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	return cfg
}

// OnlineLyrics reports whether lrclib.net may be queried.
func (c LyricsConfig) OnlineLyrics() bool {
	return c.Online == nil || *c.Online
}

// NotifyEnabled reports whether update notifications are shown.
func (c UpdateConfig) NotifyEnabled() bool {
	return c.Notify == nil || *c.Notify
}

func boolPtr(b bool) *bool { return &b }
