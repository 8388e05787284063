package lyrics

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/llehouerou/rhythm/internal/lrclib"
)

// Fetch result sources.
const (
	SourceLocal    = "local"
	SourceCache    = "cache"
	SourceAPI      = "api"
	SourceNotFound = "not_found"
)

// Source provides lyrics from local files, cache, or the lrclib API.
type Source struct {
	client   *lrclib.Client // nil when online lookup is disabled
	cacheDir string
	log      *slog.Logger
}

// NewSource creates a new lyrics source. A nil client disables API
// lookups; an empty cacheDir disables caching.
func NewSource(client *lrclib.Client, cacheDir string, log *slog.Logger) *Source {
	if log == nil {
		log = slog.Default()
	}
	return &Source{
		client:   client,
		cacheDir: cacheDir,
		log:      log,
	}
}

// TrackInfo contains the information needed to fetch lyrics.
type TrackInfo struct {
	FilePath string // Path to audio file (for local .lrc lookup)
	Artist   string
	Title    string
	Album    string
	Duration time.Duration
}

// FetchResult contains the result of a lyrics fetch.
type FetchResult struct {
	Lyrics *Lyrics
	Source string // SourceLocal, SourceCache, SourceAPI or SourceNotFound
	Err    error
}

// Fetch retrieves lyrics for a track using the priority order:
// 1. Local .lrc file (same directory as audio file)
// 2. Cached .lrc file
// 3. lrclib API (and cache the result)
func (s *Source) Fetch(ctx context.Context, track TrackInfo) FetchResult {
	if track.FilePath != "" {
		localPath := lrcPathForAudio(track.FilePath)
		if lyrics, err := loadFromFile(localPath); err == nil && len(lyrics.Lines) > 0 {
			return FetchResult{Lyrics: lyrics, Source: SourceLocal}
		}
	}

	// Need artist and title for cache/API lookup
	if track.Artist == "" || track.Title == "" {
		return FetchResult{Source: SourceNotFound}
	}

	if path := s.cachePath(track.Artist, track.Title); path != "" {
		if lyrics, err := loadFromFile(path); err == nil && len(lyrics.Lines) > 0 {
			return FetchResult{Lyrics: lyrics, Source: SourceCache}
		}
	}

	if s.client == nil {
		return FetchResult{Source: SourceNotFound}
	}
	return s.fetchFromAPI(ctx, track)
}

func (s *Source) fetchFromAPI(ctx context.Context, track TrackInfo) FetchResult {
	result, err := s.client.Get(ctx, track.Artist, track.Title, track.Album, track.Duration)
	if err != nil {
		if errors.Is(err, lrclib.ErrNotFound) {
			return FetchResult{Source: SourceNotFound}
		}
		return FetchResult{Source: SourceNotFound, Err: err}
	}

	lyrics := fromResult(result)
	if lyrics == nil || len(lyrics.Lines) == 0 {
		return FetchResult{Source: SourceNotFound}
	}

	if result.HasSyncedLyrics() {
		if err := s.saveToCache(track.Artist, track.Title, result.SyncedLyrics); err != nil {
			s.log.Warn("cache lyrics", "artist", track.Artist, "title", track.Title, "error", err)
		}
	}

	return FetchResult{Lyrics: lyrics, Source: SourceAPI}
}

// fromResult converts an API result, preferring synced lyrics.
func fromResult(result *lrclib.LyricsResult) *Lyrics {
	var lyrics *Lyrics
	switch {
	case result.HasSyncedLyrics():
		var err error
		lyrics, err = ParseLRC(strings.NewReader(result.SyncedLyrics))
		if err != nil {
			return nil
		}
	case result.HasPlainLyrics():
		lyrics = ParsePlain(result.PlainLyrics)
	default:
		return nil
	}

	if lyrics.Artist == "" {
		lyrics.Artist = result.ArtistName
	}
	if lyrics.Title == "" {
		lyrics.Title = result.TrackName
	}
	if lyrics.Album == "" {
		lyrics.Album = result.AlbumName
	}
	return lyrics
}

// lrcPathForAudio returns the expected .lrc file path for an audio file.
func lrcPathForAudio(audioPath string) string {
	ext := filepath.Ext(audioPath)
	return audioPath[:len(audioPath)-len(ext)] + ".lrc"
}

// LoadFile parses an LRC file. Files without any timestamp are read
// as plain unsynced lyrics.
func LoadFile(path string) (*Lyrics, error) {
	return loadFromFile(path)
}

func loadFromFile(path string) (*Lyrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lyrics, err := ParseLRC(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(lyrics.Lines) == 0 {
		plain := ParsePlain(stripTags(string(data)))
		plain.Title, plain.Artist, plain.Album, plain.By = lyrics.Title, lyrics.Artist, lyrics.Album, lyrics.By
		return plain, nil
	}
	return lyrics, nil
}

// stripTags drops metadata lines so they don't show up as plain text.
func stripTags(text string) string {
	var kept []string
	for line := range strings.SplitSeq(text, "\n") {
		if metadataRe.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func (s *Source) cachePath(artist, title string) string {
	if s.cacheDir == "" {
		return ""
	}
	return filepath.Join(s.cacheDir, sanitizeFilename(artist), sanitizeFilename(title)+".lrc")
}

func (s *Source) saveToCache(artist, title, content string) error {
	path := s.cachePath(artist, title)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

const maxFilenameBytes = 100

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// sanitizeFilename replaces characters that are problematic in filenames.
func sanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if len(name) > maxFilenameBytes {
		cut := maxFilenameBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	if name == "" {
		name = "_"
	}
	return name
}
