// Package lyrics provides lyrics parsing and sourcing.
package lyrics

import (
	"bufio"
	"cmp"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Word is a timed fragment of a line (a word or a syllable).
// Text keeps its surrounding whitespace so that the words of a line
// concatenate back to the line text.
type Word struct {
	Time time.Duration
	End  time.Duration // 0 when unknown
	Text string
}

// Line represents a single timestamped lyric line.
type Line struct {
	Time  time.Duration
	Text  string
	Voice string // "v1", "v2", ... for duets, empty otherwise
	Words []Word // set for enhanced / word-by-word lyrics
}

// Lyrics contains parsed lyrics with optional metadata.
type Lyrics struct {
	Lines  []Line
	Title  string
	Artist string
	Album  string
	By     string
	Offset time.Duration // already applied to all timestamps
	Length time.Duration

	// set by ParseLRC: lines carry real timestamps, even if all are 0
	synced bool
}

// LineAt returns the index of the lyric line at the given playback position.
// Returns -1 if no line is active yet or if lyrics are unsynced.
func (l *Lyrics) LineAt(pos time.Duration) int {
	if len(l.Lines) == 0 || !l.IsSynced() {
		return -1
	}

	// Find the last line that starts at or before pos
	idx := -1
	for i, line := range l.Lines {
		if line.Time <= pos {
			idx = i
		} else {
			break
		}
	}
	return idx
}

// WordAt returns the index of the active word of line at pos.
// Returns -1 if the line has no word timing or no word has started yet.
func (l *Lyrics) WordAt(line int, pos time.Duration) int {
	if line < 0 || line >= len(l.Lines) {
		return -1
	}
	idx := -1
	for i, w := range l.Lines[line].Words {
		if w.Time > pos {
			break
		}
		idx = i
	}
	return idx
}

// HasWordTiming returns true if any line carries per-word timestamps.
func (l *Lyrics) HasWordTiming() bool {
	for _, line := range l.Lines {
		if len(line.Words) > 0 {
			return true
		}
	}
	return false
}

// Plain returns the lyrics text without any timing information.
func (l *Lyrics) Plain() string {
	texts := make([]string, len(l.Lines))
	for i, line := range l.Lines {
		texts[i] = line.Text
	}
	return strings.Join(texts, "\n")
}

// Regular expressions for parsing LRC format
var (
	// Leading line timestamp: [00:12.34], [00:12], [01:02:03.45]
	lineTagRe = regexp.MustCompile(`^\[(\d+(?::\d+){1,2}(?:\.\d*)?)\]`)

	// Inline word timestamp: <00:12.34>
	wordTagRe = regexp.MustCompile(`<(\d+(?::\d+){1,2}(?:\.\d*)?)>`)

	// Matches metadata tags like [ar:Artist Name]
	metadataRe = regexp.MustCompile(`^\[([A-Za-z]+):(.*)\]$`)

	// Duet voice marker at the start of the lyric text: v1: / V2:
	voiceRe = regexp.MustCompile(`^[vV](\d+):[ \t]*`)
)

// ParseLRC parses LRC format lyrics from a reader.
// Plain LRC, enhanced LRC (<mm:ss.xx> word tags) and voice-tagged
// word-by-word lyrics are all accepted.
func ParseLRC(r io.Reader) (*Lyrics, error) {
	lyrics := &Lyrics{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if meta := metadataRe.FindStringSubmatch(line); meta != nil {
			lyrics.applyMetadata(strings.ToLower(meta[1]), strings.TrimSpace(meta[2]))
			continue
		}

		lyrics.Lines = append(lyrics.Lines, parseLine(line)...)
	}
	lyrics.synced = len(lyrics.Lines) > 0

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(lyrics.Lines, func(a, b Line) int {
		return cmp.Compare(a.Time, b.Time)
	})

	if lyrics.Offset != 0 {
		lyrics.shift(-lyrics.Offset)
	}
	lyrics.closeWords()

	return lyrics, nil
}

// ParsePlain builds unsynced lyrics from plain text. Every line is at time 0.
func ParsePlain(text string) *Lyrics {
	lyrics := &Lyrics{}
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lyrics.Lines = append(lyrics.Lines, Line{Text: line})
		}
	}
	return lyrics
}

func (l *Lyrics) applyMetadata(tag, value string) {
	switch tag {
	case "ar":
		l.Artist = value
	case "ti":
		l.Title = value
	case "al":
		l.Album = value
	case "by":
		l.By = value
	case "offset":
		if ms, err := strconv.Atoi(strings.TrimPrefix(value, "+")); err == nil {
			l.Offset = time.Duration(ms) * time.Millisecond
		}
	case "length":
		if d, err := ParseTimestamp(value); err == nil {
			l.Length = d
		}
	}
}

// parseLine turns one lyric line into one Line per leading timestamp.
// Lines without a valid leading timestamp yield nothing.
func parseLine(raw string) []Line {
	var times []time.Duration
	rest := raw
	for {
		m := lineTagRe.FindStringSubmatchIndex(rest)
		if m == nil {
			break
		}
		if ts, err := ParseTimestamp(rest[m[2]:m[3]]); err == nil {
			times = append(times, ts)
		}
		rest = strings.TrimLeft(rest[m[1]:], " \t")
	}
	if len(times) == 0 {
		return nil
	}

	var voice string
	if vm := voiceRe.FindStringSubmatch(rest); vm != nil {
		voice = "v" + vm[1]
		rest = rest[len(vm[0]):]
	}

	text, words := parseWords(rest, times[0])

	lines := make([]Line, 0, len(times))
	for _, ts := range times {
		line := Line{Time: ts, Text: text, Voice: voice}
		if len(words) > 0 {
			// Word tags are absolute; repeats of the line are shifted along.
			line.Words = shiftWords(words, ts-times[0])
		}
		lines = append(lines, line)
	}
	return lines
}

// parseWords extracts <ts> word tags from the lyric text.
// A tag followed only by whitespace (or nothing) closes the previous word.
// Text before the first tag becomes a word starting at the line time.
func parseWords(body string, at time.Duration) (string, []Word) {
	locs := wordTagRe.FindAllStringSubmatchIndex(body, -1)
	if len(locs) == 0 {
		return strings.TrimSpace(body), nil
	}

	var text strings.Builder
	var words []Word
	lead := strings.TrimLeft(body[:locs[0][0]], " \t")
	text.WriteString(lead)
	if strings.TrimSpace(lead) != "" {
		words = append(words, Word{Time: at, Text: lead})
	}

	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		seg := body[loc[1]:end]
		text.WriteString(seg)

		ts, err := ParseTimestamp(body[loc[2]:loc[3]])
		if err != nil {
			// Keep the text, drop the broken tag.
			if n := len(words); n > 0 {
				words[n-1].Text += seg
			}
			continue
		}

		if n := len(words); n > 0 && words[n-1].End == 0 {
			words[n-1].End = ts
		}
		if strings.TrimSpace(seg) == "" {
			if n := len(words); n > 0 {
				words[n-1].Text += seg
			}
			continue
		}
		words = append(words, Word{Time: ts, Text: seg})
	}

	return strings.TrimSpace(text.String()), words
}

func shiftWords(words []Word, delta time.Duration) []Word {
	out := make([]Word, len(words))
	for i, w := range words {
		out[i] = w
		out[i].Time += delta
		if w.End > 0 {
			out[i].End += delta
		}
	}
	return out
}

// shift moves every timestamp by delta, clamping at zero.
func (l *Lyrics) shift(delta time.Duration) {
	clamp := func(d time.Duration) time.Duration {
		return max(d+delta, 0)
	}
	for i := range l.Lines {
		l.Lines[i].Time = clamp(l.Lines[i].Time)
		for j := range l.Lines[i].Words {
			w := &l.Lines[i].Words[j]
			w.Time = clamp(w.Time)
			if w.End > 0 {
				w.End = clamp(w.End)
			}
		}
	}
}

// closeWords fills the end of the last word of each line from the next line.
func (l *Lyrics) closeWords() {
	for i := range l.Lines {
		words := l.Lines[i].Words
		if len(words) == 0 {
			continue
		}
		last := &words[len(words)-1]
		if last.End != 0 {
			continue
		}
		for j := i + 1; j < len(l.Lines); j++ {
			if next := l.Lines[j].Time; next > last.Time {
				last.End = next
				break
			}
		}
	}
}

// IsSynced returns true if the lyrics have timestamps (synced).
// Parsed LRC is always synced, even when every line sits at 0:00.
// Lyrics built by hand count as synced once a line has a non-zero time
// or word timing.
func (l *Lyrics) IsSynced() bool {
	if len(l.Lines) == 0 {
		return false
	}
	if l.synced {
		return true
	}
	for _, line := range l.Lines {
		if line.Time > 0 || len(line.Words) > 0 {
			return true
		}
	}
	return false
}
