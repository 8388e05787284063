// Package karaoke provides a full-screen, real-time lyrics preview.
package karaoke

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/llehouerou/rhythm/internal/keymap"
	"github.com/llehouerou/rhythm/internal/lyrics"
	"github.com/llehouerou/rhythm/internal/ui"
	"github.com/llehouerou/rhythm/internal/ui/render"
	"github.com/llehouerou/rhythm/internal/ui/styles"
)

const (
	// SeekStep is how far left/right move the playhead.
	SeekStep = 5 * time.Second

	tickInterval = 50 * time.Millisecond

	// Lyrics without a length run this long past their last line.
	tailPadding = 5 * time.Second
)

// tickMsg advances the playhead. Ticks from a superseded loop are dropped.
type tickMsg struct {
	gen int
}

// Model plays lyrics back against a clock, keeping the active line centered.
type Model struct {
	ui.Base
	lyrics *lyrics.Lyrics
	title  string
	clock  clockwork.Clock
	keys   *keymap.Resolver
	bar    progress.Model

	// position = anchor + clock.Since(startedAt) while playing
	anchor    time.Duration
	startedAt time.Time
	paused    bool
	duration  time.Duration

	currentLine int
	gen         int
}

// Option configures a Model.
type Option func(*Model)

// WithClock overrides the playback clock.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Model) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithTitle sets the header text. Defaults to "Artist - Title" from the lyrics.
func WithTitle(title string) Option {
	return func(m *Model) {
		m.title = title
	}
}

// New creates a model starting playback at from.
func New(l *lyrics.Lyrics, from time.Duration, opts ...Option) *Model {
	if l == nil {
		l = &lyrics.Lyrics{}
	}
	m := &Model{
		lyrics:      l,
		clock:       clockwork.NewRealClock(),
		title:       headerFor(l),
		keys:        keymap.NewResolver(keymap.Karaoke),
		bar:         newBar(),
		currentLine: -1,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.duration = playLength(l)
	m.anchor = clamp(from, 0, m.duration)
	m.startedAt = m.clock.Now()
	m.currentLine = m.lyrics.LineAt(m.anchor)
	return m
}

func newBar() progress.Model {
	t := styles.T()
	return progress.New(
		progress.WithGradient(string(t.Primary), string(t.Secondary)),
		progress.WithoutPercentage(),
	)
}

func headerFor(l *lyrics.Lyrics) string {
	switch {
	case l.Artist != "" && l.Title != "":
		return l.Artist + " - " + l.Title
	case l.Title != "":
		return l.Title
	default:
		return "Lyrics"
	}
}

func playLength(l *lyrics.Lyrics) time.Duration {
	if l.Length > 0 {
		return l.Length
	}
	var last time.Duration
	for _, line := range l.Lines {
		last = max(last, line.Time)
		for _, w := range line.Words {
			last = max(last, w.End)
		}
	}
	return last + tailPadding
}

func clamp(d, lo, hi time.Duration) time.Duration {
	return max(lo, min(d, hi))
}

// Position returns the current playhead.
func (m *Model) Position() time.Duration {
	if m.paused {
		return m.anchor
	}
	return clamp(m.anchor+m.clock.Since(m.startedAt), 0, m.duration)
}

// Paused reports whether playback is paused.
func (m *Model) Paused() bool {
	return m.paused
}

// Finished reports whether the playhead reached the end.
func (m *Model) Finished() bool {
	return m.Position() >= m.duration
}

// CurrentLine returns the index of the active line, or -1.
func (m *Model) CurrentLine() int {
	return m.currentLine
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

// restart begins a new tick loop, orphaning any loop in flight.
func (m *Model) restart() tea.Cmd {
	m.gen++
	return m.tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.sync()
		if m.paused || m.Finished() {
			// The tick loop stops here and resumes on play or seek.
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keys.Resolve(msg.String()) {
	case keymap.ActionQuit:
		return m, tea.Quit
	case keymap.ActionPlayPause:
		return m, m.togglePause()
	case keymap.ActionSeekBack:
		return m, m.seek(-SeekStep)
	case keymap.ActionSeekForward:
		return m, m.seek(SeekStep)
	}
	return m, nil
}

// togglePause pauses or resumes. At the end it starts over.
func (m *Model) togglePause() tea.Cmd {
	switch {
	case m.Finished():
		m.anchor = 0
		m.paused = false
	case m.paused:
		m.paused = false
	default:
		m.anchor = m.Position()
		m.paused = true
		return nil
	}
	m.startedAt = m.clock.Now()
	m.sync()
	return m.restart()
}

func (m *Model) seek(delta time.Duration) tea.Cmd {
	m.anchor = clamp(m.Position()+delta, 0, m.duration)
	m.startedAt = m.clock.Now()
	m.sync()
	if m.paused || m.Finished() {
		return nil
	}
	return m.restart()
}

// Progress returns the playhead as a fraction of the play length.
func (m *Model) Progress() float64 {
	if m.duration <= 0 {
		return 0
	}
	return min(float64(m.Position())/float64(m.duration), 1)
}

// sync recomputes the active line from the playhead.
func (m *Model) sync() {
	m.currentLine = m.lyrics.LineAt(m.Position())
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.Width() == 0 || m.Height() == 0 {
		return ""
	}

	t := styles.T()
	inner := m.ContentWidth()

	var b strings.Builder
	b.WriteString(render.Center(t.S().Title.Render(render.Truncate(m.title, inner)), inner))
	b.WriteString("\n\n")
	b.WriteString(m.renderLines(inner))
	b.WriteString("\n")
	m.bar.Width = inner
	b.WriteString(m.bar.ViewAs(m.Progress()))
	b.WriteString("\n")
	b.WriteString(t.S().Subtle.Render(m.footer(inner)))

	return styles.FrameStyle(!m.paused && !m.Finished()).
		Width(m.Width() - ui.BorderWidth).
		Render(b.String())
}

func (m *Model) visibleHeight() int {
	return m.ContentHeight(ui.PanelOverhead)
}

// window returns the [start, end) slice of lines to show, centered on the
// active line.
func (m *Model) window() (start, end int) {
	total := len(m.lyrics.Lines)
	height := m.visibleHeight()
	if total <= height {
		return 0, total
	}
	center := max(m.currentLine, 0)
	start = max(0, min(center-height/2, total-height))
	return start, start + height
}

func (m *Model) renderLines(width int) string {
	if len(m.lyrics.Lines) == 0 {
		return render.Center(styles.T().S().Subtle.Render("No lyrics"), width)
	}

	start, end := m.window()
	pos := m.Position()
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, render.Center(m.renderLine(i, pos, width), width))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderLine(i int, pos time.Duration, width int) string {
	s := styles.T().S()
	line := m.lyrics.Lines[i]
	text := render.Truncate(line.Text, width)

	switch {
	case !m.lyrics.IsSynced():
		return s.Base.Render(text)
	case i != m.currentLine:
		if abs(i-m.currentLine) == 1 {
			return s.Muted.Render(text)
		}
		return s.Subtle.Render(text)
	case len(line.Words) == 0 || !render.Fits(line.Text, width):
		return s.Playing.Render(text)
	default:
		return m.renderWords(line, i, pos)
	}
}

// renderWords highlights sung words and sweeps a gradient across the
// word being sung.
func (m *Model) renderWords(line lyrics.Line, i int, pos time.Duration) string {
	t := styles.T()
	s := t.S()
	active := m.lyrics.WordAt(i, pos)

	var b strings.Builder
	for j, w := range line.Words {
		text := render.Sanitize(w.Text)
		switch {
		case j < active:
			b.WriteString(s.Sung.Render(text))
		case j == active:
			b.WriteString(styles.Sweep(text, wordProgress(w, pos), t.Primary, t.Secondary, s.Base))
		default:
			b.WriteString(s.Base.Render(text))
		}
	}
	return b.String()
}

func wordProgress(w lyrics.Word, pos time.Duration) float64 {
	if w.End <= w.Time {
		return 1
	}
	return float64(pos-w.Time) / float64(w.End-w.Time)
}

func (m *Model) footer(width int) string {
	state := "playing"
	switch {
	case m.Finished():
		state = "end"
	case m.paused:
		state = "paused"
	}

	sync := "synced"
	switch {
	case !m.lyrics.IsSynced():
		sync = "unsynced"
	case m.lyrics.HasWordTiming():
		sync = "word sync"
	}

	left := render.Clock(m.Position()) + " / " + render.Clock(m.duration) + " · " + state + " · " + sync
	right := keymap.Hints(keymap.Karaoke)
	if !render.Fits(left+" "+right, width) {
		return render.Truncate(left, width)
	}
	return render.Row(left, right, width)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
