package lyrics

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// FormatLRC writes l in LRC format. Word timings are written as enhanced
// LRC tags and voice markers are preserved. The offset is not written
// since it has already been applied to the timestamps.
func FormatLRC(w io.Writer, l *Lyrics) error {
	bw := bufio.NewWriter(w)

	meta := []struct {
		tag, value string
	}{
		{"ti", l.Title},
		{"ar", l.Artist},
		{"al", l.Album},
		{"by", l.By},
	}
	for _, m := range meta {
		if m.value != "" {
			fmt.Fprintf(bw, "[%s:%s]\n", m.tag, m.value)
		}
	}
	if l.Length > 0 {
		fmt.Fprintf(bw, "[length:%s]\n", FormatTimestamp(l.Length))
	}

	synced := l.IsSynced()
	for _, line := range l.Lines {
		if !synced {
			bw.WriteString(line.Text)
			bw.WriteByte('\n')
			continue
		}
		bw.WriteString(formatLine(line))
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

func formatLine(line Line) string {
	var b strings.Builder
	b.WriteString("[" + FormatTimestamp(line.Time) + "]")
	if line.Voice != "" {
		b.WriteString(line.Voice + ": ")
	}
	if len(line.Words) == 0 {
		b.WriteString(line.Text)
		return b.String()
	}
	for _, w := range line.Words {
		b.WriteString("<" + FormatTimestamp(w.Time) + ">")
		b.WriteString(w.Text)
	}
	if last := line.Words[len(line.Words)-1]; last.End > 0 {
		b.WriteString("<" + FormatTimestamp(last.End) + ">")
	}
	return b.String()
}
