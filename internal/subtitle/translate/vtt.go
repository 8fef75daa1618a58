package translate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/subtitle-study/app/internal/models"
)

var timestampRe = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}[.,]\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}[.,]\d{3})`)

// ParseVTT parses WebVTT (or SRT-style) content into cues numbered from 1.
// Multi-line cue text is joined with newlines.
func ParseVTT(content string) []SubtitleCue {
	var (
		cues []SubtitleCue
		cur  *SubtitleCue
	)
	flush := func() {
		if cur != nil && cur.Text != "" {
			cues = append(cues, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "" || line == "WEBVTT":
			flush()
		case timestampRe.MatchString(line):
			flush()
			m := timestampRe.FindStringSubmatch(line)
			cur = &SubtitleCue{Index: len(cues) + 1, Start: parseTimestamp(m[1]), End: parseTimestamp(m[2])}
		case cur == nil:
			// cue identifiers, NOTE blocks and headers outside a cue
		default:
			if cur.Text != "" {
				cur.Text += "\n"
			}
			cur.Text += line
		}
	}
	flush()
	return cues
}

// CuesToVTT renders cues as a WebVTT document.
func CuesToVTT(cues []SubtitleCue) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for i, cue := range cues {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", i+1, formatTimestamp(cue.Start), formatTimestamp(cue.End), cue.Text)
	}
	return sb.String()
}

// CuesFromEntries converts subtitle entries to cues indexed by entry id.
func CuesFromEntries(entries []models.SubtitleEntry) []SubtitleCue {
	cues := make([]SubtitleCue, len(entries))
	for i, e := range entries {
		cues[i] = SubtitleCue{Index: e.ID, Start: e.Start, End: e.End(), Text: e.SourceText}
	}
	return cues
}

// EntriesToVTT renders entries, with the translation under the original line when present.
func EntriesToVTT(entries []models.SubtitleEntry) string {
	cues := CuesFromEntries(entries)
	for i, e := range entries {
		if e.TranslatedText != "" {
			cues[i].Text += "\n" + e.TranslatedText
		}
	}
	return CuesToVTT(cues)
}

func parseTimestamp(ts string) float64 {
	parts := strings.Split(strings.Replace(ts, ",", ".", 1), ":")
	if len(parts) != 3 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	s, _ := strconv.ParseFloat(parts[2], 64)
	return float64(h*3600+m*60) + s
}

func formatTimestamp(seconds float64) string {
	totalMs := int(seconds*1000 + 0.5)
	h := totalMs / 3600000
	m := totalMs / 60000 % 60
	s := totalMs / 1000 % 60
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
