package transcript

import (
	"fmt"
	"strings"
)

// Summarize returns a one-line status such as
// "Duration: 02:05 | 2 participants | 40 words | 12 segments".
func Summarize(p Parsed) string {
	speakerCount := len(p.Speakers)
	participants := "participant"
	if speakerCount > 1 {
		participants += "s"
	}
	return fmt.Sprintf("Duration: %s | %d %s | %d words | %d segments",
		FormatTimestamp(p.TotalDuration), speakerCount, participants, p.WordCount, len(p.Segments))
}

// FormatTimestamp renders milliseconds as MM:SS. Minutes are not wrapped at
// one hour.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// RenderGroups formats groups as "[MM:SS] speaker: text" lines.
func RenderGroups(groups []SpeakerGroup) string {
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", FormatTimestamp(g.StartTS), g.SpeakerID, g.Text))
	}
	return strings.Join(lines, "\n")
}
