package transcript

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Parse reads a JSONL transcript. Lines that cannot be decoded are logged and
// skipped; silence records and speech without text are dropped.
func Parse(content string) Parsed {
	result := Parsed{
		Segments: make([]Segment, 0),
		Speakers: make([]string, 0),
	}
	if strings.TrimSpace(content) == "" {
		return result
	}

	seen := make(map[string]bool)
	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		var seg Segment
		if err := json.Unmarshal([]byte(line), &seg); err != nil {
			slog.Warn("skipping unparseable transcript line", "line_number", i+1, "error", err)
			result.SkippedLines++
			continue
		}
		if seg.Kind != KindSpeech || seg.Text == "" {
			continue
		}

		result.Segments = append(result.Segments, seg)
		if !seen[seg.SpeakerID] {
			seen[seg.SpeakerID] = true
			result.Speakers = append(result.Speakers, seg.SpeakerID)
		}
		result.WordCount += len(strings.Fields(seg.Text))
		if seg.StopTS > result.TotalDuration {
			result.TotalDuration = seg.StopTS
		}
	}
	return result
}
