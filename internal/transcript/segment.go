// Package transcript parses line-delimited JSON transcripts produced by the
// video call provider and derives speaker groups and summaries from them.
package transcript

import (
	"bytes"
	"encoding/json"
)

type Kind string

const (
	KindSpeech  Kind = "speech"
	KindSilence Kind = "silence"
)

// Segment is one record of a transcript file. Timestamps are milliseconds
// from the start of the recording.
type Segment struct {
	SpeakerID string `json:"speaker_id"`
	Kind      Kind   `json:"type"`
	Text      string `json:"text"`
	StartTS   int64  `json:"start_ts"`
	StopTS    int64  `json:"stop_ts"`
}

type Parsed struct {
	Segments      []Segment `json:"segments"`
	TotalDuration int64     `json:"total_duration_ms"`
	Speakers      []string  `json:"speakers"`
	WordCount     int       `json:"word_count"`
	SkippedLines  int       `json:"skipped_lines"`
}

type SpeakerGroup struct {
	SpeakerID    string `json:"speaker_id"`
	Text         string `json:"text"`
	StartTS      int64  `json:"start_ts"`
	StopTS       int64  `json:"stop_ts"`
	SegmentCount int    `json:"segment_count"`
}

// EncodeJSONL writes segments in the same line format Parse reads.
func EncodeJSONL(segments []Segment) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, seg := range segments {
		if err := enc.Encode(seg); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
