package webhook

import (
	"context"

	"github.com/foxseedlab/sirius/internal/transcript"
)

const PayloadSchemaVersion = 1

// TranscriptWebhookPayload is posted once a meeting transcript is stored.
type TranscriptWebhookPayload struct {
	SchemaVersion   int                       `json:"schema_version"`
	MeetingID       string                    `json:"meeting_id"`
	TranscriptionID string                    `json:"transcription_id"`
	Title           string                    `json:"title"`
	RoomID          string                    `json:"room_id"`
	Summary         string                    `json:"summary"`
	Speakers        []string                  `json:"speakers"`
	DurationMS      int64                     `json:"duration_ms"`
	WordCount       int                       `json:"word_count"`
	Groups          []transcript.SpeakerGroup `json:"groups"`
	Text            string                    `json:"text"`
}

type Sender interface {
	SendTranscript(ctx context.Context, payload TranscriptWebhookPayload) error
}
