package transcriber

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/foxseedlab/sirius/internal/transcript"
)

var ErrUnsupportedAudioURI = errors.New("unsupported audio uri")

type Result struct {
	Done          bool
	Failed        bool
	FailureReason string
	Segments      []transcript.Segment
	Text          string
	Confidence    *float64
	AudioDuration time.Duration
}

type Transcriber interface {
	// Submit starts recognition of a recorded audio file and returns a
	// provider job id.
	Submit(ctx context.Context, audioURI, language string) (string, error)
	// Poll reports the job state. Result.Done is false while processing.
	Poll(ctx context.Context, jobID string) (*Result, error)
}

// AudioStore places uploaded recordings where Submit can read them.
type AudioStore interface {
	// Upload stores the audio and returns its URI for Submit.
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}
