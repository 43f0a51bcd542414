package videocall

import (
	"context"
	"time"
)

// TranscriptionFile is a JSONL transcript the video provider stored for a
// call.
type TranscriptionFile struct {
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type Client interface {
	CreateUserToken(userID string, guest bool) (string, error)
	StartTranscription(ctx context.Context, callID string) error
	StopTranscription(ctx context.Context, callID string) error
	ListTranscriptions(ctx context.Context, callID string) ([]TranscriptionFile, error)
	FetchTranscript(ctx context.Context, url string) (string, error)
}

// Latest returns the file with the most recent end time.
func Latest(files []TranscriptionFile) (TranscriptionFile, bool) {
	if len(files) == 0 {
		return TranscriptionFile{}, false
	}
	latest := files[0]
	for _, f := range files[1:] {
		if f.EndTime.After(latest.EndTime) {
			latest = f
		}
	}
	return latest, true
}
