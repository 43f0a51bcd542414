package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/sirius/internal/transcriber"
	"github.com/foxseedlab/sirius/internal/transcript"
	"google.golang.org/api/option"
)

const (
	speechAPIEndpointPort = 443
	maxDiarizedSpeakers   = 6
	unknownSpeakerID      = "unknown"
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
}

type CloudSpeechTranscriber struct {
	projectID       string
	credentialsJSON string
	defaultLanguage string
	location        string
	model           string
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig) transcriber.Transcriber {
	return &CloudSpeechTranscriber{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		defaultLanguage: cfg.Language,
		location:        strings.TrimSpace(cfg.Location),
		model:           strings.TrimSpace(cfg.Model),
	}
}

func (t *CloudSpeechTranscriber) Submit(ctx context.Context, audioURI, language string) (string, error) {
	if !strings.HasPrefix(audioURI, "gs://") {
		return "", fmt.Errorf("%w: cloud speech batch recognition reads gs:// objects, got %q", transcriber.ErrUnsupportedAudioURI, audioURI)
	}
	if language == "" {
		language = t.defaultLanguage
	}
	slog.Info("submitting batch recognition", "location", t.location, "language", language, "model", t.model, "audio_uri", audioURI)

	client, err := t.newClient(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = client.Close()
	}()

	op, err := client.BatchRecognize(ctx, &speechpb.BatchRecognizeRequest{
		Recognizer: t.recognizer(),
		Config: &speechpb.RecognitionConfig{
			Model:         t.model,
			LanguageCodes: []string{language},
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Features: &speechpb.RecognitionFeatures{
				EnableAutomaticPunctuation: true,
				EnableWordTimeOffsets:      true,
				DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
					MinSpeakerCount: 1,
					MaxSpeakerCount: maxDiarizedSpeakers,
				},
			},
		},
		Files: []*speechpb.BatchRecognizeFileMetadata{
			{AudioSource: &speechpb.BatchRecognizeFileMetadata_Uri{Uri: audioURI}},
		},
		RecognitionOutputConfig: &speechpb.RecognitionOutputConfig{
			Output: &speechpb.RecognitionOutputConfig_InlineResponseConfig{
				InlineResponseConfig: &speechpb.InlineOutputConfig{},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("batch recognize: %w", err)
	}
	slog.Info("batch recognition submitted", "job_id", op.Name())
	return op.Name(), nil
}

func (t *CloudSpeechTranscriber) Poll(ctx context.Context, jobID string) (*transcriber.Result, error) {
	client, err := t.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = client.Close()
	}()

	op := client.BatchRecognizeOperation(jobID)
	resp, err := op.Poll(ctx)
	if err != nil {
		if op.Done() {
			slog.Warn("batch recognition failed", "job_id", jobID, "error", err)
			return &transcriber.Result{Done: true, Failed: true, FailureReason: err.Error()}, nil
		}
		return nil, fmt.Errorf("poll batch recognition: %w", err)
	}
	if !op.Done() || resp == nil {
		return &transcriber.Result{}, nil
	}
	return resultFromResponse(resp), nil
}

func (t *CloudSpeechTranscriber) newClient(ctx context.Context) (*speech.Client, error) {
	opts, err := credentialOptions(t.credentialsJSON)
	if err != nil {
		return nil, err
	}
	if t.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", t.location, speechAPIEndpointPort)))
	}
	return speech.NewClient(ctx, opts...)
}

// credentialOptions builds client options from a service account JSON. The
// speech and storage clients share them.
func credentialOptions(credentialsJSON string) ([]option.ClientOption, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}
	return []option.ClientOption{option.WithAuthCredentials(creds)}, nil
}

func (t *CloudSpeechTranscriber) recognizer() string {
	return fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.projectID, t.location)
}

func resultFromResponse(resp *speechpb.BatchRecognizeResponse) *transcriber.Result {
	out := &transcriber.Result{Done: true}
	var recognized []*speechpb.SpeechRecognitionResult
	for uri, file := range resp.GetResults() {
		if fileErr := file.GetError(); fileErr != nil && fileErr.GetMessage() != "" {
			slog.Warn("batch recognition file failed", "audio_uri", uri, "error", fileErr.GetMessage())
			out.Failed = true
			out.FailureReason = fileErr.GetMessage()
			continue
		}
		recognized = append(recognized, file.GetInlineResult().GetTranscript().GetResults()...)
	}
	if len(recognized) > 0 {
		out.Failed = false
		out.FailureReason = ""
	}

	var texts []string
	var confidenceSum float64
	var confidenceCount int
	for _, r := range recognized {
		if end := r.GetResultEndOffset().AsDuration(); end > out.AudioDuration {
			out.AudioDuration = end
		}
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		alt := r.GetAlternatives()[0]
		if text := strings.TrimSpace(alt.GetTranscript()); text != "" {
			texts = append(texts, text)
		}
		if c := alt.GetConfidence(); c > 0 {
			confidenceSum += float64(c)
			confidenceCount++
		}
	}
	out.Text = strings.Join(texts, " ")
	if confidenceCount > 0 {
		avg := confidenceSum / float64(confidenceCount)
		out.Confidence = &avg
	}
	out.Segments = segmentsFromResults(recognized)
	return out
}

// segmentsFromResults turns diarized words into speech segments, one per run
// of consecutive words from the same speaker. Results without word timing
// become one segment each, bounded by the previous result's end offset.
func segmentsFromResults(results []*speechpb.SpeechRecognitionResult) []transcript.Segment {
	segments := make([]transcript.Segment, 0)
	var previousEnd time.Duration
	for _, r := range results {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		alt := r.GetAlternatives()[0]
		words := alt.GetWords()
		if len(words) == 0 {
			if text := strings.TrimSpace(alt.GetTranscript()); text != "" {
				segments = append(segments, transcript.Segment{
					SpeakerID: unknownSpeakerID,
					Kind:      transcript.KindSpeech,
					Text:      text,
					StartTS:   previousEnd.Milliseconds(),
					StopTS:    r.GetResultEndOffset().AsDuration().Milliseconds(),
				})
			}
			previousEnd = r.GetResultEndOffset().AsDuration()
			continue
		}

		var current *transcript.Segment
		for _, w := range words {
			speaker := w.GetSpeakerLabel()
			if speaker == "" {
				speaker = unknownSpeakerID
			}
			start := w.GetStartOffset().AsDuration().Milliseconds()
			stop := w.GetEndOffset().AsDuration().Milliseconds()
			if current != nil && current.SpeakerID == speaker {
				current.Text += " " + w.GetWord()
				current.StopTS = stop
				continue
			}
			if current != nil {
				segments = append(segments, *current)
			}
			current = &transcript.Segment{
				SpeakerID: speaker,
				Kind:      transcript.KindSpeech,
				Text:      w.GetWord(),
				StartTS:   start,
				StopTS:    stop,
			}
		}
		segments = append(segments, *current)
		previousEnd = r.GetResultEndOffset().AsDuration()
	}
	return segments
}
