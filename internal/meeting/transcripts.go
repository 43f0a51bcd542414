package meeting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/foxseedlab/sirius/internal/transcriber"
	"github.com/foxseedlab/sirius/internal/transcript"
	"github.com/foxseedlab/sirius/internal/webhook"
)

const (
	sourceCall   = "call"
	sourceSpeech = "speech"
)

// TranscriptView is a stored transcript with its derived structure.
type TranscriptView struct {
	Transcription *repository.Transcription `json:"transcription"`
	Segments      []transcript.Segment      `json:"segments"`
	Groups        []transcript.SpeakerGroup `json:"groups"`
	Speakers      []string                  `json:"speakers"`
	Summary       string                    `json:"summary"`
	TotalDuration int64                     `json:"total_duration_ms"`
	WordCount     int                       `json:"word_count"`
}

// StartTranscription submits a recorded audio file for batch recognition.
func (s *Service) StartTranscription(ctx context.Context, meetingID, audioURL string) (*repository.Transcription, error) {
	if strings.TrimSpace(meetingID) == "" || strings.TrimSpace(audioURL) == "" {
		return nil, fmt.Errorf("%w: meeting id and audio url are required", ErrInvalidInput)
	}
	if _, err := s.getMeeting(ctx, meetingID); err != nil {
		return nil, err
	}

	tr, err := s.repo.CreateTranscription(ctx, repository.CreateTranscriptionInput{
		MeetingID:    meetingID,
		AudioURL:     audioURL,
		LanguageCode: s.cfg.DefaultTranscribeLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("create transcription: %w", err)
	}

	jobID, err := s.transcriber.Submit(ctx, audioURL, s.cfg.DefaultTranscribeLanguage)
	if err != nil {
		s.markFailed(ctx, tr.ID)
		if errors.Is(err, transcriber.ErrUnsupportedAudioURI) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: submit transcription: %w", ErrUnavailable, err)
	}
	if err := s.repo.SetTranscriptionJob(ctx, tr.ID, jobID); err != nil {
		s.markFailed(ctx, tr.ID)
		return nil, fmt.Errorf("store transcription job %s: %w", jobID, err)
	}
	tr.ProviderJobID = jobID
	slog.Info("transcription submitted", "meeting_id", meetingID, "transcription_id", tr.ID, "job_id", jobID)
	return tr, nil
}

// UploadAudio stores a recording and returns the URI to pass to
// StartTranscription.
func (s *Service) UploadAudio(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: audio file is required", ErrInvalidInput)
	}
	uri, err := s.audio.Upload(ctx, filename, contentType, r)
	if err != nil {
		return "", fmt.Errorf("%w: upload audio: %w", ErrUnavailable, err)
	}
	slog.Info("audio ready for transcription", "filename", filename, "audio_uri", uri)
	return uri, nil
}

// TranscriptionStatus looks a transcription up by id or provider job id and,
// while it is still processing, polls the provider once.
func (s *Service) TranscriptionStatus(ctx context.Context, transcriptionID, jobID string) (*repository.Transcription, error) {
	var (
		tr  *repository.Transcription
		err error
	)
	switch {
	case transcriptionID != "":
		tr, err = s.repo.GetTranscription(ctx, transcriptionID)
	case jobID != "":
		tr, err = s.repo.GetTranscriptionByJobID(ctx, jobID)
	default:
		return nil, fmt.Errorf("%w: transcriptionId or jobId is required", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("get transcription: %w", err)
	}
	if tr == nil {
		return nil, fmt.Errorf("%w: transcription", ErrNotFound)
	}
	if tr.Status != repository.TranscriptionStatusProcessing || tr.ProviderJobID == "" {
		return tr, nil
	}

	res, err := s.transcriber.Poll(ctx, tr.ProviderJobID)
	if err != nil {
		slog.Warn("failed to poll transcription job", "error", err, "transcription_id", tr.ID, "job_id", tr.ProviderJobID)
		return tr, nil
	}
	switch {
	case !res.Done:
		return tr, nil
	case res.Failed:
		slog.Warn("transcription job failed", "transcription_id", tr.ID, "job_id", tr.ProviderJobID, "reason", res.FailureReason)
		s.markFailed(ctx, tr.ID)
	default:
		jsonl, err := transcript.EncodeJSONL(res.Segments)
		if err != nil {
			return nil, fmt.Errorf("encode recognized segments: %w", err)
		}
		durationSec := res.AudioDuration.Seconds()
		if err := s.completeTranscription(ctx, tr, string(jsonl), sourceSpeech, res.Confidence, &durationSec); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.GetTranscription(ctx, tr.ID)
	if err != nil {
		return nil, fmt.Errorf("reload transcription: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: transcription", ErrNotFound)
	}
	return updated, nil
}

func (s *Service) LatestTranscription(ctx context.Context, meetingID string) (*repository.Transcription, error) {
	if strings.TrimSpace(meetingID) == "" {
		return nil, fmt.Errorf("%w: meeting id is required", ErrInvalidInput)
	}
	tr, err := s.repo.GetLatestTranscriptionByMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("get latest transcription: %w", err)
	}
	if tr == nil {
		return nil, fmt.Errorf("%w: transcription for meeting %s", ErrNotFound, meetingID)
	}
	return tr, nil
}

// TranscriptView returns the latest transcription of a meeting with its
// segments, speaker groups and summary. A meeting without a transcription
// yields a view whose Transcription is nil.
func (s *Service) TranscriptView(ctx context.Context, meetingID string) (*TranscriptView, error) {
	tr, err := s.LatestTranscription(ctx, meetingID)
	if errors.Is(err, ErrNotFound) {
		return s.buildView(nil, transcript.Parse("")), nil
	}
	if err != nil {
		return nil, err
	}
	return s.buildView(tr, transcript.Parse(tr.TranscriptJSONL)), nil
}

func (s *Service) buildView(tr *repository.Transcription, parsed transcript.Parsed) *TranscriptView {
	view := &TranscriptView{
		Transcription: tr,
		Segments:      parsed.Segments,
		Groups:        transcript.GroupWithGap(parsed.Segments, s.cfg.TranscriptMergeGapMS),
		Speakers:      parsed.Speakers,
		TotalDuration: parsed.TotalDuration,
		WordCount:     parsed.WordCount,
	}
	if tr != nil {
		view.Summary = transcript.Summarize(parsed)
	}
	return view
}

// completeTranscription runs the JSONL content through the transcript
// pipeline, stores the result and notifies the webhook.
func (s *Service) completeTranscription(ctx context.Context, tr *repository.Transcription, jsonl, source string, confidence, durationSec *float64) error {
	parsed := transcript.Parse(jsonl)
	s.metrics.TranscriptsParsed.WithLabelValues(source).Inc()
	if parsed.SkippedLines > 0 {
		s.metrics.TranscriptLineSkipped.Add(float64(parsed.SkippedLines))
		slog.Warn("transcript contained undecodable lines", "transcription_id", tr.ID, "skipped_lines", parsed.SkippedLines)
	}
	groups := transcript.GroupWithGap(parsed.Segments, s.cfg.TranscriptMergeGapMS)
	text := transcript.RenderGroups(groups)
	if durationSec == nil {
		d := float64(parsed.TotalDuration) / 1000
		durationSec = &d
	}

	if err := s.repo.CompleteTranscription(ctx, repository.CompleteTranscriptionInput{
		TranscriptionID:  tr.ID,
		TranscriptText:   text,
		TranscriptJSONL:  jsonl,
		Confidence:       confidence,
		AudioDurationSec: durationSec,
		WordCount:        parsed.WordCount,
		ProcessedAt:      s.now(),
	}); err != nil {
		return fmt.Errorf("complete transcription: %w", err)
	}
	slog.Info("transcription completed",
		"transcription_id", tr.ID,
		"meeting_id", tr.MeetingID,
		"source", source,
		"segments", len(parsed.Segments),
		"groups", len(groups),
		"speakers", len(parsed.Speakers),
		"word_count", parsed.WordCount)

	s.notifyWebhook(ctx, tr, parsed, groups, text)
	return nil
}

func (s *Service) notifyWebhook(ctx context.Context, tr *repository.Transcription, parsed transcript.Parsed, groups []transcript.SpeakerGroup, text string) {
	payload := webhook.TranscriptWebhookPayload{
		SchemaVersion:   webhook.PayloadSchemaVersion,
		MeetingID:       tr.MeetingID,
		TranscriptionID: tr.ID,
		Summary:         transcript.Summarize(parsed),
		Speakers:        parsed.Speakers,
		DurationMS:      parsed.TotalDuration,
		WordCount:       parsed.WordCount,
		Groups:          groups,
		Text:            text,
	}
	m, err := s.repo.GetMeetingByID(ctx, tr.MeetingID)
	if err != nil {
		slog.Warn("failed to load meeting for webhook", "error", err, "meeting_id", tr.MeetingID)
	}
	if m != nil {
		payload.Title = m.Title
		payload.RoomID = m.RoomID
	}
	if err := s.webhook.SendTranscript(ctx, payload); err != nil {
		slog.Error("failed to send webhook transcript", "error", err, "transcription_id", tr.ID, "meeting_id", tr.MeetingID)
	}
}

func (s *Service) markFailed(ctx context.Context, transcriptionID string) {
	if err := s.repo.MarkTranscriptionFailed(ctx, transcriptionID); err != nil {
		slog.Error("failed to mark transcription failed", "error", err, "transcription_id", transcriptionID)
	}
}
