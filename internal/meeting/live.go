package meeting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/foxseedlab/sirius/internal/videocall"
)

var errNoTranscriptFile = errors.New("call has no transcript file yet")

// StartLiveTranscription turns on the video SDK's transcription for the
// meeting's call and marks the meeting active.
func (s *Service) StartLiveTranscription(ctx context.Context, roomID string) (*repository.Meeting, error) {
	m, err := s.GetMeetingByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if m.Status == repository.MeetingStatusCancelled {
		return nil, fmt.Errorf("%w: meeting %s is cancelled", ErrForbidden, m.ID)
	}
	if err := s.video.StartTranscription(ctx, m.RoomID); err != nil {
		return nil, fmt.Errorf("%w: start call transcription: %w", ErrUnavailable, err)
	}
	if err := s.repo.UpdateMeetingStatus(ctx, m.ID, repository.MeetingStatusActive); err != nil {
		slog.Error("failed to mark meeting active", "error", err, "meeting_id", m.ID)
	} else {
		m.Status = repository.MeetingStatusActive
	}
	slog.Info("live transcription started", "meeting_id", m.ID, "room_id", m.RoomID)
	return m, nil
}

// StopLiveTranscription stops the call's transcription and starts a
// background poller that imports the transcript file once the SDK has
// written it.
func (s *Service) StopLiveTranscription(ctx context.Context, roomID string) (*repository.Meeting, error) {
	m, err := s.GetMeetingByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := s.video.StopTranscription(ctx, m.RoomID); err != nil {
		return nil, fmt.Errorf("%w: stop call transcription: %w", ErrUnavailable, err)
	}
	slog.Info("live transcription stopped", "meeting_id", m.ID, "room_id", m.RoomID)
	s.awaitInBackground(m.ID)
	return m, nil
}

// ImportCallTranscript imports the newest transcript file of the meeting's
// call. Importing the same file twice returns the stored transcription.
func (s *Service) ImportCallTranscript(ctx context.Context, meetingID string) (*repository.Transcription, error) {
	m, err := s.getMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	tr, err := s.importLatestFile(ctx, m)
	if errors.Is(err, errNoTranscriptFile) {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return tr, err
}

// AwaitCallTranscript polls the video SDK until the call's transcript file
// appears or the poll timeout expires, then imports it.
func (s *Service) AwaitCallTranscript(ctx context.Context, meetingID string) (*repository.Transcription, error) {
	m, err := s.getMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TranscriptPollTimeout)
	defer cancel()
	ticker := time.NewTicker(s.cfg.TranscriptPollInterval)
	defer ticker.Stop()

	attempt := 0
	for {
		attempt++
		tr, err := s.importLatestFile(ctx, m)
		switch {
		case err == nil:
			return tr, nil
		case errors.Is(err, errNoTranscriptFile):
			slog.Debug("call transcript not ready", "meeting_id", m.ID, "attempt", attempt)
		default:
			slog.Warn("call transcript import attempt failed", "error", err, "meeting_id", m.ID, "attempt", attempt)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: waiting for call transcript of meeting %s: %w", ErrUnavailable, m.ID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Service) awaitInBackground(meetingID string) {
	s.mu.Lock()
	if _, running := s.awaiting[meetingID]; running {
		s.mu.Unlock()
		slog.Info("call transcript poller already running", "meeting_id", meetingID)
		return
	}
	s.awaiting[meetingID] = struct{}{}
	s.bgWG.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.bgWG.Done()
		defer func() {
			s.mu.Lock()
			delete(s.awaiting, meetingID)
			s.mu.Unlock()
		}()
		if _, err := s.AwaitCallTranscript(s.bgCtx, meetingID); err != nil {
			slog.Error("call transcript was not imported", "error", err, "meeting_id", meetingID)
		}
	}()
}

func (s *Service) importLatestFile(ctx context.Context, m *repository.Meeting) (*repository.Transcription, error) {
	files, err := s.video.ListTranscriptions(ctx, m.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: list call transcriptions: %w", ErrUnavailable, err)
	}
	file, ok := videocall.Latest(files)
	if !ok {
		return nil, errNoTranscriptFile
	}

	existing, err := s.repo.GetLatestTranscriptionByMeeting(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("get latest transcription: %w", err)
	}
	if existing != nil && existing.StreamFilename == file.Filename && existing.Status == repository.TranscriptionStatusCompleted {
		slog.Info("call transcript already imported", "meeting_id", m.ID, "filename", file.Filename, "transcription_id", existing.ID)
		return existing, nil
	}

	content, err := s.video.FetchTranscript(ctx, file.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: download call transcript: %w", ErrUnavailable, err)
	}

	tr, err := s.repo.CreateTranscription(ctx, repository.CreateTranscriptionInput{
		MeetingID:      m.ID,
		StreamFilename: file.Filename,
		LanguageCode:   s.cfg.DefaultTranscribeLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("create transcription: %w", err)
	}
	if err := s.completeTranscription(ctx, tr, content, sourceCall, nil, nil); err != nil {
		s.markFailed(ctx, tr.ID)
		return nil, err
	}
	if err := s.repo.UpdateMeetingStatus(ctx, m.ID, repository.MeetingStatusCompleted); err != nil {
		slog.Error("failed to mark meeting completed", "error", err, "meeting_id", m.ID)
	}

	stored, err := s.repo.GetTranscription(ctx, tr.ID)
	if err != nil {
		return nil, fmt.Errorf("reload transcription: %w", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: transcription %s", ErrNotFound, tr.ID)
	}
	return stored, nil
}
