package meeting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/google/uuid"
)

const (
	defaultMeetingType     = "video"
	defaultDurationMinutes = 60
)

type CreateMeetingRequest struct {
	Title                string
	Description          string
	RoomID               string
	MeetingType          string
	HostCedula           string
	ScheduledAt          time.Time
	DurationMinutes      int
	ParticipantCedulas   []string
	ExternalParticipants []repository.ExternalParticipantInput
}

func (s *Service) VerifyEmployee(ctx context.Context, cedula string) (*repository.Employee, error) {
	cedula = strings.TrimSpace(cedula)
	if cedula == "" {
		return nil, fmt.Errorf("%w: cedula is required", ErrInvalidInput)
	}
	emp, err := s.repo.VerifyEmployee(ctx, cedula)
	if err != nil {
		return nil, fmt.Errorf("verify employee: %w", err)
	}
	if emp == nil {
		slog.Info("employee verification rejected", "cedula", cedula)
		return nil, fmt.Errorf("%w: employee", ErrNotFound)
	}
	return emp, nil
}

func (s *Service) ListInvitableEmployees(ctx context.Context, excludeCedula string) ([]repository.Employee, error) {
	employees, err := s.repo.ListEmployeesForInvite(ctx, strings.TrimSpace(excludeCedula))
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

// IssueCallToken signs a video SDK token for an employee or a guest.
func (s *Service) IssueCallToken(userID string, guest bool) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	token, err := s.video.CreateUserToken(userID, guest)
	if err != nil {
		return "", fmt.Errorf("create call token: %w", err)
	}
	return token, nil
}

func (s *Service) ListMeetings(ctx context.Context, cedula string) ([]repository.Meeting, error) {
	cedula = strings.TrimSpace(cedula)
	if cedula == "" {
		return nil, fmt.Errorf("%w: cedula is required", ErrInvalidInput)
	}
	meetings, err := s.repo.ListMeetingsForEmployee(ctx, cedula)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

func (s *Service) CreateMeeting(ctx context.Context, req CreateMeetingRequest) (*repository.Meeting, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if req.DurationMinutes < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}
	for _, ext := range req.ExternalParticipants {
		if strings.TrimSpace(ext.Name) == "" {
			return nil, fmt.Errorf("%w: external participant name is required", ErrInvalidInput)
		}
	}

	input := repository.CreateMeetingInput{
		Title:                title,
		Description:          req.Description,
		RoomID:               strings.TrimSpace(req.RoomID),
		MeetingType:          req.MeetingType,
		HostCedula:           req.HostCedula,
		ScheduledAt:          req.ScheduledAt,
		DurationMinutes:      req.DurationMinutes,
		ParticipantCedulas:   dedupeNonEmpty(req.ParticipantCedulas, req.HostCedula),
		ExternalParticipants: req.ExternalParticipants,
	}
	if input.RoomID == "" {
		input.RoomID = uuid.NewString()
	}
	if input.MeetingType == "" {
		input.MeetingType = defaultMeetingType
	}
	if input.ScheduledAt.IsZero() {
		input.ScheduledAt = s.now()
	}
	if input.DurationMinutes == 0 {
		input.DurationMinutes = defaultDurationMinutes
	}

	m, err := s.repo.CreateMeeting(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}
	slog.Info("meeting created", "meeting_id", m.ID, "room_id", m.RoomID, "participants", len(input.ParticipantCedulas)+len(input.ExternalParticipants))
	return m, nil
}

func (s *Service) GetMeetingByRoom(ctx context.Context, roomID string) (*repository.Meeting, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("%w: room id is required", ErrInvalidInput)
	}
	m, err := s.repo.GetMeetingByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get meeting by room: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: meeting for room %s", ErrNotFound, roomID)
	}
	return m, nil
}

func (s *Service) getMeeting(ctx context.Context, meetingID string) (*repository.Meeting, error) {
	if strings.TrimSpace(meetingID) == "" {
		return nil, fmt.Errorf("%w: meeting id is required", ErrInvalidInput)
	}
	m, err := s.repo.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: meeting %s", ErrNotFound, meetingID)
	}
	return m, nil
}

// dedupeNonEmpty drops blanks, repeats and the excluded value, keeping order.
func dedupeNonEmpty(values []string, exclude string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || v == exclude {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
