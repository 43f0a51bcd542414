package repository

import (
	"context"
	"time"
)

type ExternalParticipantInput struct {
	Name  string
	Email string
}

type CreateMeetingInput struct {
	Title                string
	Description          string
	RoomID               string
	MeetingType          string
	HostCedula           string
	ScheduledAt          time.Time
	DurationMinutes      int
	ParticipantCedulas   []string
	ExternalParticipants []ExternalParticipantInput
}

type CreateTranscriptionInput struct {
	MeetingID      string
	AudioURL       string
	StreamFilename string
	LanguageCode   string
}

type CompleteTranscriptionInput struct {
	TranscriptionID  string
	TranscriptText   string
	TranscriptJSONL  string
	Confidence       *float64
	AudioDurationSec *float64
	WordCount        int
	ProcessedAt      time.Time
}

type InsertChatMessageInput struct {
	RoomID       string
	MeetingID    *string
	SenderCedula string
	SenderName   string
	SenderType   ParticipantType
	MessageText  string
	MessageType  string
	ReplyToID    *string
	Metadata     map[string]any
}

type UpdateChatMessageInput struct {
	RoomID       string
	MessageID    string
	SenderCedula string
	MessageText  string
	EditedAt     time.Time
}

type EmployeeRepository interface {
	VerifyEmployee(ctx context.Context, cedula string) (*Employee, error)
	ListEmployeesForInvite(ctx context.Context, excludeCedula string) ([]Employee, error)
}

type MeetingRepository interface {
	CreateMeeting(ctx context.Context, input CreateMeetingInput) (*Meeting, error)
	GetMeetingByID(ctx context.Context, meetingID string) (*Meeting, error)
	GetMeetingByRoomID(ctx context.Context, roomID string) (*Meeting, error)
	ListMeetingsForEmployee(ctx context.Context, cedula string) ([]Meeting, error)
	UpdateMeetingStatus(ctx context.Context, meetingID string, status MeetingStatus) error
}

type TranscriptionRepository interface {
	CreateTranscription(ctx context.Context, input CreateTranscriptionInput) (*Transcription, error)
	GetTranscription(ctx context.Context, transcriptionID string) (*Transcription, error)
	GetTranscriptionByJobID(ctx context.Context, jobID string) (*Transcription, error)
	GetLatestTranscriptionByMeeting(ctx context.Context, meetingID string) (*Transcription, error)
	SetTranscriptionJob(ctx context.Context, transcriptionID, jobID string) error
	CompleteTranscription(ctx context.Context, input CompleteTranscriptionInput) error
	MarkTranscriptionFailed(ctx context.Context, transcriptionID string) error
}

type ChatRepository interface {
	ListChatMessages(ctx context.Context, roomID string, limit, offset int) ([]ChatMessage, error)
	InsertChatMessage(ctx context.Context, input InsertChatMessageInput) (*ChatMessage, error)
	UpdateChatMessage(ctx context.Context, input UpdateChatMessageInput) (*ChatMessage, error)
	DeleteChatMessage(ctx context.Context, roomID, messageID, senderCedula string) (*ChatMessage, error)
}

type Repository interface {
	EmployeeRepository
	MeetingRepository
	TranscriptionRepository
	ChatRepository
}
