package repository

import "time"

type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusActive    MeetingStatus = "active"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

type TranscriptionStatus string

const (
	TranscriptionStatusProcessing TranscriptionStatus = "processing"
	TranscriptionStatusCompleted  TranscriptionStatus = "completed"
	TranscriptionStatusFailed     TranscriptionStatus = "failed"
)

type ParticipantType string

const (
	ParticipantTypeInternal ParticipantType = "internal"
	ParticipantTypeExternal ParticipantType = "external"
	ParticipantTypeSystem   ParticipantType = "system"
)

type Employee struct {
	ID         string    `json:"id"`
	Cedula     string    `json:"cedula"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Department string    `json:"department"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type Meeting struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	RoomID          string        `json:"room_id"`
	MeetingType     string        `json:"meeting_type"`
	Status          MeetingStatus `json:"status"`
	HostCedula      string        `json:"host_cedula,omitempty"`
	ScheduledAt     time.Time     `json:"scheduled_at"`
	DurationMinutes int           `json:"duration_minutes"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type MeetingParticipant struct {
	ID                string          `json:"id"`
	MeetingID         string          `json:"meeting_id"`
	ParticipantCedula string          `json:"participant_cedula,omitempty"`
	ParticipantName   string          `json:"participant_name,omitempty"`
	ParticipantEmail  string          `json:"participant_email,omitempty"`
	ParticipantType   ParticipantType `json:"participant_type"`
	IsInvited         bool            `json:"is_invited"`
	CreatedAt         time.Time       `json:"created_at"`
}

type Transcription struct {
	ID               string              `json:"id"`
	MeetingID        string              `json:"meeting_id"`
	StreamFilename   string              `json:"stream_filename,omitempty"`
	TranscriptText   string              `json:"transcript_text,omitempty"`
	TranscriptJSONL  string              `json:"-"`
	Status           TranscriptionStatus `json:"status"`
	AudioURL         string              `json:"audio_url,omitempty"`
	LanguageCode     string              `json:"language_code"`
	ProviderJobID    string              `json:"provider_job_id,omitempty"`
	Confidence       *float64            `json:"confidence,omitempty"`
	AudioDurationSec *float64            `json:"audio_duration,omitempty"`
	WordCount        *int                `json:"word_count,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	ProcessedAt      *time.Time          `json:"processed_at,omitempty"`
}

type ChatMessage struct {
	ID           string          `json:"id"`
	MeetingID    *string         `json:"meeting_id,omitempty"`
	RoomID       string          `json:"room_id"`
	SenderCedula string          `json:"sender_cedula,omitempty"`
	SenderName   string          `json:"sender_name"`
	SenderType   ParticipantType `json:"sender_type"`
	MessageText  string          `json:"message_text"`
	MessageType  string          `json:"message_type"`
	ReplyToID    *string         `json:"reply_to_id,omitempty"`
	Metadata     map[string]any  `json:"metadata"`
	IsEdited     bool            `json:"is_edited"`
	EditedAt     *time.Time      `json:"edited_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
