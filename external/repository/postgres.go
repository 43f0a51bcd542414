package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	employeeColumns = `id, cedula, first_name, last_name, department,
		COALESCE(email, ''), COALESCE(phone, ''), COALESCE(avatar_url, ''), is_active, created_at, updated_at`
	meetingColumns = `id, title, description, room_id, meeting_type, status::text,
		COALESCE(host_cedula, ''), scheduled_at, duration_minutes, created_at, updated_at`
	transcriptionColumns = `id, meeting_id, COALESCE(stream_filename, ''), COALESCE(transcript_text, ''),
		COALESCE(transcript_jsonl, ''), status::text, COALESCE(audio_url, ''), language_code,
		COALESCE(provider_job_id, ''), confidence, audio_duration, word_count, created_at, updated_at, processed_at`
	chatMessageColumns = `id, meeting_id, room_id, COALESCE(sender_cedula, ''), sender_name, sender_type,
		message_text, message_type, reply_to_id, metadata, is_edited, edited_at, created_at, updated_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) VerifyEmployee(ctx context.Context, cedula string) (*repository.Employee, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE cedula = $1 AND is_active LIMIT 1`,
		cedula)
	e, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *PostgresRepository) ListEmployeesForInvite(ctx context.Context, excludeCedula string) ([]repository.Employee, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees
		 WHERE is_active AND ($1 = '' OR cedula <> $1)
		 ORDER BY first_name, last_name`,
		excludeCedula)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]repository.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) CreateMeeting(ctx context.Context, input repository.CreateMeetingInput) (*repository.Meeting, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx,
		`INSERT INTO meetings (title, description, room_id, meeting_type, host_cedula, scheduled_at, duration_minutes, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'scheduled')
		 RETURNING `+meetingColumns,
		input.Title, input.Description, input.RoomID, input.MeetingType, nullString(input.HostCedula),
		input.ScheduledAt, input.DurationMinutes)
	m, err := scanMeeting(row)
	if err != nil {
		return nil, fmt.Errorf("insert meeting: %w", err)
	}

	for _, cedula := range input.ParticipantCedulas {
		if _, err := tx.Exec(ctx,
			`INSERT INTO meeting_participants (meeting_id, participant_cedula, participant_type, is_invited)
			 VALUES ($1, $2, $3, TRUE)`,
			m.ID, cedula, string(repository.ParticipantTypeInternal)); err != nil {
			return nil, fmt.Errorf("insert participant %s: %w", cedula, err)
		}
	}
	for _, p := range input.ExternalParticipants {
		if _, err := tx.Exec(ctx,
			`INSERT INTO meeting_participants (meeting_id, participant_name, participant_email, participant_type, is_invited)
			 VALUES ($1, $2, $3, $4, TRUE)`,
			m.ID, p.Name, p.Email, string(repository.ParticipantTypeExternal)); err != nil {
			return nil, fmt.Errorf("insert external participant %s: %w", p.Email, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresRepository) GetMeetingByID(ctx context.Context, meetingID string) (*repository.Meeting, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, meetingID)
	m, err := scanMeeting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *PostgresRepository) GetMeetingByRoomID(ctx context.Context, roomID string) (*repository.Meeting, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE room_id = $1`, roomID)
	m, err := scanMeeting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *PostgresRepository) ListMeetingsForEmployee(ctx context.Context, cedula string) ([]repository.Meeting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+meetingColumns+` FROM meetings m
		 WHERE m.host_cedula = $1
		    OR EXISTS (SELECT 1 FROM meeting_participants p WHERE p.meeting_id = m.id AND p.participant_cedula = $1)
		 ORDER BY m.scheduled_at DESC`,
		cedula)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]repository.Meeting, 0)
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) UpdateMeetingStatus(ctx context.Context, meetingID string, status repository.MeetingStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE meetings SET status = $2::text::meeting_status, updated_at = NOW() WHERE id = $1`,
		meetingID, string(status))
	return err
}

func (r *PostgresRepository) CreateTranscription(ctx context.Context, input repository.CreateTranscriptionInput) (*repository.Transcription, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO meeting_transcriptions (meeting_id, audio_url, stream_filename, language_code, status)
		 VALUES ($1, $2, $3, $4, 'processing')
		 RETURNING `+transcriptionColumns,
		input.MeetingID, nullString(input.AudioURL), nullString(input.StreamFilename), input.LanguageCode)
	return scanTranscription(row)
}

func (r *PostgresRepository) GetTranscription(ctx context.Context, transcriptionID string) (*repository.Transcription, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transcriptionColumns+` FROM meeting_transcriptions WHERE id = $1`, transcriptionID)
	t, err := scanTranscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *PostgresRepository) GetTranscriptionByJobID(ctx context.Context, jobID string) (*repository.Transcription, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transcriptionColumns+` FROM meeting_transcriptions WHERE provider_job_id = $1`, jobID)
	t, err := scanTranscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *PostgresRepository) GetLatestTranscriptionByMeeting(ctx context.Context, meetingID string) (*repository.Transcription, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transcriptionColumns+` FROM meeting_transcriptions
		 WHERE meeting_id = $1 ORDER BY created_at DESC LIMIT 1`,
		meetingID)
	t, err := scanTranscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *PostgresRepository) SetTranscriptionJob(ctx context.Context, transcriptionID, jobID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE meeting_transcriptions SET provider_job_id = $2, updated_at = NOW() WHERE id = $1`,
		transcriptionID, jobID)
	return err
}

func (r *PostgresRepository) CompleteTranscription(ctx context.Context, input repository.CompleteTranscriptionInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE meeting_transcriptions
		 SET status = 'completed', transcript_text = $2, transcript_jsonl = $3, confidence = $4,
		     audio_duration = $5, word_count = $6, processed_at = $7, updated_at = NOW()
		 WHERE id = $1`,
		input.TranscriptionID, input.TranscriptText, input.TranscriptJSONL, input.Confidence,
		input.AudioDurationSec, input.WordCount, input.ProcessedAt)
	return err
}

func (r *PostgresRepository) MarkTranscriptionFailed(ctx context.Context, transcriptionID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE meeting_transcriptions SET status = 'failed', updated_at = NOW() WHERE id = $1`,
		transcriptionID)
	return err
}

func (r *PostgresRepository) ListChatMessages(ctx context.Context, roomID string, limit, offset int) ([]repository.ChatMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+chatMessageColumns+` FROM (
			SELECT * FROM chat_messages WHERE room_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
		 ) recent ORDER BY created_at ASC`,
		roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]repository.ChatMessage, 0)
	for rows.Next() {
		msg, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *msg)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) InsertChatMessage(ctx context.Context, input repository.InsertChatMessageInput) (*repository.ChatMessage, error) {
	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO chat_messages (meeting_id, room_id, sender_cedula, sender_name, sender_type, message_text, message_type, reply_to_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+chatMessageColumns,
		input.MeetingID, input.RoomID, nullString(input.SenderCedula), input.SenderName, string(input.SenderType),
		input.MessageText, input.MessageType, input.ReplyToID, metadata)
	return scanChatMessage(row)
}

func (r *PostgresRepository) UpdateChatMessage(ctx context.Context, input repository.UpdateChatMessageInput) (*repository.ChatMessage, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE chat_messages
		 SET message_text = $4, is_edited = TRUE, edited_at = $5, updated_at = NOW()
		 WHERE id = $1 AND room_id = $2 AND sender_cedula = $3
		 RETURNING `+chatMessageColumns,
		input.MessageID, input.RoomID, input.SenderCedula, input.MessageText, input.EditedAt)
	msg, err := scanChatMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return msg, err
}

func (r *PostgresRepository) DeleteChatMessage(ctx context.Context, roomID, messageID, senderCedula string) (*repository.ChatMessage, error) {
	row := r.pool.QueryRow(ctx,
		`DELETE FROM chat_messages WHERE id = $1 AND room_id = $2 AND sender_cedula = $3
		 RETURNING `+chatMessageColumns,
		messageID, roomID, senderCedula)
	msg, err := scanChatMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return msg, err
}

func scanEmployee(row rowScanner) (*repository.Employee, error) {
	var e repository.Employee
	err := row.Scan(&e.ID, &e.Cedula, &e.FirstName, &e.LastName, &e.Department,
		&e.Email, &e.Phone, &e.AvatarURL, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanMeeting(row rowScanner) (*repository.Meeting, error) {
	var m repository.Meeting
	var status string
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.RoomID, &m.MeetingType, &status,
		&m.HostCedula, &m.ScheduledAt, &m.DurationMinutes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Status = repository.MeetingStatus(status)
	return &m, nil
}

func scanTranscription(row rowScanner) (*repository.Transcription, error) {
	var t repository.Transcription
	var status string
	var processedAt *time.Time
	err := row.Scan(&t.ID, &t.MeetingID, &t.StreamFilename, &t.TranscriptText, &t.TranscriptJSONL,
		&status, &t.AudioURL, &t.LanguageCode, &t.ProviderJobID, &t.Confidence, &t.AudioDurationSec,
		&t.WordCount, &t.CreatedAt, &t.UpdatedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	t.Status = repository.TranscriptionStatus(status)
	t.ProcessedAt = processedAt
	return &t, nil
}

func scanChatMessage(row rowScanner) (*repository.ChatMessage, error) {
	var msg repository.ChatMessage
	var senderType string
	err := row.Scan(&msg.ID, &msg.MeetingID, &msg.RoomID, &msg.SenderCedula, &msg.SenderName, &senderType,
		&msg.MessageText, &msg.MessageType, &msg.ReplyToID, &msg.Metadata, &msg.IsEdited, &msg.EditedAt,
		&msg.CreatedAt, &msg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	msg.SenderType = repository.ParticipantType(senderType)
	return &msg, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
