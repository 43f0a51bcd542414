package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE meeting_status AS ENUM ('scheduled', 'active', 'completed', 'cancelled'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN CREATE TYPE transcription_status AS ENUM ('processing', 'completed', 'failed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS employees (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		cedula TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		department TEXT NOT NULL DEFAULT '',
		email TEXT,
		phone TEXT,
		avatar_url TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS meetings (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		room_id TEXT NOT NULL UNIQUE,
		meeting_type TEXT NOT NULL DEFAULT 'video',
		status meeting_status NOT NULL DEFAULT 'scheduled',
		host_cedula TEXT,
		scheduled_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		duration_minutes INTEGER NOT NULL DEFAULT 60,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS meeting_participants (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		meeting_id UUID NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		participant_cedula TEXT,
		participant_name TEXT,
		participant_email TEXT,
		participant_type TEXT NOT NULL,
		is_invited BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meeting_participants_cedula ON meeting_participants (participant_cedula)`,
	`CREATE TABLE IF NOT EXISTS meeting_transcriptions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		meeting_id UUID NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		stream_filename TEXT,
		transcript_text TEXT,
		transcript_jsonl TEXT,
		status transcription_status NOT NULL DEFAULT 'processing',
		audio_url TEXT,
		language_code TEXT NOT NULL,
		provider_job_id TEXT,
		confidence DOUBLE PRECISION,
		audio_duration DOUBLE PRECISION,
		word_count INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meeting_transcriptions_meeting ON meeting_transcriptions (meeting_id, created_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_meeting_transcriptions_job ON meeting_transcriptions (provider_job_id) WHERE provider_job_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		meeting_id UUID REFERENCES meetings(id) ON DELETE SET NULL,
		room_id TEXT NOT NULL,
		sender_cedula TEXT,
		sender_name TEXT NOT NULL,
		sender_type TEXT NOT NULL DEFAULT 'internal',
		message_text TEXT NOT NULL,
		message_type TEXT NOT NULL DEFAULT 'text',
		reply_to_id UUID,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
		is_edited BOOLEAN NOT NULL DEFAULT FALSE,
		edited_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages (room_id, created_at)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
