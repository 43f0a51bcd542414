package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/sirius/internal/config"
)

type envConfig struct {
	Env                        string        `env:"ENV" envDefault:"production"`
	HTTPAddr                   string        `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL                string        `env:"DATABASE_URL,required"`
	RedisURL                   string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	StreamAPIKey               string        `env:"STREAM_API_KEY,required"`
	StreamSecretKey            string        `env:"STREAM_SECRET_KEY,required"`
	StreamAPIBaseURL           string        `env:"STREAM_API_BASE_URL" envDefault:"https://video.stream-io-api.com"`
	StreamCallType             string        `env:"STREAM_CALL_TYPE" envDefault:"default"`
	StreamEmployeeTokenTTL     time.Duration `env:"STREAM_EMPLOYEE_TOKEN_TTL" envDefault:"8h"`
	StreamGuestTokenTTL        time.Duration `env:"STREAM_GUEST_TOKEN_TTL" envDefault:"2h"`
	GoogleCloudProjectID       string        `env:"GOOGLE_CLOUD_PROJECT_ID,required"`
	GoogleCloudCredentialsJSON string        `env:"GOOGLE_CLOUD_CREDENTIALS_JSON,required"`
	GoogleCloudSpeechLocation  string        `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string        `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`
	GoogleCloudAudioBucket     string        `env:"GOOGLE_CLOUD_AUDIO_BUCKET,required"`
	DefaultTranscribeLanguage  string        `env:"DEFAULT_TRANSCRIBE_LANGUAGE" envDefault:"es-ES"`
	TranscriptMergeGapMS       int64         `env:"TRANSCRIPT_MERGE_GAP_MS" envDefault:"5000"`
	TranscriptPollInterval     time.Duration `env:"TRANSCRIPT_POLL_INTERVAL" envDefault:"10s"`
	TranscriptPollTimeout      time.Duration `env:"TRANSCRIPT_POLL_TIMEOUT" envDefault:"10m"`
	TranscriptWebhookURL       string        `env:"TRANSCRIPT_WEBHOOK_URL"`
	ChatHistoryLimit           int           `env:"CHAT_HISTORY_LIMIT" envDefault:"50"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		HTTPAddr:                   raw.HTTPAddr,
		DatabaseURL:                raw.DatabaseURL,
		RedisURL:                   raw.RedisURL,
		StreamAPIKey:               raw.StreamAPIKey,
		StreamSecretKey:            raw.StreamSecretKey,
		StreamAPIBaseURL:           raw.StreamAPIBaseURL,
		StreamCallType:             raw.StreamCallType,
		StreamEmployeeTokenTTL:     raw.StreamEmployeeTokenTTL,
		StreamGuestTokenTTL:        raw.StreamGuestTokenTTL,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		GoogleCloudAudioBucket:     raw.GoogleCloudAudioBucket,
		DefaultTranscribeLanguage:  raw.DefaultTranscribeLanguage,
		TranscriptMergeGapMS:       raw.TranscriptMergeGapMS,
		TranscriptPollInterval:     raw.TranscriptPollInterval,
		TranscriptPollTimeout:      raw.TranscriptPollTimeout,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
		ChatHistoryLimit:           raw.ChatHistoryLimit,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
