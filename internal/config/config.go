package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	RedisURL                   string
	StreamAPIKey               string
	StreamSecretKey            string
	StreamAPIBaseURL           string
	StreamCallType             string
	StreamEmployeeTokenTTL     time.Duration
	StreamGuestTokenTTL        time.Duration
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	GoogleCloudAudioBucket     string
	DefaultTranscribeLanguage  string
	TranscriptMergeGapMS       int64
	TranscriptPollInterval     time.Duration
	TranscriptPollTimeout      time.Duration
	TranscriptWebhookURL       string
	ChatHistoryLimit           int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.TranscriptMergeGapMS <= 0 {
		return fmt.Errorf("TRANSCRIPT_MERGE_GAP_MS must be positive, got %d", c.TranscriptMergeGapMS)
	}
	for _, d := range c.positiveDurationChecks() {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}
	if c.ChatHistoryLimit <= 0 {
		return fmt.Errorf("CHAT_HISTORY_LIMIT must be positive, got %d", c.ChatHistoryLimit)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "HTTP_ADDR", value: c.HTTPAddr},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "REDIS_URL", value: c.RedisURL},
		{name: "STREAM_API_KEY", value: c.StreamAPIKey},
		{name: "STREAM_SECRET_KEY", value: c.StreamSecretKey},
		{name: "STREAM_API_BASE_URL", value: c.StreamAPIBaseURL},
		{name: "STREAM_CALL_TYPE", value: c.StreamCallType},
		{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
		{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
		{name: "GOOGLE_CLOUD_AUDIO_BUCKET", value: c.GoogleCloudAudioBucket},
		{name: "DEFAULT_TRANSCRIBE_LANGUAGE", value: c.DefaultTranscribeLanguage},
	}
}

type durationEnvField struct {
	name  string
	value time.Duration
}

func (c *Config) positiveDurationChecks() []durationEnvField {
	return []durationEnvField{
		{name: "STREAM_EMPLOYEE_TOKEN_TTL", value: c.StreamEmployeeTokenTTL},
		{name: "STREAM_GUEST_TOKEN_TTL", value: c.StreamGuestTokenTTL},
		{name: "TRANSCRIPT_POLL_INTERVAL", value: c.TranscriptPollInterval},
		{name: "TRANSCRIPT_POLL_TIMEOUT", value: c.TranscriptPollTimeout},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
