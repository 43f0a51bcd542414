package videocall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foxseedlab/sirius/internal/videocall"
	"github.com/golang-jwt/jwt/v5"
)

const (
	requestTimeout        = 30 * time.Second
	maxTranscriptBytes    = 32 << 20
	maxErrorBodyBytes     = 4 << 10
	streamAuthTypeHeader  = "stream-auth-type"
	streamAuthTypeJWT     = "jwt"
	streamVideoPathPrefix = "/video"
)

type StreamConfig struct {
	APIKey           string
	Secret           string
	BaseURL          string
	CallType         string
	EmployeeTokenTTL time.Duration
	GuestTokenTTL    time.Duration
}

// StreamClient talks to the video provider's server-side REST API.
type StreamClient struct {
	cfg    StreamConfig
	client *http.Client
	now    func() time.Time

	transcriptLimit int64
}

func NewStreamClient(cfg StreamConfig) *StreamClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &StreamClient{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
		now:    time.Now,

		transcriptLimit: maxTranscriptBytes,
	}
}

func (c *StreamClient) CreateUserToken(userID string, guest bool) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	ttl := c.cfg.EmployeeTokenTTL
	if guest {
		ttl = c.cfg.GuestTokenTTL
	}
	now := c.now()
	return c.sign(jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	})
}

func (c *StreamClient) StartTranscription(ctx context.Context, callID string) error {
	return c.do(ctx, http.MethodPost, c.callPath(callID, "start_transcription"), struct{}{}, nil)
}

func (c *StreamClient) StopTranscription(ctx context.Context, callID string) error {
	return c.do(ctx, http.MethodPost, c.callPath(callID, "stop_transcription"), struct{}{}, nil)
}

func (c *StreamClient) ListTranscriptions(ctx context.Context, callID string) ([]videocall.TranscriptionFile, error) {
	var out struct {
		Transcriptions []videocall.TranscriptionFile `json:"transcriptions"`
	}
	if err := c.do(ctx, http.MethodGet, c.callPath(callID, "transcriptions"), nil, &out); err != nil {
		return nil, err
	}
	return out.Transcriptions, nil
}

func (c *StreamClient) FetchTranscript(ctx context.Context, fileURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return "", fmt.Errorf("transcript download returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.transcriptLimit+1))
	if err != nil {
		return "", fmt.Errorf("read transcript body: %w", err)
	}
	if int64(len(body)) > c.transcriptLimit {
		return "", fmt.Errorf("transcript %s exceeds %d bytes", fileURL, c.transcriptLimit)
	}
	return string(body), nil
}

func (c *StreamClient) callPath(callID, action string) string {
	return fmt.Sprintf("/call/%s/%s/%s", url.PathEscape(c.cfg.CallType), url.PathEscape(callID), action)
}

func (c *StreamClient) do(ctx context.Context, method, path string, in, out any) error {
	token, err := c.sign(jwt.MapClaims{"server": true})
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	endpoint := c.cfg.BaseURL + streamVideoPathPrefix + path + "?api_key=" + url.QueryEscape(c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set(streamAuthTypeHeader, streamAuthTypeJWT)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		slog.Warn("video api request failed", "method", method, "path", path, "status", resp.StatusCode, "body", string(msg))
		return fmt.Errorf("video api %s %s returned status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode video api response: %w", err)
	}
	return nil
}

func (c *StreamClient) sign(claims jwt.MapClaims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
