package transcriber

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/foxseedlab/sirius/internal/transcriber"
	"github.com/google/uuid"
)

const (
	audioObjectPrefix   = "audio"
	defaultAudioName    = "audio"
	maxAudioNameLength  = 80
	defaultAudioContent = "application/octet-stream"
)

var unsafeObjectChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type GCSAudioStoreConfig struct {
	Bucket          string
	CredentialsJSON string
}

// GCSAudioStore uploads recordings to a Cloud Storage bucket so batch
// recognition can read them as gs:// objects.
type GCSAudioStore struct {
	bucket          string
	credentialsJSON string
	now             func() time.Time
	newID           func() string
}

func NewGCSAudioStore(cfg GCSAudioStoreConfig) transcriber.AudioStore {
	return &GCSAudioStore{
		bucket:          strings.TrimSpace(cfg.Bucket),
		credentialsJSON: cfg.CredentialsJSON,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

func (s *GCSAudioStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	opts, err := credentialOptions(s.credentialsJSON)
	if err != nil {
		return "", err
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer func() {
		_ = client.Close()
	}()

	name := s.objectName(filename)
	w := client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if w.ContentType == "" {
		w.ContentType = defaultAudioContent
	}
	written, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write audio object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize audio object %s: %w", name, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", s.bucket, name)
	slog.Info("audio uploaded", "audio_uri", uri, "bytes", written, "content_type", w.ContentType)
	return uri, nil
}

// objectName is audio/YYYY/MM/DD/<uuid>-<sanitized name>.
func (s *GCSAudioStore) objectName(filename string) string {
	base := unsafeObjectChars.ReplaceAllString(path.Base(strings.ReplaceAll(filename, `\`, "/")), "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = defaultAudioName
	}
	if len(base) > maxAudioNameLength {
		base = base[len(base)-maxAudioNameLength:]
	}
	return path.Join(audioObjectPrefix, s.now().UTC().Format("2006/01/02"), s.newID()+"-"+base)
}
