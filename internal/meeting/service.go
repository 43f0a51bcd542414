// Package meeting implements the backend operations behind the HTTP API:
// employee lookup, meetings, chat and transcripts.
package meeting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/foxseedlab/sirius/internal/chat"
	"github.com/foxseedlab/sirius/internal/config"
	"github.com/foxseedlab/sirius/internal/metrics"
	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/foxseedlab/sirius/internal/transcriber"
	"github.com/foxseedlab/sirius/internal/videocall"
	"github.com/foxseedlab/sirius/internal/webhook"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("upstream unavailable")
)

type Service struct {
	cfg         *config.Config
	repo        repository.Repository
	video       videocall.Client
	transcriber transcriber.Transcriber
	audio       transcriber.AudioStore
	chat        chat.Broker
	webhook     webhook.Sender
	metrics     *metrics.Metrics
	now         func() time.Time

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
	mu       sync.Mutex
	awaiting map[string]struct{}
}

func NewService(cfg *config.Config, repo repository.Repository, video videocall.Client, stt transcriber.Transcriber, audio transcriber.AudioStore, broker chat.Broker, wh webhook.Sender, m *metrics.Metrics) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:         cfg,
		repo:        repo,
		video:       video,
		transcriber: stt,
		audio:       audio,
		chat:        broker,
		webhook:     wh,
		metrics:     m,
		now:         time.Now,
		bgCtx:       ctx,
		bgCancel:    cancel,
		awaiting:    make(map[string]struct{}),
	}
}

// Shutdown cancels background transcript pollers and waits for them.
func (s *Service) Shutdown() error {
	s.bgCancel()
	s.bgWG.Wait()
	return nil
}
