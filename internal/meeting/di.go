package meeting

import (
	"github.com/foxseedlab/sirius/internal/chat"
	"github.com/foxseedlab/sirius/internal/config"
	"github.com/foxseedlab/sirius/internal/metrics"
	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/foxseedlab/sirius/internal/transcriber"
	"github.com/foxseedlab/sirius/internal/videocall"
	"github.com/foxseedlab/sirius/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		video := do.MustInvoke[videocall.Client](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		audio := do.MustInvoke[transcriber.AudioStore](i)
		broker := do.MustInvoke[chat.Broker](i)
		wh := do.MustInvoke[webhook.Sender](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return NewService(cfg, repo, video, stt, audio, broker, wh, m), nil
	})
}
