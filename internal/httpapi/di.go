package httpapi

import (
	"github.com/foxseedlab/sirius/internal/meeting"
	"github.com/foxseedlab/sirius/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		svc := do.MustInvoke[*meeting.Service](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		reg := do.MustInvoke[*prometheus.Registry](i)
		return NewServer(svc, m, reg), nil
	})
}
