package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	do.ProvideValue(injector, reg)
	do.ProvideValue[prometheus.Registerer](injector, reg)
	do.Provide(injector, func(i do.Injector) (*Metrics, error) {
		return New(do.MustInvoke[prometheus.Registerer](i))
	})
}
