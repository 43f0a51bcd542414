package videocall

import (
	"github.com/foxseedlab/sirius/internal/config"
	"github.com/foxseedlab/sirius/internal/videocall"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (videocall.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewStreamClient(StreamConfig{
			APIKey:           c.StreamAPIKey,
			Secret:           c.StreamSecretKey,
			BaseURL:          c.StreamAPIBaseURL,
			CallType:         c.StreamCallType,
			EmployeeTokenTTL: c.StreamEmployeeTokenTTL,
			GuestTokenTTL:    c.StreamGuestTokenTTL,
		}), nil
	})
}
