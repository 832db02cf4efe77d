package harness

import (
	"context"

	"github.com/otterscale/expirymap/internal/core"
)

// shutdownListener adapts a map that owns a reaper to the
// transport.Listener interface so that the reaper is stopped together
// with the rest of the run.
type shutdownListener struct {
	target core.Shutdowner
}

func (l *shutdownListener) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (l *shutdownListener) Stop(_ context.Context) error {
	l.target.Shutdown()
	return nil
}
