package registrar

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/metrics"
	"github.com/luxfi/paractl/pkg/relay"
)

const (
	DefaultPollAttempts = 100
	DefaultPollInterval = 2 * time.Second
)

// Poller waits for a parachain to appear in the registered set.
type Poller struct {
	MaxAttempts int
	Interval    time.Duration
	Log         log.Logger
	Metrics     *metrics.Metrics

	// Sleep waits between queries; nil means a context aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a poller, substituting defaults for non-positive values.
func NewPoller(maxAttempts int, interval time.Duration, logger log.Logger, m *metrics.Metrics) *Poller {
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollAttempts
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{MaxAttempts: maxAttempts, Interval: interval, Log: logger, Metrics: m}
}

// WaitRegistered queries the registered parachain set once per interval until
// id is a member. It fails with core.ErrRegistrationTimeout after MaxAttempts
// unsuccessful queries. Query errors abort immediately.
func (p *Poller) WaitRegistered(ctx context.Context, ep *relay.Endpoint, id relay.ParaID) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	attempts := 0
	for {
		if err := sleep(ctx, p.Interval); err != nil {
			return err
		}

		p.Metrics.Poll()
		registered, err := IsRegistered(ctx, ep, id)
		if err != nil {
			return err
		}
		if registered {
			p.Log.Info("Parachain is registered", "paraID", id, "attempts", attempts+1)
			return nil
		}

		attempts++
		if attempts >= p.MaxAttempts {
			return fmt.Errorf("%w: parachain %s not registered after %d attempts", core.ErrRegistrationTimeout, id, attempts)
		}
		p.Log.Debug("Parachain not registered yet", "paraID", id, "attempt", attempts)
	}
}

// IsRegistered reports whether id is in the relay chain's registered set.
func IsRegistered(ctx context.Context, ep *relay.Endpoint, id relay.ParaID) (bool, error) {
	ids, err := ep.Client().Parachains(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to query registered parachains: %w", err)
	}
	for _, registered := range ids {
		if registered == id {
			return true, nil
		}
	}
	return false, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
