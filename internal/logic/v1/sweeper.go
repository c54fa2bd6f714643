package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const sweepBatchSize = 100

// ExpirySweeper periodically reconciles sessions whose deadline passed
// without any reader noticing. It is optional: lazy expiry on read keeps
// working without it, the sweeper only makes class flags converge sooner.
type ExpirySweeper struct {
	manager  *SessionManager
	interval time.Duration
}

func NewExpirySweeper(manager *SessionManager, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{manager: manager, interval: interval}
}

// Run sweeps every interval until ctx is cancelled.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				log.Warn().Err(err).Int("expired", n).Msg("Expiry sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("expired", n).Msg("Expiry sweep reconciled sessions")
			}
		}
	}
}

// SweepOnce reconciles one batch of overdue sessions and returns how many
// were handled.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (int, error) {
	overdue, err := s.manager.sessions.ListOverdue(ctx, s.manager.now(), sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list overdue sessions: %w: %w", ErrUnavailable, err)
	}

	for i := range overdue {
		if err := s.manager.reconcile(ctx, &overdue[i], "sweep"); err != nil {
			return i, err
		}
	}
	return len(overdue), nil
}
