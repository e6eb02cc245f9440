package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/t2m/license-platform/internal/core/ports"
)

// SessionSweeper periodically prunes refresh tokens that no longer verify
// (expired JWTs left behind by abandoned devices). Best-effort: a failed
// sweep is logged and retried on the next tick, request paths never wait
// on it.
type SessionSweeper struct {
	sessions ports.SessionStore
	tokens   *TokenIssuer
	interval time.Duration
	log      zerolog.Logger
}

// NewSessionSweeper creates a sweeper. An interval <= 0 disables it:
// Start becomes a no-op.
func NewSessionSweeper(sessions ports.SessionStore, tokens *TokenIssuer, interval time.Duration, log zerolog.Logger) *SessionSweeper {
	return &SessionSweeper{sessions: sessions, tokens: tokens, interval: interval, log: log}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (s *SessionSweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info().Msg("session sweeper disabled")
		return
	}
	go s.run(ctx)
}

func (s *SessionSweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single pruning pass.
func (s *SessionSweeper) Sweep(ctx context.Context) {
	start := time.Now()
	if err := s.sessions.PruneExpired(ctx, s.tokens.RefreshAlive); err != nil {
		s.log.Warn().Err(err).Msg("session sweep failed")
		return
	}
	s.log.Debug().Dur("took", time.Since(start)).Msg("session sweep completed")
}
