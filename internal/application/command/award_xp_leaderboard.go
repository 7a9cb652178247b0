package command

import (
	"context"

	"github.com/tradeya/tradeya-backend/internal/domain/gamification"
	"github.com/tradeya/tradeya-backend/pkg/circuitbreaker"
	"github.com/tradeya/tradeya-backend/pkg/logger"
	"github.com/tradeya/tradeya-backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD DECORATOR
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardUpdater pushes a fresh XP standing into the leaderboard cache.
type LeaderboardUpdater interface {
	UpdateUserXP(ctx context.Context, userID string, totalXP, level int) error
}

// AwardXPWithLeaderboard decorates an XPAwarder with best-effort side
// effects after a successful award: updating the cached leaderboard and
// recomputing the user's reputation. Side effect failures are logged and
// swallowed; the award result is returned unchanged. A circuit breaker
// keeps a down cache from slowing every award.
type AwardXPWithLeaderboard struct {
	inner       XPAwarder
	leaderboard LeaderboardUpdater
	repo        gamification.Repository
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
	log         *logger.Logger
}

// NewAwardXPWithLeaderboard creates the decorator.
func NewAwardXPWithLeaderboard(inner XPAwarder, leaderboard LeaderboardUpdater, repo gamification.Repository, log *logger.Logger) *AwardXPWithLeaderboard {
	if log == nil {
		log = logger.Default()
	}
	return &AwardXPWithLeaderboard{
		inner:       inner,
		leaderboard: leaderboard,
		repo:        repo,
		breaker:     circuitbreaker.New(circuitbreaker.DefaultConfig("leaderboard")),
		retrier:     retry.CacheRetrier(),
		log:         log,
	}
}

// Award implements XPAwarder.
func (d *AwardXPWithLeaderboard) Award(ctx context.Context, userID string, amount int, source gamification.XPSource, sourceID, description string) AwardResult {
	result := d.inner.Award(ctx, userID, amount, source, sourceID, description)
	if !result.Success {
		return result
	}

	d.updateLeaderboard(ctx, userID, result)
	d.updateReputation(ctx, userID, result)
	return result
}

func (d *AwardXPWithLeaderboard) updateLeaderboard(ctx context.Context, userID string, result AwardResult) {
	if d.leaderboard == nil {
		return
	}

	err := d.breaker.Execute(ctx, func(ctx context.Context) error {
		return d.retrier.Do(ctx, func(ctx context.Context) error {
			return retry.Retryable(d.leaderboard.UpdateUserXP(ctx, userID, result.TotalXP, result.NewLevel))
		})
	})
	if err != nil {
		d.log.Warn("leaderboard update failed after XP award",
			logger.UserID(userID),
			logger.Int("total_xp", result.TotalXP),
			logger.Err(err),
		)
	}
}

func (d *AwardXPWithLeaderboard) updateReputation(ctx context.Context, userID string, result AwardResult) {
	if d.repo == nil {
		return
	}

	reputation := gamification.ComputeReputation(result.TotalXP)
	if err := d.repo.UpdateReputation(ctx, userID, reputation); err != nil {
		d.log.Warn("reputation update failed after XP award",
			logger.UserID(userID),
			logger.Float64("reputation", reputation),
			logger.Err(err),
		)
	}
}
