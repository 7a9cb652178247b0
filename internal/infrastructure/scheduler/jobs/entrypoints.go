package jobs

import (
	"context"

	"github.com/tradeya/tradeya-backend/internal/domain/challenge"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
	"github.com/tradeya/tradeya-backend/pkg/logger"
)

// Plain entry points for callers that run a single pass without the
// scheduler (admin tooling, tests, one-shot invocations).

// ActivateScheduledChallenges runs one activation pass.
func ActivateScheduledChallenges(ctx context.Context, repo challenge.Repository, publisher shared.EventPublisher, log *logger.Logger) Result {
	return NewActivateChallengesJob(repo, publisher, log).Execute(ctx)
}

// CompleteExpiredChallenges runs one completion pass.
func CompleteExpiredChallenges(ctx context.Context, repo challenge.Repository, publisher shared.EventPublisher, log *logger.Logger) Result {
	return NewCompleteChallengesJob(repo, publisher, log).Execute(ctx)
}

// ScheduleRecurringChallenges runs one recurrence pass.
func ScheduleRecurringChallenges(ctx context.Context, repo challenge.Repository, publisher shared.EventPublisher, log *logger.Logger) Result {
	return NewScheduleRecurringJob(repo, publisher, log).Execute(ctx)
}
