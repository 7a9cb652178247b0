package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/tradeya/tradeya-backend/internal/domain/challenge"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
	"github.com/tradeya/tradeya-backend/pkg/logger"
)

// CompleteChallengesJob flips active challenges whose end date has passed
// to completed.
type CompleteChallengesJob struct {
	jobBase
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewCompleteChallengesJob creates the job.
func NewCompleteChallengesJob(repo challenge.Repository, publisher shared.EventPublisher, log *logger.Logger) *CompleteChallengesJob {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &CompleteChallengesJob{
		jobBase:   jobBase{repo: repo, log: log},
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Name implements scheduler.Job.
func (j *CompleteChallengesJob) Name() string { return "complete_challenges" }

// Description implements scheduler.Job.
func (j *CompleteChallengesJob) Description() string {
	return "Completes active challenges whose end date has passed"
}

// Run implements scheduler.Job.
func (j *CompleteChallengesJob) Run(ctx context.Context) error {
	res := j.Execute(ctx)
	j.logResult(j.Name(), res)
	if !res.OK() {
		return errors.New(*res.Error)
	}
	return nil
}

// Execute performs one completion pass. It never panics.
func (j *CompleteChallengesJob) Execute(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			capture(r, 0, &res)
		}
	}()

	now := j.now()
	expired, err := j.repo.ListActiveExpired(ctx, now, batchLimit)
	if err != nil {
		return failure(0, err)
	}
	if len(expired) == 0 {
		return Result{Count: 0}
	}

	ids := make([]string, len(expired))
	for i, c := range expired {
		ids[i] = c.ID
	}
	if err := j.repo.UpdateStatusBatch(ctx, ids, challenge.StatusCompleted, now); err != nil {
		return failure(0, err)
	}

	for _, c := range expired {
		event := shared.NewChallengeTransitionEvent(
			shared.EventChallengeCompleted, c.ID,
			string(challenge.StatusActive), string(challenge.StatusCompleted),
		)
		_ = j.publisher.Publish(ctx, event)
	}

	return Result{Count: len(expired)}
}
