package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/tradeya/tradeya-backend/internal/domain/challenge"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
	"github.com/tradeya/tradeya-backend/pkg/logger"
)

// ActivateChallengesJob flips upcoming challenges whose start date has
// passed to active.
type ActivateChallengesJob struct {
	jobBase
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewActivateChallengesJob creates the job.
func NewActivateChallengesJob(repo challenge.Repository, publisher shared.EventPublisher, log *logger.Logger) *ActivateChallengesJob {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &ActivateChallengesJob{
		jobBase:   jobBase{repo: repo, log: log},
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Name implements scheduler.Job.
func (j *ActivateChallengesJob) Name() string { return "activate_challenges" }

// Description implements scheduler.Job.
func (j *ActivateChallengesJob) Description() string {
	return "Activates upcoming challenges whose start date has passed"
}

// Run implements scheduler.Job.
func (j *ActivateChallengesJob) Run(ctx context.Context) error {
	res := j.Execute(ctx)
	j.logResult(j.Name(), res)
	if !res.OK() {
		return errors.New(*res.Error)
	}
	return nil
}

// Execute performs one activation pass and reports how many challenges
// were transitioned. It never panics.
func (j *ActivateChallengesJob) Execute(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			capture(r, 0, &res)
		}
	}()

	now := j.now()
	due, err := j.repo.ListUpcomingDue(ctx, now, batchLimit)
	if err != nil {
		return failure(0, err)
	}
	if len(due) == 0 {
		return Result{Count: 0}
	}

	ids := make([]string, len(due))
	for i, c := range due {
		ids[i] = c.ID
	}
	if err := j.repo.UpdateStatusBatch(ctx, ids, challenge.StatusActive, now); err != nil {
		return failure(0, err)
	}

	for _, c := range due {
		event := shared.NewChallengeTransitionEvent(
			shared.EventChallengeActivated, c.ID,
			string(challenge.StatusUpcoming), string(challenge.StatusActive),
		)
		_ = j.publisher.Publish(ctx, event)
	}

	return Result{Count: len(due)}
}
