package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/tradeya/tradeya-backend/internal/domain/challenge"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
	"github.com/tradeya/tradeya-backend/pkg/logger"
)

// ScheduleRecurringJob creates the next upcoming instance for every
// recurring challenge template.
type ScheduleRecurringJob struct {
	jobBase
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewScheduleRecurringJob creates the job.
func NewScheduleRecurringJob(repo challenge.Repository, publisher shared.EventPublisher, log *logger.Logger) *ScheduleRecurringJob {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &ScheduleRecurringJob{
		jobBase:   jobBase{repo: repo, log: log},
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Name implements scheduler.Job.
func (j *ScheduleRecurringJob) Name() string { return "schedule_recurring_challenges" }

// Description implements scheduler.Job.
func (j *ScheduleRecurringJob) Description() string {
	return "Creates the next instances of recurring challenge templates"
}

// Run implements scheduler.Job.
func (j *ScheduleRecurringJob) Run(ctx context.Context) error {
	res := j.Execute(ctx)
	j.logResult(j.Name(), res)
	if !res.OK() {
		return errors.New(*res.Error)
	}
	return nil
}

// Execute creates one new instance per recurring template. No templates
// means no writes. It never panics.
func (j *ScheduleRecurringJob) Execute(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			capture(r, 0, &res)
		}
	}()

	templates, err := j.repo.ListRecurringTemplates(ctx, batchLimit)
	if err != nil {
		return failure(0, err)
	}
	if len(templates) == 0 {
		return Result{Count: 0}
	}

	now := j.now()
	instances := make([]challenge.Challenge, 0, len(templates))
	for _, tpl := range templates {
		if !tpl.Recurrence.IsRecurring() {
			continue
		}
		instances = append(instances, tpl.NextInstance(now))
	}
	if len(instances) == 0 {
		return Result{Count: 0}
	}

	if err := j.repo.CreateBatch(ctx, instances); err != nil {
		return failure(0, err)
	}

	for _, c := range instances {
		event := shared.NewChallengeTransitionEvent(
			shared.EventChallengeScheduled, c.ID,
			"", string(challenge.StatusUpcoming),
		)
		_ = j.publisher.Publish(ctx, event)
	}

	return Result{Count: len(instances)}
}
