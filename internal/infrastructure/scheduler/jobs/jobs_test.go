package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeya/tradeya-backend/internal/domain/challenge"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
	"github.com/tradeya/tradeya-backend/pkg/logger"
)

// fakeChallengeRepo is an in-memory challenge.Repository for job tests.
type fakeChallengeRepo struct {
	mu        sync.Mutex
	upcoming  []challenge.Challenge
	expired   []challenge.Challenge
	templates []challenge.Template

	updated map[string]challenge.Status
	created []challenge.Challenge

	listErr   error
	updateErr error
	createErr error
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{updated: make(map[string]challenge.Status)}
}

func (f *fakeChallengeRepo) ListUpcomingDue(_ context.Context, _ time.Time, _ int) ([]challenge.Challenge, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.upcoming, nil
}

func (f *fakeChallengeRepo) ListActiveExpired(_ context.Context, _ time.Time, _ int) ([]challenge.Challenge, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.expired, nil
}

func (f *fakeChallengeRepo) UpdateStatusBatch(_ context.Context, ids []string, status challenge.Status, _ time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.updated[id] = status
	}
	return nil
}

func (f *fakeChallengeRepo) ListRecurringTemplates(_ context.Context, _ int) ([]challenge.Template, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.templates, nil
}

func (f *fakeChallengeRepo) CreateBatch(_ context.Context, challenges []challenge.Challenge) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, challenges...)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func testChallenge(id string, status challenge.Status) challenge.Challenge {
	return challenge.Challenge{ID: id, Title: "challenge " + id, Status: status}
}

func TestActivateChallengesJob_ActivatesDueChallenges(t *testing.T) {
	repo := newFakeChallengeRepo()
	repo.upcoming = []challenge.Challenge{
		testChallenge("c1", challenge.StatusUpcoming),
		testChallenge("c2", challenge.StatusUpcoming),
		testChallenge("c3", challenge.StatusUpcoming),
	}

	job := NewActivateChallengesJob(repo, nil, testLogger())
	res := job.Execute(context.Background())

	require.True(t, res.OK())
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, challenge.StatusActive, repo.updated["c1"])
	assert.Equal(t, challenge.StatusActive, repo.updated["c2"])
	assert.Equal(t, challenge.StatusActive, repo.updated["c3"])
}

func TestActivateChallengesJob_NothingDue(t *testing.T) {
	repo := newFakeChallengeRepo()

	job := NewActivateChallengesJob(repo, nil, testLogger())
	res := job.Execute(context.Background())

	require.True(t, res.OK())
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, repo.updated)
}

func TestActivateChallengesJob_ListFailureReportedAsString(t *testing.T) {
	repo := newFakeChallengeRepo()
	repo.listErr = errors.New("connection refused")

	job := NewActivateChallengesJob(repo, nil, testLogger())
	res := job.Execute(context.Background())

	require.False(t, res.OK())
	assert.Equal(t, 0, res.Count)
	assert.Contains(t, *res.Error, "connection refused")
}

func TestActivateChallengesJob_UpdateFailureLeavesCountZero(t *testing.T) {
	repo := newFakeChallengeRepo()
	repo.upcoming = []challenge.Challenge{testChallenge("c1", challenge.StatusUpcoming)}
	repo.updateErr = errors.New("deadlock detected")

	job := NewActivateChallengesJob(repo, nil, testLogger())
	res := job.Execute(context.Background())

	require.False(t, res.OK())
	assert.Equal(t, 0, res.Count)
}

func TestCompleteChallengesJob_CompletesExpiredChallenges(t *testing.T) {
	repo := newFakeChallengeRepo()
	repo.expired = []challenge.Challenge{
		testChallenge("c1", challenge.StatusActive),
		testChallenge("c2", challenge.StatusActive),
	}

	job := NewCompleteChallengesJob(repo, nil, testLogger())
	res := job.Execute(context.Background())

	require.True(t, res.OK())
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, challenge.StatusCompleted, repo.updated["c1"])
	assert.Equal(t, challenge.StatusCompleted, repo.updated["c2"])
}

func TestCompleteChallengesJob_RunNeverPanics(t *testing.T) {
	job := NewCompleteChallengesJob(nil, nil, testLogger())

	// A nil repository would panic inside Execute; the job must convert
	// that into a Result error instead.
	res := job.Execute(context.Background())
	require.False(t, res.OK())
	assert.Contains(t, *res.Error, "panicked")
}

func TestScheduleRecurringJob_CreatesInstancesPerTemplate(t *testing.T) {
	repo := newFakeChallengeRepo()
	repo.templates = []challenge.Template{
		{ID: "t1", Title: "Daily trade", Recurrence: challenge.RecurrenceDaily, RewardXP: 25},
		{ID: "t2", Title: "Weekly collab", Recurrence: challenge.RecurrenceWeekly, RewardXP: 100},
	}

	job := NewScheduleRecurringJob(repo, nil, testLogger())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	res := job.Execute(context.Background())

	require.True(t, res.OK())
	assert.Equal(t, 2, res.Count)
	require.Len(t, repo.created, 2)

	daily := repo.created[0]
	assert.Equal(t, "t1", daily.TemplateID)
	assert.Equal(t, challenge.StatusUpcoming, daily.Status)
	assert.Equal(t, now.Add(24*time.Hour), daily.StartDate)
	assert.Equal(t, now.Add(48*time.Hour), daily.EndDate)

	weekly := repo.created[1]
	assert.Equal(t, "t2", weekly.TemplateID)
	assert.Equal(t, now.Add(7*24*time.Hour), weekly.StartDate)
	assert.Equal(t, now.Add(14*24*time.Hour), weekly.EndDate)
}

func TestScheduleRecurringJob_NoTemplatesNoWrites(t *testing.T) {
	repo := newFakeChallengeRepo()

	job := NewScheduleRecurringJob(repo, nil, testLogger())
	res := job.Execute(context.Background())

	require.True(t, res.OK())
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, repo.created)
}

func TestScheduleRecurringJob_SkipsNonRecurringTemplates(t *testing.T) {
	repo := newFakeChallengeRepo()
	repo.templates = []challenge.Template{
		{ID: "t1", Title: "One-off", Recurrence: challenge.RecurrenceNone},
	}

	job := NewScheduleRecurringJob(repo, nil, testLogger())
	res := job.Execute(context.Background())

	require.True(t, res.OK())
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, repo.created)
}

func TestScheduleRecurringJob_PublishesScheduledEvents(t *testing.T) {
	repo := newFakeChallengeRepo()
	repo.templates = []challenge.Template{
		{ID: "t1", Title: "Daily trade", Recurrence: challenge.RecurrenceDaily},
	}

	var mu sync.Mutex
	var published []shared.Event
	publisher := publisherFunc(func(_ context.Context, e shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, e)
		return nil
	})

	job := NewScheduleRecurringJob(repo, publisher, testLogger())
	res := job.Execute(context.Background())

	require.True(t, res.OK())
	require.Len(t, published, 1)
	assert.Equal(t, shared.EventChallengeScheduled, published[0].EventType())
}

func TestEntryPoints_SinglePass(t *testing.T) {
	repo := newFakeChallengeRepo()
	repo.upcoming = []challenge.Challenge{testChallenge("c1", challenge.StatusUpcoming)}
	repo.expired = []challenge.Challenge{testChallenge("c2", challenge.StatusActive)}

	res := ActivateScheduledChallenges(context.Background(), repo, nil, testLogger())
	require.True(t, res.OK())
	assert.Equal(t, 1, res.Count)

	res = CompleteExpiredChallenges(context.Background(), repo, nil, testLogger())
	require.True(t, res.OK())
	assert.Equal(t, 1, res.Count)

	res = ScheduleRecurringChallenges(context.Background(), repo, nil, testLogger())
	require.True(t, res.OK())
	assert.Equal(t, 0, res.Count)
}

type publisherFunc func(ctx context.Context, event shared.Event) error

func (f publisherFunc) Publish(ctx context.Context, event shared.Event) error {
	return f(ctx, event)
}
