// Package command implements the write-side application services: awarding
// XP and creating role hierarchies.
package command

import (
	"context"
	"fmt"

	"github.com/tradeya/tradeya-backend/internal/domain/gamification"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
	"github.com/tradeya/tradeya-backend/pkg/logger"
	"github.com/tradeya/tradeya-backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD XP SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// AwardResult is the outcome of an XP award. The call never fails at the
// API boundary: failures are reported through Success and Error so a broken
// award can never take down the calling flow.
type AwardResult struct {
	Success         bool     `json:"success"`
	XPAwarded       int      `json:"xp_awarded"`
	TotalXP         int      `json:"total_xp"`
	NewLevel        int      `json:"new_level"`
	LeveledUp       bool     `json:"leveled_up"`
	NewAchievements []string `json:"new_achievements,omitempty"`
	Error           string   `json:"error,omitempty"`
}

func awardFailure(msg string) AwardResult {
	return AwardResult{Success: false, Error: msg}
}

// XPAwarder is the award entry point. AwardXPService implements it; the
// leaderboard decorator wraps it.
type XPAwarder interface {
	Award(ctx context.Context, userID string, amount int, source gamification.XPSource, sourceID, description string) AwardResult
}

// AwardXPService executes XP awards against the repository, retrying
// transient conflicts, and publishes domain events after a commit.
type AwardXPService struct {
	repo      gamification.Repository
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	log       *logger.Logger
}

// NewAwardXPService creates an AwardXPService.
func NewAwardXPService(repo gamification.Repository, publisher shared.EventPublisher, log *logger.Logger) *AwardXPService {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &AwardXPService{
		repo:      repo,
		publisher: publisher,
		retrier:   retry.DatabaseRetrier(),
		log:       log,
	}
}

// Award applies an XP amount to the user. Validation failures and
// persistence errors come back inside the result, never as an error or a
// panic.
func (s *AwardXPService) Award(ctx context.Context, userID string, amount int, source gamification.XPSource, sourceID, description string) (res AwardResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("award panicked",
				logger.UserID(userID),
				logger.String("panic", fmt.Sprint(r)),
			)
			res = awardFailure(fmt.Sprintf("internal error: %v", r))
		}
	}()

	if userID == "" {
		return awardFailure("user id cannot be empty")
	}
	if !source.IsValid() {
		return awardFailure(fmt.Sprintf("invalid XP source: %q", source))
	}

	var outcome *gamification.AwardOutcome
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var opErr error
		outcome, opErr = s.repo.Award(ctx, userID, amount, source, sourceID, description)
		return opErr
	})
	if err != nil {
		s.log.Error("failed to award XP",
			logger.UserID(userID),
			logger.XPAmount(amount),
			logger.XPSource(string(source)),
			logger.Err(err),
		)
		return awardFailure(err.Error())
	}

	record := outcome.Record
	result := AwardResult{
		Success:   true,
		XPAwarded: amount,
		TotalXP:   record.TotalXP,
		NewLevel:  record.CurrentLevel,
		LeveledUp: outcome.LeveledUp,
	}
	if outcome.LeveledUp {
		result.NewAchievements = achievementsForLevels(outcome.PreviousLevel, record.CurrentLevel)
	}

	s.publishEvents(ctx, userID, amount, source, outcome)

	s.log.Info("XP awarded",
		logger.UserID(userID),
		logger.XPAmount(amount),
		logger.XPSource(string(source)),
		logger.Int("total_xp", record.TotalXP),
		logger.Int("level", record.CurrentLevel),
		logger.Bool("leveled_up", outcome.LeveledUp),
	)
	return result
}

func (s *AwardXPService) publishEvents(ctx context.Context, userID string, amount int, source gamification.XPSource, outcome *gamification.AwardOutcome) {
	record := outcome.Record
	_ = s.publisher.Publish(ctx, shared.NewXPAwardedEvent(
		userID, amount, record.TotalXP, record.CurrentLevel, string(source),
	))
	if outcome.LeveledUp {
		_ = s.publisher.Publish(ctx, shared.NewLevelUpEvent(
			userID, outcome.PreviousLevel, record.CurrentLevel, record.TotalXP,
		))
	}
}

// achievementsForLevels names every tier reached between the previous and
// the new level, so skipping tiers in one award still surfaces each title.
func achievementsForLevels(previousLevel, newLevel int) []string {
	var achievements []string
	for level := previousLevel + 1; level <= newLevel && level <= gamification.MaxLevel; level++ {
		tier := gamification.Tiers[level-1]
		achievements = append(achievements, fmt.Sprintf("Reached Level %d: %s", tier.Level, tier.Title))
	}
	return achievements
}
