package gamification

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradeya/tradeya-backend/internal/domain/shared"
)

// XPSource tags where an XP award originated.
type XPSource string

const (
	SourceTradeCompletion     XPSource = "trade_completion"
	SourceRoleCompletion      XPSource = "role_completion"
	SourceChallengeCompletion XPSource = "challenge_completion"
	SourceQuickResponse       XPSource = "quick_response"
	SourceProfileCompletion   XPSource = "profile_completion"
	SourceEvidenceSubmission  XPSource = "evidence_submission"
	SourceAdjustment          XPSource = "adjustment"
)

// IsValid reports whether the source is a known origin tag.
func (s XPSource) IsValid() bool {
	switch s {
	case SourceTradeCompletion, SourceRoleCompletion, SourceChallengeCompletion,
		SourceQuickResponse, SourceProfileCompletion, SourceEvidenceSubmission,
		SourceAdjustment:
		return true
	}
	return false
}

// UserXP is a user's cumulative experience record. Owned exclusively by the
// award transaction; created lazily on the first award.
//
// Invariant: CurrentLevel is always the tier whose interval contains TotalXP.
type UserXP struct {
	UserID        string
	TotalXP       int
	CurrentLevel  int
	XPToNextLevel int
	Reputation    float64
	LastUpdated   time.Time
	CreatedAt     time.Time
}

// NewUserXP synthesizes the zero-state record for a user seen for the first
// time. XPToNextLevel starts at the first tier's ceiling.
func NewUserXP(userID string, now time.Time) *UserXP {
	return &UserXP{
		UserID:        userID,
		TotalXP:       0,
		CurrentLevel:  Tiers[0].Level,
		XPToNextLevel: XPToNextLevelFromZero(),
		LastUpdated:   now,
		CreatedAt:     now,
	}
}

// Apply adds amount to the record and recomputes the derived level fields.
// Returns true if the award crossed a tier boundary upward.
func (u *UserXP) Apply(amount int, now time.Time) bool {
	previousLevel := u.CurrentLevel
	u.TotalXP += amount
	if u.TotalXP < 0 {
		u.TotalXP = 0
	}

	calc := CalculateLevel(u.TotalXP)
	u.CurrentLevel = calc.CurrentLevel
	u.XPToNextLevel = calc.XPToNextLevel
	u.LastUpdated = now

	return calc.CurrentLevel > previousLevel
}

// XPTransaction is the immutable audit record written alongside every award.
// Exactly one per award call; never mutated after creation.
type XPTransaction struct {
	ID          string
	UserID      string
	Amount      int
	Source      XPSource
	SourceID    string
	Description string
	CreatedAt   time.Time
}

// NewXPTransaction creates an audit record with a fresh identifier.
func NewXPTransaction(userID string, amount int, source XPSource, sourceID, description string, now time.Time) (*XPTransaction, error) {
	if userID == "" {
		return nil, shared.WrapError("gamification", "NewXPTransaction", shared.ErrEmptyValue, "user id is required", nil)
	}
	if !source.IsValid() {
		return nil, shared.ErrInvalidXPSource
	}

	return &XPTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Source:      source,
		SourceID:    sourceID,
		Description: description,
		CreatedAt:   now,
	}, nil
}
