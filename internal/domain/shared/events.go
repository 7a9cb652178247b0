package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the domain and may fan out to best-effort consumers.
const (
	// Gamification events
	EventXPAwarded EventType = "gamification.xp_awarded"
	EventLevelUp   EventType = "gamification.level_up"

	// Leaderboard events
	EventLeaderboardUpdated EventType = "leaderboard.updated"

	// Collaboration events
	EventHierarchyCreated EventType = "collaboration.hierarchy_created"

	// Challenge lifecycle events
	EventChallengeActivated EventType = "challenge.activated"
	EventChallengeCompleted EventType = "challenge.completed"
	EventChallengeScheduled EventType = "challenge.scheduled"

	// Auth events
	EventLoginBlocked EventType = "auth.login_blocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType { return e.Type }

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string { return e.AggregateId }

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// XPAwardedEvent is emitted after a successful XP award transaction commits.
type XPAwardedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Amount   int    `json:"amount"`
	Source   string `json:"source"`
	TotalXP  int    `json:"total_xp"`
	NewLevel int    `json:"new_level"`
}

// NewXPAwardedEvent creates an XPAwardedEvent.
func NewXPAwardedEvent(userID string, amount, totalXP, newLevel int, source string) XPAwardedEvent {
	return XPAwardedEvent{
		BaseEvent: NewBaseEvent(EventXPAwarded, userID),
		UserID:    userID,
		Amount:    amount,
		Source:    source,
		TotalXP:   totalXP,
		NewLevel:  newLevel,
	}
}

// LevelUpEvent is emitted when an award crosses a level tier boundary.
type LevelUpEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	PreviousLevel int    `json:"previous_level"`
	NewLevel      int    `json:"new_level"`
	TotalXP       int    `json:"total_xp"`
}

// NewLevelUpEvent creates a LevelUpEvent.
func NewLevelUpEvent(userID string, previousLevel, newLevel, totalXP int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent:     NewBaseEvent(EventLevelUp, userID),
		UserID:        userID,
		PreviousLevel: previousLevel,
		NewLevel:      newLevel,
		TotalXP:       totalXP,
	}
}

// ChallengeTransitionEvent is emitted by scheduler jobs when a challenge
// changes status.
type ChallengeTransitionEvent struct {
	BaseEvent
	ChallengeID string `json:"challenge_id"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
}

// NewChallengeTransitionEvent creates a ChallengeTransitionEvent.
func NewChallengeTransitionEvent(eventType EventType, challengeID, from, to string) ChallengeTransitionEvent {
	return ChallengeTransitionEvent{
		BaseEvent:   NewBaseEvent(eventType, challengeID),
		ChallengeID: challengeID,
		FromStatus:  from,
		ToStatus:    to,
	}
}

// EventHandler processes a single event.
type EventHandler interface {
	// Handle processes the event. Errors are reported to the bus but must not
	// affect the publisher.
	Handle(ctx context.Context, event Event) error

	// Name returns the handler name for logging.
	Name() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, event Event) error
}

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f.Fn(ctx, event)
}

// Name implements EventHandler.
func (f EventHandlerFunc) Name() string { return f.HandlerName }

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish delivers the event to all subscribed handlers.
	// Publishing is fire-and-forget from the caller's perspective.
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards all events. Useful for tests and for callers that
// do not need event fan-out.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }
