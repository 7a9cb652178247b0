package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ErrUserNotInLeaderboard is returned when a user has no leaderboard entry.
var ErrUserNotInLeaderboard = errors.New("leaderboard_cache: user not in leaderboard")

// Key layout:
//   - Sorted set "leaderboard:xp" maps userID -> total XP.
//   - Hash "leaderboard:info" maps userID -> LeaderboardEntry JSON.
//
// Rank lookups are O(log N), top-N queries O(log N + M).
const (
	keyLeaderboardXP   = "leaderboard:xp"
	keyLeaderboardInfo = "leaderboard:info"

	// TTLLeaderboard bounds staleness if the write path stops updating.
	TTLLeaderboard = 30 * time.Minute
)

// LeaderboardEntry is the cached view of a user's XP standing.
type LeaderboardEntry struct {
	UserID    string    `json:"user_id"`
	TotalXP   int       `json:"total_xp"`
	Level     int       `json:"level"`
	Rank      int64     `json:"rank,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeaderboardCache provides leaderboard operations backed by a Redis
// sorted set. All writes are best-effort from the callers' perspective;
// the persistent XP records in PostgreSQL remain the source of truth.
type LeaderboardCache struct {
	client *Client
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(client *Client) *LeaderboardCache {
	return &LeaderboardCache{client: client}
}

// UpdateEntry adds or updates a user's leaderboard entry.
func (l *LeaderboardCache) UpdateEntry(ctx context.Context, entry LeaderboardEntry) error {
	if entry.UserID == "" {
		return ErrUserIDEmpty
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard entry: %w", err)
	}

	pipe := l.client.Raw().Pipeline()
	pipe.ZAdd(ctx, keyLeaderboardXP, redis.Z{
		Score:  float64(entry.TotalXP),
		Member: entry.UserID,
	})
	pipe.HSet(ctx, keyLeaderboardInfo, entry.UserID, data)
	pipe.Expire(ctx, keyLeaderboardXP, TTLLeaderboard)
	pipe.Expire(ctx, keyLeaderboardInfo, TTLLeaderboard)

	_, err = pipe.Exec(ctx)
	return err
}

// UpdateUserXP is the convenience write path used after an XP award.
func (l *LeaderboardCache) UpdateUserXP(ctx context.Context, userID string, totalXP, level int) error {
	return l.UpdateEntry(ctx, LeaderboardEntry{
		UserID:    userID,
		TotalXP:   totalXP,
		Level:     level,
		UpdatedAt: time.Now().UTC(),
	})
}

// GetTop returns the highest-XP entries, best first, with ranks populated.
func (l *LeaderboardCache) GetTop(ctx context.Context, count int) ([]LeaderboardEntry, error) {
	if count <= 0 {
		count = 10
	}

	userIDs, err := l.client.Raw().ZRevRange(ctx, keyLeaderboardXP, 0, int64(count-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return []LeaderboardEntry{}, nil
	}

	raw, err := l.client.Raw().HMGet(ctx, keyLeaderboardInfo, userIDs...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(userIDs))
	for i, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var entry LeaderboardEntry
		if err := json.Unmarshal([]byte(str), &entry); err != nil {
			continue
		}
		entry.Rank = int64(i) + 1
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetRank returns the user's 1-based rank.
func (l *LeaderboardCache) GetRank(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUserIDEmpty
	}

	rank, err := l.client.Raw().ZRevRank(ctx, keyLeaderboardXP, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrUserNotInLeaderboard
		}
		return 0, err
	}
	return rank + 1, nil
}

// GetEntry returns the user's cached entry with its current rank.
func (l *LeaderboardCache) GetEntry(ctx context.Context, userID string) (*LeaderboardEntry, error) {
	if userID == "" {
		return nil, ErrUserIDEmpty
	}

	data, err := l.client.Raw().HGet(ctx, keyLeaderboardInfo, userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotInLeaderboard
		}
		return nil, err
	}

	var entry LeaderboardEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	if rank, err := l.GetRank(ctx, userID); err == nil {
		entry.Rank = rank
	}
	return &entry, nil
}

// RemoveEntry deletes a user from the leaderboard.
func (l *LeaderboardCache) RemoveEntry(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserIDEmpty
	}

	pipe := l.client.Raw().Pipeline()
	pipe.ZRem(ctx, keyLeaderboardXP, userID)
	pipe.HDel(ctx, keyLeaderboardInfo, userID)
	_, err := pipe.Exec(ctx)
	return err
}

// Count returns the number of leaderboard entries.
func (l *LeaderboardCache) Count(ctx context.Context) (int64, error) {
	return l.client.Raw().ZCard(ctx, keyLeaderboardXP).Result()
}

// Invalidate drops the whole cached leaderboard.
func (l *LeaderboardCache) Invalidate(ctx context.Context) error {
	return l.client.Raw().Del(ctx, keyLeaderboardXP, keyLeaderboardInfo).Err()
}
