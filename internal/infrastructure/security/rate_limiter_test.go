package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time deterministically.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestLimiter(cfg RateLimiterConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{current: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(cfg)
	rl.now = clock.now
	return rl, clock
}

func TestCheckLimit_AllowsUpToMax(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{MaxAttempts: 3, Window: time.Minute, BlockDuration: time.Minute})

	for i := 0; i < 3; i++ {
		res := rl.CheckLimit("user-1")
		assert.True(t, res.Allowed, "attempt %d", i+1)
		assert.Equal(t, 3-(i+1), res.RemainingAttempts)
	}

	res := rl.CheckLimit("user-1")
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.RemainingAttempts)
	assert.False(t, res.BlockedUntil.IsZero())
}

func TestCheckLimit_WindowExpiry(t *testing.T) {
	rl, clock := newTestLimiter(RateLimiterConfig{MaxAttempts: 2, Window: time.Minute, BlockDuration: time.Minute})

	require.True(t, rl.CheckLimit("user-1").Allowed)
	require.True(t, rl.CheckLimit("user-1").Allowed)

	// Past the window the old attempts are purged.
	clock.advance(time.Minute + time.Second)

	res := rl.CheckLimit("user-1")
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.RemainingAttempts)
}

func TestCheckLimit_ActiveBlockShortCircuits(t *testing.T) {
	rl, clock := newTestLimiter(RateLimiterConfig{MaxAttempts: 1, Window: time.Hour, BlockDuration: 10 * time.Minute})

	require.True(t, rl.CheckLimit("user-1").Allowed)
	first := rl.CheckLimit("user-1")
	require.False(t, first.Allowed)

	// Still blocked: the same deadline is returned, not a new one.
	clock.advance(time.Minute)
	second := rl.CheckLimit("user-1")
	assert.False(t, second.Allowed)
	assert.Equal(t, first.BlockedUntil, second.BlockedUntil)
}

func TestCheckLimit_ExponentialBackoff(t *testing.T) {
	rl, clock := newTestLimiter(RateLimiterConfig{MaxAttempts: 1, Window: time.Hour, BlockDuration: time.Minute})

	var blockDeltas []time.Duration
	for i := 0; i < 3; i++ {
		require.True(t, rl.CheckLimit("user-1").Allowed)
		res := rl.CheckLimit("user-1")
		require.False(t, res.Allowed)
		blockDeltas = append(blockDeltas, res.BlockedUntil.Sub(clock.now()))

		// Wait out the block and the window before triggering the next one.
		clock.advance(res.BlockedUntil.Sub(clock.now()) + time.Hour + time.Second)
	}

	require.Len(t, blockDeltas, 3)
	assert.Equal(t, time.Minute, blockDeltas[0])
	assert.Greater(t, blockDeltas[1], blockDeltas[0])
	assert.Greater(t, blockDeltas[2], blockDeltas[1])
	assert.Equal(t, 2*time.Minute, blockDeltas[1])
	assert.Equal(t, 4*time.Minute, blockDeltas[2])
}

func TestCheckLimit_IdentifiersAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{MaxAttempts: 1, Window: time.Hour, BlockDuration: time.Minute})

	require.True(t, rl.CheckLimit("user-1").Allowed)
	require.False(t, rl.CheckLimit("user-1").Allowed)

	assert.True(t, rl.CheckLimit("user-2").Allowed)
}

func TestGetStatus_DoesNotConsumeAttempts(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{MaxAttempts: 3, Window: time.Hour, BlockDuration: time.Minute})

	assert.Equal(t, 3, rl.GetStatus("user-1").RemainingAttempts)

	rl.CheckLimit("user-1")
	st := rl.GetStatus("user-1")
	assert.Equal(t, 1, st.Attempts)
	assert.Equal(t, 2, st.RemainingAttempts)

	// Status calls repeated; nothing changes.
	assert.Equal(t, 2, rl.GetStatus("user-1").RemainingAttempts)
}

func TestReset_ClearsSingleIdentifier(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{MaxAttempts: 1, Window: time.Hour, BlockDuration: time.Minute})

	require.True(t, rl.CheckLimit("user-1").Allowed)
	require.False(t, rl.CheckLimit("user-1").Allowed)
	require.True(t, rl.CheckLimit("user-2").Allowed)

	rl.Reset("user-1")

	assert.True(t, rl.CheckLimit("user-1").Allowed)
	assert.Equal(t, 0, rl.GetStatus("user-1").ViolationCount)
	// user-2's window state survived.
	assert.Equal(t, 0, rl.GetStatus("user-2").RemainingAttempts)
}

func TestResetAll(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{MaxAttempts: 1, Window: time.Hour, BlockDuration: time.Minute})

	rl.CheckLimit("a")
	rl.CheckLimit("b")
	rl.ResetAll()

	assert.True(t, rl.CheckLimit("a").Allowed)
	assert.True(t, rl.CheckLimit("b").Allowed)
}

func TestUpdateConfig_AppliesImmediately(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{MaxAttempts: 1, Window: time.Hour, BlockDuration: time.Minute})

	require.True(t, rl.CheckLimit("user-1").Allowed)

	// Raising the cap lets the same identifier through again without
	// touching its recorded attempts.
	max := 3
	rl.UpdateConfig(ConfigUpdate{MaxAttempts: &max})

	res := rl.CheckLimit("user-1")
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.RemainingAttempts)
	assert.Equal(t, 3, rl.Config().MaxAttempts)
}

func TestViolationCountSurvivesWindowExpiry(t *testing.T) {
	rl, clock := newTestLimiter(RateLimiterConfig{MaxAttempts: 1, Window: time.Minute, BlockDuration: time.Minute})

	require.True(t, rl.CheckLimit("user-1").Allowed)
	require.False(t, rl.CheckLimit("user-1").Allowed)

	clock.advance(time.Hour)
	assert.Equal(t, 1, rl.GetStatus("user-1").ViolationCount)
}
