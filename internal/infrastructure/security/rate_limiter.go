// Package security implements in-process admission control and the
// authentication service for TradeYa: a sliding-window rate limiter with
// exponential-backoff blocks, bcrypt credential verification, and JWT
// session tokens.
package security

import (
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SLIDING WINDOW RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiterConfig holds the sliding-window parameters.
type RateLimiterConfig struct {
	// MaxAttempts is the number of attempts allowed within the window.
	MaxAttempts int

	// Window is the sliding window size.
	Window time.Duration

	// BlockDuration is the base block duration; the effective block grows
	// exponentially with the identifier's violation count.
	BlockDuration time.Duration
}

// DefaultRateLimiterConfig returns conservative defaults for login guarding.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		MaxAttempts:   5,
		Window:        15 * time.Minute,
		BlockDuration: 5 * time.Minute,
	}
}

// ConfigUpdate carries partial configuration changes. Nil fields keep the
// current value. Updates apply to subsequent checks immediately without
// discarding per-identifier state.
type ConfigUpdate struct {
	MaxAttempts   *int
	Window        *time.Duration
	BlockDuration *time.Duration
}

// CheckResult is the outcome of a single admission check.
type CheckResult struct {
	// Allowed is true when the attempt may proceed.
	Allowed bool

	// RemainingAttempts is how many attempts are left in the window after
	// this check.
	RemainingAttempts int

	// BlockedUntil is set when the identifier is blocked.
	BlockedUntil time.Time
}

// record tracks one identifier's attempts within the current window.
type record struct {
	attempts       []time.Time
	blockedUntil   time.Time
	violationCount int
}

// RateLimiter is a per-identifier sliding-window limiter with exponential
// backoff. Purely in-memory; guarded by a mutex for concurrent callers.
type RateLimiter struct {
	mu sync.Mutex

	config  RateLimiterConfig
	records map[string]*record

	// now is injectable for tests.
	now func() time.Time
}

// NewRateLimiter creates a RateLimiter with the given configuration.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultRateLimiterConfig().MaxAttempts
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimiterConfig().Window
	}
	if config.BlockDuration <= 0 {
		config.BlockDuration = DefaultRateLimiterConfig().BlockDuration
	}
	return &RateLimiter{
		config:  config,
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// CheckLimit runs one admission check for the identifier.
//
// On each check, attempts older than the window are purged first. An active
// block short-circuits with the existing deadline. Hitting MaxAttempts
// starts a new block of BlockDuration * 2^violationCount; every violation
// strictly increases the next block relative to the previous one.
func (rl *RateLimiter) CheckLimit(identifier string) CheckResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rec := rl.records[identifier]
	if rec == nil {
		rec = &record{}
		rl.records[identifier] = rec
	}

	rl.purge(rec, now)

	if rec.blockedUntil.After(now) {
		return CheckResult{
			Allowed:           false,
			RemainingAttempts: 0,
			BlockedUntil:      rec.blockedUntil,
		}
	}

	if len(rec.attempts) >= rl.config.MaxAttempts {
		blockFor := rl.config.BlockDuration << uint(rec.violationCount)
		rec.violationCount++
		rec.blockedUntil = now.Add(blockFor)
		return CheckResult{
			Allowed:           false,
			RemainingAttempts: 0,
			BlockedUntil:      rec.blockedUntil,
		}
	}

	rec.attempts = append(rec.attempts, now)
	return CheckResult{
		Allowed:           true,
		RemainingAttempts: rl.config.MaxAttempts - len(rec.attempts),
	}
}

// Status is a read-only snapshot of one identifier's state.
type Status struct {
	Attempts          int
	RemainingAttempts int
	BlockedUntil      time.Time
	ViolationCount    int
}

// GetStatus returns the identifier's current state without consuming an
// attempt. The window purge still applies, so stale attempts never show up.
func (rl *RateLimiter) GetStatus(identifier string) Status {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rec := rl.records[identifier]
	if rec == nil {
		return Status{RemainingAttempts: rl.config.MaxAttempts}
	}

	rl.purge(rec, now)

	remaining := rl.config.MaxAttempts - len(rec.attempts)
	if remaining < 0 || rec.blockedUntil.After(now) {
		remaining = 0
	}

	return Status{
		Attempts:          len(rec.attempts),
		RemainingAttempts: remaining,
		BlockedUntil:      rec.blockedUntil,
		ViolationCount:    rec.violationCount,
	}
}

// Reset clears one identifier's attempts, block, and violation count.
func (rl *RateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.records, identifier)
}

// ResetAll clears every tracked identifier.
func (rl *RateLimiter) ResetAll() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.records = make(map[string]*record)
}

// UpdateConfig applies a partial configuration update. Existing
// per-identifier state is kept.
func (rl *RateLimiter) UpdateConfig(update ConfigUpdate) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if update.MaxAttempts != nil && *update.MaxAttempts > 0 {
		rl.config.MaxAttempts = *update.MaxAttempts
	}
	if update.Window != nil && *update.Window > 0 {
		rl.config.Window = *update.Window
	}
	if update.BlockDuration != nil && *update.BlockDuration > 0 {
		rl.config.BlockDuration = *update.BlockDuration
	}
}

// Config returns a copy of the current configuration.
func (rl *RateLimiter) Config() RateLimiterConfig {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.config
}

// purge drops attempts older than the window. Must be called with the lock
// held. Violation counts survive the purge: an identifier that keeps
// tripping the limit keeps escalating even across quiet windows.
func (rl *RateLimiter) purge(rec *record, now time.Time) {
	cutoff := now.Add(-rl.config.Window)
	kept := rec.attempts[:0]
	for _, ts := range rec.attempts {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	rec.attempts = kept
}
