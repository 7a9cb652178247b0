package challenge

import (
	"context"
	"time"
)

// Repository is the persistence contract for challenges and templates.
//
// Batch mutations are all-or-nothing: either every row in the batch is
// written or none are. Two overlapping job runs are not mutually excluded;
// the status predicates in the queries make repeated transitions no-ops.
type Repository interface {
	// ListUpcomingDue returns challenges with status=upcoming whose start
	// date is at or before now.
	ListUpcomingDue(ctx context.Context, now time.Time, limit int) ([]Challenge, error)

	// ListActiveExpired returns challenges with status=active whose end date
	// is at or before now.
	ListActiveExpired(ctx context.Context, now time.Time, limit int) ([]Challenge, error)

	// UpdateStatusBatch sets the status of all given challenges in a single
	// atomic batch.
	UpdateStatusBatch(ctx context.Context, ids []string, status Status, now time.Time) error

	// ListRecurringTemplates returns templates configured with daily or
	// weekly recurrence, bounded by limit.
	ListRecurringTemplates(ctx context.Context, limit int) ([]Template, error)

	// CreateBatch persists new challenge instances in a single atomic batch.
	CreateBatch(ctx context.Context, challenges []Challenge) error
}
