// Package jobs implements the background jobs that drive the challenge
// lifecycle: activating due challenges, completing expired ones, and
// scheduling the next instances of recurring templates.
package jobs

import (
	"fmt"

	"github.com/tradeya/tradeya-backend/internal/domain/challenge"
	"github.com/tradeya/tradeya-backend/pkg/logger"
)

// batchLimit bounds how many rows a single job run processes.
const batchLimit = 500

// Result is the outcome of one job run. Error is nil on success; a failed
// run still reports how many items were processed before the failure.
// Jobs never panic: unexpected failures are captured into Error.
type Result struct {
	Count int
	Error *string
}

// OK reports whether the run completed without error.
func (r Result) OK() bool { return r.Error == nil }

func failure(count int, err error) Result {
	msg := err.Error()
	return Result{Count: count, Error: &msg}
}

// capture converts a recovered panic into a Result error.
func capture(r any, count int, out *Result) {
	msg := fmt.Sprintf("job panicked: %v", r)
	*out = Result{Count: count, Error: &msg}
}

// jobBase holds the dependencies shared by all challenge jobs.
type jobBase struct {
	repo challenge.Repository
	log  *logger.Logger
}

func (j jobBase) logResult(name string, res Result) {
	if res.OK() {
		j.log.Info("job run finished",
			logger.Component("jobs"),
			logger.Operation(name),
			logger.Int("count", res.Count),
		)
		return
	}
	j.log.Error("job run failed",
		logger.Component("jobs"),
		logger.Operation(name),
		logger.Int("count", res.Count),
		logger.String("error", *res.Error),
	)
}
