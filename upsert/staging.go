package upsert

import (
	"context"
	"database/sql"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// createStaging provisions the call-scoped staging table: it drops any
// leftover table of the generated name, creates a fresh zero-row copy of the
// target's shape, and returns a release func that drops it again. Release
// never fails the call; a drop error after the work is done is reported
// through logf only.
func createStaging(ctx context.Context, exec execer, plan *Plan, logf func(format string, args ...any)) (func(), error) {
	if _, err := exec.ExecContext(ctx, plan.DropSQL); err != nil {
		return nil, &StepError{Step: StepStaging, Err: err}
	}
	if _, err := exec.ExecContext(ctx, plan.CreateSQL); err != nil {
		return nil, &StepError{Step: StepStaging, Err: err}
	}
	release := func() {
		// The drop must survive cancellation of the surrounding call.
		if _, err := exec.ExecContext(context.WithoutCancel(ctx), plan.DropSQL); err != nil {
			logf("upsert: drop staging table %s: %v", plan.Staging, err)
		}
	}
	return release, nil
}
