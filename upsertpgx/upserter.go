// Package upsertpgx runs the staging upsert protocol on the native pgx
// driver, streaming the serialized batch straight through the COPY wire
// protocol instead of going through database/sql.
package upsertpgx

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cantart/staging-upsert/upsert"
)

// Upserter stages a batch in a call-scoped temporary table via a raw COPY
// text stream and merges it into the target with one ON CONFLICT statement.
type Upserter struct {
	pool     *pgxpool.Pool
	reporter upsert.MetricsReporter
	logf     func(format string, args ...any)
}

var _ upsert.Upserter = (*Upserter)(nil)

func New(pool *pgxpool.Pool) *Upserter {
	return &Upserter{pool: pool, logf: log.Printf}
}

// WithMetricsReporter installs an optional per-call reporter.
func (u *Upserter) WithMetricsReporter(reporter upsert.MetricsReporter) *Upserter {
	u.reporter = reporter
	return u
}

// WithLogf overrides the destination of teardown warnings.
func (u *Upserter) WithLogf(logf func(format string, args ...any)) *Upserter {
	u.logf = logf
	return u
}

func (u *Upserter) Upsert(ctx context.Context, table upsert.Table, batch []upsert.Record) error {
	plan, err := upsert.NewPlan(table, batch)
	if err != nil {
		return err
	}
	if len(plan.Rows) == 0 {
		return nil
	}

	start := time.Now()
	err = u.run(ctx, plan)
	if u.reporter != nil {
		u.reporter.ReportUpsert(ctx, upsert.Metrics{
			Strategy:  "pgx-staging",
			Table:     table.Name,
			BatchSize: len(batch),
			Duration:  time.Since(start),
			StartTime: start,
			Err:       err,
		})
	}
	return err
}

func (u *Upserter) run(ctx context.Context, plan *upsert.Plan) error {
	// Hold one pooled connection for the whole call so the temporary table
	// stays in scope until it is dropped.
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return &upsert.StepError{Step: upsert.StepStaging, Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, plan.DropSQL); err != nil {
		return &upsert.StepError{Step: upsert.StepStaging, Err: err}
	}
	if _, err := conn.Exec(ctx, plan.CreateSQL); err != nil {
		return &upsert.StepError{Step: upsert.StepStaging, Err: err}
	}
	defer func() {
		// The drop must survive cancellation and never overturns a result.
		if _, err := conn.Exec(context.WithoutCancel(ctx), plan.DropSQL); err != nil {
			u.logf("upsertpgx: drop staging table %s: %v", plan.Staging, err)
		}
	}()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return &upsert.StepError{Step: upsert.StepLoad, Err: fmt.Errorf("begin tx: %w", err)}
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	tag, err := tx.Conn().PgConn().CopyFrom(ctx, upsert.NewCopyReader(plan.Rows), plan.CopySQL)
	if err != nil {
		return &upsert.StepError{Step: upsert.StepLoad, Err: err}
	}
	if got, want := tag.RowsAffected(), int64(len(plan.Rows)); got != want {
		return &upsert.StepError{Step: upsert.StepLoad, Err: fmt.Errorf("copied %d of %d rows", got, want)}
	}

	if _, err := tx.Exec(ctx, plan.MergeSQL); err != nil {
		return &upsert.StepError{Step: upsert.StepMerge, Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return &upsert.StepError{Step: upsert.StepMerge, Err: fmt.Errorf("commit tx: %w", err)}
	}
	return nil
}
