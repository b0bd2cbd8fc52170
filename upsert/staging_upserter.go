package upsert

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

// StagingUpserter implements the staging protocol over database/sql with
// lib/pq: the batch is bulk-loaded into a temporary table through COPY and
// merged into the target with one ON CONFLICT statement. The whole call
// runs on a single pinned connection so the temporary table stays in scope,
// and the staging table is dropped on every exit path.
type StagingUpserter struct {
	db       *sql.DB
	reporter MetricsReporter
	logf     func(format string, args ...any)
}

var _ Upserter = (*StagingUpserter)(nil)

func NewStagingUpserter(db *sql.DB) *StagingUpserter {
	return &StagingUpserter{db: db, logf: log.Printf}
}

// WithMetricsReporter installs an optional per-call reporter.
func (s *StagingUpserter) WithMetricsReporter(reporter MetricsReporter) *StagingUpserter {
	s.reporter = reporter
	return s
}

// WithLogf overrides the destination of teardown warnings.
func (s *StagingUpserter) WithLogf(logf func(format string, args ...any)) *StagingUpserter {
	s.logf = logf
	return s
}

func (s *StagingUpserter) Upsert(ctx context.Context, table Table, batch []Record) error {
	plan, err := NewPlan(table, batch)
	if err != nil {
		return err
	}
	if len(plan.Rows) == 0 {
		return nil
	}

	start := time.Now()
	err = s.run(ctx, plan)
	reportUpsert(ctx, s.reporter, "staging", table.Name, len(batch), start, err)
	return err
}

func (s *StagingUpserter) run(ctx context.Context, plan *Plan) error {
	// Temporary tables are session-scoped; pin one connection for the call.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return &StepError{Step: StepStaging, Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer conn.Close()

	release, err := createStaging(ctx, conn, plan, s.logf)
	if err != nil {
		return err
	}
	defer release()

	// The load and the merge share a transaction: a failure in either rolls
	// back with the target untouched. The staging drop stays outside it so a
	// teardown failure cannot overturn a committed merge.
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return &StepError{Step: StepLoad, Err: fmt.Errorf("begin tx: %w", err)}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := copyRows(ctx, tx, plan); err != nil {
		return &StepError{Step: StepLoad, Err: err}
	}
	if _, err := tx.ExecContext(ctx, plan.MergeSQL); err != nil {
		return &StepError{Step: StepMerge, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StepError{Step: StepMerge, Err: fmt.Errorf("commit tx: %w", err)}
	}
	committed = true
	return nil
}

// copyRows streams the batch into the staging table through the COPY
// protocol; lib/pq handles the wire serialization row by row.
func copyRows(ctx context.Context, tx *sql.Tx, plan *Plan) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(plan.Staging, plan.Columns...))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	for i, row := range plan.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copy row %d: %w", i, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}
	return nil
}
