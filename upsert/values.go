package upsert

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ValuesUpserter performs the merge as one multi-row INSERT ... ON CONFLICT
// statement without a staging table. For small batches this saves the
// staging round trips; large batches should prefer StagingUpserter, which
// is not bounded by the placeholder limit.
type ValuesUpserter struct {
	db       *sql.DB
	reporter MetricsReporter
}

var _ Upserter = (*ValuesUpserter)(nil)

func NewValuesUpserter(db *sql.DB) *ValuesUpserter {
	return &ValuesUpserter{db: db}
}

// WithMetricsReporter installs an optional per-call reporter.
func (v *ValuesUpserter) WithMetricsReporter(reporter MetricsReporter) *ValuesUpserter {
	v.reporter = reporter
	return v
}

func (v *ValuesUpserter) Upsert(ctx context.Context, table Table, batch []Record) error {
	if err := table.Validate(); err != nil {
		return err
	}
	columns := table.Columns()
	rows := batchRows(table.PrimaryKey, columns, batch)
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	err := v.run(ctx, table, columns, rows)
	reportUpsert(ctx, v.reporter, "values", table.Name, len(batch), start, err)
	return err
}

func (v *ValuesUpserter) run(ctx context.Context, table Table, columns []string, rows [][]any) error {
	tableIdent, err := quoteIdentifier(table.Name)
	if err != nil {
		return fmt.Errorf("table: %w", err)
	}
	keyIdent, err := quoteIdentifier(table.PrimaryKey)
	if err != nil {
		return fmt.Errorf("primary key: %w", err)
	}
	quotedColumns := make([]string, len(columns))
	for i, col := range columns {
		quoted, err := quoteIdentifier(col)
		if err != nil {
			return fmt.Errorf("column[%d]: %w", i, err)
		}
		quotedColumns[i] = quoted
	}

	placeholders := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	argIdx := 1
	for i, row := range rows {
		rowPlaceholders := make([]string, len(columns))
		for j := range columns {
			rowPlaceholders[j] = fmt.Sprintf("$%d", argIdx)
			args = append(args, row[j])
			argIdx++
		}
		placeholders[i] = fmt.Sprintf("(%s)", strings.Join(rowPlaceholders, ", "))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s%s",
		tableIdent,
		strings.Join(quotedColumns, ", "),
		strings.Join(placeholders, ", "),
		conflictClause(keyIdent, table.PrimaryKey, columns, quotedColumns),
	)

	if _, err := v.db.ExecContext(ctx, query, args...); err != nil {
		return &StepError{Step: StepMerge, Err: fmt.Errorf("exec upsert: %w", err)}
	}
	return nil
}
