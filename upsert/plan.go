package upsert

import (
	"fmt"
	"strings"
)

// Plan carries the statements and row data for one staging upsert call.
// Statement text is final once built; only the bulk-load transport varies
// between strategies.
type Plan struct {
	// Staging is the generated staging table name, unquoted.
	Staging string
	// Columns is the derived column list, unquoted, in field order.
	Columns []string
	// Rows holds the deduplicated, column-ordered values of the batch.
	Rows [][]any

	DropSQL   string
	CreateSQL string
	// CopySQL loads the staging table from a COPY text stream with an
	// explicit column list and NULL sentinel.
	CopySQL  string
	MergeSQL string
}

// NewPlan validates the table metadata, collapses batch-internal duplicates
// and renders the staging, copy and merge statements.
func NewPlan(table Table, batch []Record) (*Plan, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	tableIdent, err := quoteIdentifier(table.Name)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	keyIdent, err := quoteIdentifier(table.PrimaryKey)
	if err != nil {
		return nil, fmt.Errorf("primary key: %w", err)
	}

	columns := table.Columns()
	quotedColumns := make([]string, len(columns))
	for i, col := range columns {
		quoted, err := quoteIdentifier(col)
		if err != nil {
			return nil, fmt.Errorf("column[%d]: %w", i, err)
		}
		quotedColumns[i] = quoted
	}

	staging := deriveStagingName(table.Name)
	stagingIdent, err := quoteIdentifier(staging)
	if err != nil {
		return nil, fmt.Errorf("staging table: %w", err)
	}

	columnList := strings.Join(quotedColumns, ", ")

	return &Plan{
		Staging: staging,
		Columns: columns,
		Rows:    batchRows(table.PrimaryKey, columns, batch),
		DropSQL: fmt.Sprintf("DROP TABLE IF EXISTS %s", stagingIdent),
		CreateSQL: fmt.Sprintf(
			"CREATE TEMPORARY TABLE %s AS SELECT * FROM %s LIMIT 0",
			stagingIdent, tableIdent,
		),
		CopySQL: fmt.Sprintf(
			`COPY %s (%s) FROM STDIN WITH (FORMAT text, NULL '\N')`,
			stagingIdent, columnList,
		),
		MergeSQL: fmt.Sprintf(
			"INSERT INTO %s (%s) SELECT %s FROM %s%s",
			tableIdent, columnList, columnList, stagingIdent,
			conflictClause(keyIdent, table.PrimaryKey, columns, quotedColumns),
		),
	}, nil
}

// conflictClause renders the merge's conflict branch: every non-key column
// is overwritten from the incoming row. A table whose only column is the
// key degrades to DO NOTHING.
func conflictClause(keyIdent, primaryKey string, columns, quotedColumns []string) string {
	assignments := make([]string, 0, len(columns))
	for i, col := range columns {
		if col == primaryKey {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", quotedColumns[i], quotedColumns[i]))
	}
	if len(assignments) == 0 {
		return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", keyIdent)
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", keyIdent, strings.Join(assignments, ", "))
}
