// Package upsert persists batches of records into PostgreSQL tables with
// insert-or-update semantics. The primary strategy stages the batch in a
// call-scoped temporary table via COPY and reconciles it into the target
// with a single ON CONFLICT merge statement.
package upsert

import "context"

// Record holds one row's values keyed by physical column name. A nil value,
// or an absent key, loads as SQL NULL.
type Record map[string]any

type Upserter interface {
	Upsert(ctx context.Context, table Table, batch []Record) error
}
