package upsert

import (
	"context"
	"time"
)

// Metrics describes one completed upsert call.
type Metrics struct {
	Strategy  string
	Table     string
	BatchSize int
	Duration  time.Duration
	StartTime time.Time
	Err       error
}

// MetricsReporter receives one report per upsert call. Implementations must
// be safe for concurrent use.
type MetricsReporter interface {
	ReportUpsert(ctx context.Context, metrics Metrics)
}

func reportUpsert(ctx context.Context, reporter MetricsReporter, strategy, table string, batchSize int, start time.Time, err error) {
	if reporter == nil {
		return
	}
	reporter.ReportUpsert(ctx, Metrics{
		Strategy:  strategy,
		Table:     table,
		BatchSize: batchSize,
		Duration:  time.Since(start),
		StartTime: start,
		Err:       err,
	})
}
