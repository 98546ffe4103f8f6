package port

import (
	"context"
	"time"
)

// IngestStats - счетчики одного ingest батча.
type IngestStats struct {
	Source    string
	Total     int
	Invalid   int
	Anomalous int
	Malformed int
}

// EvaluationStats - счетчики одного evaluation run.
type EvaluationStats struct {
	Machines    int
	Healthy     int
	Maintenance int
	Critical    int
	Duration    time.Duration
}

// PipelineMetrics публикует счетчики pipeline во внешнюю систему метрик.
// Реализации: CloudWatch publisher и Prometheus registry.
type PipelineMetrics interface {
	// RecordIngest публикует счетчики ingest батча
	RecordIngest(ctx context.Context, stats IngestStats)

	// RecordEvaluation публикует счетчики evaluation run
	RecordEvaluation(ctx context.Context, stats EvaluationStats)
}
