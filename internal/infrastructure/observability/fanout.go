package observability

import (
	"context"

	"github.com/dreschagin/factory-health-monitor/internal/application/port"
)

// FanoutPipelineMetrics рассылает счетчики pipeline нескольким приемникам
// (CloudWatch + Prometheus). nil приемники пропускаются.
type FanoutPipelineMetrics []port.PipelineMetrics

func (f FanoutPipelineMetrics) RecordIngest(ctx context.Context, stats port.IngestStats) {
	for _, sink := range f {
		if sink != nil {
			sink.RecordIngest(ctx, stats)
		}
	}
}

func (f FanoutPipelineMetrics) RecordEvaluation(ctx context.Context, stats port.EvaluationStats) {
	for _, sink := range f {
		if sink != nil {
			sink.RecordEvaluation(ctx, stats)
		}
	}
}
