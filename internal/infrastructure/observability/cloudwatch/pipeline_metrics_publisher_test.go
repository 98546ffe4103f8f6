package cloudwatch

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	applicationPort "github.com/dreschagin/factory-health-monitor/internal/application/port"
)

type fakeMetricDataClient struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeMetricDataClient) PutMetricData(_ context.Context, input *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, input)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func newTestPublisher(client metricDataClient) *PipelineMetricsPublisher {
	return newPipelineMetricsPublisher(client, PipelineMetricsConfig{
		Namespace:     "FactoryHealth/Test",
		BufferSize:    100,
		FlushInterval: time.Hour, // flush manually in tests
	})
}

func TestRecordIngest_PublishesCounters(t *testing.T) {
	client := &fakeMetricDataClient{}
	p := newTestPublisher(client)
	defer p.Close(context.Background())

	p.RecordIngest(context.Background(), applicationPort.IngestStats{
		Source:    "s3://factory/readings_1.csv",
		Total:     10,
		Invalid:   2,
		Anomalous: 3,
		Malformed: 1,
	})

	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("expected one PutMetricData call, got %d", len(client.inputs))
	}

	input := client.inputs[0]
	if aws.ToString(input.Namespace) != "FactoryHealth/Test" {
		t.Errorf("unexpected namespace: %s", aws.ToString(input.Namespace))
	}
	if len(input.MetricData) != 4 {
		t.Fatalf("expected 4 datums, got %d", len(input.MetricData))
	}

	byName := datumsByName(input.MetricData)
	if got := aws.ToFloat64(byName["ReadingsIngested"].Value); got != 10 {
		t.Errorf("ReadingsIngested = %v, want 10", got)
	}
	if got := aws.ToFloat64(byName["ReadingsAnomalous"].Value); got != 3 {
		t.Errorf("ReadingsAnomalous = %v, want 3", got)
	}

	dims := byName["ReadingsIngested"].Dimensions
	if len(dims) != 1 || aws.ToString(dims[0].Value) != "s3://factory/readings_1.csv" {
		t.Errorf("unexpected dimensions: %+v", dims)
	}
}

func TestRecordEvaluation_PublishesCountersAndDuration(t *testing.T) {
	client := &fakeMetricDataClient{}
	p := newTestPublisher(client)
	defer p.Close(context.Background())

	p.RecordEvaluation(context.Background(), applicationPort.EvaluationStats{
		Machines:    5,
		Healthy:     2,
		Maintenance: 2,
		Critical:    1,
		Duration:    250 * time.Millisecond,
	})

	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("expected one PutMetricData call, got %d", len(client.inputs))
	}

	byName := datumsByName(client.inputs[0].MetricData)
	if got := aws.ToFloat64(byName["MachinesCritical"].Value); got != 1 {
		t.Errorf("MachinesCritical = %v, want 1", got)
	}

	duration := byName["EvaluationDuration"]
	if duration.Unit != types.StandardUnitMilliseconds {
		t.Errorf("unexpected duration unit: %v", duration.Unit)
	}
	if got := aws.ToFloat64(duration.Value); got != 250 {
		t.Errorf("EvaluationDuration = %v, want 250", got)
	}
}

func TestFlush_EmptyBufferIsNoop(t *testing.T) {
	client := &fakeMetricDataClient{}
	p := newTestPublisher(client)
	defer p.Close(context.Background())

	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(client.inputs) != 0 {
		t.Errorf("expected no calls for empty buffer, got %d", len(client.inputs))
	}
}

func datumsByName(datums []types.MetricDatum) map[string]types.MetricDatum {
	byName := make(map[string]types.MetricDatum, len(datums))
	for _, d := range datums {
		byName[aws.ToString(d.MetricName)] = d
	}
	return byName
}
