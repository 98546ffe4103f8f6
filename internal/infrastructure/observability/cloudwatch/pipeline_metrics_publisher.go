package cloudwatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	applicationPort "github.com/dreschagin/factory-health-monitor/internal/application/port"
)

const (
	// CloudWatch limits
	maxMetricsPerRequest = 1000
	maxRetries           = 3
	initialBackoff       = 100 * time.Millisecond
)

// metricDataClient is the subset of the CloudWatch client used by the publisher.
type metricDataClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// PipelineMetricsConfig holds configuration for CloudWatch metrics publishing.
type PipelineMetricsConfig struct {
	Namespace       string // CloudWatch namespace (e.g., "FactoryHealth/Pipeline")
	Region          string // AWS region
	Endpoint        string // Optional endpoint override (for LocalStack)
	AccessKeyID     string // AWS access key
	SecretAccessKey string // AWS secret key
	BufferSize      int    // Buffer size before auto-flush
	FlushInterval   time.Duration
}

// PipelineMetricsPublisher publishes ingest and evaluation counters to
// AWS CloudWatch. Datums are buffered and flushed in the background.
type PipelineMetricsPublisher struct {
	client    metricDataClient
	namespace string

	buffer     []types.MetricDatum
	bufferSize int
	mu         sync.Mutex

	flushTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewPipelineMetricsPublisher creates a new CloudWatch metrics publisher.
func NewPipelineMetricsPublisher(ctx context.Context, cfg PipelineMetricsConfig) (*PipelineMetricsPublisher, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}

	awsCfg, err := buildAWSConfig(ctx, cfg.Region, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	return newPipelineMetricsPublisher(cloudwatch.NewFromConfig(awsCfg), cfg), nil
}

func newPipelineMetricsPublisher(client metricDataClient, cfg PipelineMetricsConfig) *PipelineMetricsPublisher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 10 * time.Second
	}

	p := &PipelineMetricsPublisher{
		client:      client,
		namespace:   cfg.Namespace,
		buffer:      make([]types.MetricDatum, 0, cfg.BufferSize),
		bufferSize:  cfg.BufferSize,
		flushTicker: time.NewTicker(cfg.FlushInterval),
		stopCh:      make(chan struct{}),
	}

	// Start background flush goroutine
	p.wg.Add(1)
	go p.flushLoop()

	return p
}

// RecordIngest публикует счетчики ingest батча
func (p *PipelineMetricsPublisher) RecordIngest(ctx context.Context, stats applicationPort.IngestStats) {
	now := time.Now()
	dimensions := []types.Dimension{
		{Name: aws.String("Source"), Value: aws.String(stats.Source)},
	}

	p.enqueue(ctx,
		countDatum("ReadingsIngested", float64(stats.Total), dimensions, now),
		countDatum("ReadingsInvalid", float64(stats.Invalid), dimensions, now),
		countDatum("ReadingsAnomalous", float64(stats.Anomalous), dimensions, now),
		countDatum("RowsMalformed", float64(stats.Malformed), dimensions, now),
	)
}

// RecordEvaluation публикует счетчики evaluation run
func (p *PipelineMetricsPublisher) RecordEvaluation(ctx context.Context, stats applicationPort.EvaluationStats) {
	now := time.Now()

	p.enqueue(ctx,
		countDatum("MachinesEvaluated", float64(stats.Machines), nil, now),
		countDatum("MachinesHealthy", float64(stats.Healthy), nil, now),
		countDatum("MachinesNeedMaintenance", float64(stats.Maintenance), nil, now),
		countDatum("MachinesCritical", float64(stats.Critical), nil, now),
		types.MetricDatum{
			MetricName: aws.String("EvaluationDuration"),
			Value:      aws.Float64(float64(stats.Duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(now),
		},
	)
}

// Flush forces immediate publication of all buffered datums.
func (p *PipelineMetricsPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.flushBufferUnsafe(ctx)
}

// Close stops the background flush goroutine and flushes remaining datums.
func (p *PipelineMetricsPublisher) Close(ctx context.Context) error {
	close(p.stopCh)
	p.flushTicker.Stop()
	p.wg.Wait()

	return p.Flush(ctx)
}

// enqueue buffers datums and auto-flushes when the buffer is full.
func (p *PipelineMetricsPublisher) enqueue(ctx context.Context, datums ...types.MetricDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buffer = append(p.buffer, datums...)

	if len(p.buffer) >= p.bufferSize {
		// Errors are swallowed here: counters are best-effort and the
		// background loop retries on the next tick.
		_ = p.flushBufferUnsafe(ctx)
	}
}

// flushLoop runs in a background goroutine and flushes the buffer periodically.
func (p *PipelineMetricsPublisher) flushLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			_ = p.Flush(ctx)
			cancel()
		case <-p.stopCh:
			return
		}
	}
}

// flushBufferUnsafe flushes the buffer without locking (caller must hold lock).
func (p *PipelineMetricsPublisher) flushBufferUnsafe(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}

	// Publish in chunks (CloudWatch limit: 1000 metrics/request)
	for i := 0; i < len(p.buffer); i += maxMetricsPerRequest {
		end := i + maxMetricsPerRequest
		if end > len(p.buffer) {
			end = len(p.buffer)
		}

		if err := p.publishBatchWithRetry(ctx, p.buffer[i:end]); err != nil {
			return fmt.Errorf("failed to publish chunk: %w", err)
		}
	}

	p.buffer = p.buffer[:0]

	return nil
}

// publishBatchWithRetry publishes a batch of datums with exponential backoff retry.
func (p *PipelineMetricsPublisher) publishBatchWithRetry(ctx context.Context, data []types.MetricDatum) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		input := &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: data,
		}

		_, err := p.client.PutMetricData(ctx, input)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt < maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// countDatum builds a Count datum with optional dimensions.
func countDatum(name string, value float64, dimensions []types.Dimension, timestamp time.Time) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(timestamp),
		Dimensions: dimensions,
	}
}

// buildAWSConfig creates an AWS config with credentials.
func buildAWSConfig(ctx context.Context, region, endpoint, accessKeyID, secretAccessKey string) (aws.Config, error) {
	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	// Add static credentials if provided
	if accessKeyID != "" && secretAccessKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, err
	}

	// Override endpoint if specified (for LocalStack testing)
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}

	return cfg, nil
}
