package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	applicationPort "github.com/dreschagin/factory-health-monitor/internal/application/port"
)

const (
	maxLogEventsPerRequest = 10000
)

// logEventsClient is the subset of the CloudWatch Logs client used by the publisher.
type logEventsClient interface {
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
}

// RunLogConfig holds configuration for the pipeline audit log.
type RunLogConfig struct {
	LogGroupName    string
	LogStreamName   string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BufferSize      int
	FlushInterval   time.Duration
	AutoCreate      bool
}

// RunLogPublisher ships pipeline audit events to CloudWatch Logs.
// Events are buffered and flushed in the background.
type RunLogPublisher struct {
	client        logEventsClient
	logGroupName  string
	logStreamName string

	buffer     []applicationPort.RunLogEvent
	bufferSize int
	mu         sync.Mutex

	flushTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewRunLogPublisher creates a CloudWatch Logs run log publisher.
func NewRunLogPublisher(ctx context.Context, cfg RunLogConfig) (*RunLogPublisher, error) {
	if cfg.LogGroupName == "" {
		return nil, fmt.Errorf("log group name is required")
	}
	if cfg.LogStreamName == "" {
		return nil, fmt.Errorf("log stream name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}

	awsCfg, err := buildAWSConfig(ctx, cfg.Region, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := cloudwatchlogs.NewFromConfig(awsCfg)

	p := newRunLogPublisher(client, cfg)

	if cfg.AutoCreate {
		if err := p.ensureLogGroupAndStream(ctx); err != nil {
			return nil, fmt.Errorf("failed to create log group/stream: %w", err)
		}
	}

	return p, nil
}

func newRunLogPublisher(client logEventsClient, cfg RunLogConfig) *RunLogPublisher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	p := &RunLogPublisher{
		client:        client,
		logGroupName:  cfg.LogGroupName,
		logStreamName: cfg.LogStreamName,
		buffer:        make([]applicationPort.RunLogEvent, 0, cfg.BufferSize),
		bufferSize:    cfg.BufferSize,
		flushTicker:   time.NewTicker(cfg.FlushInterval),
		stopCh:        make(chan struct{}),
	}

	p.wg.Add(1)
	go p.flushLoop()

	return p
}

// Publish буферизует событие для отправки
func (p *RunLogPublisher) Publish(ctx context.Context, event applicationPort.RunLogEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buffer = append(p.buffer, event)

	// Auto-flush if buffer is full
	if len(p.buffer) >= p.bufferSize {
		if err := p.flushBufferUnsafe(ctx); err != nil {
			return fmt.Errorf("failed to flush buffer: %w", err)
		}
	}

	return nil
}

// Close останавливает фоновый flush и отправляет остаток буфера
func (p *RunLogPublisher) Close(ctx context.Context) error {
	close(p.stopCh)
	p.flushTicker.Stop()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushBufferUnsafe(ctx)
}

// flushLoop runs in a background goroutine and flushes the buffer periodically.
func (p *RunLogPublisher) flushLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			p.mu.Lock()
			// Errors are retried on the next tick
			_ = p.flushBufferUnsafe(ctx)
			p.mu.Unlock()
			cancel()
		case <-p.stopCh:
			return
		}
	}
}

// flushBufferUnsafe flushes the buffer without locking (caller must hold lock).
func (p *RunLogPublisher) flushBufferUnsafe(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}

	events := make([]types.InputLogEvent, 0, len(p.buffer))
	for _, event := range p.buffer {
		message, err := json.Marshal(event)
		if err != nil {
			// Несериализуемое событие пропускаем
			continue
		}
		events = append(events, types.InputLogEvent{
			Timestamp: aws.Int64(event.Timestamp.UnixMilli()),
			Message:   aws.String(string(message)),
		})
	}

	for i := 0; i < len(events); i += maxLogEventsPerRequest {
		end := i + maxLogEventsPerRequest
		if end > len(events) {
			end = len(events)
		}

		_, err := p.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(p.logGroupName),
			LogStreamName: aws.String(p.logStreamName),
			LogEvents:     events[i:end],
		})
		if err != nil {
			return fmt.Errorf("failed to put log events: %w", err)
		}
	}

	p.buffer = p.buffer[:0]

	return nil
}

// ensureLogGroupAndStream creates the log group and stream if missing.
func (p *RunLogPublisher) ensureLogGroupAndStream(ctx context.Context) error {
	_, err := p.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(p.logGroupName),
	})
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("failed to create log group: %w", err)
	}

	_, err = p.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(p.logGroupName),
		LogStreamName: aws.String(p.logStreamName),
	})
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("failed to create log stream: %w", err)
	}

	return nil
}

func isAlreadyExists(err error) bool {
	var alreadyExists *types.ResourceAlreadyExistsException
	return errors.As(err, &alreadyExists)
}
