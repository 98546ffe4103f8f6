package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/repository"
	"github.com/dreschagin/factory-health-monitor/internal/domain/service"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// IngestReadingsUseCase координирует загрузку сырых показаний из источников,
// их валидацию и сохранение в репозитории
type IngestReadingsUseCase struct {
	sources   []port.ReadingSource
	validator *service.ReadingValidator
	readings  repository.ReadingRepository
	metrics   port.PipelineMetrics
	runLog    port.RunLogPublisher
	events    port.EventPublisher
	logger    *logger.Logger
}

// NewIngestReadingsUseCase создает новый use case
func NewIngestReadingsUseCase(
	sources []port.ReadingSource,
	validator *service.ReadingValidator,
	readings repository.ReadingRepository,
	metrics port.PipelineMetrics,
	runLog port.RunLogPublisher,
	events port.EventPublisher,
	logger *logger.Logger,
) *IngestReadingsUseCase {
	return &IngestReadingsUseCase{
		sources:   sources,
		validator: validator,
		readings:  readings,
		metrics:   metrics,
		runLog:    runLog,
		events:    events,
		logger:    logger,
	}
}

// Execute опрашивает все источники и обрабатывает новые батчи.
// Ошибка одного источника не прерывает обработку остальных.
func (uc *IngestReadingsUseCase) Execute(ctx context.Context) error {
	var firstErr error

	for _, source := range uc.sources {
		if err := uc.ingestSource(ctx, source); err != nil {
			uc.logger.Error("Source ingest failed", err, "source", source.Name())
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// ingestSource забирает и обрабатывает батчи одного источника
func (uc *IngestReadingsUseCase) ingestSource(ctx context.Context, source port.ReadingSource) error {
	batches, err := source.FetchNew(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch from %s: %w", source.Name(), err)
	}

	for _, batch := range batches {
		if err := uc.processBatch(ctx, batch); err != nil {
			return err
		}
	}

	return nil
}

// processBatch валидирует записи одного файла и сохраняет их батчем.
// Строки, не прошедшие структурную проверку, пропускаются с warning.
func (uc *IngestReadingsUseCase) processBatch(ctx context.Context, batch port.ReadingBatch) error {
	readings := make([]*entity.Reading, 0, len(batch.Records))
	stats := port.IngestStats{
		Source:    batch.Source,
		Malformed: batch.Malformed,
	}

	for _, record := range batch.Records {
		reading, err := uc.validator.Validate(service.RawReading{
			MachineID:   record.MachineID,
			EventTime:   record.Timestamp,
			Temperature: record.Temperature,
			Vibration:   record.Vibration,
			Pressure:    record.Pressure,
			StatusCode:  record.StatusCode,
		})
		if err != nil {
			uc.logger.Warn("Skipping malformed record", "source", batch.Source, "error", err.Error())
			stats.Malformed++
			continue
		}

		stats.Total++
		if !reading.IsValid() {
			stats.Invalid++
		}
		if reading.IsAnomalous() {
			stats.Anomalous++
		}

		readings = append(readings, reading)
	}

	if len(readings) == 0 {
		uc.logger.Warn("No usable records in batch", "source", batch.Source)
		return nil
	}

	if err := uc.readings.SaveBatch(ctx, readings); err != nil {
		return fmt.Errorf("failed to save readings batch: %w", err)
	}

	uc.logger.Info("Ingested readings batch",
		"source", batch.Source,
		"total", stats.Total,
		"invalid", stats.Invalid,
		"anomalous", stats.Anomalous,
		"malformed", stats.Malformed)

	uc.metrics.RecordIngest(ctx, stats)
	uc.publishIngestEvents(ctx, batch.Source, stats)

	return nil
}

// publishIngestEvents отправляет аудит-событие и NATS-событие батча.
// Ошибки публикации не фатальны: данные уже сохранены.
func (uc *IngestReadingsUseCase) publishIngestEvents(ctx context.Context, source string, stats port.IngestStats) {
	event := port.RunLogEvent{
		Timestamp: time.Now().UTC(),
		Kind:      port.RunEventIngest,
		Message:   fmt.Sprintf("ingested batch from %s", source),
		Fields: map[string]interface{}{
			"source":    source,
			"total":     stats.Total,
			"invalid":   stats.Invalid,
			"anomalous": stats.Anomalous,
			"malformed": stats.Malformed,
		},
	}
	if err := uc.runLog.Publish(ctx, event); err != nil {
		uc.logger.Warn("Failed to publish run log event", "error", err.Error())
	}

	if err := uc.events.PublishEvent(ctx, "readings.ingested", stats); err != nil {
		uc.logger.Warn("Failed to publish ingest event", "error", err.Error())
	}
}
