package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/internal/domain/service"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

func newIngestUseCase(sources []port.ReadingSource, repo *mockReadingRepository, metrics *mockPipelineMetrics, runLog *mockRunLog, events *mockEventPublisher) *IngestReadingsUseCase {
	validator := service.NewReadingValidator(service.ValidationStrict, service.StaticThreshold(100))
	return NewIngestReadingsUseCase(sources, validator, repo, metrics, runLog, events, logger.New("error"))
}

func TestIngestReadings_SavesValidatedBatch(t *testing.T) {
	now := time.Now()
	source := &mockReadingSource{
		name: "s3",
		batches: []port.ReadingBatch{
			{
				Source:    "s3://factory/readings_1.csv",
				Malformed: 1,
				Records: []port.RawRecord{
					{MachineID: "M001", Timestamp: now, Temperature: 70, Vibration: 0.4, Pressure: 300, StatusCode: "AOK"},
					// temperature вне диапазона: strict помечает строку invalid
					{MachineID: "M002", Timestamp: now, Temperature: 200, Vibration: 0.4, Pressure: 300, StatusCode: "AOK"},
					// vibration > 1.0: аномалия
					{MachineID: "M003", Timestamp: now, Temperature: 70, Vibration: 1.5, Pressure: 300, StatusCode: "AOK"},
					// без machine_id: malformed, пропускается
					{MachineID: "", Timestamp: now, Temperature: 70, Vibration: 0.4, Pressure: 300, StatusCode: "AOK"},
				},
			},
		},
	}

	repo := &mockReadingRepository{}
	metrics := &mockPipelineMetrics{}
	runLog := &mockRunLog{}
	events := &mockEventPublisher{}

	uc := newIngestUseCase([]port.ReadingSource{source}, repo, metrics, runLog, events)

	if err := uc.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(repo.saved) != 1 {
		t.Fatalf("expected one batch save, got %d", len(repo.saved))
	}
	if got := len(repo.saved[0]); got != 3 {
		t.Fatalf("expected 3 saved readings, got %d", got)
	}

	if len(metrics.ingests) != 1 {
		t.Fatalf("expected one ingest stats record, got %d", len(metrics.ingests))
	}
	stats := metrics.ingests[0]
	if stats.Total != 3 || stats.Invalid != 1 || stats.Anomalous != 1 || stats.Malformed != 2 {
		t.Errorf("unexpected ingest stats: %+v", stats)
	}
	if stats.Source != "s3://factory/readings_1.csv" {
		t.Errorf("unexpected stats source: %s", stats.Source)
	}

	if len(runLog.events) != 1 || runLog.events[0].Kind != port.RunEventIngest {
		t.Errorf("expected one ingest run log event, got %+v", runLog.events)
	}
	if len(events.subjects) != 1 || events.subjects[0] != "readings.ingested" {
		t.Errorf("expected readings.ingested event, got %v", events.subjects)
	}
}

func TestIngestReadings_SourceFailureDoesNotBlockOthers(t *testing.T) {
	now := time.Now()
	broken := &mockReadingSource{name: "s3", err: errors.New("bucket unavailable")}
	working := &mockReadingSource{
		name: "localdir",
		batches: []port.ReadingBatch{
			{
				Source: "drop/readings_2.csv",
				Records: []port.RawRecord{
					{MachineID: "M001", Timestamp: now, Temperature: 70, Vibration: 0.4, Pressure: 300, StatusCode: "AOK"},
				},
			},
		},
	}

	repo := &mockReadingRepository{}
	uc := newIngestUseCase([]port.ReadingSource{broken, working}, repo, &mockPipelineMetrics{}, &mockRunLog{}, &mockEventPublisher{})

	err := uc.Execute(context.Background())
	if err == nil {
		t.Fatalf("expected error from broken source")
	}
	if working.fetched != 1 {
		t.Errorf("expected working source to be polled")
	}
	if len(repo.saved) != 1 {
		t.Errorf("expected batch from working source to be saved, got %d saves", len(repo.saved))
	}
}

func TestIngestReadings_EmptyBatchSkipsSave(t *testing.T) {
	source := &mockReadingSource{
		name: "s3",
		batches: []port.ReadingBatch{
			{Source: "s3://factory/empty.csv", Records: nil, Malformed: 3},
		},
	}

	repo := &mockReadingRepository{}
	metrics := &mockPipelineMetrics{}
	uc := newIngestUseCase([]port.ReadingSource{source}, repo, metrics, &mockRunLog{}, &mockEventPublisher{})

	if err := uc.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(repo.saved) != 0 {
		t.Errorf("expected no saves for empty batch, got %d", len(repo.saved))
	}
	if len(metrics.ingests) != 0 {
		t.Errorf("expected no stats for empty batch, got %d", len(metrics.ingests))
	}
}
