package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/service"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

type evaluateFixture struct {
	readings   *mockReadingRepository
	verdicts   *mockVerdictRepository
	notifier   *mockNotifier
	dispatcher *mockDispatcher
	history    *mockAlertHistory
	cache      *mockCache
	metrics    *mockPipelineMetrics
	runLog     *mockRunLog
	events     *mockEventPublisher
	uc         *EvaluateMachineHealthUseCase
}

func newEvaluateFixture(t *testing.T, byMachine map[string][]*entity.Reading, result port.DispatchResult) *evaluateFixture {
	t.Helper()

	evaluator, err := service.NewHealthEvaluator(service.PolicyThreshold)
	if err != nil {
		t.Fatalf("NewHealthEvaluator() error = %v", err)
	}

	f := &evaluateFixture{
		readings:   &mockReadingRepository{byMachine: byMachine},
		verdicts:   &mockVerdictRepository{},
		notifier:   &mockNotifier{},
		dispatcher: &mockDispatcher{result: result},
		history:    &mockAlertHistory{},
		cache:      &mockCache{},
		metrics:    &mockPipelineMetrics{},
		runLog:     &mockRunLog{},
		events:     &mockEventPublisher{},
	}

	f.uc = NewEvaluateMachineHealthUseCase(
		f.readings, f.verdicts, evaluator, 24*time.Hour,
		f.notifier, f.dispatcher, f.history, f.cache,
		f.metrics, f.runLog, f.events, logger.New("error"),
	)
	return f
}

func TestEvaluateMachineHealth_FullRun(t *testing.T) {
	now := time.Now()
	byMachine := map[string][]*entity.Reading{
		// avg_temperature=95, max_vibration=0.9 -> risk 90, CRITICAL
		"M001": {
			mustReading("M001", now.Add(-2*time.Hour), 95, 0.9, 300, "WARN", false, valueobject.ReadingNormal),
			mustReading("M001", now.Add(-1*time.Hour), 95, 0.9, 300, "WARN", false, valueobject.ReadingNormal),
			// invalid показание не должно попасть в агрегацию
			mustReading("M001", now, 999, 0.1, 300, "AOK", false, valueobject.ReadingInvalid),
		},
		// avg_temperature=70, max_vibration=0.4 -> risk 30, HEALTHY
		"M002": {
			mustReading("M002", now.Add(-1*time.Hour), 70, 0.4, 300, "AOK", false, valueobject.ReadingNormal),
		},
		// только invalid показания: вердикт не эмитится
		"M003": {
			mustReading("M003", now, 50, 0.2, 300, "AOK", false, valueobject.ReadingInvalid),
		},
	}

	f := newEvaluateFixture(t, byMachine, port.DispatchResult{
		Status:    port.DispatchStatusSuccess,
		EmailSent: true,
		MessageID: "msg-123",
	})

	snapshot, err := f.uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(f.verdicts.replaced) != 1 {
		t.Fatalf("expected one ReplaceAll call, got %d", len(f.verdicts.replaced))
	}
	if got := len(f.verdicts.replaced[0]); got != 2 {
		t.Fatalf("expected 2 verdicts, got %d", got)
	}

	if snapshot.Summary.CriticalCount != 1 || snapshot.Summary.HealthyCount != 1 {
		t.Errorf("unexpected summary: %+v", snapshot.Summary)
	}
	if snapshot.Summary.OverallStatus != "critical" {
		t.Errorf("expected overall status critical, got %s", snapshot.Summary.OverallStatus)
	}

	if len(f.cache.deletedPatterns) != 1 || f.cache.deletedPatterns[0] != VerdictCachePattern {
		t.Errorf("expected cache invalidation with %q, got %v", VerdictCachePattern, f.cache.deletedPatterns)
	}

	if len(f.notifier.snapshots) != 1 {
		t.Fatalf("expected one snapshot broadcast, got %d", len(f.notifier.snapshots))
	}
	if len(f.notifier.alerts) != 1 || f.notifier.alerts[0].MachineID != "M001" {
		t.Fatalf("expected one alert for M001, got %+v", f.notifier.alerts)
	}

	if len(f.dispatcher.reports) != 1 {
		t.Fatalf("expected one dispatched report, got %d", len(f.dispatcher.reports))
	}
	report := f.dispatcher.reports[0]
	if len(report.Machines) != 1 || report.Machines[0].MachineID != "M001" {
		t.Fatalf("unexpected report machines: %+v", report.Machines)
	}
	if report.Machines[0].RiskScore != 90 {
		t.Errorf("expected risk score 90, got %v", report.Machines[0].RiskScore)
	}

	if len(f.history.records) != 1 {
		t.Fatalf("expected one history record, got %d", len(f.history.records))
	}
	record := f.history.records[0]
	if record.Status != port.DispatchStatusSuccess || !record.EmailSent || record.MessageID != "msg-123" {
		t.Errorf("unexpected history record: %+v", record)
	}
	if len(record.MachineIDs) != 1 || record.MachineIDs[0] != "M001" {
		t.Errorf("unexpected history machine ids: %v", record.MachineIDs)
	}

	if len(f.metrics.evaluations) != 1 {
		t.Fatalf("expected one evaluation stats record, got %d", len(f.metrics.evaluations))
	}
	stats := f.metrics.evaluations[0]
	if stats.Machines != 2 || stats.Healthy != 1 || stats.Critical != 1 || stats.Maintenance != 0 {
		t.Errorf("unexpected evaluation stats: %+v", stats)
	}

	if len(f.runLog.events) != 1 || f.runLog.events[0].Kind != port.RunEventEvaluation {
		t.Errorf("expected one evaluation run log event, got %+v", f.runLog.events)
	}
	if len(f.events.subjects) != 1 || f.events.subjects[0] != "health.evaluated" {
		t.Errorf("expected health.evaluated event, got %v", f.events.subjects)
	}
}

func TestEvaluateMachineHealth_NoCriticalMachines(t *testing.T) {
	now := time.Now()
	byMachine := map[string][]*entity.Reading{
		"M002": {
			mustReading("M002", now, 70, 0.4, 300, "AOK", false, valueobject.ReadingNormal),
		},
	}

	f := newEvaluateFixture(t, byMachine, port.DispatchResult{Status: port.DispatchStatusSkipped})

	if _, err := f.uc.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(f.notifier.alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(f.notifier.alerts))
	}
	if len(f.dispatcher.reports) != 1 || len(f.dispatcher.reports[0].Machines) != 0 {
		t.Fatalf("expected empty report dispatch, got %+v", f.dispatcher.reports)
	}
	if f.history.records[0].Status != port.DispatchStatusSkipped {
		t.Errorf("expected skipped history record, got %+v", f.history.records[0])
	}
}

func TestEvaluateMachineHealth_EmptyDatabase(t *testing.T) {
	f := newEvaluateFixture(t, map[string][]*entity.Reading{}, port.DispatchResult{Status: port.DispatchStatusSkipped})

	snapshot, err := f.uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// Пустой набор тоже заменяет: устаревшие вердикты не переживают run
	if len(f.verdicts.replaced) != 1 || len(f.verdicts.replaced[0]) != 0 {
		t.Fatalf("expected ReplaceAll with empty set, got %+v", f.verdicts.replaced)
	}
	if snapshot.Summary.TotalMachines != 0 || snapshot.Summary.OverallStatus != "healthy" {
		t.Errorf("unexpected summary: %+v", snapshot.Summary)
	}
}
