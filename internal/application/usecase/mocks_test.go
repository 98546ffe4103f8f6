package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/application/dto"
	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

type mockReadingRepository struct {
	saved     [][]*entity.Reading
	byMachine map[string][]*entity.Reading
	findErr   error
}

func (m *mockReadingRepository) SaveBatch(_ context.Context, readings []*entity.Reading) error {
	m.saved = append(m.saved, readings)
	return nil
}

func (m *mockReadingRepository) FindMachineIDs(_ context.Context, _ valueobject.TimeRange) ([]string, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	ids := make([]string, 0, len(m.byMachine))
	for id := range m.byMachine {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockReadingRepository) FindValidByMachine(_ context.Context, machineID string, _ valueobject.TimeRange) ([]*entity.Reading, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	valid := make([]*entity.Reading, 0)
	for _, r := range m.byMachine[machineID] {
		if r.IsValid() {
			valid = append(valid, r)
		}
	}
	return valid, nil
}

func (m *mockReadingRepository) FindRecent(_ context.Context, machineID string, limit int) ([]*entity.Reading, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	readings := make([]*entity.Reading, 0)
	for id, rs := range m.byMachine {
		if machineID != "" && id != machineID {
			continue
		}
		readings = append(readings, rs...)
	}
	if len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}

func (m *mockReadingRepository) DeleteOlderThan(_ context.Context, _ valueobject.TimeRange) (int64, error) {
	return 0, nil
}

func (m *mockReadingRepository) Count(_ context.Context, _ valueobject.ReadingStatus) (int64, error) {
	return 0, nil
}

type mockVerdictRepository struct {
	replaced   [][]*entity.MachineHealthVerdict
	replaceErr error
}

func (m *mockVerdictRepository) ReplaceAll(_ context.Context, verdicts []*entity.MachineHealthVerdict) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaced = append(m.replaced, verdicts)
	return nil
}

func (m *mockVerdictRepository) FindAll(_ context.Context) ([]*entity.MachineHealthVerdict, error) {
	if len(m.replaced) == 0 {
		return nil, nil
	}
	return m.replaced[len(m.replaced)-1], nil
}

func (m *mockVerdictRepository) FindByStatus(_ context.Context, status valueobject.HealthStatus) ([]*entity.MachineHealthVerdict, error) {
	all, _ := m.FindAll(context.Background())
	matched := make([]*entity.MachineHealthVerdict, 0)
	for _, v := range all {
		if v.HealthStatus() == status {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

func (m *mockVerdictRepository) FindByMachine(_ context.Context, machineID string) (*entity.MachineHealthVerdict, error) {
	all, _ := m.FindAll(context.Background())
	for _, v := range all {
		if v.MachineID() == machineID {
			return v, nil
		}
	}
	return nil, nil
}

type mockNotifier struct {
	snapshots []*dto.HealthSnapshotDTO
	alerts    []*dto.AlertWebsocketDTO
}

func (m *mockNotifier) Broadcast(snapshot *dto.HealthSnapshotDTO) {
	m.snapshots = append(m.snapshots, snapshot)
}

func (m *mockNotifier) BroadcastAlert(alert *dto.AlertWebsocketDTO) {
	m.alerts = append(m.alerts, alert)
}

func (m *mockNotifier) ClientCount() int { return 0 }

type mockDispatcher struct {
	reports []*dto.CriticalReportDTO
	result  port.DispatchResult
	err     error
}

func (m *mockDispatcher) SendCriticalReport(_ context.Context, report *dto.CriticalReportDTO) (port.DispatchResult, error) {
	m.reports = append(m.reports, report)
	return m.result, m.err
}

type mockAlertHistory struct {
	records []port.AlertHistoryRecord
}

func (m *mockAlertHistory) Put(_ context.Context, record port.AlertHistoryRecord) error {
	m.records = append(m.records, record)
	return nil
}

func (m *mockAlertHistory) ListRecent(_ context.Context, limit int) ([]port.AlertHistoryRecord, error) {
	if len(m.records) > limit {
		return m.records[:limit], nil
	}
	return m.records, nil
}

type mockCache struct {
	deletedPatterns []string
}

func (m *mockCache) Get(_ context.Context, _ string, _ interface{}) error {
	return errors.New("cache miss")
}
func (m *mockCache) Set(_ context.Context, _ string, _ interface{}) error { return nil }

func (m *mockCache) Delete(_ context.Context, _ string) error { return nil }

func (m *mockCache) DeletePattern(_ context.Context, pattern string) error {
	m.deletedPatterns = append(m.deletedPatterns, pattern)
	return nil
}
func (m *mockCache) Close() error { return nil }

type mockPipelineMetrics struct {
	ingests     []port.IngestStats
	evaluations []port.EvaluationStats
}

func (m *mockPipelineMetrics) RecordIngest(_ context.Context, stats port.IngestStats) {
	m.ingests = append(m.ingests, stats)
}

func (m *mockPipelineMetrics) RecordEvaluation(_ context.Context, stats port.EvaluationStats) {
	m.evaluations = append(m.evaluations, stats)
}

type mockRunLog struct {
	events []port.RunLogEvent
}

func (m *mockRunLog) Publish(_ context.Context, event port.RunLogEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockRunLog) Close(_ context.Context) error { return nil }

type mockEventPublisher struct {
	subjects []string
}

func (m *mockEventPublisher) PublishEvent(_ context.Context, subject string, _ interface{}) error {
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockEventPublisher) Close() error { return nil }

type mockReadingSource struct {
	name    string
	batches []port.ReadingBatch
	err     error
	fetched int
}

func (m *mockReadingSource) FetchNew(_ context.Context) ([]port.ReadingBatch, error) {
	m.fetched++
	if m.err != nil {
		return nil, m.err
	}
	batches := m.batches
	m.batches = nil
	return batches, nil
}

func (m *mockReadingSource) Name() string { return m.name }

// mustReading строит валидное показание для тестов
func mustReading(machineID string, eventTime time.Time, temp, vib, pres float64, code string, anomalous bool, status valueobject.ReadingStatus) *entity.Reading {
	t, v, p := temp, vib, pres
	r, err := entity.NewReading(machineID, eventTime, &t, &v, &p, valueobject.StatusCode(code), anomalous, status)
	if err != nil {
		panic(err)
	}
	return r
}
