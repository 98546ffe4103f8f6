package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dreschagin/factory-health-monitor/internal/application/dto"
	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/repository"
	"github.com/dreschagin/factory-health-monitor/internal/domain/service"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// VerdictCachePattern - паттерн ключей кэша, инвалидируемых после
// каждого evaluation run.
const VerdictCachePattern = "verdicts:*"

// EvaluateMachineHealthUseCase выполняет полный evaluation run: вычисляет
// вердикты по всем машинам, атомарно заменяет предыдущий набор, рассылает
// snapshot и отправляет отчет о критических машинах
type EvaluateMachineHealthUseCase struct {
	readings   repository.ReadingRepository
	verdicts   repository.VerdictRepository
	evaluator  *service.HealthEvaluator
	window     time.Duration
	notifier   port.NotificationService
	dispatcher port.AlertDispatcher
	history    port.AlertHistoryRepository
	cache      port.Cache
	metrics    port.PipelineMetrics
	runLog     port.RunLogPublisher
	events     port.EventPublisher
	logger     *logger.Logger
}

// NewEvaluateMachineHealthUseCase создает новый use case.
// window используется только политикой weighted; threshold всегда
// оценивает всю историю.
func NewEvaluateMachineHealthUseCase(
	readings repository.ReadingRepository,
	verdicts repository.VerdictRepository,
	evaluator *service.HealthEvaluator,
	window time.Duration,
	notifier port.NotificationService,
	dispatcher port.AlertDispatcher,
	history port.AlertHistoryRepository,
	cache port.Cache,
	metrics port.PipelineMetrics,
	runLog port.RunLogPublisher,
	events port.EventPublisher,
	logger *logger.Logger,
) *EvaluateMachineHealthUseCase {
	return &EvaluateMachineHealthUseCase{
		readings:   readings,
		verdicts:   verdicts,
		evaluator:  evaluator,
		window:     window,
		notifier:   notifier,
		dispatcher: dispatcher,
		history:    history,
		cache:      cache,
		metrics:    metrics,
		runLog:     runLog,
		events:     events,
		logger:     logger,
	}
}

// Execute выполняет один evaluation run и возвращает итоговый snapshot
func (uc *EvaluateMachineHealthUseCase) Execute(ctx context.Context) (*dto.HealthSnapshotDTO, error) {
	started := time.Now()

	window, err := uc.evaluationWindow()
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluation window: %w", err)
	}

	// 1. Машины с валидными показаниями в окне
	machineIDs, err := uc.readings.FindMachineIDs(ctx, window)
	if err != nil {
		uc.logger.Error("Failed to list machines", err)
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}

	uc.logger.Debug("Evaluating machines", "count", len(machineIDs), "policy", string(uc.evaluator.Policy()))

	// 2. Вердикт по каждой машине. Машина без валидных показаний в окне
	// пропускается без вердикта.
	verdicts := make([]*entity.MachineHealthVerdict, 0, len(machineIDs))
	for _, machineID := range machineIDs {
		readings, err := uc.readings.FindValidByMachine(ctx, machineID, window)
		if err != nil {
			uc.logger.Error("Failed to load readings", err, "machine_id", machineID)
			return nil, fmt.Errorf("failed to load readings for %s: %w", machineID, err)
		}

		verdict, err := uc.evaluator.Evaluate(machineID, readings)
		if err != nil {
			uc.logger.Error("Failed to evaluate machine", err, "machine_id", machineID)
			return nil, fmt.Errorf("failed to evaluate %s: %w", machineID, err)
		}
		if verdict == nil {
			uc.logger.Debug("No valid readings in window, skipping", "machine_id", machineID)
			continue
		}

		verdicts = append(verdicts, verdict)
	}

	// 3. Атомарная замена набора вердиктов. Пустой набор тоже заменяет:
	// устаревшие вердикты не должны переживать run.
	if err := uc.verdicts.ReplaceAll(ctx, verdicts); err != nil {
		uc.logger.Error("Failed to replace verdicts", err)
		return nil, fmt.Errorf("failed to replace verdicts: %w", err)
	}

	// 4. Инвалидация кэша вердиктов
	if err := uc.cache.DeletePattern(ctx, VerdictCachePattern); err != nil {
		uc.logger.Warn("Failed to invalidate verdict cache", "error", err.Error())
	}

	// 5. Рассылка snapshot подключенным клиентам
	snapshot := dto.NewHealthSnapshotDTO(verdicts)
	uc.notifier.Broadcast(snapshot)

	// 6. Отчет по критическим машинам
	critical := uc.collectCritical(verdicts)
	uc.dispatchAlerts(ctx, critical)

	stats := uc.buildStats(verdicts, time.Since(started))
	uc.metrics.RecordEvaluation(ctx, stats)
	uc.publishRunEvents(ctx, stats)

	uc.logger.Info("Evaluation run finished",
		"machines", stats.Machines,
		"healthy", stats.Healthy,
		"maintenance", stats.Maintenance,
		"critical", stats.Critical,
		"duration_ms", stats.Duration.Milliseconds())

	return snapshot, nil
}

// evaluationWindow строит окно оценки по активной политике:
// threshold - вся история, weighted - trailing окно.
func (uc *EvaluateMachineHealthUseCase) evaluationWindow() (valueobject.TimeRange, error) {
	if uc.evaluator.Policy() == service.PolicyThreshold {
		return valueobject.AllHistory(), nil
	}
	return valueobject.NewTrailingWindow(uc.window)
}

// collectCritical отбирает критические вердикты, отсортированные
// по риску по убыванию
func (uc *EvaluateMachineHealthUseCase) collectCritical(verdicts []*entity.MachineHealthVerdict) []*entity.MachineHealthVerdict {
	critical := make([]*entity.MachineHealthVerdict, 0)
	for _, v := range verdicts {
		if v.IsCritical() {
			critical = append(critical, v)
		}
	}
	sort.Slice(critical, func(i, j int) bool {
		return critical[i].FailureRiskScore() > critical[j].FailureRiskScore()
	})
	return critical
}

// dispatchAlerts рассылает websocket alerts, отправляет email отчет
// и фиксирует результат отправки в истории. Сбой отправки не валит run:
// вердикты уже сохранены.
func (uc *EvaluateMachineHealthUseCase) dispatchAlerts(ctx context.Context, critical []*entity.MachineHealthVerdict) {
	for _, v := range critical {
		message := fmt.Sprintf("Machine %s failure risk is critical: %.1f", v.MachineID(), v.FailureRiskScore())
		uc.notifier.BroadcastAlert(dto.NewAlertWebsocketDTO(v, message))
		uc.logger.Warn("Critical machine detected", "machine_id", v.MachineID(), "risk_score", v.FailureRiskScore())
	}

	report := dto.NewCriticalReportDTO(critical)
	result, err := uc.dispatcher.SendCriticalReport(ctx, report)
	if err != nil {
		uc.logger.Error("Failed to send critical report", err)
	}

	uc.recordDispatch(ctx, report, result)
}

// recordDispatch сохраняет запись об отправке отчета в истории
func (uc *EvaluateMachineHealthUseCase) recordDispatch(ctx context.Context, report *dto.CriticalReportDTO, result port.DispatchResult) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		uc.logger.Warn("Failed to marshal critical report", "error", err.Error())
		reportJSON = nil
	}

	machineIDs := make([]string, 0, len(report.Machines))
	for _, m := range report.Machines {
		machineIDs = append(machineIDs, m.MachineID)
	}

	record := port.AlertHistoryRecord{
		ID:           uuid.New().String(),
		DispatchedAt: time.Now().UTC(),
		Status:       result.Status,
		EmailSent:    result.EmailSent,
		MessageID:    result.MessageID,
		Error:        result.Error,
		MachineIDs:   machineIDs,
		ReportJSON:   reportJSON,
	}

	if err := uc.history.Put(ctx, record); err != nil {
		uc.logger.Warn("Failed to record alert history", "error", err.Error())
	}
}

// buildStats считает итоговые счетчики run
func (uc *EvaluateMachineHealthUseCase) buildStats(verdicts []*entity.MachineHealthVerdict, duration time.Duration) port.EvaluationStats {
	stats := port.EvaluationStats{
		Machines: len(verdicts),
		Duration: duration,
	}
	for _, v := range verdicts {
		switch v.HealthStatus() {
		case valueobject.Healthy:
			stats.Healthy++
		case valueobject.NeedsMaintenance:
			stats.Maintenance++
		case valueobject.Critical:
			stats.Critical++
		}
	}
	return stats
}

// publishRunEvents отправляет аудит-событие и NATS-событие run
func (uc *EvaluateMachineHealthUseCase) publishRunEvents(ctx context.Context, stats port.EvaluationStats) {
	event := port.RunLogEvent{
		Timestamp: time.Now().UTC(),
		Kind:      port.RunEventEvaluation,
		Message:   "evaluation run finished",
		Fields: map[string]interface{}{
			"machines":    stats.Machines,
			"healthy":     stats.Healthy,
			"maintenance": stats.Maintenance,
			"critical":    stats.Critical,
			"duration_ms": stats.Duration.Milliseconds(),
		},
	}
	if err := uc.runLog.Publish(ctx, event); err != nil {
		uc.logger.Warn("Failed to publish run log event", "error", err.Error())
	}

	if err := uc.events.PublishEvent(ctx, "health.evaluated", stats); err != nil {
		uc.logger.Warn("Failed to publish evaluation event", "error", err.Error())
	}
}
