package handler

import (
	"net/http"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/internal/domain/repository"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// StatusAPIHandler обрабатывает ops-запросы о состоянии сервиса
type StatusAPIHandler struct {
	collector port.SystemStatsCollector
	notifier  port.NotificationService
	readings  repository.ReadingRepository
	history   port.AlertHistoryRepository
	logger    *logger.Logger
}

// NewStatusAPIHandler создает новый handler
func NewStatusAPIHandler(
	collector port.SystemStatsCollector,
	notifier port.NotificationService,
	readings repository.ReadingRepository,
	history port.AlertHistoryRepository,
	logger *logger.Logger,
) *StatusAPIHandler {
	return &StatusAPIHandler{
		collector: collector,
		notifier:  notifier,
		readings:  readings,
		history:   history,
		logger:    logger,
	}
}

// statusResponse - агрегированный ответ ops-эндпоинта
type statusResponse struct {
	Timestamp        time.Time                 `json:"timestamp"`
	System           *port.SystemStats         `json:"system"`
	WebsocketClients int                       `json:"websocket_clients"`
	Readings         readingCounts             `json:"readings"`
	RecentAlerts     []port.AlertHistoryRecord `json:"recent_alerts"`
}

type readingCounts struct {
	Normal    int64 `json:"normal"`
	Anomalous int64 `json:"anomalous"`
	Invalid   int64 `json:"invalid"`
}

// GetStatus возвращает состояние сервиса и хоста
func (h *StatusAPIHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	system, err := h.collector.Collect(ctx)
	if err != nil {
		h.logger.Error("Failed to collect system stats", err)
		http.Error(w, "Failed to collect system stats", http.StatusInternalServerError)
		return
	}

	response := statusResponse{
		Timestamp:        time.Now(),
		System:           system,
		WebsocketClients: h.notifier.ClientCount(),
	}

	// Счетчики показаний и история alerts не фатальны для статуса
	response.Readings.Normal, _ = h.readings.Count(ctx, valueobject.ReadingNormal)
	response.Readings.Anomalous, _ = h.readings.Count(ctx, valueobject.ReadingAnomalous)
	response.Readings.Invalid, _ = h.readings.Count(ctx, valueobject.ReadingInvalid)

	if h.history != nil {
		alerts, err := h.history.ListRecent(ctx, 5)
		if err != nil {
			h.logger.Warn("Failed to list recent alerts", "error", err.Error())
		} else {
			response.RecentAlerts = alerts
		}
	}

	writeJSON(w, h.logger, response)
}
