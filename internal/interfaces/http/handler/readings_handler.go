package handler

import (
	"net/http"
	"strconv"

	"github.com/dreschagin/factory-health-monitor/internal/application/usecase"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// ReadingsAPIHandler обрабатывает API запросы для показаний датчиков
type ReadingsAPIHandler struct {
	getRecentUC *usecase.GetRecentReadingsUseCase
	logger      *logger.Logger
}

// NewReadingsAPIHandler создает новый handler
func NewReadingsAPIHandler(getRecentUC *usecase.GetRecentReadingsUseCase, logger *logger.Logger) *ReadingsAPIHandler {
	return &ReadingsAPIHandler{
		getRecentUC: getRecentUC,
		logger:      logger,
	}
}

// GetRecent возвращает последние показания.
// Параметры: machine_id (опционально), limit (опционально).
func (h *ReadingsAPIHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	machineID := r.URL.Query().Get("machine_id")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	readings, err := h.getRecentUC.Execute(r.Context(), machineID, limit)
	if err != nil {
		h.logger.Error("Failed to get recent readings", err)
		http.Error(w, "Failed to fetch readings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, readings)
}
