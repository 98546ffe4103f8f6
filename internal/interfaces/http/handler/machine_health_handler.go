package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dreschagin/factory-health-monitor/internal/application/usecase"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// MachineHealthAPIHandler обрабатывает API запросы для вердиктов о здоровье
type MachineHealthAPIHandler struct {
	getHealthUC   *usecase.GetMachineHealthUseCase
	getCriticalUC *usecase.GetCriticalMachinesUseCase
	evaluateUC    *usecase.EvaluateMachineHealthUseCase
	logger        *logger.Logger
}

// NewMachineHealthAPIHandler создает новый handler
func NewMachineHealthAPIHandler(
	getHealthUC *usecase.GetMachineHealthUseCase,
	getCriticalUC *usecase.GetCriticalMachinesUseCase,
	evaluateUC *usecase.EvaluateMachineHealthUseCase,
	logger *logger.Logger,
) *MachineHealthAPIHandler {
	return &MachineHealthAPIHandler{
		getHealthUC:   getHealthUC,
		getCriticalUC: getCriticalUC,
		evaluateUC:    evaluateUC,
		logger:        logger,
	}
}

// GetHealth возвращает snapshot здоровья фабрики.
// С параметром machine_id возвращает вердикт одной машины,
// с параметром status - вердикты с указанным статусом по убыванию риска.
func (h *MachineHealthAPIHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		parsed := valueobject.HealthStatus(strings.ToUpper(status))
		if err := parsed.Validate(); err != nil {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}

		verdicts, err := h.getHealthUC.ExecuteForStatus(r.Context(), parsed)
		if err != nil {
			h.logger.Error("Failed to get verdicts by status", err)
			http.Error(w, "Failed to fetch verdicts", http.StatusInternalServerError)
			return
		}
		writeJSON(w, h.logger, verdicts)
		return
	}

	if machineID := r.URL.Query().Get("machine_id"); machineID != "" {
		verdict, err := h.getHealthUC.ExecuteForMachine(r.Context(), machineID)
		if err != nil {
			h.logger.Error("Failed to get machine verdict", err)
			http.Error(w, "Failed to fetch verdict", http.StatusInternalServerError)
			return
		}
		if verdict == nil {
			http.Error(w, "No verdict for machine", http.StatusNotFound)
			return
		}
		writeJSON(w, h.logger, verdict)
		return
	}

	snapshot, err := h.getHealthUC.Execute(r.Context())
	if err != nil {
		h.logger.Error("Failed to get health snapshot", err)
		http.Error(w, "Failed to fetch health snapshot", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, snapshot)
}

// GetCritical возвращает отчет о критических машинах
func (h *MachineHealthAPIHandler) GetCritical(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.getCriticalUC.Execute(r.Context())
	if err != nil {
		h.logger.Error("Failed to get critical machines", err)
		http.Error(w, "Failed to fetch critical machines", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, report)
}

// TriggerEvaluation запускает evaluation run вне расписания
func (h *MachineHealthAPIHandler) TriggerEvaluation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot, err := h.evaluateUC.Execute(r.Context())
	if err != nil {
		h.logger.Error("Manual evaluation run failed", err)
		http.Error(w, "Evaluation run failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, snapshot)
}

// writeJSON отправляет JSON ответ
func writeJSON(w http.ResponseWriter, log *logger.Logger, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("Failed to encode response", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
