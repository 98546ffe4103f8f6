package dto

import (
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
)

// CriticalMachineDTO представляет одну критическую машину в отчете.
// Типизированная запись вместо legacy pipe-delimited кодирования
// "id|risk|issue;...": через границу alert транспорта уходит JSON.
type CriticalMachineDTO struct {
	MachineID string  `json:"machine_id"`
	RiskScore float64 `json:"risk_score"`
	Issue     string  `json:"issue"`
}

// CriticalReportDTO представляет отчет о критических машинах одного
// evaluation run, отсортированный по риску по убыванию.
type CriticalReportDTO struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Machines    []CriticalMachineDTO `json:"machines"`
}

// NewCriticalReportDTO собирает отчет из критических вердиктов.
// Вызывающий передает уже отфильтрованный и отсортированный набор.
func NewCriticalReportDTO(verdicts []*entity.MachineHealthVerdict) *CriticalReportDTO {
	report := &CriticalReportDTO{
		GeneratedAt: time.Now(),
		Machines:    make([]CriticalMachineDTO, 0, len(verdicts)),
	}

	for _, v := range verdicts {
		report.Machines = append(report.Machines, CriticalMachineDTO{
			MachineID: v.MachineID(),
			RiskScore: v.FailureRiskScore(),
			Issue:     v.Recommendation(),
		})
	}

	return report
}

// AlertWebsocketDTO представляет критический alert для WebSocket клиентов
type AlertWebsocketDTO struct {
	Timestamp time.Time `json:"timestamp"`
	MachineID string    `json:"machine_id"`
	RiskScore float64   `json:"risk_score"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
}

// NewAlertWebsocketDTO создает alert из критического вердикта
func NewAlertWebsocketDTO(v *entity.MachineHealthVerdict, message string) *AlertWebsocketDTO {
	return &AlertWebsocketDTO{
		Timestamp: time.Now(),
		MachineID: v.MachineID(),
		RiskScore: v.FailureRiskScore(),
		Message:   message,
		Level:     "critical",
	}
}
