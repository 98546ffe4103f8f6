package dto

import (
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

// HealthSnapshotDTO представляет результат одного evaluation run.
// Используется для передачи через WebSocket.
type HealthSnapshotDTO struct {
	Timestamp time.Time           `json:"timestamp"`
	Machines  []*VerdictDTO       `json:"machines"`
	Summary   *SnapshotSummaryDTO `json:"summary"`
}

// SnapshotSummaryDTO содержит сводную информацию по фабрике
type SnapshotSummaryDTO struct {
	TotalMachines    int    `json:"total_machines"`
	HealthyCount     int    `json:"healthy_count"`
	MaintenanceCount int    `json:"maintenance_count"`
	CriticalCount    int    `json:"critical_count"`
	HasCritical      bool   `json:"has_critical"`
	OverallStatus    string `json:"overall_status"` // "healthy", "degraded", "critical"
}

// NewHealthSnapshotDTO создает snapshot из набора вердиктов
func NewHealthSnapshotDTO(verdicts []*entity.MachineHealthVerdict) *HealthSnapshotDTO {
	snapshot := &HealthSnapshotDTO{
		Timestamp: time.Now(),
		Machines:  ToVerdictDTOs(verdicts),
		Summary:   &SnapshotSummaryDTO{TotalMachines: len(verdicts)},
	}

	for _, v := range verdicts {
		switch v.HealthStatus() {
		case valueobject.Healthy:
			snapshot.Summary.HealthyCount++
		case valueobject.NeedsMaintenance:
			snapshot.Summary.MaintenanceCount++
		case valueobject.Critical:
			snapshot.Summary.CriticalCount++
		}
	}

	snapshot.Summary.HasCritical = snapshot.Summary.CriticalCount > 0

	switch {
	case snapshot.Summary.CriticalCount > 0:
		snapshot.Summary.OverallStatus = "critical"
	case snapshot.Summary.MaintenanceCount > 0:
		snapshot.Summary.OverallStatus = "degraded"
	default:
		snapshot.Summary.OverallStatus = "healthy"
	}

	return snapshot
}
