package dto

import (
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
)

// VerdictDTO представляет вердикт о здоровье машины для передачи между слоями
type VerdictDTO struct {
	MachineID         string    `json:"machine_id"`
	LastReadingTime   time.Time `json:"last_reading_time"`
	TotalReadings     int       `json:"total_readings"`
	AnomalousReadings int       `json:"anomalous_readings"`
	AvgTemperature    float64   `json:"avg_temperature"`
	MaxVibration      float64   `json:"max_vibration"`
	MinSignalStrength int       `json:"min_signal_strength"`
	FailureRiskScore  float64   `json:"failure_risk_score"`
	HealthStatus      string    `json:"health_status"`
	Recommendation    string    `json:"maintenance_recommendation"`
	EvaluatedAt       time.Time `json:"evaluated_at"`
	IsCritical        bool      `json:"is_critical"`
}

// FromVerdict конвертирует Domain Entity в DTO
func FromVerdict(v *entity.MachineHealthVerdict) *VerdictDTO {
	return &VerdictDTO{
		MachineID:         v.MachineID(),
		LastReadingTime:   v.LastReadingTime(),
		TotalReadings:     v.TotalReadings(),
		AnomalousReadings: v.AnomalousReadings(),
		AvgTemperature:    v.AvgTemperature(),
		MaxVibration:      v.MaxVibration(),
		MinSignalStrength: v.MinSignalStrength(),
		FailureRiskScore:  v.FailureRiskScore(),
		HealthStatus:      v.HealthStatus().String(),
		Recommendation:    v.Recommendation(),
		EvaluatedAt:       v.EvaluatedAt(),
		IsCritical:        v.IsCritical(),
	}
}

// ToVerdictDTOs конвертирует слайс Entity в слайс DTO
func ToVerdictDTOs(verdicts []*entity.MachineHealthVerdict) []*VerdictDTO {
	dtos := make([]*VerdictDTO, len(verdicts))
	for i, v := range verdicts {
		dtos[i] = FromVerdict(v)
	}
	return dtos
}
