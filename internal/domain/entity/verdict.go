package entity

import (
	"errors"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

// MachineHealthVerdict представляет вычисленный вердикт о здоровье одной
// машины за один evaluation run. Вердикты перезаписываются целиком при
// каждом запуске и не версионируются.
type MachineHealthVerdict struct {
	machineID         string
	lastReadingTime   time.Time
	totalReadings     int
	anomalousReadings int
	avgTemperature    float64
	maxVibration      float64
	minSignalStrength int
	failureRiskScore  float64
	healthStatus      valueobject.HealthStatus
	recommendation    string
	evaluatedAt       time.Time
}

// NewMachineHealthVerdict создает новый вердикт (Factory Method)
func NewMachineHealthVerdict(
	machineID string,
	lastReadingTime time.Time,
	totalReadings int,
	anomalousReadings int,
	avgTemperature float64,
	maxVibration float64,
	minSignalStrength int,
	failureRiskScore float64,
	healthStatus valueobject.HealthStatus,
) (*MachineHealthVerdict, error) {
	if machineID == "" {
		return nil, errors.New("machine id is required")
	}
	if totalReadings <= 0 {
		return nil, errors.New("verdict requires at least one valid reading")
	}
	if err := healthStatus.Validate(); err != nil {
		return nil, err
	}
	if failureRiskScore < 0 || failureRiskScore > 100 {
		return nil, errors.New("failure risk score must be between 0 and 100")
	}

	return &MachineHealthVerdict{
		machineID:         machineID,
		lastReadingTime:   lastReadingTime,
		totalReadings:     totalReadings,
		anomalousReadings: anomalousReadings,
		avgTemperature:    avgTemperature,
		maxVibration:      maxVibration,
		minSignalStrength: minSignalStrength,
		failureRiskScore:  failureRiskScore,
		healthStatus:      healthStatus,
		recommendation:    healthStatus.Recommendation(),
		evaluatedAt:       time.Now(),
	}, nil
}

// ReconstructVerdict восстанавливает вердикт из хранилища (для Repository)
func ReconstructVerdict(
	machineID string,
	lastReadingTime time.Time,
	totalReadings int,
	anomalousReadings int,
	avgTemperature float64,
	maxVibration float64,
	minSignalStrength int,
	failureRiskScore float64,
	healthStatus valueobject.HealthStatus,
	recommendation string,
	evaluatedAt time.Time,
) *MachineHealthVerdict {
	return &MachineHealthVerdict{
		machineID:         machineID,
		lastReadingTime:   lastReadingTime,
		totalReadings:     totalReadings,
		anomalousReadings: anomalousReadings,
		avgTemperature:    avgTemperature,
		maxVibration:      maxVibration,
		minSignalStrength: minSignalStrength,
		failureRiskScore:  failureRiskScore,
		healthStatus:      healthStatus,
		recommendation:    recommendation,
		evaluatedAt:       evaluatedAt,
	}
}

// MachineID возвращает идентификатор машины
func (v *MachineHealthVerdict) MachineID() string {
	return v.machineID
}

// LastReadingTime возвращает максимальное event_time среди показаний окна
func (v *MachineHealthVerdict) LastReadingTime() time.Time {
	return v.lastReadingTime
}

// TotalReadings возвращает число валидных показаний в окне
func (v *MachineHealthVerdict) TotalReadings() int {
	return v.totalReadings
}

// AnomalousReadings возвращает число аномальных показаний в окне
func (v *MachineHealthVerdict) AnomalousReadings() int {
	return v.anomalousReadings
}

// AvgTemperature возвращает среднюю температуру по окну
func (v *MachineHealthVerdict) AvgTemperature() float64 {
	return v.avgTemperature
}

// MaxVibration возвращает максимальную вибрацию по окну
func (v *MachineHealthVerdict) MaxVibration() float64 {
	return v.maxVibration
}

// MinSignalStrength возвращает минимальную силу сигнала по окну
func (v *MachineHealthVerdict) MinSignalStrength() int {
	return v.minSignalStrength
}

// FailureRiskScore возвращает риск отказа 0-100 (больше - хуже)
func (v *MachineHealthVerdict) FailureRiskScore() float64 {
	return v.failureRiskScore
}

// HealthStatus возвращает статус здоровья
func (v *MachineHealthVerdict) HealthStatus() valueobject.HealthStatus {
	return v.healthStatus
}

// Recommendation возвращает рекомендацию по обслуживанию
func (v *MachineHealthVerdict) Recommendation() string {
	return v.recommendation
}

// EvaluatedAt возвращает время вычисления вердикта
func (v *MachineHealthVerdict) EvaluatedAt() time.Time {
	return v.evaluatedAt
}

// IsCritical сообщает, требует ли машина немедленного вмешательства
func (v *MachineHealthVerdict) IsCritical() bool {
	return v.healthStatus == valueobject.Critical
}
