package postgres

import (
	"database/sql"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

// ReadingDBModel представляет показание датчиков в БД
type ReadingDBModel struct {
	ID             string
	MachineID      string
	EventTime      time.Time
	Temperature    sql.NullFloat64
	Vibration      sql.NullFloat64
	Pressure       sql.NullFloat64
	StatusCode     string
	SignalStrength int
	IsAnomalous    bool
	Status         string
	CreatedAt      time.Time
}

// VerdictDBModel представляет вердикт о здоровье машины в БД
type VerdictDBModel struct {
	MachineID         string
	LastReadingTime   time.Time
	TotalReadings     int
	AnomalousReadings int
	AvgTemperature    float64
	MaxVibration      float64
	MinSignalStrength int
	FailureRiskScore  float64
	HealthStatus      string
	Recommendation    string
	EvaluatedAt       time.Time
}

// ReadingToDBModel конвертирует Domain Entity в DB Model
func ReadingToDBModel(r *entity.Reading) *ReadingDBModel {
	return &ReadingDBModel{
		ID:             r.ID(),
		MachineID:      r.MachineID(),
		EventTime:      r.EventTime(),
		Temperature:    toNullFloat(r.Temperature()),
		Vibration:      toNullFloat(r.Vibration()),
		Pressure:       toNullFloat(r.Pressure()),
		StatusCode:     string(r.StatusCode()),
		SignalStrength: r.SignalStrength(),
		IsAnomalous:    r.IsAnomalous(),
		Status:         string(r.Status()),
		CreatedAt:      r.CreatedAt(),
	}
}

// ReadingToEntity конвертирует DB Model в Domain Entity
func ReadingToEntity(model *ReadingDBModel) *entity.Reading {
	return entity.ReconstructReading(
		model.ID,
		model.MachineID,
		model.EventTime,
		fromNullFloat(model.Temperature),
		fromNullFloat(model.Vibration),
		fromNullFloat(model.Pressure),
		valueobject.StatusCode(model.StatusCode),
		model.SignalStrength,
		model.IsAnomalous,
		valueobject.ReadingStatus(model.Status),
		model.CreatedAt,
	)
}

// VerdictToDBModel конвертирует Domain Entity в DB Model
func VerdictToDBModel(v *entity.MachineHealthVerdict) *VerdictDBModel {
	return &VerdictDBModel{
		MachineID:         v.MachineID(),
		LastReadingTime:   v.LastReadingTime(),
		TotalReadings:     v.TotalReadings(),
		AnomalousReadings: v.AnomalousReadings(),
		AvgTemperature:    v.AvgTemperature(),
		MaxVibration:      v.MaxVibration(),
		MinSignalStrength: v.MinSignalStrength(),
		FailureRiskScore:  v.FailureRiskScore(),
		HealthStatus:      string(v.HealthStatus()),
		Recommendation:    v.Recommendation(),
		EvaluatedAt:       v.EvaluatedAt(),
	}
}

// VerdictToEntity конвертирует DB Model в Domain Entity
func VerdictToEntity(model *VerdictDBModel) *entity.MachineHealthVerdict {
	return entity.ReconstructVerdict(
		model.MachineID,
		model.LastReadingTime,
		model.TotalReadings,
		model.AnomalousReadings,
		model.AvgTemperature,
		model.MaxVibration,
		model.MinSignalStrength,
		model.FailureRiskScore,
		valueobject.HealthStatus(model.HealthStatus),
		model.Recommendation,
		model.EvaluatedAt,
	)
}

// ScanReadingRow сканирует строку БД в ReadingDBModel
func ScanReadingRow(row interface {
	Scan(dest ...interface{}) error
}) (*ReadingDBModel, error) {
	var model ReadingDBModel

	err := row.Scan(
		&model.ID,
		&model.MachineID,
		&model.EventTime,
		&model.Temperature,
		&model.Vibration,
		&model.Pressure,
		&model.StatusCode,
		&model.SignalStrength,
		&model.IsAnomalous,
		&model.Status,
		&model.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}

// ScanVerdictRow сканирует строку БД в VerdictDBModel
func ScanVerdictRow(row interface {
	Scan(dest ...interface{}) error
}) (*VerdictDBModel, error) {
	var model VerdictDBModel

	err := row.Scan(
		&model.MachineID,
		&model.LastReadingTime,
		&model.TotalReadings,
		&model.AnomalousReadings,
		&model.AvgTemperature,
		&model.MaxVibration,
		&model.MinSignalStrength,
		&model.FailureRiskScore,
		&model.HealthStatus,
		&model.Recommendation,
		&model.EvaluatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
