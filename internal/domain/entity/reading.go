package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

// Reading представляет одно валидированное показание датчиков машины
// (Aggregate Root). Поля temperature/vibration/pressure могут быть nil:
// в lenient режиме поле вне допустимого диапазона обнуляется, а строка
// сохраняется.
type Reading struct {
	id             string
	machineID      string
	eventTime      time.Time
	temperature    *float64
	vibration      *float64
	pressure       *float64
	statusCode     valueobject.StatusCode
	signalStrength int
	isAnomalous    bool
	status         valueobject.ReadingStatus
	createdAt      time.Time
}

// NewReading создает новое показание (Factory Method). Производные поля
// signal_strength и reading_status вычисляет вызывающий (ReadingValidator).
func NewReading(
	machineID string,
	eventTime time.Time,
	temperature, vibration, pressure *float64,
	statusCode valueobject.StatusCode,
	isAnomalous bool,
	status valueobject.ReadingStatus,
) (*Reading, error) {
	if machineID == "" {
		return nil, errors.New("machine id is required")
	}
	if eventTime.IsZero() {
		return nil, errors.New("event time is required")
	}
	if err := status.Validate(); err != nil {
		return nil, err
	}

	return &Reading{
		id:             uuid.New().String(),
		machineID:      machineID,
		eventTime:      eventTime,
		temperature:    temperature,
		vibration:      vibration,
		pressure:       pressure,
		statusCode:     statusCode,
		signalStrength: statusCode.SignalStrength(),
		isAnomalous:    isAnomalous,
		status:         status,
		createdAt:      time.Now(),
	}, nil
}

// ReconstructReading восстанавливает показание из хранилища (для Repository)
func ReconstructReading(
	id string,
	machineID string,
	eventTime time.Time,
	temperature, vibration, pressure *float64,
	statusCode valueobject.StatusCode,
	signalStrength int,
	isAnomalous bool,
	status valueobject.ReadingStatus,
	createdAt time.Time,
) *Reading {
	return &Reading{
		id:             id,
		machineID:      machineID,
		eventTime:      eventTime,
		temperature:    temperature,
		vibration:      vibration,
		pressure:       pressure,
		statusCode:     statusCode,
		signalStrength: signalStrength,
		isAnomalous:    isAnomalous,
		status:         status,
		createdAt:      createdAt,
	}
}

// ID возвращает идентификатор показания
func (r *Reading) ID() string {
	return r.id
}

// MachineID возвращает идентификатор машины
func (r *Reading) MachineID() string {
	return r.machineID
}

// EventTime возвращает время показания
func (r *Reading) EventTime() time.Time {
	return r.eventTime
}

// Temperature возвращает температуру (nil если поле было обнулено валидацией)
func (r *Reading) Temperature() *float64 {
	return r.temperature
}

// Vibration возвращает вибрацию (nil если поле было обнулено валидацией)
func (r *Reading) Vibration() *float64 {
	return r.vibration
}

// Pressure возвращает давление (nil если поле было обнулено валидацией)
func (r *Reading) Pressure() *float64 {
	return r.pressure
}

// StatusCode возвращает код состояния машины
func (r *Reading) StatusCode() valueobject.StatusCode {
	return r.statusCode
}

// SignalStrength возвращает производную 0-100 метрику
func (r *Reading) SignalStrength() int {
	return r.signalStrength
}

// IsAnomalous сообщает, помечено ли показание как аномальное
func (r *Reading) IsAnomalous() bool {
	return r.isAnomalous
}

// Status возвращает производный статус показания
func (r *Reading) Status() valueobject.ReadingStatus {
	return r.status
}

// CreatedAt возвращает время записи показания
func (r *Reading) CreatedAt() time.Time {
	return r.createdAt
}

// IsValid сообщает, участвует ли показание в агрегации.
// Инвариант: показание со статусом invalid исключается из всех агрегатов.
func (r *Reading) IsValid() bool {
	return r.status != valueobject.ReadingInvalid
}
