package service

import (
	"errors"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

// Допустимые диапазоны полей датчиков.
const (
	MinTemperature = 0.0
	MaxTemperature = 150.0
	MinVibration   = 0.0
	MaxVibration   = 2.0
	MinPressure    = 0.0
	MaxPressure    = 500.0
)

// Фиксированные пороги аномалий. Порог температуры конфигурируемый
// (sensor_reading_threshold), вибрация и давление - фиксированные.
const (
	AnomalyVibration = 1.0
	AnomalyPressure  = 450.0
)

// ValidationMode определяет, что делать с полем вне допустимого диапазона.
type ValidationMode string

const (
	// ValidationStrict отбрасывает всю строку, если хотя бы одно поле
	// не прошло проверку диапазона. Проверка аномалии давления активна.
	ValidationStrict ValidationMode = "strict"

	// ValidationLenient обнуляет только само поле и сохраняет строку.
	// Проверка аномалии давления не выполняется.
	ValidationLenient ValidationMode = "lenient"
)

// RawReading представляет сырой кортеж показания до валидации.
type RawReading struct {
	MachineID   string
	EventTime   time.Time
	Temperature float64
	Vibration   float64
	Pressure    float64
	StatusCode  string
}

// ThresholdResolver возвращает порог аномальной температуры для машины.
// Реализуется config.MachineThresholds (per-machine overrides + fallback).
type ThresholdResolver interface {
	TemperatureThreshold(machineID string) float64
}

// staticThreshold - резолвер с единым порогом для всех машин.
type staticThreshold float64

func (t staticThreshold) TemperatureThreshold(string) float64 { return float64(t) }

// StaticThreshold оборачивает одно значение порога в ThresholdResolver.
func StaticThreshold(value float64) ThresholdResolver {
	return staticThreshold(value)
}

// ReadingValidator нормализует и проверяет сырые показания (Domain Service).
// Чистая функция входа и конфигурации: без побочных эффектов.
type ReadingValidator struct {
	mode       ValidationMode
	thresholds ThresholdResolver
}

// NewReadingValidator создает новый ReadingValidator
func NewReadingValidator(mode ValidationMode, thresholds ThresholdResolver) *ReadingValidator {
	return &ReadingValidator{
		mode:       mode,
		thresholds: thresholds,
	}
}

// Validate проверяет одно сырое показание и возвращает валидированную
// сущность с производными полями. Ошибка возвращается только для
// структурно-битых строк (нет machine_id или event_time); провал проверки
// диапазона не ошибка, а статус invalid (strict) или обнуленное поле
// (lenient).
func (v *ReadingValidator) Validate(raw RawReading) (*entity.Reading, error) {
	if raw.MachineID == "" {
		return nil, errors.New("machine id is required")
	}
	if raw.EventTime.IsZero() {
		return nil, errors.New("event time is required")
	}

	temperature, tempOK := checkRange(raw.Temperature, MinTemperature, MaxTemperature)
	vibration, vibOK := checkRange(raw.Vibration, MinVibration, MaxVibration)
	pressure, presOK := checkRange(raw.Pressure, MinPressure, MaxPressure)

	statusCode := valueobject.StatusCode(raw.StatusCode)

	if v.mode == ValidationStrict && !(tempOK && vibOK && presOK) {
		// Строка целиком отбрасывается из агрегации, но сохраняем
		// исходные значения для аудита.
		t, vb, p := raw.Temperature, raw.Vibration, raw.Pressure
		return entity.NewReading(
			raw.MachineID,
			raw.EventTime,
			&t, &vb, &p,
			statusCode,
			false,
			valueobject.ReadingInvalid,
		)
	}

	anomalous := v.isAnomalous(raw.MachineID, temperature, vibration, pressure, statusCode)

	status := valueobject.ReadingNormal
	if anomalous {
		status = valueobject.ReadingAnomalous
	}

	return entity.NewReading(
		raw.MachineID,
		raw.EventTime,
		temperature, vibration, pressure,
		statusCode,
		anomalous,
		status,
	)
}

// isAnomalous применяет пороговые правила к валидированным полям.
// status_code = CRIT делает показание аномальным независимо от датчиков.
func (v *ReadingValidator) isAnomalous(machineID string, temperature, vibration, pressure *float64, statusCode valueobject.StatusCode) bool {
	if statusCode == valueobject.StatusCrit {
		return true
	}
	if temperature != nil && *temperature > v.thresholds.TemperatureThreshold(machineID) {
		return true
	}
	if vibration != nil && *vibration > AnomalyVibration {
		return true
	}
	if v.mode == ValidationStrict && pressure != nil && *pressure > AnomalyPressure {
		return true
	}
	return false
}

// checkRange возвращает указатель на значение, если оно в диапазоне,
// и nil в противном случае.
func checkRange(value, min, max float64) (*float64, bool) {
	if value < min || value > max {
		return nil, false
	}
	v := value
	return &v, true
}
