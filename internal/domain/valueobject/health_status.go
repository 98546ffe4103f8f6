package valueobject

import "errors"

// HealthStatus представляет вердикт о состоянии машины (Value Object)
type HealthStatus string

const (
	Healthy          HealthStatus = "HEALTHY"
	NeedsMaintenance HealthStatus = "NEEDS_MAINTENANCE"
	Critical         HealthStatus = "CRITICAL"
)

// Validate проверяет валидность статуса здоровья
func (hs HealthStatus) Validate() error {
	switch hs {
	case Healthy, NeedsMaintenance, Critical:
		return nil
	default:
		return errors.New("invalid health status")
	}
}

// Recommendation возвращает рекомендацию по обслуживанию, однозначно
// привязанную к статусу. Тотальная функция от статуса.
func (hs HealthStatus) Recommendation() string {
	switch hs {
	case Critical:
		return "Immediate maintenance required"
	case NeedsMaintenance:
		return "Schedule maintenance within 48 hours"
	default:
		return "No action needed"
	}
}

// String возвращает строковое представление статуса
func (hs HealthStatus) String() string {
	return string(hs)
}

// AllHealthStatuses возвращает список всех допустимых статусов
func AllHealthStatuses() []HealthStatus {
	return []HealthStatus{Healthy, NeedsMaintenance, Critical}
}
