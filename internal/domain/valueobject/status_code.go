package valueobject

// StatusCode представляет код состояния, который машина сообщает сама о себе
// (Value Object). Приходит из сырого показания датчика.
type StatusCode string

const (
	StatusAOK  StatusCode = "AOK"
	StatusWarn StatusCode = "WARN"
	StatusCrit StatusCode = "CRIT"
)

// SignalStrength отображает код состояния в производную 0-100 метрику.
// Тотальная функция: нераспознанный код дает 0, никогда не ошибается.
func (sc StatusCode) SignalStrength() int {
	switch sc {
	case StatusAOK:
		return 100
	case StatusWarn:
		return 60
	case StatusCrit:
		return 20
	default:
		return 0
	}
}

// IsRecognized сообщает, является ли код одним из известных значений.
func (sc StatusCode) IsRecognized() bool {
	switch sc {
	case StatusAOK, StatusWarn, StatusCrit:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление кода состояния
func (sc StatusCode) String() string {
	return string(sc)
}
