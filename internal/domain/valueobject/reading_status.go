package valueobject

import "errors"

// ReadingStatus представляет производный статус показания (Value Object).
// Приоритет: invalid > anomalous > normal.
type ReadingStatus string

const (
	ReadingNormal    ReadingStatus = "normal"
	ReadingAnomalous ReadingStatus = "anomalous"
	ReadingInvalid   ReadingStatus = "invalid"
)

// Validate проверяет валидность статуса показания
func (rs ReadingStatus) Validate() error {
	switch rs {
	case ReadingNormal, ReadingAnomalous, ReadingInvalid:
		return nil
	default:
		return errors.New("invalid reading status")
	}
}

// String возвращает строковое представление статуса
func (rs ReadingStatus) String() string {
	return string(rs)
}
