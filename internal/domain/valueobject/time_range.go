package valueobject

import (
	"errors"
	"time"
)

// TimeRange представляет окно оценки (Value Object)
// Иммутабельный объект
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange создает новый TimeRange с валидацией
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.After(end) {
		return TimeRange{}, errors.New("start time must be before end time")
	}

	if start.IsZero() || end.IsZero() {
		return TimeRange{}, errors.New("start and end times cannot be zero")
	}

	return TimeRange{
		start: start,
		end:   end,
	}, nil
}

// NewTrailingWindow создает окно от указанной длительности назад до текущего
// момента. Используется для trailing 24h окна оценки.
func NewTrailingWindow(duration time.Duration) (TimeRange, error) {
	if duration <= 0 {
		return TimeRange{}, errors.New("duration must be positive")
	}

	now := time.Now()
	return TimeRange{
		start: now.Add(-duration),
		end:   now,
	}, nil
}

// AllHistory создает окно, покрывающее все удержанные показания.
// Политика "threshold" оценивает по всей истории, а не по trailing окну.
func AllHistory() TimeRange {
	return TimeRange{
		start: time.Unix(0, 0),
		end:   time.Now(),
	}
}

// Start возвращает начальное время
func (tr TimeRange) Start() time.Time {
	return tr.start
}

// End возвращает конечное время
func (tr TimeRange) End() time.Time {
	return tr.end
}

// Duration возвращает длительность окна
func (tr TimeRange) Duration() time.Duration {
	return tr.end.Sub(tr.start)
}

// Contains проверяет, попадает ли указанное время в окно
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.start) && !t.After(tr.end)
}
