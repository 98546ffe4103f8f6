package service

import (
	"errors"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

// ScoringPolicy выбирает алгоритм вычисления вердикта. Две политики
// существуют в исходной модели как альтернативы и никогда не смешиваются.
type ScoringPolicy string

const (
	// PolicyThreshold - каскад порогов first-match-wins по всей истории.
	PolicyThreshold ScoringPolicy = "threshold"

	// PolicyWeighted - взвешенный multi-factor score по trailing окну.
	PolicyWeighted ScoringPolicy = "weighted"
)

// Validate проверяет валидность политики
func (p ScoringPolicy) Validate() error {
	switch p {
	case PolicyThreshold, PolicyWeighted:
		return nil
	default:
		return errors.New("invalid scoring policy")
	}
}

// windowAggregates - агрегаты по валидным показаниям одной машины.
type windowAggregates struct {
	lastReadingTime   time.Time
	totalReadings     int
	anomalousReadings int
	avgTemperature    float64
	maxVibration      float64
	minSignalStrength int
}

// HealthEvaluator вычисляет вердикт о здоровье машины из набора
// валидированных показаний (Domain Service). Stateless и детерминированный:
// повторный запуск на неизменном окне дает идентичный вердикт.
type HealthEvaluator struct {
	policy ScoringPolicy
}

// NewHealthEvaluator создает новый HealthEvaluator
func NewHealthEvaluator(policy ScoringPolicy) (*HealthEvaluator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &HealthEvaluator{policy: policy}, nil
}

// Policy возвращает активную политику скоринга
func (e *HealthEvaluator) Policy() ScoringPolicy {
	return e.policy
}

// Evaluate вычисляет вердикт для одной машины. Показания со статусом
// invalid исключаются; если валидных показаний нет, вердикт не эмитится
// (nil, nil) - это пропуск, а не ошибка.
func (e *HealthEvaluator) Evaluate(machineID string, readings []*entity.Reading) (*entity.MachineHealthVerdict, error) {
	agg, ok := aggregate(readings)
	if !ok {
		return nil, nil
	}

	var (
		risk   float64
		status valueobject.HealthStatus
	)

	switch e.policy {
	case PolicyWeighted:
		risk, status = scoreWeighted(agg)
	default:
		risk, status = scoreThresholdCascade(agg)
	}

	return entity.NewMachineHealthVerdict(
		machineID,
		agg.lastReadingTime,
		agg.totalReadings,
		agg.anomalousReadings,
		agg.avgTemperature,
		agg.maxVibration,
		agg.minSignalStrength,
		risk,
		status,
	)
}

// aggregate сворачивает валидные показания в оконные агрегаты.
// Второе возвращаемое значение false, если валидных показаний нет.
func aggregate(readings []*entity.Reading) (windowAggregates, bool) {
	agg := windowAggregates{minSignalStrength: 100}

	var tempSum float64
	var tempCount int

	for _, r := range readings {
		if r == nil || !r.IsValid() {
			continue
		}

		agg.totalReadings++
		if r.Status() == valueobject.ReadingAnomalous {
			agg.anomalousReadings++
		}
		if r.EventTime().After(agg.lastReadingTime) {
			agg.lastReadingTime = r.EventTime()
		}
		if t := r.Temperature(); t != nil {
			tempSum += *t
			tempCount++
		}
		if v := r.Vibration(); v != nil && *v > agg.maxVibration {
			agg.maxVibration = *v
		}
		if r.SignalStrength() < agg.minSignalStrength {
			agg.minSignalStrength = r.SignalStrength()
		}
	}

	if agg.totalReadings == 0 {
		return windowAggregates{}, false
	}

	if tempCount > 0 {
		agg.avgTemperature = tempSum / float64(tempCount)
	}

	return agg, true
}

// scoreThresholdCascade - политика каскада порогов. Сравнения строго
// больше: avg_temperature ровно 90.0 попадает во вторую ветку.
func scoreThresholdCascade(agg windowAggregates) (float64, valueobject.HealthStatus) {
	switch {
	case agg.avgTemperature > 90 || agg.maxVibration > 0.8:
		return 90, valueobject.Critical
	case agg.avgTemperature > 75 || agg.maxVibration > 0.6:
		return 60, valueobject.NeedsMaintenance
	default:
		return 30, valueobject.Healthy
	}
}

// scoreWeighted - взвешенная политика. Бакеты со строгим "<", веса
// 0.3/0.3/0.2/0.2, pressure_score - константа-заглушка 80.
// Риск хранится как 100-overall, чтобы "больше = хуже" в обеих политиках.
func scoreWeighted(agg windowAggregates) (float64, valueobject.HealthStatus) {
	tempScore := bucketScore(agg.avgTemperature, []bucket{
		{60, 100}, {75, 80}, {85, 60}, {95, 40},
	}, 20)

	vibScore := bucketScore(agg.maxVibration, []bucket{
		{0.3, 100}, {0.5, 80}, {0.7, 60}, {0.9, 40},
	}, 20)

	noiseScore := float64(agg.minSignalStrength)

	// Датчик давления пока не участвует в score.
	const pressureScore = 80.0

	overall := tempScore*0.3 + vibScore*0.3 + noiseScore*0.2 + pressureScore*0.2

	var status valueobject.HealthStatus
	switch {
	case overall >= 80:
		status = valueobject.Healthy
	case overall >= 60:
		status = valueobject.NeedsMaintenance
	default:
		status = valueobject.Critical
	}

	return 100 - overall, status
}

type bucket struct {
	upper float64
	score float64
}

// bucketScore возвращает score первого бакета, чья верхняя граница строго
// больше значения, иначе fallback.
func bucketScore(value float64, buckets []bucket, fallback float64) float64 {
	for _, b := range buckets {
		if value < b.upper {
			return b.score
		}
	}
	return fallback
}
