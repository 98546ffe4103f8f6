package dto

import (
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
)

// ReadingDTO представляет показание для передачи между слоями
type ReadingDTO struct {
	ID             string    `json:"id"`
	MachineID      string    `json:"machine_id"`
	EventTime      time.Time `json:"event_time"`
	Temperature    *float64  `json:"temperature"`
	Vibration      *float64  `json:"vibration"`
	Pressure       *float64  `json:"pressure"`
	StatusCode     string    `json:"status_code"`
	SignalStrength int       `json:"signal_strength"`
	IsAnomalous    bool      `json:"is_anomalous"`
	ReadingStatus  string    `json:"reading_status"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromReading конвертирует Domain Entity в DTO
func FromReading(r *entity.Reading) *ReadingDTO {
	return &ReadingDTO{
		ID:             r.ID(),
		MachineID:      r.MachineID(),
		EventTime:      r.EventTime(),
		Temperature:    r.Temperature(),
		Vibration:      r.Vibration(),
		Pressure:       r.Pressure(),
		StatusCode:     r.StatusCode().String(),
		SignalStrength: r.SignalStrength(),
		IsAnomalous:    r.IsAnomalous(),
		ReadingStatus:  r.Status().String(),
		CreatedAt:      r.CreatedAt(),
	}
}

// ToReadingDTOs конвертирует слайс Entity в слайс DTO
func ToReadingDTOs(readings []*entity.Reading) []*ReadingDTO {
	dtos := make([]*ReadingDTO, len(readings))
	for i, r := range readings {
		dtos[i] = FromReading(r)
	}
	return dtos
}
