package port

import (
	"context"
	"time"
)

// Виды событий run-лога.
const (
	RunEventIngest     = "ingest"
	RunEventEvaluation = "evaluation"
	RunEventAlert      = "alert"
)

// RunLogEvent - аудит-событие одного шага pipeline.
type RunLogEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Kind      string                 `json:"kind"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// RunLogPublisher отправляет аудит-события pipeline во внешний лог (Port)
// Реализация будет в Infrastructure слое (CloudWatch Logs)
type RunLogPublisher interface {
	// Publish буферизует событие для отправки
	Publish(ctx context.Context, event RunLogEvent) error

	// Close останавливает фоновый flush и отправляет остаток буфера
	Close(ctx context.Context) error
}
