package port

import (
	"context"
	"time"
)

// AlertHistoryRecord - запись об одной попытке отправки критического отчета.
type AlertHistoryRecord struct {
	ID           string
	DispatchedAt time.Time
	Status       string
	EmailSent    bool
	MessageID    string
	Error        string
	MachineIDs   []string
	ReportJSON   []byte
}

// AlertHistoryRepository хранит историю отправок alert отчетов (Port)
// Реализация будет в Infrastructure слое (DynamoDB)
type AlertHistoryRepository interface {
	// Put сохраняет запись об отправке
	Put(ctx context.Context, record AlertHistoryRecord) error

	// ListRecent возвращает последние записи, новые первыми
	ListRecent(ctx context.Context, limit int) ([]AlertHistoryRecord, error)
}
