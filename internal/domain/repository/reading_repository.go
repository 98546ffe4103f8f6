package repository

import (
	"context"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

// ReadingRepository определяет интерфейс для работы с хранилищем показаний (Port)
// Реализация будет в Infrastructure слое
type ReadingRepository interface {
	// SaveBatch сохраняет несколько показаний одной транзакцией
	SaveBatch(ctx context.Context, readings []*entity.Reading) error

	// FindMachineIDs возвращает идентификаторы машин, имеющих валидные
	// показания в окне
	FindMachineIDs(ctx context.Context, window valueobject.TimeRange) ([]string, error)

	// FindValidByMachine находит валидные показания машины в окне
	// (показания со статусом invalid не возвращаются)
	FindValidByMachine(ctx context.Context, machineID string, window valueobject.TimeRange) ([]*entity.Reading, error)

	// FindRecent находит последние показания, опционально по машине
	FindRecent(ctx context.Context, machineID string, limit int) ([]*entity.Reading, error)

	// DeleteOlderThan удаляет показания старше указанного времени
	DeleteOlderThan(ctx context.Context, window valueobject.TimeRange) (int64, error)

	// Count возвращает количество показаний по статусу
	Count(ctx context.Context, status valueobject.ReadingStatus) (int64, error)
}
