package repository

import (
	"context"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

// VerdictRepository определяет интерфейс для работы с хранилищем вердиктов (Port)
// Реализация будет в Infrastructure слое
type VerdictRepository interface {
	// ReplaceAll атомарно заменяет весь набор вердиктов одной транзакцией.
	// Читатели никогда не видят смесь старых и новых вердиктов.
	ReplaceAll(ctx context.Context, verdicts []*entity.MachineHealthVerdict) error

	// FindAll возвращает все вердикты, отсортированные по риску по убыванию
	FindAll(ctx context.Context) ([]*entity.MachineHealthVerdict, error)

	// FindByStatus возвращает вердикты с указанным статусом,
	// отсортированные по риску по убыванию
	FindByStatus(ctx context.Context, status valueobject.HealthStatus) ([]*entity.MachineHealthVerdict, error)

	// FindByMachine возвращает вердикт одной машины (nil если вердикта нет)
	FindByMachine(ctx context.Context, machineID string) (*entity.MachineHealthVerdict, error)
}
