package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/factory-health-monitor/internal/application/dto"
	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/internal/domain/repository"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// GetMachineHealthUseCase возвращает текущий snapshot здоровья фабрики
type GetMachineHealthUseCase struct {
	verdicts repository.VerdictRepository
	cache    port.Cache
	logger   *logger.Logger
}

// NewGetMachineHealthUseCase создает новый use case
func NewGetMachineHealthUseCase(
	verdicts repository.VerdictRepository,
	cache port.Cache,
	logger *logger.Logger,
) *GetMachineHealthUseCase {
	return &GetMachineHealthUseCase{
		verdicts: verdicts,
		cache:    cache,
		logger:   logger,
	}
}

// Execute возвращает snapshot всех вердиктов, отсортированных по риску
func (uc *GetMachineHealthUseCase) Execute(ctx context.Context) (*dto.HealthSnapshotDTO, error) {
	// Если кеш не настроен, используем стандартный путь
	if uc.cache == nil {
		return uc.executeWithoutCache(ctx)
	}

	cacheKey := "verdicts:snapshot"

	// Пытаемся получить из кеша
	var cached *dto.HealthSnapshotDTO
	if err := uc.cache.Get(ctx, cacheKey, &cached); err == nil {
		uc.logger.Debug("Cache hit for health snapshot", "machines", len(cached.Machines))
		return cached, nil
	}

	uc.logger.Debug("Cache miss for health snapshot, fetching from DB")

	snapshot, err := uc.executeWithoutCache(ctx)
	if err != nil {
		return nil, err
	}

	// Сохраняем в кеш (асинхронно, не блокируем ответ)
	go func() {
		if err := uc.cache.Set(context.Background(), cacheKey, snapshot); err != nil {
			uc.logger.Warn("Failed to cache health snapshot", "error", err.Error())
		}
	}()

	return snapshot, nil
}

// ExecuteForMachine возвращает вердикт одной машины (nil если вердикта нет)
func (uc *GetMachineHealthUseCase) ExecuteForMachine(ctx context.Context, machineID string) (*dto.VerdictDTO, error) {
	if machineID == "" {
		return nil, fmt.Errorf("machine id is required")
	}

	verdict, err := uc.verdicts.FindByMachine(ctx, machineID)
	if err != nil {
		uc.logger.Error("Failed to fetch verdict", err, "machine_id", machineID)
		return nil, fmt.Errorf("failed to fetch verdict: %w", err)
	}
	if verdict == nil {
		return nil, nil
	}

	return dto.FromVerdict(verdict), nil
}

// ExecuteForStatus возвращает вердикты с указанным статусом,
// отсортированные по риску по убыванию
func (uc *GetMachineHealthUseCase) ExecuteForStatus(ctx context.Context, status valueobject.HealthStatus) ([]*dto.VerdictDTO, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	verdicts, err := uc.verdicts.FindByStatus(ctx, status)
	if err != nil {
		uc.logger.Error("Failed to fetch verdicts by status", err, "status", status.String())
		return nil, fmt.Errorf("failed to fetch verdicts by status: %w", err)
	}

	return dto.ToVerdictDTOs(verdicts), nil
}

// executeWithoutCache строит snapshot напрямую из репозитория
func (uc *GetMachineHealthUseCase) executeWithoutCache(ctx context.Context) (*dto.HealthSnapshotDTO, error) {
	verdicts, err := uc.verdicts.FindAll(ctx)
	if err != nil {
		uc.logger.Error("Failed to fetch verdicts", err)
		return nil, fmt.Errorf("failed to fetch verdicts: %w", err)
	}

	uc.logger.Debug("Fetched verdicts", "count", len(verdicts))

	return dto.NewHealthSnapshotDTO(verdicts), nil
}
