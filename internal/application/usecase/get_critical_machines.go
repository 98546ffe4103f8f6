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

// GetCriticalMachinesUseCase возвращает отчет о критических машинах
// с кешированием
type GetCriticalMachinesUseCase struct {
	verdicts repository.VerdictRepository
	cache    port.Cache
	logger   *logger.Logger
}

// NewGetCriticalMachinesUseCase создает новый use case
func NewGetCriticalMachinesUseCase(
	verdicts repository.VerdictRepository,
	cache port.Cache,
	logger *logger.Logger,
) *GetCriticalMachinesUseCase {
	return &GetCriticalMachinesUseCase{
		verdicts: verdicts,
		cache:    cache,
		logger:   logger,
	}
}

// Execute возвращает отчет о критических машинах, отсортированных
// по риску по убыванию. Пустой отчет - валидный результат.
func (uc *GetCriticalMachinesUseCase) Execute(ctx context.Context) (*dto.CriticalReportDTO, error) {
	// Если кеш не настроен, используем стандартный путь
	if uc.cache == nil {
		return uc.executeWithoutCache(ctx)
	}

	cacheKey := "verdicts:critical"

	var cached *dto.CriticalReportDTO
	if err := uc.cache.Get(ctx, cacheKey, &cached); err == nil {
		uc.logger.Debug("Cache hit for critical machines", "count", len(cached.Machines))
		return cached, nil
	}

	uc.logger.Debug("Cache miss for critical machines, fetching from DB")

	report, err := uc.executeWithoutCache(ctx)
	if err != nil {
		return nil, err
	}

	// Сохраняем в кеш (асинхронно, не блокируем ответ)
	go func() {
		if err := uc.cache.Set(context.Background(), cacheKey, report); err != nil {
			uc.logger.Warn("Failed to cache critical report", "error", err.Error())
		}
	}()

	return report, nil
}

// executeWithoutCache строит отчет напрямую из репозитория
func (uc *GetCriticalMachinesUseCase) executeWithoutCache(ctx context.Context) (*dto.CriticalReportDTO, error) {
	verdicts, err := uc.verdicts.FindByStatus(ctx, valueobject.Critical)
	if err != nil {
		uc.logger.Error("Failed to fetch critical verdicts", err)
		return nil, fmt.Errorf("failed to fetch critical verdicts: %w", err)
	}

	uc.logger.Debug("Fetched critical verdicts", "count", len(verdicts))

	return dto.NewCriticalReportDTO(verdicts), nil
}
