package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/factory-health-monitor/internal/application/dto"
	"github.com/dreschagin/factory-health-monitor/internal/domain/repository"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// Лимиты выборки последних показаний.
const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// GetRecentReadingsUseCase возвращает последние показания, опционально
// отфильтрованные по машине
type GetRecentReadingsUseCase struct {
	readings repository.ReadingRepository
	logger   *logger.Logger
}

// NewGetRecentReadingsUseCase создает новый use case
func NewGetRecentReadingsUseCase(
	readings repository.ReadingRepository,
	logger *logger.Logger,
) *GetRecentReadingsUseCase {
	return &GetRecentReadingsUseCase{
		readings: readings,
		logger:   logger,
	}
}

// Execute возвращает последние показания. machineID="" означает все машины;
// limit <= 0 заменяется дефолтом, слишком большой - обрезается.
func (uc *GetRecentReadingsUseCase) Execute(ctx context.Context, machineID string, limit int) ([]*dto.ReadingDTO, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	readings, err := uc.readings.FindRecent(ctx, machineID, limit)
	if err != nil {
		uc.logger.Error("Failed to fetch recent readings", err, "machine_id", machineID)
		return nil, fmt.Errorf("failed to fetch recent readings: %w", err)
	}

	uc.logger.Debug("Fetched recent readings", "count", len(readings), "machine_id", machineID)

	return dto.ToReadingDTOs(readings), nil
}
