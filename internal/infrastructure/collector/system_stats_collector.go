package collector

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/dreschagin/factory-health-monitor/internal/application/port"
)

// SystemStatsCollector собирает метрики хоста для ops-эндпоинта
type SystemStatsCollector struct {
	startedAt time.Time
}

// NewSystemStatsCollector создает новый collector
func NewSystemStatsCollector() *SystemStatsCollector {
	return &SystemStatsCollector{
		startedAt: time.Now(),
	}
}

// Collect собирает снимок ресурсов хоста
func (c *SystemStatsCollector) Collect(ctx context.Context) (*port.SystemStats, error) {
	stats := &port.SystemStats{
		GoroutineCount: runtime.NumGoroutine(),
		UptimeSeconds:  int64(time.Since(c.startedAt).Seconds()),
	}

	// Процент использования CPU за короткий интервал
	percentages, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false)
	if err != nil {
		return nil, err
	}
	if len(percentages) > 0 {
		stats.CPUUsagePercent = percentages[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	stats.MemoryUsedPercent = vm.UsedPercent
	stats.MemoryUsedMB = vm.Used / 1024 / 1024
	stats.MemoryTotalMB = vm.Total / 1024 / 1024

	usage, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return nil, err
	}
	stats.DiskUsedPercent = usage.UsedPercent

	return stats, nil
}
