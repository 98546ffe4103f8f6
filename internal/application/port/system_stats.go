package port

import "context"

// SystemStats - снимок ресурсов хоста, на котором работает сервис.
type SystemStats struct {
	CPUUsagePercent   float64 `json:"cpu_usage_percent"`
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	MemoryUsedMB      uint64  `json:"memory_used_mb"`
	MemoryTotalMB     uint64  `json:"memory_total_mb"`
	DiskUsedPercent   float64 `json:"disk_used_percent"`
	GoroutineCount    int     `json:"goroutine_count"`
	UptimeSeconds     int64   `json:"uptime_seconds"`
}

// SystemStatsCollector собирает метрики хоста для ops-эндпоинта (Port)
type SystemStatsCollector interface {
	Collect(ctx context.Context) (*SystemStats, error)
}
