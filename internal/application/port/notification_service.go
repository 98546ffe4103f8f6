package port

import "github.com/dreschagin/factory-health-monitor/internal/application/dto"

// NotificationService определяет интерфейс для отправки уведомлений (Port)
// Реализация будет в Infrastructure слое (WebSocket Hub)
type NotificationService interface {
	// Broadcast отправляет snapshot здоровья фабрики всем подключенным клиентам
	Broadcast(snapshot *dto.HealthSnapshotDTO)

	// BroadcastAlert отправляет критический alert всем подключенным клиентам
	BroadcastAlert(alert *dto.AlertWebsocketDTO)

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int
}
