package port

import (
	"context"

	"github.com/dreschagin/factory-health-monitor/internal/application/dto"
)

// No-op реализации опциональных зависимостей. Подставляются в main,
// когда соответствующая подсистема выключена конфигурацией, чтобы
// use case-ам не приходилось проверять nil.

// NoopCache - заглушка кэша: каждый Get промахивается.
type NoopCache struct{}

type cacheDisabledError struct{}

func (cacheDisabledError) Error() string { return "cache disabled" }

func (NoopCache) Get(_ context.Context, _ string, _ interface{}) error {
	return cacheDisabledError{}
}

func (NoopCache) Set(_ context.Context, _ string, _ interface{}) error { return nil }

func (NoopCache) Delete(_ context.Context, _ string) error { return nil }

func (NoopCache) DeletePattern(_ context.Context, _ string) error { return nil }

func (NoopCache) Close() error { return nil }

// NoopEventPublisher - заглушка брокера событий.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishEvent(_ context.Context, _ string, _ interface{}) error {
	return nil
}

func (NoopEventPublisher) Close() error { return nil }

// NoopRunLogPublisher - заглушка run-лога.
type NoopRunLogPublisher struct{}

func (NoopRunLogPublisher) Publish(_ context.Context, _ RunLogEvent) error { return nil }

func (NoopRunLogPublisher) Close(_ context.Context) error { return nil }

// NoopAlertDispatcher - заглушка отправки отчетов. Каждый вызов
// возвращает статус skipped.
type NoopAlertDispatcher struct{}

func (NoopAlertDispatcher) SendCriticalReport(_ context.Context, _ *dto.CriticalReportDTO) (DispatchResult, error) {
	return DispatchResult{Status: DispatchStatusSkipped}, nil
}

// NoopAlertHistory - заглушка истории отправок.
type NoopAlertHistory struct{}

func (NoopAlertHistory) Put(_ context.Context, _ AlertHistoryRecord) error { return nil }

func (NoopAlertHistory) ListRecent(_ context.Context, _ int) ([]AlertHistoryRecord, error) {
	return nil, nil
}
