package port

import (
	"context"

	"github.com/dreschagin/factory-health-monitor/internal/application/dto"
)

// Статусы результата отправки отчета.
const (
	DispatchStatusSuccess = "success"
	DispatchStatusSkipped = "skipped"
	DispatchStatusError   = "error"
)

// DispatchResult - типизированный результат отправки критического отчета.
// Позволяет вызывающему отличить сбой транспорта от "критических машин нет"
// вместо проглатывания ошибок.
type DispatchResult struct {
	Status    string `json:"status"`
	EmailSent bool   `json:"email_sent"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// AlertDispatcher определяет интерфейс для отправки критических отчетов (Port)
// Реализация будет в Infrastructure слое (SES)
type AlertDispatcher interface {
	// SendCriticalReport отправляет отчет о критических машинах.
	// При пустом отчете возвращает {status: skipped, email_sent: false}
	// без отправки сообщения. Ошибка транспорта возвращается и в error,
	// и в типизированном результате.
	SendCriticalReport(ctx context.Context, report *dto.CriticalReportDTO) (DispatchResult, error)
}
