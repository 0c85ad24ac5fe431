package telemetry

import "context"

// ReportError отправляет ошибку в приёмник ошибок.
//
// Приёмник — error-лог с полем component и счётчик conveyor_errors_total.
// Используется там, где ошибка не может быть возвращена вызывающему:
// тик триггера, обработка записи, обработка pipeline.
func ReportError(ctx context.Context, component string, err error, args ...any) {
	if err == nil {
		return
	}

	ErrorsTotal.WithLabelValues(component).Inc()

	attrs := append([]any{"component", component, "error", err}, args...)
	FromContext(ctx).Error("error reported", attrs...)
}
