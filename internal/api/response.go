package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeUpstream      ErrorCode = "UPSTREAM_ERROR"
	ErrCodeUnavailable   ErrorCode = "UNAVAILABLE"
	ErrCodeTimeout       ErrorCode = "TIMEOUT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// errorCodes — код ошибки по HTTP-статусу ответа.
var errorCodes = map[int]ErrorCode{
	http.StatusBadRequest:          ErrCodeBadRequest,
	http.StatusNotFound:            ErrCodeNotFound,
	http.StatusConflict:            ErrCodeConflict,
	http.StatusBadGateway:          ErrCodeUpstream,
	http.StatusServiceUnavailable:  ErrCodeUnavailable,
	http.StatusGatewayTimeout:      ErrCodeTimeout,
	http.StatusInternalServerError: ErrCodeInternalError,
}

// ErrorResponse — конверт ответа с ошибкой: {"error": {"code", "message"}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — конверт одиночного объекта.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — конверт списка. Total — число элементов в Data.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Success отвечает 200 с объектом.
func Success(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, DataResponse{Data: data})
}

// Accepted отвечает 202: запрос принят, выполнение асинхронное.
func Accepted(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusAccepted, DataResponse{Data: data})
}

// List отвечает 200 со списком.
func List[T any](w http.ResponseWriter, items []T) {
	writeJSON(w, http.StatusOK, ListResponse{Data: items, Total: len(items)})
}

// Fail отвечает ошибкой. Код ошибки выводится из статуса.
func Fail(w http.ResponseWriter, status int, message string) {
	code, ok := errorCodes[status]
	if !ok {
		code = ErrCodeInternalError
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// failInternal отправляет err в приёмник ошибок и отвечает 500 без деталей.
func (h *Handler) failInternal(w http.ResponseWriter, r *http.Request, err error) {
	ctx := telemetry.WithLogger(r.Context(), h.logger)
	telemetry.ReportError(ctx, "api", err, "method", r.Method, "path", r.URL.Path)
	Fail(w, http.StatusInternalServerError, "internal server error")
}

// failStorage переводит ошибку хранилища в ответ и возвращает true, если ответ отправлен.
//
//	repo.ErrNotFound           → 404 notFoundMsg
//	context.DeadlineExceeded   → 504
//	прочее                     → 500
func (h *Handler) failStorage(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repo.ErrNotFound):
		Fail(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("storage timeout", "path", r.URL.Path, "error", err)
		Fail(w, http.StatusGatewayTimeout, "storage timeout")
	default:
		h.failInternal(w, r, err)
	}
	return true
}
