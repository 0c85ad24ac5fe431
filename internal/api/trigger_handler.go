package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shaiso/Conveyor/internal/scheduler"
)

// GetTrigger возвращает состояние триггера.
// GET /api/v1/trigger
func (h *Handler) GetTrigger(w http.ResponseWriter, r *http.Request) {
	Success(w, TriggerFromStatus(h.trigger.Status()))
}

// StartTrigger регистрирует триггер с новым cron-выражением.
// PUT /api/v1/trigger
func (h *Handler) StartTrigger(w http.ResponseWriter, r *http.Request) {
	var req StartTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Pattern = strings.TrimSpace(req.Pattern)
	if req.Pattern == "" {
		Fail(w, http.StatusBadRequest, "pattern is required")
		return
	}

	status, err := h.trigger.Start(r.Context(), req.Pattern)
	if err != nil {
		if errors.Is(err, scheduler.ErrInvalidPattern) {
			Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		h.failInternal(w, r, err)
		return
	}

	Success(w, TriggerFromStatus(status))
}

// StopTrigger снимает регистрацию триггера.
// DELETE /api/v1/trigger
func (h *Handler) StopTrigger(w http.ResponseWriter, r *http.Request) {
	status, err := h.trigger.Stop(r.Context())
	if err != nil {
		h.failInternal(w, r, err)
		return
	}

	Success(w, TriggerFromStatus(status))
}
