package api

import (
	"errors"
	"net/http"

	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/scheduler"
)

// RunNow отправляет запрос на внеочередной run.
// POST /api/v1/runs
//
// Run выполняется асинхронно, ответ 202 содержит ID запроса.
func (h *Handler) RunNow(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		Fail(w, http.StatusServiceUnavailable, "run dispatch is not configured")
		return
	}

	req := scheduler.NewRunRequest(mq.SourceAPI, "")
	if err := h.dispatcher.Dispatch(r.Context(), req); err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			Fail(w, http.StatusConflict, "run already in progress")
			return
		}
		h.failInternal(w, r, err)
		return
	}

	h.logger.Info("run requested", "request_id", req.ID.String())
	Accepted(w, RunRequestFromScheduler(req))
}
