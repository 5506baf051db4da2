package summary

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/noah-isme/shopcore/internal/common"
)

// Handler exposes the sales summary endpoints.
type Handler struct {
	Svc      *Service
	Enqueuer *asynq.Client
}

// Routes mounts the summary endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary/top-products", h.TopProducts)
	r.Post("/summary/refresh", h.Refresh)
}

// TopProducts returns the top-n products by completed revenue. The optional
// "n" query parameter overrides the configured default.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "n must be a positive integer", nil)
			return
		}
		n = parsed
	}
	top, err := h.Svc.TopProducts(r.Context(), n)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": top})
}

// Refresh enqueues a background recomputation of the cached summary.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.Enqueuer == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "background worker not configured", nil)
		return
	}
	if _, err := h.Enqueuer.EnqueueContext(r.Context(), NewRefreshTask()); err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
