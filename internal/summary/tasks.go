package summary

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/shopcore/internal/obs"
)

// TaskSummaryRefresh is the asynq task type for rebuilding the cached
// top-products summary.
const TaskSummaryRefresh = "summary:refresh"

// NewRefreshTask builds the refresh task. It carries no payload; the handler
// always recomputes the default summary.
func NewRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskSummaryRefresh, nil)
}

// RefreshHandler processes summary refresh tasks in the worker.
type RefreshHandler struct {
	Svc    *Service
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h *RefreshHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	err := h.Svc.Refresh(ctx)
	result := "ok"
	if err != nil {
		result = "error"
		h.Logger.Error().Err(err).Msg("summary_refresh_failed")
	} else {
		h.Logger.Info().Msg("summary_refreshed")
	}
	if obs.SummaryRefreshTotal != nil {
		obs.SummaryRefreshTotal.WithLabelValues(result).Inc()
	}
	return err
}
