package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/memhive/memhive/internal/auth"
)

// NewSessionCleanupHandler returns the handler behind TaskSessionCleanup.
func NewSessionCleanupHandler(service *auth.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		pruned, err := service.PruneSessions(ctx)
		if err != nil {
			if logger != nil {
				logger.Error("session cleanup", slog.Any("error", err))
			}
			return err
		}
		if pruned > 0 && logger != nil {
			logger.Info("session cleanup", slog.Int64("pruned", pruned))
		}
		return nil
	}
}
