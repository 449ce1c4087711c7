package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

type DeadlineWarningPublisher interface {
	PublishDeadlineWarning(ctx context.Context, payload queue.DeadlineWarningPayload) error
}

// DispatchLock guarantees one warning per lead per hold window across replicas.
type DispatchLock interface {
	Acquire(ctx context.Context, leadID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, leadID string) error
}
