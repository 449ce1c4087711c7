package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type DeleteLeadUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Clock  entity.Clock
	Logger *zap.Logger
}

func NewDeleteLeadUseCase(repo entity.LeadRepositoryInterface, clock entity.Clock, logger *zap.Logger) *DeleteLeadUseCase {
	return &DeleteLeadUseCase{Repo: repo, Clock: clock, Logger: logger}
}

// Execute soft-deletes the lead. The caller must present the version it
// last read.
func (uc *DeleteLeadUseCase) Execute(ctx context.Context, input DeleteLeadInput) (*entity.Lead, error) {
	lead, err := uc.Repo.FindByID(ctx, input.LeadID)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	next, err := entity.SoftDelete(lead, input.ExpectedVersion, uc.Clock.Now())
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	if err := uc.Repo.Update(ctx, next, input.ExpectedVersion); err != nil {
		return nil, classify(err, CodeDatabase)
	}

	uc.Logger.Info("lead soft-deleted",
		zap.String("lead_id", next.ID),
		zap.String("status", string(next.State.Status)))
	return next, nil
}
