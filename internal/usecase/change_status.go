package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// ChangeStatusUseCase applies qualification and close-out moves decided
// outside this service.
type ChangeStatusUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Clock  entity.Clock
	Logger *zap.Logger
}

func NewChangeStatusUseCase(repo entity.LeadRepositoryInterface, clock entity.Clock, logger *zap.Logger) *ChangeStatusUseCase {
	return &ChangeStatusUseCase{Repo: repo, Clock: clock, Logger: logger}
}

func (uc *ChangeStatusUseCase) Execute(ctx context.Context, input ChangeStatusInput) (*LeadView, error) {
	to, err := entity.ParseLeadStatus(input.Status)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	lead, err := uc.Repo.FindByID(ctx, input.LeadID)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}

	now := uc.Clock.Now()
	next, err := entity.Transition(lead, to, input.ExpectedVersion, now)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	if err := uc.Repo.Update(ctx, next, input.ExpectedVersion); err != nil {
		return nil, classify(err, CodeDatabase)
	}

	uc.Logger.Info("lead status changed",
		zap.String("lead_id", next.ID),
		zap.String("from", string(lead.State.Status)),
		zap.String("to", string(to)))
	return viewOf(next, now)
}
