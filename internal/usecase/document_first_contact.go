package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type DocumentFirstContactUseCase struct {
	Repo    entity.LeadRepositoryInterface
	Clock   entity.Clock
	Weights entity.ScoringWeights
	Logger  *zap.Logger
}

func NewDocumentFirstContactUseCase(repo entity.LeadRepositoryInterface, clock entity.Clock, weights entity.ScoringWeights, logger *zap.Logger) *DocumentFirstContactUseCase {
	return &DocumentFirstContactUseCase{Repo: repo, Clock: clock, Weights: weights, Logger: logger}
}

// Execute registers a pre-claim lead. A lead that is already registered is
// rejected, never overwritten.
func (uc *DocumentFirstContactUseCase) Execute(ctx context.Context, input DocumentFirstContactInput) (*LeadView, error) {
	lead, err := uc.Repo.FindByID(ctx, input.LeadID)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}

	now := uc.Clock.Now()
	next, err := entity.DocumentFirstContact(lead, input.ContactPerson, input.ExpectedVersion, now)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	if err := entity.Rescore(next, uc.Weights, entity.ScoreSignals{}); err != nil {
		return nil, classify(err, CodeDatabase)
	}

	if err := uc.Repo.Update(ctx, next, input.ExpectedVersion); err != nil {
		return nil, classify(err, CodeDatabase)
	}

	uc.Logger.Info("first contact documented, protection started",
		zap.String("lead_id", next.ID),
		zap.Time("protection_until", *next.ProtectionUntil),
		zap.Time("progress_deadline", *next.ProgressDeadline))
	return viewOf(next, now)
}
