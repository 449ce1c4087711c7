package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type CreateLeadUseCase struct {
	Repo    entity.LeadRepositoryInterface
	Clock   entity.Clock
	Weights entity.ScoringWeights
	Logger  *zap.Logger
}

func NewCreateLeadUseCase(repo entity.LeadRepositoryInterface, clock entity.Clock, weights entity.ScoringWeights, logger *zap.Logger) *CreateLeadUseCase {
	return &CreateLeadUseCase{Repo: repo, Clock: clock, Weights: weights, Logger: logger}
}

// Execute captures a pre-claim lead. The protection clock does not start
// until first contact is documented.
func (uc *CreateLeadUseCase) Execute(ctx context.Context, input CreateLeadInput) (*LeadView, error) {
	if errs := ValidateCreateLeadInput(input); len(errs) > 0 {
		return nil, validationFailure(errs)
	}

	now := uc.Clock.Now()
	lead := entity.NewLead(input.OwnerID, input.OwnerEmail, strings.TrimSpace(input.CompanyName), now)
	lead.Email = strings.TrimSpace(input.Email)
	lead.Phone = strings.TrimSpace(input.Phone)
	lead.Address = input.Address
	if err := entity.Rescore(lead, uc.Weights, entity.ScoreSignals{}); err != nil {
		return nil, classify(err, CodeDatabase)
	}

	if err := uc.Repo.Create(ctx, lead); err != nil {
		return nil, classify(err, CodeDatabase)
	}

	uc.Logger.Info("lead captured",
		zap.String("lead_id", lead.ID),
		zap.String("owner_id", lead.OwnerID))
	return viewOf(lead, now)
}
