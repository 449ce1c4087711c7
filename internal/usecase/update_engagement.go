package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type UpdateEngagementUseCase struct {
	Repo         entity.LeadRepositoryInterface
	ActivityRepo entity.ActivityRepositoryInterface
	Clock        entity.Clock
	Weights      entity.ScoringWeights
	Logger       *zap.Logger
}

func NewUpdateEngagementUseCase(
	repo entity.LeadRepositoryInterface,
	activityRepo entity.ActivityRepositoryInterface,
	clock entity.Clock,
	weights entity.ScoringWeights,
	logger *zap.Logger,
) *UpdateEngagementUseCase {
	return &UpdateEngagementUseCase{
		Repo:         repo,
		ActivityRepo: activityRepo,
		Clock:        clock,
		Weights:      weights,
		Logger:       logger,
	}
}

// Execute edits the scoring fields and recomputes both scores from the
// resulting values.
func (uc *UpdateEngagementUseCase) Execute(ctx context.Context, input UpdateEngagementInput) (*LeadView, error) {
	change := entity.EngagementChange{
		InternalChampionName: input.InternalChampionName,
		CompetitorInUse:      input.CompetitorInUse,
	}
	if input.RelationshipStatus != nil {
		rel, err := entity.ParseRelationshipStatus(*input.RelationshipStatus)
		if err != nil {
			return nil, classify(err, CodeDatabase)
		}
		change.RelationshipStatus = &rel
	}
	if input.DecisionMakerAccess != nil {
		dm, err := entity.ParseDecisionMakerAccess(*input.DecisionMakerAccess)
		if err != nil {
			return nil, classify(err, CodeDatabase)
		}
		change.DecisionMakerAccess = &dm
	}

	lead, err := uc.Repo.FindByID(ctx, input.LeadID)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	now := uc.Clock.Now()
	next, err := entity.ApplyEngagement(lead, change, input.ExpectedVersion, now)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}

	progress, err := uc.ActivityRepo.CountProgressByLeadID(ctx, lead.ID)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	if err := entity.Rescore(next, uc.Weights, entity.ScoreSignals{ProgressActivities: progress}); err != nil {
		return nil, classify(err, CodeDatabase)
	}

	if err := uc.Repo.Update(ctx, next, input.ExpectedVersion); err != nil {
		return nil, classify(err, CodeDatabase)
	}

	uc.Logger.Info("engagement updated",
		zap.String("lead_id", next.ID),
		zap.Int("engagement_score", next.EngagementScore),
		zap.Int("lead_score", next.LeadScore))
	return viewOf(next, now)
}
