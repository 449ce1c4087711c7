package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type LogActivityUseCase struct {
	Repo         entity.LeadRepositoryInterface
	ActivityRepo entity.ActivityRepositoryInterface
	Clock        entity.Clock
	Weights      entity.ScoringWeights
	Logger       *zap.Logger
}

func NewLogActivityUseCase(
	repo entity.LeadRepositoryInterface,
	activityRepo entity.ActivityRepositoryInterface,
	clock entity.Clock,
	weights entity.ScoringWeights,
	logger *zap.Logger,
) *LogActivityUseCase {
	return &LogActivityUseCase{
		Repo:         repo,
		ActivityRepo: activityRepo,
		Clock:        clock,
		Weights:      weights,
		Logger:       logger,
	}
}

func (uc *LogActivityUseCase) Execute(ctx context.Context, input LogActivityInput) (*LogActivityOutput, error) {
	if errs := ValidateLogActivityInput(input); len(errs) > 0 {
		return nil, validationFailure(errs)
	}
	activityType, err := entity.ParseActivityType(strings.TrimSpace(input.ActivityType))
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	activityDate, err := entity.ParseTimestamp("activity_date", input.ActivityDate)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	nextActionDate, err := entity.ParseOptionalTimestamp("next_action_date", input.NextActionDate)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}

	lead, err := uc.Repo.FindByID(ctx, input.LeadID)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	history, err := uc.ActivityRepo.FindByLeadID(ctx, lead.ID)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}

	now := uc.Clock.Now()
	activity, err := entity.NewLeadActivity(lead.ID, input.UserID, activityType, activityDate, strings.TrimSpace(input.Summary), now)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	activity.Outcome = strings.TrimSpace(input.Outcome)
	activity.NextAction = strings.TrimSpace(input.NextAction)
	activity.NextActionDate = nextActionDate

	next, err := entity.RecordActivity(lead, history, activity, input.ExpectedVersion, now)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	if err := entity.Rescore(next, uc.Weights, entity.ScoreSignals{
		ProgressActivities: countProgress(history) + boolToInt(activity.CountsAsProgress()),
	}); err != nil {
		return nil, classify(err, CodeDatabase)
	}

	// Lead first so the version precondition guards the activity insert.
	txn := NewTransaction(uc.Logger)
	txn.AddOperation("update_lead", func(ctx context.Context) error {
		return uc.Repo.Update(ctx, next, input.ExpectedVersion)
	})
	txn.AddCompensation("restore_lead", func(ctx context.Context) error {
		restore := lead.Clone()
		restore.Version = next.Version + 1
		restore.UpdatedAt = uc.Clock.Now()
		return uc.Repo.Update(ctx, restore, next.Version)
	})
	txn.AddOperation("create_activity", func(ctx context.Context) error {
		return uc.ActivityRepo.Create(ctx, activity)
	})
	if err := txn.Execute(ctx); err != nil {
		return nil, classify(err, CodeDatabase)
	}

	uc.Logger.Info("activity logged",
		zap.String("lead_id", lead.ID),
		zap.String("activity_type", string(activity.ActivityType)),
		zap.Bool("counts_as_progress", activity.CountsAsProgress()),
		zap.Timep("progress_deadline", next.ProgressDeadline))

	view, err := BuildLeadView(next, now)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	return &LogActivityOutput{Activity: activity, View: view}, nil
}

func countProgress(activities []*entity.LeadActivity) int {
	n := 0
	for _, a := range activities {
		if a.CountsAsProgress() {
			n++
		}
	}
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
