package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// GetLeadUseCase returns the lead with its protection evaluated at the
// injected clock's current instant.
type GetLeadUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Clock  entity.Clock
	Logger *zap.Logger
}

func NewGetLeadUseCase(repo entity.LeadRepositoryInterface, clock entity.Clock, logger *zap.Logger) *GetLeadUseCase {
	return &GetLeadUseCase{Repo: repo, Clock: clock, Logger: logger}
}

func (uc *GetLeadUseCase) Execute(ctx context.Context, leadID string) (*LeadView, error) {
	lead, err := uc.Repo.FindByID(ctx, leadID)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	if lead.State.Deleted() {
		return nil, classify(entity.ErrLeadDeleted, CodeDatabase)
	}
	view, err := BuildLeadView(lead, uc.Clock.Now())
	if err != nil {
		uc.Logger.Error("protection evaluation failed",
			zap.String("lead_id", leadID), zap.Error(err))
		return nil, classify(err, CodeDatabase)
	}
	return view, nil
}

// BuildLeadView derives the read-model values for one snapshot.
func BuildLeadView(lead *entity.Lead, now time.Time) (*LeadView, error) {
	protection, err := entity.ComputeProtection(lead, now)
	if err != nil {
		return nil, err
	}
	state, err := entity.EffectiveStatus(lead, now)
	if err != nil {
		return nil, err
	}
	preClaim, err := entity.ComputePreClaim(lead, now)
	if err != nil {
		return nil, err
	}
	return &LeadView{
		Lead:            lead,
		EffectiveStatus: state.Status,
		Deleted:         state.Deleted(),
		Protection:      protection,
		PreClaim:        preClaim,
		EvaluatedAt:     now,
	}, nil
}

// ListOverduePreClaimUseCase feeds the dashboard with pre-claim leads whose
// first-contact window lapsed. It never changes their status.
type ListOverduePreClaimUseCase struct {
	Repo  entity.LeadRepositoryInterface
	Clock entity.Clock
}

func NewListOverduePreClaimUseCase(repo entity.LeadRepositoryInterface, clock entity.Clock) *ListOverduePreClaimUseCase {
	return &ListOverduePreClaimUseCase{Repo: repo, Clock: clock}
}

func (uc *ListOverduePreClaimUseCase) Execute(ctx context.Context) ([]*LeadView, error) {
	now := uc.Clock.Now()
	leads, err := uc.Repo.FindPreClaimCreatedBefore(ctx, now.Add(-entity.PreClaimWindow))
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}

	views := make([]*LeadView, 0, len(leads))
	for _, lead := range leads {
		if lead.State.Deleted() || !lead.PreClaim() {
			continue
		}
		view, err := BuildLeadView(lead, now)
		if err != nil {
			return nil, classify(err, CodeDatabase)
		}
		if view.PreClaim != nil && view.PreClaim.Overdue {
			views = append(views, view)
		}
	}
	return views, nil
}

func viewOf(lead *entity.Lead, now time.Time) (*LeadView, error) {
	view, err := BuildLeadView(lead, now)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	return view, nil
}

// ListActivitiesUseCase returns a lead's activity history, oldest first.
type ListActivitiesUseCase struct {
	Repo         entity.LeadRepositoryInterface
	ActivityRepo entity.ActivityRepositoryInterface
}

func NewListActivitiesUseCase(repo entity.LeadRepositoryInterface, activityRepo entity.ActivityRepositoryInterface) *ListActivitiesUseCase {
	return &ListActivitiesUseCase{Repo: repo, ActivityRepo: activityRepo}
}

func (uc *ListActivitiesUseCase) Execute(ctx context.Context, leadID string) ([]*entity.LeadActivity, error) {
	lead, err := uc.Repo.FindByID(ctx, leadID)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	if lead.State.Deleted() {
		return nil, classify(entity.ErrLeadDeleted, CodeDatabase)
	}
	activities, err := uc.ActivityRepo.FindByLeadID(ctx, leadID)
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}
	if activities == nil {
		activities = []*entity.LeadActivity{}
	}
	entity.SortActivities(activities)
	return activities, nil
}
