package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

const markWarningSentAttempts = 3

// ScanDeadlinesUseCase dispatches one deadline warning per lead per hold
// window. The calculator only reads the resulting progressWarningSentAt.
type ScanDeadlinesUseCase struct {
	Repo      entity.LeadRepositoryInterface
	Publisher DeadlineWarningPublisher
	Lock      DispatchLock
	Clock     entity.Clock
	Logger    *zap.Logger
}

func NewScanDeadlinesUseCase(
	repo entity.LeadRepositoryInterface,
	publisher DeadlineWarningPublisher,
	lock DispatchLock,
	clock entity.Clock,
	logger *zap.Logger,
) *ScanDeadlinesUseCase {
	return &ScanDeadlinesUseCase{
		Repo:      repo,
		Publisher: publisher,
		Lock:      lock,
		Clock:     clock,
		Logger:    logger,
	}
}

func (uc *ScanDeadlinesUseCase) Execute(ctx context.Context) (*ScanDeadlinesOutput, error) {
	now := uc.Clock.Now()
	leads, err := uc.Repo.FindDeadlineCandidates(ctx, now.Add(entity.WarningThreshold))
	if err != nil {
		return nil, classify(err, CodeDatabase)
	}

	out := &ScanDeadlinesOutput{}
	for _, lead := range leads {
		out.Evaluated++
		if !needsWarning(lead, now, uc.Logger) {
			out.Skipped++
			continue
		}
		sent, err := uc.warn(ctx, lead, now)
		switch {
		case sent:
			out.Warned++
			if err != nil {
				uc.Logger.Error("deadline warning sent but not recorded on lead",
					zap.String("lead_id", lead.ID), zap.Error(err))
			}
		case err != nil:
			out.Failed++
			uc.Logger.Error("deadline warning failed",
				zap.String("lead_id", lead.ID), zap.Error(err))
		default:
			out.Skipped++
		}
	}

	uc.Logger.Info("deadline scan finished",
		zap.Int("evaluated", out.Evaluated),
		zap.Int("warned", out.Warned),
		zap.Int("skipped", out.Skipped),
		zap.Int("failed", out.Failed))
	return out, nil
}

// needsWarning is true when the countdown itself says warning. A lead held
// in warning by a recent dispatch is already covered.
func needsWarning(lead *entity.Lead, now time.Time, logger *zap.Logger) bool {
	if lead.State.Deleted() || !lead.State.Status.Protected() {
		return false
	}
	if lead.ProgressWarningSentAt != nil && now.Sub(*lead.ProgressWarningSentAt) <= entity.WarningHoldWindow {
		return false
	}
	p, err := entity.ComputeProtection(lead, now)
	if err != nil {
		logger.Warn("skipping lead with inconsistent timestamps",
			zap.String("lead_id", lead.ID), zap.Error(err))
		return false
	}
	return p.Status == entity.ProtectionWarning
}

func (uc *ScanDeadlinesUseCase) warn(ctx context.Context, lead *entity.Lead, now time.Time) (bool, error) {
	acquired, err := uc.Lock.Acquire(ctx, lead.ID, entity.WarningHoldWindow)
	if err != nil {
		return false, &TechnicalError{Code: CodeQueue, Message: "dispatch lock unavailable", Err: err}
	}
	if !acquired {
		return false, nil
	}

	p, err := entity.ComputeProtection(lead, now)
	if err != nil {
		return false, classify(err, CodeDatabase)
	}
	payload := queue.DeadlineWarningPayload{
		LeadID:           lead.ID,
		CompanyName:      lead.CompanyName,
		OwnerID:          lead.OwnerID,
		OwnerEmail:       lead.OwnerEmail,
		DaysUntilExpiry:  *p.DaysUntilExpiry,
		ProgressDeadline: *lead.ProgressDeadline,
		Message:          p.WarningMessage,
		SentAt:           now,
	}
	if err := uc.Publisher.PublishDeadlineWarning(ctx, payload); err != nil {
		if relErr := uc.Lock.Release(ctx, lead.ID); relErr != nil {
			uc.Logger.Warn("dispatch lock release failed",
				zap.String("lead_id", lead.ID), zap.Error(relErr))
		}
		return false, &TechnicalError{Code: CodeQueue, Message: "publish deadline warning", Err: err}
	}

	return true, uc.markWarningSent(ctx, lead, now)
}

// markWarningSent stores the dispatch time, re-reading the lead when a
// concurrent edit bumped its version in the meantime.
func (uc *ScanDeadlinesUseCase) markWarningSent(ctx context.Context, lead *entity.Lead, now time.Time) error {
	current := lead
	for attempt := 1; ; attempt++ {
		next, err := entity.MarkWarningSent(current, current.Version, now)
		if err != nil {
			return classify(err, CodeDatabase)
		}
		err = uc.Repo.Update(ctx, next, current.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, entity.ErrConcurrencyConflict) || attempt >= markWarningSentAttempts {
			return classify(err, CodeDatabase)
		}
		uc.Logger.Debug("lead changed while marking warning sent, retrying",
			zap.String("lead_id", lead.ID), zap.Int("attempt", attempt))
		if current, err = uc.Repo.FindByID(ctx, lead.ID); err != nil {
			return classify(err, CodeDatabase)
		}
	}
}
