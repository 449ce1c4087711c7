package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

// DeadlineScanner is satisfied by *usecase.ScanDeadlinesUseCase.
type DeadlineScanner interface {
	Execute(ctx context.Context) (*usecase.ScanDeadlinesOutput, error)
}

type DeadlineWarningWorker struct {
	scanner      DeadlineScanner
	tickInterval time.Duration
	logger       *zap.Logger
}

func NewDeadlineWarningWorker(scanner DeadlineScanner, tickInterval time.Duration, logger *zap.Logger) *DeadlineWarningWorker {
	if tickInterval <= 0 {
		tickInterval = time.Hour
	}
	return &DeadlineWarningWorker{
		scanner:      scanner,
		tickInterval: tickInterval,
		logger:       logger,
	}
}

// Start scans once immediately and then on every tick until ctx is done.
func (w *DeadlineWarningWorker) Start(ctx context.Context) {
	w.logger.Info("deadline warning worker started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("deadline warning worker stopped")
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *DeadlineWarningWorker) scan(ctx context.Context) {
	out, err := w.scanner.Execute(ctx)
	if err != nil {
		w.logger.Error("deadline scan failed", zap.Error(err))
		middleware.RecordIntegrationError("database")
		return
	}
	for i := 0; i < out.Warned; i++ {
		middleware.RecordDeadlineWarning("sent")
	}
	for i := 0; i < out.Failed; i++ {
		middleware.RecordDeadlineWarning("failed")
	}
}
