package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ccc-church/evaluation-api/internal/models"
	"github.com/ccc-church/evaluation-api/pkg/jobs"
)

const warmJobName = "warm-reports"

// ReportWarmer rebuilds the report cache in the background after a
// write drops it, so the next dashboard read is served warm. Jobs are
// coalesced by the queue buffer; losing one only delays warming until
// the next read or write.
type ReportWarmer struct {
	reports *ReportService
	queue   *jobs.Queue
	logger  *zap.Logger
}

// NewReportWarmer constructs a warmer around the report service.
func NewReportWarmer(reports *ReportService, logger *zap.Logger) *ReportWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &ReportWarmer{reports: reports, logger: logger}
	w.queue = jobs.NewQueue("report-warmer", w.handle, jobs.QueueConfig{
		Workers:     1,
		BufferSize:  4,
		MaxAttempts: 2,
		Backoff:     5 * time.Second,
		Logger:      logger,
	})
	return w
}

// Start launches the worker.
func (w *ReportWarmer) Start(ctx context.Context) {
	w.queue.Start(ctx)
}

// Stop drains the worker.
func (w *ReportWarmer) Stop() {
	w.queue.Stop()
}

// Trigger schedules a warm-up run. Non-blocking, so write paths never
// wait on the worker; a full buffer means a rebuild is already pending.
func (w *ReportWarmer) Trigger() {
	if w == nil {
		return
	}
	if err := w.queue.TryEnqueue(jobs.Job{Name: warmJobName}); err != nil {
		w.logger.Debug("warm-up not scheduled", zap.Error(err))
	}
}

func (w *ReportWarmer) handle(ctx context.Context, job jobs.Job) error {
	start := time.Now()
	// Combined walks every aggregate, repopulating the whole namespace
	// in one pass. Admin role: the warmer acts as the system.
	if _, _, err := w.reports.Combined(ctx, models.RoleAdmin); err != nil {
		return err
	}
	if _, _, err := w.reports.Stats(ctx, models.RoleAdmin); err != nil {
		return err
	}
	w.logger.Debug("report cache warmed",
		zap.String("job", job.Name),
		zap.Duration("took", time.Since(start)))
	return nil
}
