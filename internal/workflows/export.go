package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/mapart/internal/core/domain"
)

// TaskQueue is the queue export workers poll.
const TaskQueue = "mapart-exports"

// Activity names.
const (
	RenderExportActivity = "RenderExport"
	FinishExportActivity = "FinishExport"
)

// ExportWorkflow renders a queued export and records its outcome. Nothing is
// retried: a failed render marks the job failed and tells the user once.
func ExportWorkflow(ctx workflow.Context, req domain.ExportRequest) (*domain.ExportJob, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting export workflow", "jobID", req.JobID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var job *domain.ExportJob
	err := workflow.ExecuteActivity(ctx, RenderExportActivity, req).Get(ctx, &job)
	if err != nil || job == nil {
		msg := "no result"
		if err != nil {
			msg = rootMessage(err)
		}
		logger.Warn("export render failed", "jobID", req.JobID, "error", msg)
		job = &domain.ExportJob{
			ID:        req.JobID,
			SessionID: req.SessionID,
			Filename:  req.Filename,
			Status:    domain.JobFailed,
			Error:     msg,
		}
	}

	if err := workflow.ExecuteActivity(ctx, FinishExportActivity, job).Get(ctx, nil); err != nil {
		return job, err
	}

	logger.Info("Export finished", "jobID", job.ID, "status", job.Status, "streets", job.Streets)
	return job, nil
}

// rootMessage strips Temporal's activity wrapping from err.
func rootMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return err.Error()
}
