package workflows

import (
	"context"
	"fmt"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/usecases"
)

// ExportActivities holds the activity implementations for the export workflow.
type ExportActivities struct {
	Exports *usecases.ExportService
}

// RenderExport samples and renders the export and stores its document.
func (a *ExportActivities) RenderExport(ctx context.Context, req domain.ExportRequest) (*domain.ExportJob, error) {
	job, err := a.Exports.RenderJob(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("render export %s: %w", req.JobID, err)
	}
	return job, nil
}

// FinishExport saves the job's final state and notifies the session.
func (a *ExportActivities) FinishExport(ctx context.Context, job *domain.ExportJob) error {
	if err := a.Exports.FinishJob(ctx, job); err != nil {
		return fmt.Errorf("finish export %s: %w", job.ID, err)
	}
	return nil
}
