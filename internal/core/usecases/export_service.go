package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/ports"
	"github.com/samirrijal/mapart/internal/core/projection"
	"github.com/samirrijal/mapart/internal/pkg/logging"
	"github.com/samirrijal/mapart/internal/pkg/metrics"
	"github.com/samirrijal/mapart/internal/pkg/telemetry"
	"github.com/samirrijal/mapart/internal/render/raster"
	"github.com/samirrijal/mapart/internal/render/svg"
)

// Format selects the export encoding.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ExportConfig holds exporter defaults.
type ExportConfig struct {
	Canvas      domain.Canvas
	Title       string
	PNGWidth    int
	DocumentTTL time.Duration
}

// ExportOptions tunes a single export.
type ExportOptions struct {
	Filename string
	Format   Format
	Canvas   domain.Canvas // zero means the configured canvas
}

// ExportResult is a rendered export ready to download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Document    domain.ExportDocument
}

// ExportService assembles boundary and streets into a downloadable document.
type ExportService struct {
	sessions ports.SessionStore
	jobs     ports.JobStore
	sampler  ports.StreetSampler
	notifier ports.Notifier
	events   ports.EventPublisher
	starter  ports.JobStarter
	cfg      ExportConfig
}

// NewExportService creates a new ExportService. jobs, events and starter may
// be nil; async exports are then unavailable.
func NewExportService(
	sessions ports.SessionStore,
	jobs ports.JobStore,
	sampler ports.StreetSampler,
	notifier ports.Notifier,
	events ports.EventPublisher,
	starter ports.JobStarter,
	cfg ExportConfig,
) *ExportService {
	if cfg.Canvas == (domain.Canvas{}) {
		cfg.Canvas = domain.DefaultCanvas
	}
	if cfg.Title == "" {
		cfg.Title = "Map Design"
	}
	if cfg.DocumentTTL <= 0 {
		cfg.DocumentTTL = time.Hour
	}
	return &ExportService{
		sessions: sessions,
		jobs:     jobs,
		sampler:  sampler,
		notifier: notifier,
		events:   events,
		starter:  starter,
		cfg:      cfg,
	}
}

// Export renders the session's polygon. Without a polygon it fails before
// any external call. One notification reports the outcome.
func (s *ExportService) Export(ctx context.Context, sessionID string, opts ExportOptions) (*ExportResult, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasPolygon() {
		metrics.Exports.WithLabelValues("sync", "rejected").Inc()
		notify(ctx, s.notifier, sessionID, domain.LevelError, MsgDefineAreaFirst)
		return nil, domain.ErrNoPolygon
	}

	ok, err := s.sessions.AcquireExport(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.Exports.WithLabelValues("sync", "rejected").Inc()
		return nil, domain.ErrExportInProgress
	}
	defer func() {
		if err := s.sessions.ReleaseExport(context.WithoutCancel(ctx), sessionID); err != nil {
			logging.LoggerFromContext(ctx).Warn("release export flag", "session_id", sessionID, "error", err)
		}
	}()

	res, err := s.ExportPolygon(ctx, sess.Polygon, opts)
	if err != nil {
		metrics.Exports.WithLabelValues("sync", "error").Inc()
		notify(ctx, s.notifier, sessionID, domain.LevelError, MsgExportFailedPrefix+err.Error())
		return nil, err
	}

	metrics.Exports.WithLabelValues("sync", "ok").Inc()
	notify(ctx, s.notifier, sessionID, domain.LevelSuccess, MsgExported)
	s.publish(ctx, &domain.ExportJob{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Filename:  res.Filename,
		Status:    domain.JobDone,
		Streets:   len(res.Document.Streets),
		Bytes:     len(res.Data),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	})
	return res, nil
}

// ExportPolygon is the stateless export: project, sample, render.
func (s *ExportService) ExportPolygon(ctx context.Context, poly domain.Polygon, opts ExportOptions) (*ExportResult, error) {
	ctx, span := telemetry.Tracer("usecases").Start(ctx, "export.ExportPolygon")
	defer span.End()

	canvas := opts.Canvas
	if canvas == (domain.Canvas{}) {
		canvas = s.cfg.Canvas
	}

	boundary, err := projection.New(canvas).BoundaryPath(poly)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	streets, err := s.sampler.Sample(ctx, poly, canvas)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("sample streets: %w", err)
	}

	doc := domain.ExportDocument{Canvas: canvas, BoundaryPath: boundary, Streets: streets}
	data, err := svg.Bytes(doc, s.cfg.Title)
	if err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}

	res := &ExportResult{
		Filename:    domain.ExportFilename(opts.Filename, ".svg"),
		ContentType: svg.ContentType,
		Data:        data,
		Document:    doc,
	}
	if opts.Format == FormatPNG {
		png, err := raster.PNG(data, s.cfg.PNGWidth)
		if err != nil {
			return nil, fmt.Errorf("render png: %w", err)
		}
		res.Filename = domain.ExportFilename(opts.Filename, ".png")
		res.ContentType = raster.ContentType
		res.Data = png
	}

	span.SetAttributes(
		attribute.Int("export.streets", len(streets)),
		attribute.Int("export.bytes", len(res.Data)),
	)
	return res, nil
}

// StartAsync queues an export of the session's polygon on the worker.
func (s *ExportService) StartAsync(ctx context.Context, sessionID, filename string) (*domain.ExportJob, error) {
	if s.starter == nil || s.jobs == nil {
		return nil, domain.ErrAsyncExportUnavailable
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasPolygon() {
		metrics.Exports.WithLabelValues("async", "rejected").Inc()
		notify(ctx, s.notifier, sessionID, domain.LevelError, MsgDefineAreaFirst)
		return nil, domain.ErrNoPolygon
	}

	now := time.Now().UTC()
	job := &domain.ExportJob{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Filename:  domain.ExportFilename(filename, ".svg"),
		Status:    domain.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		return nil, err
	}

	_, err = s.starter.StartExport(ctx, domain.ExportRequest{
		JobID:     job.ID,
		SessionID: sessionID,
		Polygon:   sess.Polygon,
		Canvas:    s.cfg.Canvas,
		Filename:  job.Filename,
	})
	if err != nil {
		job.Status = domain.JobFailed
		job.Error = err.Error()
		job.UpdatedAt = time.Now().UTC()
		metrics.Exports.WithLabelValues("async", "error").Inc()
		startErr := fmt.Errorf("start export: %w", err)
		if err := s.jobs.SaveJob(context.WithoutCancel(ctx), job); err != nil {
			logging.LoggerFromContext(ctx).Error("mark export job failed",
				"job_id", job.ID, "session_id", sessionID, "error", err)
			return nil, errors.Join(startErr, fmt.Errorf("save failed job %s: %w", job.ID, err))
		}
		return nil, startErr
	}
	return job, nil
}

// RenderJob runs a queued export and stores its document. The returned job
// is not saved yet; FinishJob does that.
func (s *ExportService) RenderJob(ctx context.Context, req domain.ExportRequest) (*domain.ExportJob, error) {
	if s.jobs == nil {
		return nil, domain.ErrAsyncExportUnavailable
	}
	res, err := s.ExportPolygon(ctx, req.Polygon, ExportOptions{Filename: req.Filename, Canvas: req.Canvas})
	if err != nil {
		return nil, err
	}
	if err := s.jobs.PutDocument(ctx, req.JobID, res.Data, s.cfg.DocumentTTL); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	return &domain.ExportJob{
		ID:        req.JobID,
		SessionID: req.SessionID,
		Filename:  res.Filename,
		Status:    domain.JobDone,
		Streets:   len(res.Document.Streets),
		Bytes:     len(res.Data),
	}, nil
}

// FinishJob records the final job state and reports it to the user.
func (s *ExportService) FinishJob(ctx context.Context, job *domain.ExportJob) error {
	if s.jobs == nil {
		return domain.ErrAsyncExportUnavailable
	}
	if prev, err := s.jobs.GetJob(ctx, job.ID); err == nil {
		job.CreatedAt = prev.CreatedAt
	}
	job.UpdatedAt = time.Now().UTC()
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		return err
	}

	if job.Status == domain.JobDone {
		metrics.Exports.WithLabelValues("async", "ok").Inc()
		notify(ctx, s.notifier, job.SessionID, domain.LevelSuccess, MsgExported)
		s.publish(ctx, job)
		return nil
	}
	metrics.Exports.WithLabelValues("async", "error").Inc()
	notify(ctx, s.notifier, job.SessionID, domain.LevelError, MsgExportFailedPrefix+job.Error)
	return nil
}

// Job returns an async export record.
func (s *ExportService) Job(ctx context.Context, id string) (*domain.ExportJob, error) {
	if s.jobs == nil {
		return nil, domain.ErrAsyncExportUnavailable
	}
	return s.jobs.GetJob(ctx, id)
}

// Document returns a finished async export's SVG.
func (s *ExportService) Document(ctx context.Context, id string) (*domain.ExportJob, []byte, error) {
	job, err := s.Job(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != domain.JobDone {
		return job, nil, domain.ErrJobNotFinished
	}
	data, err := s.jobs.GetDocument(ctx, id)
	if err != nil {
		return job, nil, err
	}
	return job, data, nil
}

func (s *ExportService) publish(ctx context.Context, job *domain.ExportJob) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExportCompleted(ctx, job); err != nil {
		logging.LoggerFromContext(ctx).Warn("publish export completed", "job_id", job.ID, "error", err)
	}
}
