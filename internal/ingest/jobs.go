package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-ingest/internal/analyses"
	"resume-ingest/internal/inference"
	"resume-ingest/internal/queue"
	"resume-ingest/internal/shared/metrics"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/internal/shared/util"
)

// ErrQueueNotConfigured is returned by Enqueue when no queue backend is set.
var ErrQueueNotConfigured = errors.New("job queue not configured")

// Jobs runs analyses asynchronously: Enqueue records a queued analysis and
// hands it to the queue, ProcessAnalysis runs it on a worker.
type Jobs struct {
	pipeline *Pipeline
	repo     analyses.Repo
	queue    queue.Client
	now      func() time.Time
}

// NewJobs constructs Jobs. A nil queue disables Enqueue.
func NewJobs(p *Pipeline, repo analyses.Repo, q queue.Client) *Jobs {
	if p == nil {
		p = New(Options{})
	}
	return &Jobs{pipeline: p, repo: repo, queue: q, now: time.Now}
}

// Enabled reports whether Enqueue can hand work to a queue.
func (j *Jobs) Enabled() bool {
	return j != nil && j.queue != nil && j.repo != nil
}

// Enqueue validates req, stores a queued record and sends it to the queue.
func (j *Jobs) Enqueue(ctx context.Context, req Request) (analyses.Record, error) {
	if !j.Enabled() {
		return analyses.Record{}, ErrQueueNotConfigured
	}
	src, name, err := req.source(j.pipeline.defaultBucket)
	if err != nil {
		return analyses.Record{}, err
	}

	now := j.now().UTC()
	rec := analyses.Record{
		ID:        analyses.NewID(),
		RequestID: RequestIDFromContext(ctx),
		Status:    analyses.StatusQueued,
		FileName:  name,
		Source:    src.String(),
		CreatedAt: now,
	}
	if err := j.repo.Create(ctx, rec); err != nil {
		return analyses.Record{}, fmt.Errorf("create analysis: %w", err)
	}

	msg := queue.Message{
		AnalysisID:  rec.ID,
		RequestID:   rec.RequestID,
		StoragePath: req.StoragePath,
		Bucket:      req.Bucket,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		EnqueuedAt:  now.Format(time.RFC3339),
		Version:     queue.MessageVersion,
	}
	if err := j.queue.Send(ctx, msg); err != nil {
		j.abandon(ctx, rec, err)
		return analyses.Record{}, fmt.Errorf("enqueue analysis: %w", err)
	}

	metrics.IncJobEnqueued()
	telemetry.Info("jobs.enqueued", map[string]any{
		"request_id":  rec.RequestID,
		"analysis_id": rec.ID,
		"source":      rec.Source,
	})
	return rec, nil
}

// abandon completes a record whose message never reached the queue so that
// pollers do not wait forever.
func (j *Jobs) abandon(ctx context.Context, rec analyses.Record, cause error) {
	done := j.now().UTC()
	profile := inference.Fallback(0)
	rec.Status = analyses.StatusCompleted
	rec.OK = false
	rec.Error = util.SanitizeError(fmt.Errorf("enqueue analysis: %w", cause))
	rec.Profile = &profile
	rec.CompletedAt = &done
	if err := j.repo.Save(context.WithoutCancel(ctx), rec); err != nil {
		telemetry.Error("jobs.abandon_failed", map[string]any{
			"request_id":  rec.RequestID,
			"analysis_id": rec.ID,
			"error":       err,
		})
	}
}

// ProcessAnalysis runs the analysis described by msg and saves the result
// under msg.AnalysisID. A returned error means the message should be retried.
func (j *Jobs) ProcessAnalysis(ctx context.Context, msg queue.Message) error {
	if j == nil || j.repo == nil {
		return errors.New("analysis store not configured")
	}
	ctx = WithRequestID(ctx, msg.RequestID)
	req := Request{
		StoragePath: msg.StoragePath,
		Bucket:      msg.Bucket,
		FileURL:     msg.FileURL,
		FileName:    msg.FileName,
		AnalysisID:  msg.AnalysisID,
	}

	res, err := j.pipeline.analyze(ctx, req)
	if err != nil {
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			return err
		}
		// Input errors are terminal: the rejection is stored and the message acked.
		res = Rejected(inputErr)
	}

	rec := j.pipeline.record(ctx, req, res)
	if err := j.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("save analysis %s: %w", rec.ID, err)
	}
	return nil
}
