// Package ingest runs the resume pipeline: fetch, extract, estimate and infer.
// A run always produces a complete profile; upstream failures lower its
// quality and clear the ok flag instead of failing the request.
package ingest

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"resume-ingest/internal/analyses"
	"resume-ingest/internal/experience"
	"resume-ingest/internal/extract"
	"resume-ingest/internal/fetch"
	"resume-ingest/internal/inference"
	"resume-ingest/internal/shared/metrics"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/internal/shared/util"
)

// MinTextLength is the shortest extracted text that is sent to inference as is.
const MinTextLength = 50

// Fetcher retrieves document bytes.
type Fetcher interface {
	Fetch(ctx context.Context, src fetch.Source) (fetch.Document, error)
}

// Inferrer turns text into a profile. It returns a usable profile even when
// it also returns an error.
type Inferrer interface {
	Infer(ctx context.Context, text, fileName string, experienceHint float64) (inference.Profile, error)
}

// Recorder persists finished runs.
type Recorder interface {
	Save(ctx context.Context, rec analyses.Record) error
}

// Options configures a Pipeline.
type Options struct {
	Fetcher       Fetcher
	Inferrer      Inferrer
	Recorder      Recorder
	DefaultBucket string
	FetchTimeout  time.Duration
	Now           func() time.Time
}

// Pipeline sequences one run per call and keeps no state between runs.
type Pipeline struct {
	fetcher       Fetcher
	inferrer      Inferrer
	recorder      Recorder
	defaultBucket string
	fetchTimeout  time.Duration
	now           func() time.Time
}

// New creates a Pipeline. A nil Fetcher has no storage backend and a nil
// Inferrer always answers with the fallback profile.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		fetcher:       opts.Fetcher,
		inferrer:      opts.Inferrer,
		recorder:      opts.Recorder,
		defaultBucket: strings.TrimSpace(opts.DefaultBucket),
		fetchTimeout:  opts.FetchTimeout,
		now:           opts.Now,
	}
	if p.fetcher == nil {
		p.fetcher = fetch.New(fetch.Options{})
	}
	if p.inferrer == nil {
		p.inferrer = inference.NewClient(nil)
	}
	if p.defaultBucket == "" {
		p.defaultBucket = DefaultBucket
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Result is the response envelope of one run.
type Result struct {
	AnalysisID string `json:"analysis_id,omitempty"`
	analyses.Envelope

	fileName string
	source   string
	started  time.Time
	finished time.Time
}

// Rejected is the envelope answered for a request that cannot be run.
func Rejected(err *InputError) Result {
	return Result{Envelope: analyses.Envelope{
		OK:      false,
		Error:   err.Error(),
		Profile: inference.Fallback(0),
	}}
}

// SyntheticDescription stands in for documents with too little text.
func SyntheticDescription(name string) string {
	return "Resume document: " + name + ". Professional document requiring analysis."
}

// Run executes the pipeline for req. The only error is *InputError; every
// other failure is reported in the result.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	res, err := p.analyze(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if p.recorder == nil {
		return res, nil
	}

	rec := p.record(ctx, req, res)
	if err := p.recorder.Save(context.WithoutCancel(ctx), rec); err != nil {
		telemetry.Warn("pipeline.record_failed", map[string]any{
			"request_id":  RequestIDFromContext(ctx),
			"analysis_id": rec.ID,
			"error":       err,
		})
		return res, nil
	}
	res.AnalysisID = rec.ID
	return res, nil
}

func (p *Pipeline) analyze(ctx context.Context, req Request) (Result, error) {
	src, name, err := req.source(p.defaultBucket)
	if err != nil {
		return Result{}, err
	}
	return p.execute(ctx, req, src, name), nil
}

type stage string

const (
	stageStart     stage = "START"
	stageFetched   stage = "FETCHED"
	stageExtracted stage = "EXTRACTED"
	stageEstimated stage = "ESTIMATED"
	stageInferred  stage = "INFERRED"
	stageDone      stage = "DONE"
)

// run carries the state of one execution. It is never shared.
type run struct {
	base     map[string]any
	stage    stage
	hint     float64
	errs     []string
	fellBack bool
}

func (r *run) advance(next stage, extra map[string]any) {
	fields := make(map[string]any, len(r.base)+len(extra)+2)
	for k, v := range r.base {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	fields["stage"] = string(next)
	fields["status_transition"] = string(r.stage) + "->" + string(next)
	telemetry.Info("pipeline.stage", fields)
	r.stage = next
}

func (r *run) fail(err error) {
	if msg := util.SanitizeError(err); msg != "" {
		r.errs = append(r.errs, msg)
	}
}

func (r *run) envelope(profile inference.Profile) analyses.Envelope {
	return analyses.Envelope{
		OK:      len(r.errs) == 0,
		Error:   strings.Join(r.errs, "; "),
		Profile: profile,
	}
}

func (p *Pipeline) execute(ctx context.Context, req Request, src fetch.Source, name string) Result {
	started := p.now()
	r := &run{
		base: map[string]any{
			"request_id":  RequestIDFromContext(ctx),
			"analysis_id": req.AnalysisID,
			"source":      src.String(),
			"file_name":   name,
		},
		stage: stageStart,
	}

	env := p.stages(ctx, r, src, name)
	finished := p.now()

	metrics.IncPipelineRun()
	if !env.OK {
		metrics.IncPipelineDegraded()
	}
	if r.fellBack {
		metrics.IncInferenceFallback()
	}
	elapsed := finished.Sub(started)
	metrics.ObservePipelineDurationMs(float64(elapsed.Milliseconds()))

	return Result{
		Envelope: env,
		fileName: name,
		source:   src.String(),
		started:  started,
		finished: finished,
	}
}

func (p *Pipeline) stages(ctx context.Context, r *run, src fetch.Source, name string) (env analyses.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("pipeline.panic", map[string]any{
				"request_id": r.base["request_id"],
				"stage":      string(r.stage),
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
			})
			r.fail(fmt.Errorf("internal error: %v", rec))
			r.fellBack = true
			env = r.envelope(inference.Fallback(r.hint))
			r.advance(stageDone, map[string]any{"ok": false})
		}
	}()

	doc, err := p.fetch(ctx, src)
	if err != nil {
		metrics.IncFetchFailure()
		r.fail(err)
		doc = fetch.Document{}
	}
	r.advance(stageFetched, map[string]any{
		"bytes":        len(doc.Data),
		"content_type": doc.ContentType,
		"fetch_ok":     err == nil,
	})

	text := extract.Extract(doc.Data, name, doc.ContentType)
	chars := utf8.RuneCountInString(text)
	synthetic := chars < MinTextLength
	if synthetic {
		metrics.IncExtractEmpty()
		text = SyntheticDescription(name)
	}
	r.advance(stageExtracted, map[string]any{
		"text_chars": chars,
		"synthetic":  synthetic,
	})

	r.hint = experience.Estimate(text, p.now())
	r.advance(stageEstimated, map[string]any{"experience_hint": r.hint})

	profile, err := p.inferrer.Infer(ctx, text, name, r.hint)
	if err != nil {
		r.fail(err)
		r.fellBack = true
		profile = inference.Fallback(r.hint)
	}
	r.advance(stageInferred, map[string]any{
		"fallback":  r.fellBack,
		"ats_score": profile.ATSScore,
	})

	env = r.envelope(profile)
	r.advance(stageDone, map[string]any{"ok": env.OK})
	return env
}

func (p *Pipeline) fetch(ctx context.Context, src fetch.Source) (fetch.Document, error) {
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}
	return p.fetcher.Fetch(ctx, src)
}

// record builds the completed record for a finished run.
func (p *Pipeline) record(ctx context.Context, req Request, res Result) analyses.Record {
	id := req.AnalysisID
	if id == "" {
		id = analyses.NewID()
	}
	profile := res.Profile
	finished := res.finished.UTC()
	if res.finished.IsZero() {
		finished = p.now().UTC()
	}
	created := res.started.UTC()
	if res.started.IsZero() {
		created = finished
	}
	return analyses.Record{
		ID:          id,
		RequestID:   RequestIDFromContext(ctx),
		Status:      analyses.StatusCompleted,
		OK:          res.OK,
		Error:       res.Error,
		FileName:    res.fileName,
		Source:      res.source,
		Profile:     &profile,
		CreatedAt:   created,
		CompletedAt: &finished,
	}
}
