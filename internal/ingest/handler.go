package ingest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/server/middleware"
	"resume-ingest/internal/shared/server/respond"
	"resume-ingest/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the pipeline.
type Handler struct {
	Pipeline *Pipeline
	Jobs     *Jobs
}

// NewHandler constructs a Handler. jobs may be nil when no queue is set up.
func NewHandler(p *Pipeline, jobs *Jobs) *Handler {
	return &Handler{Pipeline: p, Jobs: jobs}
}

// RegisterRoutes attaches the analyze routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes/analyze", h.analyze)
	rg.POST("/resumes/analyze/async", h.analyzeAsync)
}

// RegisterLegacyRoutes attaches the unversioned analyze path used by older
// clients.
func (h *Handler) RegisterLegacyRoutes(r gin.IRoutes) {
	r.POST("/analyze-resume", h.analyze)
}

// analyze answers 200 with the envelope for every run, including degraded
// ones. Only a request that locates no document gets a 400.
func (h *Handler) analyze(c *gin.Context) {
	req, bindErr := bindRequest(c)
	if bindErr != nil {
		h.reject(c, bindErr)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	res, err := h.Pipeline.Run(ctx, req)
	if err != nil {
		var inputErr *InputError
		if errors.As(err, &inputErr) {
			h.reject(c, inputErr)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to analyze resume", nil)
		return
	}

	if res.AnalysisID != "" {
		c.Set("analysisId", res.AnalysisID)
	}
	c.Set("statusTransition", string(stageStart)+"->"+string(stageDone))
	respond.OK(c, res)
}

func (h *Handler) analyzeAsync(c *gin.Context) {
	if !h.Jobs.Enabled() {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "asynchronous analysis is not configured", nil)
		return
	}

	req, bindErr := bindRequest(c)
	if bindErr != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", bindErr.Error(), []map[string]string{
			{"field": "body", "issue": string(bindErr.Kind)},
		})
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Jobs.Enqueue(ctx, req)
	if err != nil {
		var inputErr *InputError
		switch {
		case errors.As(err, &inputErr):
			respond.Error(c, http.StatusBadRequest, "validation_error", inputErr.Error(), []map[string]string{
				{"field": "storagePath", "issue": string(inputErr.Kind)},
			})
		case errors.Is(err, ErrQueueNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "asynchronous analysis is not configured", nil)
		default:
			telemetry.Error("jobs.enqueue_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"error":      err,
			})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to queue analysis", nil)
		}
		return
	}

	c.Set("analysisId", rec.ID)
	c.Set("statusTransition", "->"+rec.Status)
	respond.JSON(c, http.StatusAccepted, gin.H{
		"analysisId": rec.ID,
		"status":     rec.Status,
	})
}

func (h *Handler) reject(c *gin.Context, err *InputError) {
	telemetry.Warn("ingest.rejected", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"kind":       string(err.Kind),
		"error":      err,
	})
	c.AbortWithStatusJSON(http.StatusBadRequest, Rejected(err))
}

// bindRequest decodes the JSON body. An empty body is an empty request.
func bindRequest(c *gin.Context) (Request, *InputError) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return Request{}, &InputError{Kind: KindInvalidBody, Err: err}
	}
	return req, nil
}
