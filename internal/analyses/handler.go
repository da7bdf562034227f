package analyses

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/server/respond"
)

// Handler serves recorded analyses.
type Handler struct {
	Repo  Repo
	polls *pollLimiter
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo, polls: newPollLimiter(pollLimitWindow, time.Now)}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes/analyses", h.listAnalyses)
	rg.GET("/resumes/analyses/:id", h.getAnalysis)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysisID := strings.TrimSpace(c.Param("id"))
	if !ValidID(analysisID) {
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		return
	}
	c.Set("analysisId", analysisID)

	if !h.polls.Allow(c.ClientIP(), analysisID) {
		c.Header("Retry-After", strconv.Itoa(h.polls.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, "poll_limited", "analysis polled too often", nil)
		return
	}

	rec, err := h.Repo.GetByID(c.Request.Context(), analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}

	resp := gin.H{
		"id":        rec.ID,
		"status":    rec.Status,
		"fileName":  rec.FileName,
		"createdAt": rec.CreatedAt,
	}
	if env, ok := rec.Envelope(); ok {
		resp["completedAt"] = rec.CompletedAt
		resp["result"] = env
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	records, err := h.Repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	resp := make([]gin.H, 0, len(records))
	for _, rec := range records {
		item := gin.H{
			"analysisId": rec.ID,
			"status":     rec.Status,
			"fileName":   rec.FileName,
			"createdAt":  rec.CreatedAt,
		}
		if env, ok := rec.Envelope(); ok {
			item["ok"] = env.OK
			item["jobRole"] = env.JobRole
			item["atsScore"] = env.ATSScore
		}
		resp = append(resp, item)
	}

	respond.JSON(c, http.StatusOK, resp)
}
