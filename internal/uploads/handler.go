// Package uploads hands out presigned URLs so clients can place a resume in
// the object store before submitting its storagePath for analysis.
package uploads

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resume-ingest/internal/shared/server/respond"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/internal/shared/util"
)

const (
	presignExpires = 15 * time.Minute
	keyPrefix      = "uploads"
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
	"text/html":  {},
}

// Presigner signs a PUT for one object.
type Presigner interface {
	PresignPut(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

type Handler struct {
	presigner Presigner
	bucket    string
	maxBytes  int64
}

// NewHandler returns a handler that presigns into bucket. A nil presigner
// answers every request with 503.
func NewHandler(p Presigner, bucket string, maxBytes int64) *Handler {
	return &Handler{presigner: p, bucket: bucket, maxBytes: maxBytes}
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	Bucket           string `json:"bucket"`
	StoragePath      string `json:"storagePath"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes/uploads", h.presign)
}

func (h *Handler) presign(c *gin.Context) {
	if h == nil || h.presigner == nil {
		respond.Error(c, http.StatusServiceUnavailable, "uploads_unavailable", "uploads require the s3 object store", nil)
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	name := util.DisplayName(req.FileName)
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if name == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileName is required", nil)
		return
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed", nil)
		return
	}
	if req.SizeBytes <= 0 || (h.maxBytes > 0 && req.SizeBytes > h.maxBytes) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sizeBytes exceeds limit", nil)
		return
	}

	key := path.Join(keyPrefix, uuid.NewString(), name)
	url, err := h.presigner.PresignPut(c.Request.Context(), h.bucket, key, presignExpires)
	if err != nil {
		telemetry.Error("uploads.presign_failed", map[string]any{
			"error":        err,
			"bucket":       h.bucket,
			"key":          key,
			"content_type": contentType,
			"size_bytes":   req.SizeBytes,
			"request_id":   c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate upload url", nil)
		return
	}

	respond.JSON(c, http.StatusOK, presignResponse{
		UploadURL:        url,
		Bucket:           h.bucket,
		StoragePath:      key,
		ExpiresInSeconds: int64(presignExpires.Seconds()),
	})
}
