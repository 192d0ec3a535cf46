package renderjobs

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storyboard-backend/internal/render"
	"storyboard-backend/internal/shared/server/middleware"
	"storyboard-backend/internal/shared/server/respond"
	"storyboard-backend/internal/storyboards"
)

const maxWaitTimeout = 5 * time.Minute

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches job routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/storyboards/:id/preview", h.preview)
	rg.GET("/jobs/:id", h.get)
	rg.GET("/jobs/:id/wait", h.wait)
}

type previewRequest struct {
	Kind string `json:"kind"`
}

func (h *Handler) preview(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req previewRequest
	// An empty body means the default preview kind.
	_ = c.ShouldBindJSON(&req)
	if req.Kind == "" {
		req.Kind = render.TypeImagePreview
	}

	job, reused, err := h.Svc.RequestPreview(c.Request.Context(), userID, c.Param("id"), req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, render.ErrRateLimited):
			respond.Error(c, http.StatusTooManyRequests, "rate_limited", "render service rate limited", gin.H{"jobId": job.ID})
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound), errors.Is(err, storyboards.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "storyboard not found", nil)
		default:
			details := gin.H{}
			if job.ID != "" {
				details["jobId"] = job.ID
			}
			respond.Error(c, http.StatusInternalServerError, "dispatch_failed", "failed to submit preview", details)
		}
		return
	}

	status := http.StatusCreated
	if reused {
		status = http.StatusOK
	}
	respond.JSON(c, status, toResponse(job))
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	job, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch job", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(job))
}

func (h *Handler) wait(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var timeout time.Duration
	if v := c.Query("timeoutSeconds"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "timeoutSeconds must be a positive integer", nil)
			return
		}
		timeout = time.Duration(secs) * time.Second
		if timeout > maxWaitTimeout {
			timeout = maxWaitTimeout
		}
	}

	result, job, err := h.Svc.Wait(c.Request.Context(), userID, c.Param("id"), timeout)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to wait for job", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"outcome": result.Outcome,
		"job":     toResponse(job),
	})
}

func toResponse(job VideoJob) gin.H {
	resp := gin.H{
		"jobId":         job.ID,
		"storyboardId":  job.StoryboardID,
		"kind":          job.Kind,
		"status":        job.Status,
		"previewStatus": job.PreviewStatus,
		"progress":      job.Progress,
		"createdAt":     job.CreatedAt,
	}
	if job.URL != "" {
		resp["url"] = job.URL
	}
	if job.ErrorMessage != "" {
		resp["errorMessage"] = job.ErrorMessage
	}
	if job.DurationSecs > 0 {
		resp["durationSecs"] = job.DurationSecs
	}
	if job.Resolution != "" {
		resp["resolution"] = job.Resolution
	}
	if job.SizeBytes > 0 {
		resp["sizeBytes"] = job.SizeBytes
	}
	if job.StartedAt != nil {
		resp["startedAt"] = job.StartedAt
	}
	if job.FinishedAt != nil {
		resp["finishedAt"] = job.FinishedAt
	}
	return resp
}
