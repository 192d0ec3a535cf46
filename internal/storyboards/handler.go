package storyboards

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storyboard-backend/internal/shared/server/middleware"
	"storyboard-backend/internal/shared/server/respond"
)

// WorkflowStarter creates the authoring workflow attached to a new
// storyboard and seeds its first step.
type WorkflowStarter interface {
	Start(ctx context.Context, userID, storyboardID string) (string, error)
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc       *Service
	Workflows WorkflowStarter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, workflows WorkflowStarter) *Handler {
	return &Handler{Svc: svc, Workflows: workflows}
}

// RegisterRoutes attaches storyboard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/storyboards", h.create)
	rg.GET("/storyboards", h.list)
	rg.GET("/storyboards/:id", h.get)
	rg.DELETE("/storyboards/:id", h.remove)
}

type createRequest struct {
	Title      string `json:"title"`
	StoryText  string `json:"storyText"`
	SceneCount int    `json:"sceneCount"`
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	sb, err := h.Svc.Create(c.Request.Context(), userID, req.Title, req.StoryText, req.SceneCount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create storyboard", nil)
		}
		return
	}

	workflowID, err := h.Workflows.Start(c.Request.Context(), userID, sb.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start workflow", nil)
		return
	}

	resp := toResponse(sb)
	resp.WorkflowID = workflowID
	respond.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	sb, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "storyboard not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch storyboard", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(sb))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	boards, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list storyboards", nil)
		return
	}

	resp := make([]map[string]any, 0, len(boards))
	for _, sb := range boards {
		resp = append(resp, toListItem(sb))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "storyboard not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete storyboard", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"success": true})
}
