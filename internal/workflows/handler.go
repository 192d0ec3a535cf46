package workflows

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storyboard-backend/internal/shared/server/middleware"
	"storyboard-backend/internal/shared/server/respond"
	"storyboard-backend/internal/storyboards"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches workflow routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/workflows/:id/steps/:step", h.readStep)
	rg.POST("/workflows/:id/steps/:step", h.submitStep)
	rg.POST("/workflows/:id/reset", h.reset)
}

func (h *Handler) readStep(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	step, ok := parseStep(c)
	if !ok {
		return
	}

	view, err := h.Svc.ReadStep(c.Request.Context(), userID, c.Param("id"), step)
	if err != nil {
		respondWorkflowError(c, err, "failed to read step")
		return
	}
	respond.JSON(c, http.StatusOK, view)
}

type submitRequest struct {
	Data json.RawMessage `json:"data"`
}

func (h *Handler) submitStep(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	step, ok := parseStep(c)
	if !ok {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	nextInput, err := h.Svc.SubmitStep(ctx, userID, c.Param("id"), step, req.Data)
	if err != nil {
		respondWorkflowError(c, err, "failed to submit step")
		return
	}

	resp := gin.H{"success": true, "nextStepInput": nil}
	if nextInput != nil {
		resp["nextStepInput"] = nextInput
	}
	respond.JSON(c, http.StatusOK, resp)
}

type resetRequest struct {
	Step int `json:"step"`
}

func (h *Handler) reset(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	if err := h.Svc.Reset(c.Request.Context(), userID, c.Param("id"), req.Step); err != nil {
		respondWorkflowError(c, err, "failed to reset workflow")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"success": true})
}

func parseStep(c *gin.Context) (int, bool) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil || !ValidStep(step) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "step must be an integer between 1 and 7", nil)
		return 0, false
	}
	return step, true
}

func respondWorkflowError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidStep), errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrStepNotReached):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, storyboards.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "workflow not found", nil)
	case errors.Is(err, ErrWorkflowCompleted):
		respond.Error(c, http.StatusConflict, "workflow_completed", "workflow already completed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
