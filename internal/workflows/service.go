package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storyboard-backend/internal/shared/metrics"
	"storyboard-backend/internal/shared/telemetry"
	"storyboard-backend/internal/storyboards"
)

// RenderDispatcher submits a completed storyboard for full rendering.
type RenderDispatcher interface {
	DispatchFullRender(ctx context.Context, sb storyboards.Storyboard) error
}

// Service contains the state-machine logic for authoring workflows.
type Service struct {
	Repo       Repo
	Boards     storyboards.Repo
	Transition *Transitioner
	Dispatcher RenderDispatcher
}

// StepView is the read-model returned for one step.
type StepView struct {
	StepInput  json.RawMessage `json:"stepInput"`
	StepOutput json.RawMessage `json:"stepOutput"`
	CanEdit    bool            `json:"canEdit"`
	CanProceed bool            `json:"canProceed"`
}

// Start creates the workflow for a storyboard and seeds the step-1 cache.
func (s *Service) Start(ctx context.Context, userID, storyboardID string) (string, error) {
	sb, err := s.Boards.GetByID(ctx, userID, storyboardID)
	if err != nil {
		return "", err
	}

	input, err := marshalStepInput(FirstStep, sb)
	if err != nil {
		return "", err
	}

	wf := Workflow{
		ID:           uuid.NewString(),
		UserID:       userID,
		StoryboardID: storyboardID,
		Status:       StatusActive,
		CurrentStep:  FirstStep,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	wf.Steps[0].In = input

	if err := s.Repo.Create(ctx, wf); err != nil {
		return "", err
	}
	return wf.ID, nil
}

// ReadStep returns the step view, deriving and persisting the input cache
// on a miss.
func (s *Service) ReadStep(ctx context.Context, userID, workflowID string, step int) (StepView, error) {
	if !ValidStep(step) {
		return StepView{}, ErrInvalidStep
	}
	wf, err := s.Repo.GetByID(ctx, userID, workflowID)
	if err != nil {
		return StepView{}, err
	}

	cache := wf.Step(step)
	if len(cache.In) == 0 {
		sb, err := s.Boards.GetByID(ctx, userID, wf.StoryboardID)
		if err != nil {
			return StepView{}, err
		}
		input, err := marshalStepInput(step, sb)
		if err != nil {
			return StepView{}, err
		}
		cache.In = input
		if err := s.Repo.Update(ctx, wf); err != nil {
			return StepView{}, err
		}
	}

	return StepView{
		StepInput:  cache.In,
		StepOutput: cache.Out,
		CanEdit:    wf.Status == StatusActive && wf.CurrentStep >= step,
		CanProceed: len(cache.Out) > 0,
	}, nil
}

// SubmitStep runs the transition for one step and returns the next step's
// derived input (nil when the terminal step was submitted).
//
// The storyboard is written before the workflow record; a failed workflow
// write is reported as a failure even though the storyboard write already
// landed.
func (s *Service) SubmitStep(ctx context.Context, userID, workflowID string, step int, raw json.RawMessage) (json.RawMessage, error) {
	if !ValidStep(step) {
		return nil, ErrInvalidStep
	}
	wf, err := s.Repo.GetByID(ctx, userID, workflowID)
	if err != nil {
		return nil, err
	}
	if wf.Status != StatusActive {
		return nil, ErrWorkflowCompleted
	}
	if step > wf.CurrentStep {
		return nil, fmt.Errorf("%w: current step is %d", ErrStepNotReached, wf.CurrentStep)
	}

	payload, err := DecodeStepOutput(step, raw)
	if err != nil {
		return nil, err
	}

	stored, err := s.Boards.GetByID(ctx, userID, wf.StoryboardID)
	if err != nil {
		return nil, err
	}

	// The transition works on a deep copy so a failed submission never
	// leaks partial edits into the stored record.
	sb, err := cloneStoryboard(stored)
	if err != nil {
		return nil, err
	}
	if err := s.Transition.Apply(ctx, wf.ID, step, payload, &sb); err != nil {
		return nil, err
	}

	if err := s.Boards.Update(ctx, sb); err != nil {
		return nil, err
	}

	cache := wf.Step(step)
	if Cascades(step) {
		wf.ClearAfter(step)
	}
	cache.Out = raw
	if len(raw) == 0 {
		cache.Out = json.RawMessage(`{}`)
	}

	var nextInput json.RawMessage
	if step < FinalStep {
		nextInput, err = marshalStepInput(step+1, sb)
		if err != nil {
			return nil, err
		}
		wf.Step(step + 1).In = nextInput
		if wf.CurrentStep < step+1 {
			wf.CurrentStep = step + 1
		}
	} else {
		wf.Status = StatusCompleted
	}

	if err := s.Repo.Update(ctx, wf); err != nil {
		return nil, err
	}

	metrics.IncStepSubmitted()
	telemetry.Info("workflow.step", map[string]any{
		"request_id":    RequestIDFromContext(ctx),
		"user_id":       userID,
		"workflow_id":   wf.ID,
		"storyboard_id": wf.StoryboardID,
		"step":          step,
		"current_step":  wf.CurrentStep,
		"status":        wf.Status,
	})

	if step == FinalStep {
		go s.dispatchAsync(backgroundWithRequestID(ctx), sb)
	}
	return nextInput, nil
}

// Reset moves an active workflow back to an earlier step, the only
// operation allowed to decrease current_step.
func (s *Service) Reset(ctx context.Context, userID, workflowID string, toStep int) error {
	if !ValidStep(toStep) {
		return ErrInvalidStep
	}
	wf, err := s.Repo.GetByID(ctx, userID, workflowID)
	if err != nil {
		return err
	}
	if wf.Status != StatusActive {
		return ErrWorkflowCompleted
	}
	if toStep > wf.CurrentStep {
		return fmt.Errorf("%w: current step is %d", ErrStepNotReached, wf.CurrentStep)
	}

	wf.CurrentStep = toStep
	wf.Step(toStep).Out = nil
	wf.ClearAfter(toStep)
	return s.Repo.Update(ctx, wf)
}

// dispatchAsync hands the completed storyboard to the render dispatcher.
// The user already has their success response; errors are logged only.
func (s *Service) dispatchAsync(ctx context.Context, sb storyboards.Storyboard) {
	if s.Dispatcher == nil {
		return
	}
	if err := s.Dispatcher.DispatchFullRender(ctx, sb); err != nil {
		telemetry.Error("workflow.dispatch", map[string]any{
			"request_id":    RequestIDFromContext(ctx),
			"user_id":       sb.UserID,
			"storyboard_id": sb.ID,
			"error":         err.Error(),
		})
	}
}

func marshalStepInput(step int, sb storyboards.Storyboard) (json.RawMessage, error) {
	input, err := DeriveStepInput(step, sb)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func cloneStoryboard(sb storyboards.Storyboard) (storyboards.Storyboard, error) {
	data, err := json.Marshal(sb)
	if err != nil {
		return storyboards.Storyboard{}, err
	}
	var out storyboards.Storyboard
	if err := json.Unmarshal(data, &out); err != nil {
		return storyboards.Storyboard{}, err
	}
	return out, nil
}
