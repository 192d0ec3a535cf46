package renderjobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storyboard-backend/internal/queue"
	"storyboard-backend/internal/render"
	"storyboard-backend/internal/script"
	"storyboard-backend/internal/shared/metrics"
	"storyboard-backend/internal/shared/telemetry"
	"storyboard-backend/internal/storyboards"
	"storyboard-backend/internal/workflows"
)

// Service contains dispatch and lifecycle logic for render jobs.
type Service struct {
	Repo   Repo
	Boards storyboards.Repo
	Render render.Client
	Queue  queue.Client
	Poller *render.Poller
}

// RequestPreview creates or reuses the preview job for a storyboard and
// submits it to the render service. The reuse check is advisory, not a
// lock; two simultaneous requests can still race.
func (s *Service) RequestPreview(ctx context.Context, userID, storyboardID, kind string) (VideoJob, bool, error) {
	if kind != render.TypeImagePreview && kind != render.TypeAudioPreview {
		return VideoJob{}, false, fmt.Errorf("%w: unknown preview kind %q", ErrInvalidInput, kind)
	}

	sb, err := s.Boards.GetByID(ctx, userID, storyboardID)
	if err != nil {
		return VideoJob{}, false, err
	}

	job, err := s.Repo.GetLatestByKind(ctx, userID, storyboardID, kind)
	switch {
	case err == nil && !job.TerminalPreview():
		// Already in flight; hand back the existing record.
		return job, true, nil
	case err == nil:
		// One preview job per storyboard: reset the terminal record
		// instead of creating a duplicate.
		job.Status = StatusQueued
		job.PreviewStatus = PreviewPending
		job.URL = ""
		job.ErrorMessage = ""
		job.Progress = 0
		job.StartedAt = nil
		job.FinishedAt = nil
		if err := s.Repo.Update(ctx, job); err != nil {
			return VideoJob{}, false, err
		}
	case errors.Is(err, ErrNotFound):
		job = VideoJob{
			ID:            uuid.NewString(),
			StoryboardID:  storyboardID,
			UserID:        userID,
			Kind:          kind,
			Status:        StatusQueued,
			PreviewStatus: PreviewPending,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.Repo.Create(ctx, job); err != nil {
			return VideoJob{}, false, err
		}
	default:
		return VideoJob{}, false, err
	}

	if err := s.submitPreview(ctx, &job, sb); err != nil {
		return job, false, err
	}
	return job, false, nil
}

func (s *Service) submitPreview(ctx context.Context, job *VideoJob, sb storyboards.Storyboard) error {
	req, err := buildSubmitRequest(*job, sb)
	if err != nil {
		return err
	}

	if err := s.submit(ctx, req); err != nil {
		job.PreviewStatus = PreviewFailed
		job.ErrorMessage = err.Error()
		now := time.Now().UTC()
		job.FinishedAt = &now
		if updateErr := s.Repo.Update(ctx, *job); updateErr != nil {
			telemetry.Error("job.update", map[string]any{
				"job_id": job.ID,
				"error":  updateErr.Error(),
			})
		}
		metrics.IncRenderFailed()
		s.logStatus(*job, "pending->failed")
		return err
	}

	job.PreviewStatus = PreviewProcessing
	now := time.Now().UTC()
	job.StartedAt = &now
	if err := s.Repo.Update(ctx, *job); err != nil {
		return err
	}
	metrics.IncRenderDispatched()
	s.logStatus(*job, "pending->processing")
	return nil
}

// DispatchFullRender submits the completed storyboard for full rendering,
// reusing a non-terminal job when one exists. With a queue configured the
// submission is deferred to the worker; otherwise it happens inline.
func (s *Service) DispatchFullRender(ctx context.Context, sb storyboards.Storyboard) error {
	job, err := s.Repo.GetLatestByKind(ctx, sb.UserID, sb.ID, render.TypeVideoGeneration)
	switch {
	case err == nil && !job.TerminalStatus():
		return nil
	case err == nil, errors.Is(err, ErrNotFound):
		job = VideoJob{
			ID:            uuid.NewString(),
			StoryboardID:  sb.ID,
			UserID:        sb.UserID,
			Kind:          render.TypeVideoGeneration,
			Status:        StatusQueued,
			PreviewStatus: PreviewPending,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.Repo.Create(ctx, job); err != nil {
			return err
		}
	default:
		return err
	}

	if s.Queue != nil {
		msg := queue.Message{
			JobID:        job.ID,
			StoryboardID: sb.ID,
			UserID:       sb.UserID,
			Kind:         render.TypeVideoGeneration,
			RequestID:    workflows.RequestIDFromContext(ctx),
			EnqueuedAt:   time.Now().UTC().Format(time.RFC3339),
			Version:      1,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			return s.failJob(ctx, job, fmt.Errorf("enqueue dispatch: %w", err))
		}
		metrics.IncRenderDispatched()
		s.logStatus(job, "queued->enqueued")
		return nil
	}

	return s.SubmitFull(ctx, job, sb)
}

// SubmitFull sends the full-render job to the render service and moves it
// to processing. Used inline and by the queue worker.
func (s *Service) SubmitFull(ctx context.Context, job VideoJob, sb storyboards.Storyboard) error {
	req, err := buildSubmitRequest(job, sb)
	if err != nil {
		return s.failJob(ctx, job, err)
	}

	if err := s.submit(ctx, req); err != nil {
		return s.failJob(ctx, job, err)
	}

	job.Status = StatusProcessing
	now := time.Now().UTC()
	job.StartedAt = &now
	if err := s.Repo.Update(ctx, job); err != nil {
		return err
	}
	metrics.IncRenderDispatched()
	s.logStatus(job, "queued->processing")
	return nil
}

// ProcessDispatch handles one deferred dispatch message from the queue.
func (s *Service) ProcessDispatch(ctx context.Context, msg queue.Message) error {
	job, err := s.Repo.GetByID(ctx, msg.UserID, msg.JobID)
	if err != nil {
		return fmt.Errorf("job lookup id=%s: %w", msg.JobID, err)
	}
	if job.TerminalStatus() || job.Status == StatusProcessing {
		return nil
	}
	sb, err := s.Boards.GetByID(ctx, msg.UserID, msg.StoryboardID)
	if err != nil {
		return fmt.Errorf("storyboard lookup id=%s: %w", msg.StoryboardID, err)
	}
	return s.SubmitFull(ctx, job, sb)
}

// Get returns the local job record.
func (s *Service) Get(ctx context.Context, userID, jobID string) (VideoJob, error) {
	if jobID == "" {
		return VideoJob{}, fmt.Errorf("%w: job id required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID, jobID)
}

// Wait polls the render service until the job is terminal or the window
// closes, then folds terminal metadata into the local record.
func (s *Service) Wait(ctx context.Context, userID, jobID string, timeout time.Duration) (render.PollResult, VideoJob, error) {
	job, err := s.Repo.GetByID(ctx, userID, jobID)
	if err != nil {
		return render.PollResult{}, VideoJob{}, err
	}
	if job.TerminalStatus() {
		outcome := render.OutcomeCompleted
		if job.Status == StatusFailed {
			outcome = render.OutcomeFailed
		}
		return render.PollResult{Outcome: outcome, Status: render.Status{
			Status: job.Status, URL: job.URL, Error: job.ErrorMessage,
		}}, job, nil
	}

	if s.Render == nil {
		return render.PollResult{}, job, errRenderNotConfigured
	}

	poller := render.Poller{Client: s.Render}
	if s.Poller != nil {
		poller.Interval = s.Poller.Interval
		poller.Timeout = s.Poller.Timeout
	}
	if timeout > 0 {
		poller.Timeout = timeout
	}

	result, err := poller.Wait(ctx, jobID)
	if err != nil {
		return result, job, err
	}

	switch result.Outcome {
	case render.OutcomeCompleted, render.OutcomeFailed:
		transition := job.Status + "->" + string(result.Outcome)
		job.Status = string(result.Outcome)
		if job.Kind != render.TypeVideoGeneration {
			// Preview jobs track the outcome on the sub-status too, so the
			// reuse check in RequestPreview sees them as terminal.
			job.PreviewStatus = string(result.Outcome)
		}
		job.URL = result.Status.URL
		job.ErrorMessage = result.Status.Error
		job.Progress = result.Status.Progress
		job.DurationSecs = result.Status.Duration
		job.Resolution = result.Status.Resolution
		job.SizeBytes = result.Status.SizeBytes
		now := time.Now().UTC()
		job.FinishedAt = &now
		if err := s.Repo.Update(ctx, job); err != nil {
			return result, job, err
		}
		if result.Outcome == render.OutcomeCompleted {
			metrics.IncRenderCompleted()
		} else {
			metrics.IncRenderFailed()
		}
		if job.StartedAt != nil {
			metrics.ObserveRenderDurationMs(float64(now.Sub(*job.StartedAt).Microseconds()) / 1000.0)
		}
		s.logStatus(job, transition)
	}
	return result, job, nil
}

var errRenderNotConfigured = errors.New("render client not configured")

func (s *Service) submit(ctx context.Context, req render.SubmitRequest) error {
	if s.Render == nil {
		return errRenderNotConfigured
	}
	return s.Render.Submit(ctx, req)
}

func (s *Service) failJob(ctx context.Context, job VideoJob, cause error) error {
	job.Status = StatusFailed
	job.ErrorMessage = cause.Error()
	now := time.Now().UTC()
	job.FinishedAt = &now
	if err := s.Repo.Update(ctx, job); err != nil {
		telemetry.Error("job.update", map[string]any{
			"job_id": job.ID,
			"error":  err.Error(),
		})
	}
	metrics.IncRenderFailed()
	s.logStatus(job, "queued->failed")
	return cause
}

func (s *Service) logStatus(job VideoJob, transition string) {
	telemetry.Info("job.status", map[string]any{
		"job_id":            job.ID,
		"storyboard_id":     job.StoryboardID,
		"user_id":           job.UserID,
		"kind":              job.Kind,
		"status":            job.Status,
		"preview_status":    job.PreviewStatus,
		"status_transition": transition,
	})
}

func buildSubmitRequest(job VideoJob, sb storyboards.Storyboard) (render.SubmitRequest, error) {
	scriptJSON := sb.FinalScript
	if len(scriptJSON) == 0 {
		// Previews can run before the pipeline completes; assemble a
		// provisional script from whatever layers exist.
		data, err := json.Marshal(script.Assemble(sb))
		if err != nil {
			return render.SubmitRequest{}, err
		}
		scriptJSON = data
	}
	return render.SubmitRequest{
		Type: job.Kind,
		Payload: render.SubmitPayload{
			VideoID: job.ID,
			StoryID: sb.ID,
			UID:     sb.UserID,
			Title:   sb.Title,
			TextRaw: sb.StoryText,
			Script:  scriptJSON,
		},
	}, nil
}
