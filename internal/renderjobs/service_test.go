package renderjobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"storyboard-backend/internal/queue"
	"storyboard-backend/internal/render"
	"storyboard-backend/internal/storyboards"
	"storyboard-backend/internal/workflows"
)

type stubRender struct {
	submitErr error
	submitted []render.SubmitRequest
	statuses  []render.Status
	statusIdx int
}

func (s *stubRender) Submit(ctx context.Context, req render.SubmitRequest) error {
	s.submitted = append(s.submitted, req)
	return s.submitErr
}

func (s *stubRender) Status(ctx context.Context, jobID string) (render.Status, error) {
	if len(s.statuses) == 0 {
		return render.Status{Status: render.StatusProcessing}, nil
	}
	st := s.statuses[s.statusIdx]
	if s.statusIdx < len(s.statuses)-1 {
		s.statusIdx++
	}
	return st, nil
}

type stubQueue struct {
	sent    []queue.Message
	sendErr error
}

func (s *stubQueue) Send(ctx context.Context, msg queue.Message) error {
	s.sent = append(s.sent, msg)
	return s.sendErr
}

func newJobService(t *testing.T, client *stubRender, q queue.Client) (*Service, storyboards.Storyboard) {
	t.Helper()
	boards := storyboards.NewMemoryRepo()
	sb := storyboards.Storyboard{
		ID:         "sb-1",
		UserID:     "user-1",
		Title:      "The Lighthouse",
		Status:     storyboards.StatusDraft,
		StoryText:  "A keeper tends a lighthouse.",
		SceneCount: 2,
		Scenes: []storyboards.Scene{
			{ID: "scene-1", Dialogue: []storyboards.DialogueLine{{ID: "l1", Speaker: "Keeper", Text: "hello"}}},
		},
	}
	if err := boards.Create(context.Background(), sb); err != nil {
		t.Fatal(err)
	}
	return &Service{
		Repo:   NewMemoryRepo(),
		Boards: boards,
		Render: client,
		Queue:  q,
		Poller: &render.Poller{Client: client, Interval: time.Millisecond, Timeout: time.Second},
	}, sb
}

func TestRequestPreviewCreatesAndSubmits(t *testing.T) {
	client := &stubRender{}
	svc, sb := newJobService(t, client, nil)

	job, reused, err := svc.RequestPreview(context.Background(), "user-1", sb.ID, render.TypeImagePreview)
	if err != nil {
		t.Fatal(err)
	}
	if reused {
		t.Fatal("first request must not report reuse")
	}
	if job.PreviewStatus != PreviewProcessing {
		t.Fatalf("preview status = %q", job.PreviewStatus)
	}
	if job.StartedAt == nil {
		t.Fatal("expected startedAt")
	}
	if len(client.submitted) != 1 {
		t.Fatalf("submissions = %d", len(client.submitted))
	}
	req := client.submitted[0]
	if req.Type != render.TypeImagePreview {
		t.Fatalf("submit type = %q", req.Type)
	}
	if req.Payload.StoryID != sb.ID || req.Payload.UID != "user-1" {
		t.Fatalf("payload = %+v", req.Payload)
	}
	if len(req.Payload.Script) == 0 {
		t.Fatal("expected a provisional script in the payload")
	}
}

func TestRequestPreviewReusesInFlightJob(t *testing.T) {
	client := &stubRender{}
	svc, sb := newJobService(t, client, nil)

	first, _, err := svc.RequestPreview(context.Background(), "user-1", sb.ID, render.TypeImagePreview)
	if err != nil {
		t.Fatal(err)
	}

	second, reused, err := svc.RequestPreview(context.Background(), "user-1", sb.ID, render.TypeImagePreview)
	if err != nil {
		t.Fatal(err)
	}
	if !reused {
		t.Fatal("in-flight job must be reused")
	}
	if second.ID != first.ID {
		t.Fatalf("job ids differ: %q vs %q", second.ID, first.ID)
	}
	if len(client.submitted) != 1 {
		t.Fatalf("reuse must not resubmit, submissions = %d", len(client.submitted))
	}
}

func TestCompletedPreviewCanBeRequestedAgain(t *testing.T) {
	client := &stubRender{statuses: []render.Status{
		{Status: render.StatusCompleted, Progress: 100, URL: "https://cdn/preview.png"},
	}}
	svc, sb := newJobService(t, client, nil)

	first, _, err := svc.RequestPreview(context.Background(), "user-1", sb.ID, render.TypeImagePreview)
	if err != nil {
		t.Fatal(err)
	}

	result, finished, err := svc.Wait(context.Background(), "user-1", first.ID, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != render.OutcomeCompleted {
		t.Fatalf("outcome = %q", result.Outcome)
	}
	if finished.PreviewStatus != PreviewCompleted {
		t.Fatalf("finished preview must read %q on the sub-status, got %q", PreviewCompleted, finished.PreviewStatus)
	}

	second, reused, err := svc.RequestPreview(context.Background(), "user-1", sb.ID, render.TypeImagePreview)
	if err != nil {
		t.Fatal(err)
	}
	if reused {
		t.Fatal("a finished preview must not be handed back as in flight")
	}
	if second.ID != first.ID {
		t.Fatalf("reset must reuse the record, got %q vs %q", second.ID, first.ID)
	}
	if second.PreviewStatus != PreviewProcessing {
		t.Fatalf("previewStatus = %q", second.PreviewStatus)
	}
	if len(client.submitted) != 2 {
		t.Fatalf("second request must resubmit, submissions = %d", len(client.submitted))
	}
}

func TestWaitDoesNotTouchPreviewStatusOfFullRender(t *testing.T) {
	client := &stubRender{statuses: []render.Status{
		{Status: render.StatusCompleted, Progress: 100},
	}}
	svc, sb := newJobService(t, client, nil)

	if err := svc.DispatchFullRender(context.Background(), sb); err != nil {
		t.Fatal(err)
	}
	job, err := svc.Repo.GetLatestByKind(context.Background(), sb.UserID, sb.ID, render.TypeVideoGeneration)
	if err != nil {
		t.Fatal(err)
	}

	_, updated, err := svc.Wait(context.Background(), sb.UserID, job.ID, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != StatusCompleted {
		t.Fatalf("status = %q", updated.Status)
	}
	if updated.PreviewStatus != PreviewPending {
		t.Fatalf("full render must leave the preview sub-status alone, got %q", updated.PreviewStatus)
	}
}

func TestWaitWithoutPollerConfigured(t *testing.T) {
	client := &stubRender{statuses: []render.Status{
		{Status: render.StatusCompleted, Progress: 100},
	}}
	svc, sb := newJobService(t, client, nil)
	svc.Poller = nil

	if err := svc.DispatchFullRender(context.Background(), sb); err != nil {
		t.Fatal(err)
	}
	job, err := svc.Repo.GetLatestByKind(context.Background(), sb.UserID, sb.ID, render.TypeVideoGeneration)
	if err != nil {
		t.Fatal(err)
	}

	result, _, err := svc.Wait(context.Background(), sb.UserID, job.ID, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != render.OutcomeCompleted {
		t.Fatalf("outcome = %q", result.Outcome)
	}
}

func TestRequestPreviewRateLimited(t *testing.T) {
	client := &stubRender{submitErr: render.ErrRateLimited}
	svc, sb := newJobService(t, client, nil)

	job, _, err := svc.RequestPreview(context.Background(), "user-1", sb.ID, render.TypeImagePreview)
	if !errors.Is(err, render.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if job.ID == "" {
		t.Fatal("rate-limited request must still hand back the job record")
	}

	stored, getErr := svc.Get(context.Background(), "user-1", job.ID)
	if getErr != nil {
		t.Fatal(getErr)
	}
	if stored.PreviewStatus != PreviewFailed {
		t.Fatalf("preview status = %q", stored.PreviewStatus)
	}
	if stored.FinishedAt == nil {
		t.Fatal("failed preview must record finishedAt")
	}
}

func TestRequestPreviewUnknownKind(t *testing.T) {
	svc, sb := newJobService(t, &stubRender{}, nil)

	_, _, err := svc.RequestPreview(context.Background(), "user-1", sb.ID, "video_generation")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDispatchFullRenderEnqueuesWhenQueueConfigured(t *testing.T) {
	client := &stubRender{}
	q := &stubQueue{}
	svc, sb := newJobService(t, client, q)

	ctx := workflows.WithRequestID(context.Background(), "req-42")
	if err := svc.DispatchFullRender(ctx, sb); err != nil {
		t.Fatal(err)
	}
	if len(q.sent) != 1 {
		t.Fatalf("enqueued = %d", len(q.sent))
	}
	if len(client.submitted) != 0 {
		t.Fatal("queued dispatch must not submit inline")
	}
	msg := q.sent[0]
	if msg.StoryboardID != sb.ID || msg.Kind != render.TypeVideoGeneration {
		t.Fatalf("message = %+v", msg)
	}
	if msg.RequestID != "req-42" {
		t.Fatalf("message must carry the originating request id, got %q", msg.RequestID)
	}

	// A second dispatch while the job is still queued is a no-op.
	if err := svc.DispatchFullRender(ctx, sb); err != nil {
		t.Fatal(err)
	}
	if len(q.sent) != 1 {
		t.Fatalf("duplicate dispatch enqueued, sent = %d", len(q.sent))
	}
}

func TestDispatchFullRenderInlineWithoutQueue(t *testing.T) {
	client := &stubRender{}
	svc, sb := newJobService(t, client, nil)

	if err := svc.DispatchFullRender(context.Background(), sb); err != nil {
		t.Fatal(err)
	}
	if len(client.submitted) != 1 {
		t.Fatalf("submissions = %d", len(client.submitted))
	}

	job, err := svc.Repo.GetLatestByKind(context.Background(), sb.UserID, sb.ID, render.TypeVideoGeneration)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != StatusProcessing {
		t.Fatalf("status = %q", job.Status)
	}
}

func TestProcessDispatchSkipsTerminalJobs(t *testing.T) {
	client := &stubRender{}
	svc, sb := newJobService(t, client, nil)

	job := VideoJob{
		ID:           "job-1",
		StoryboardID: sb.ID,
		UserID:       sb.UserID,
		Kind:         render.TypeVideoGeneration,
		Status:       StatusCompleted,
		CreatedAt:    time.Now().UTC(),
	}
	if err := svc.Repo.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	msg := queue.Message{JobID: job.ID, StoryboardID: sb.ID, UserID: sb.UserID, Kind: job.Kind}
	if err := svc.ProcessDispatch(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if len(client.submitted) != 0 {
		t.Fatal("terminal job must not be resubmitted")
	}
}

func TestWaitFoldsTerminalStatusIntoRecord(t *testing.T) {
	client := &stubRender{statuses: []render.Status{
		{Status: render.StatusProcessing, Progress: 40},
		{Status: render.StatusCompleted, Progress: 100, URL: "https://cdn/video.mp4", Duration: 42, Resolution: "1080p", SizeBytes: 1024},
	}}
	svc, sb := newJobService(t, client, nil)

	if err := svc.DispatchFullRender(context.Background(), sb); err != nil {
		t.Fatal(err)
	}
	job, err := svc.Repo.GetLatestByKind(context.Background(), sb.UserID, sb.ID, render.TypeVideoGeneration)
	if err != nil {
		t.Fatal(err)
	}

	result, updated, err := svc.Wait(context.Background(), sb.UserID, job.ID, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != render.OutcomeCompleted {
		t.Fatalf("outcome = %q", result.Outcome)
	}
	if updated.Status != StatusCompleted || updated.URL != "https://cdn/video.mp4" {
		t.Fatalf("job = %+v", updated)
	}
	if updated.DurationSecs != 42 || updated.Resolution != "1080p" || updated.SizeBytes != 1024 {
		t.Fatalf("metadata not folded: %+v", updated)
	}
	if updated.FinishedAt == nil {
		t.Fatal("expected finishedAt")
	}
}

func TestWaitTimeoutIsUndetermined(t *testing.T) {
	client := &stubRender{statuses: []render.Status{{Status: render.StatusProcessing, Progress: 10}}}
	svc, sb := newJobService(t, client, nil)
	svc.Poller.Timeout = 20 * time.Millisecond

	if err := svc.DispatchFullRender(context.Background(), sb); err != nil {
		t.Fatal(err)
	}
	job, err := svc.Repo.GetLatestByKind(context.Background(), sb.UserID, sb.ID, render.TypeVideoGeneration)
	if err != nil {
		t.Fatal(err)
	}

	result, updated, err := svc.Wait(context.Background(), sb.UserID, job.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != render.OutcomeUndetermined {
		t.Fatalf("outcome = %q", result.Outcome)
	}
	if updated.Status != StatusProcessing {
		t.Fatalf("timed-out wait must not fail the job, status = %q", updated.Status)
	}
}
