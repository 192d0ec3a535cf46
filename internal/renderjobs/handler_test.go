package renderjobs_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"storyboard-backend/internal/render"
	"storyboard-backend/internal/renderjobs"
	"storyboard-backend/internal/shared/server/middleware"
	"storyboard-backend/internal/storyboards"
)

type fakeRender struct {
	submitErr error
	status    render.Status
}

func (f *fakeRender) Submit(ctx context.Context, req render.SubmitRequest) error {
	return f.submitErr
}

func (f *fakeRender) Status(ctx context.Context, jobID string) (render.Status, error) {
	return f.status, nil
}

func newJobRouter(t *testing.T, client render.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	boards := storyboards.NewMemoryRepo()
	sb := storyboards.Storyboard{
		ID:         "sb-1",
		UserID:     "guest:test-guest",
		Title:      "The Lighthouse",
		Status:     storyboards.StatusDraft,
		StoryText:  "A keeper tends a lighthouse.",
		SceneCount: 2,
	}
	if err := boards.Create(context.Background(), sb); err != nil {
		t.Fatal(err)
	}

	svc := &renderjobs.Service{
		Repo:   renderjobs.NewMemoryRepo(),
		Boards: boards,
		Render: client,
		Poller: &render.Poller{Client: client, Interval: time.Millisecond, Timeout: time.Second},
	}

	r := gin.New()
	r.Use(middleware.Auth("dev"))
	api := r.Group("/api/v1")
	renderjobs.NewHandler(svc).RegisterRoutes(api)
	return r
}

func doJobRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "test-guest")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPreviewCreatedThenReusedOverHTTP(t *testing.T) {
	router := newJobRouter(t, &fakeRender{})

	w := doJobRequest(t, router, http.MethodPost, "/api/v1/storyboards/sb-1/preview", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var first struct {
		JobID         string `json:"jobId"`
		Kind          string `json:"kind"`
		PreviewStatus string `json:"previewStatus"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatal(err)
	}
	if first.Kind != render.TypeImagePreview {
		t.Fatalf("default kind = %q", first.Kind)
	}
	if first.PreviewStatus != renderjobs.PreviewProcessing {
		t.Fatalf("previewStatus = %q", first.PreviewStatus)
	}

	w = doJobRequest(t, router, http.MethodPost, "/api/v1/storyboards/sb-1/preview", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reuse status = %d, body %s", w.Code, w.Body.String())
	}
	var second struct {
		JobID string `json:"jobId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatal(err)
	}
	if second.JobID != first.JobID {
		t.Fatalf("reuse returned a different job: %q vs %q", second.JobID, first.JobID)
	}
}

func TestPreviewRateLimitedOverHTTP(t *testing.T) {
	router := newJobRouter(t, &fakeRender{submitErr: render.ErrRateLimited})

	w := doJobRequest(t, router, http.MethodPost, "/api/v1/storyboards/sb-1/preview", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				JobID string `json:"jobId"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != "rate_limited" {
		t.Fatalf("code = %q", resp.Error.Code)
	}
	if resp.Error.Details.JobID == "" {
		t.Fatal("429 must carry the job id so the client can track the failed record")
	}

	w = doJobRequest(t, router, http.MethodGet, "/api/v1/jobs/"+resp.Error.Details.JobID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var job struct {
		PreviewStatus string `json:"previewStatus"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatal(err)
	}
	if job.PreviewStatus != renderjobs.PreviewFailed {
		t.Fatalf("previewStatus = %q", job.PreviewStatus)
	}
}

func TestPreviewUnknownKindOverHTTP(t *testing.T) {
	router := newJobRouter(t, &fakeRender{})

	w := doJobRequest(t, router, http.MethodPost, "/api/v1/storyboards/sb-1/preview", `{"kind":"video_generation"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestPreviewMissingStoryboardOverHTTP(t *testing.T) {
	router := newJobRouter(t, &fakeRender{})

	w := doJobRequest(t, router, http.MethodPost, "/api/v1/storyboards/nope/preview", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestGetJobNotFoundOverHTTP(t *testing.T) {
	router := newJobRouter(t, &fakeRender{})

	w := doJobRequest(t, router, http.MethodGet, "/api/v1/jobs/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestWaitRejectsBadTimeoutOverHTTP(t *testing.T) {
	router := newJobRouter(t, &fakeRender{})

	w := doJobRequest(t, router, http.MethodGet, "/api/v1/jobs/any/wait?timeoutSeconds=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestWaitReturnsOutcomeOverHTTP(t *testing.T) {
	client := &fakeRender{status: render.Status{Status: render.StatusCompleted, Progress: 100, URL: "https://cdn/video.mp4"}}
	router := newJobRouter(t, client)

	w := doJobRequest(t, router, http.MethodPost, "/api/v1/storyboards/sb-1/preview", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("preview status = %d", w.Code)
	}
	var created struct {
		JobID string `json:"jobId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	w = doJobRequest(t, router, http.MethodGet, "/api/v1/jobs/"+created.JobID+"/wait?timeoutSeconds=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("wait status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Outcome string `json:"outcome"`
		Job     struct {
			Status string `json:"status"`
			URL    string `json:"url"`
		} `json:"job"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Outcome != string(render.OutcomeCompleted) {
		t.Fatalf("outcome = %q", resp.Outcome)
	}
	if resp.Job.URL != "https://cdn/video.mp4" {
		t.Fatalf("job url = %q", resp.Job.URL)
	}
}
