package storyboards_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"storyboard-backend/internal/bootstrap"
	"storyboard-backend/internal/shared/config"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
		GenProvider:     "placeholder",
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app.Router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "test-guest")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestStoryboardLifecycle(t *testing.T) {
	router := newTestRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/storyboards", map[string]any{
		"storyText":  "A keeper tends a lighthouse as a storm closes in.",
		"sceneCount": 7,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", resp.Code, resp.Body.String())
	}

	var created struct {
		StoryboardID string `json:"storyboardId"`
		WorkflowID   string `json:"workflowId"`
		Title        string `json:"title"`
		Status       string `json:"status"`
		SceneCount   int    `json:"sceneCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.StoryboardID == "" {
		t.Fatal("expected storyboardId")
	}
	if created.WorkflowID == "" {
		t.Fatal("creating a storyboard must start its workflow")
	}
	if created.Title != "Untitled story" {
		t.Fatalf("default title = %q", created.Title)
	}
	if created.Status != "draft" {
		t.Fatalf("status = %q", created.Status)
	}
	if created.SceneCount != 7 {
		t.Fatalf("sceneCount = %d", created.SceneCount)
	}

	// Get.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/storyboards/"+created.StoryboardID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get: status %d", resp.Code)
	}

	// List.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/storyboards", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("list: status %d", resp.Code)
	}
	var list []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("list length = %d", len(list))
	}

	// Delete, then reads disappear.
	resp = doJSON(t, router, http.MethodDelete, "/api/v1/storyboards/"+created.StoryboardID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete: status %d", resp.Code)
	}
	resp = doJSON(t, router, http.MethodGet, "/api/v1/storyboards/"+created.StoryboardID, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", resp.Code)
	}
}

func TestCreateStoryboardValidation(t *testing.T) {
	router := newTestRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/storyboards", map[string]any{
		"storyText": "   ",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("blank story: status %d body %s", resp.Code, resp.Body.String())
	}
}

func TestStoryboardsAreOwnerScoped(t *testing.T) {
	router := newTestRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/storyboards", map[string]any{
		"storyText": "A keeper tends a lighthouse.",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: status %d", resp.Code)
	}
	var created struct {
		StoryboardID string `json:"storyboardId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	// A different guest cannot see it.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/storyboards/"+created.StoryboardID, nil)
	req.Header.Set("X-Guest-Id", "someone-else")
	resp2 := httptest.NewRecorder()
	router.ServeHTTP(resp2, req)
	if resp2.Code != http.StatusNotFound {
		t.Fatalf("cross-owner get: status %d", resp2.Code)
	}
}
