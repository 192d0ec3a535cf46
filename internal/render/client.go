// Package render talks to the external video rendering service.
package render

import (
	"context"
	"encoding/json"
	"errors"
)

// Job types accepted by the render service.
const (
	TypeVideoGeneration = "video_generation"
	TypeImagePreview    = "image_preview"
	TypeAudioPreview    = "audio_preview"
)

// Render service job statuses.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrRateLimited signals a 429 from the render service. Convention: the job
// is treated as failed and never retried automatically.
var ErrRateLimited = errors.New("render service rate limited")

// SubmitRequest is the render-job submission envelope.
type SubmitRequest struct {
	Type    string        `json:"type"`
	Payload SubmitPayload `json:"payload"`
}

// SubmitPayload identifies the job and carries the declarative script.
type SubmitPayload struct {
	VideoID string          `json:"video_id"`
	StoryID string          `json:"story_id"`
	UID     string          `json:"uid"`
	Title   string          `json:"title"`
	TextRaw string          `json:"text_raw"`
	Script  json.RawMessage `json:"script"`
}

// Status is the render service's view of one job.
type Status struct {
	Status     string  `json:"status"`
	Progress   int     `json:"progress,omitempty"`
	URL        string  `json:"url,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Resolution string  `json:"resolution,omitempty"`
	SizeBytes  int64   `json:"size,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Terminal reports whether the status will not change further.
func (s Status) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Client abstracts the render service API.
type Client interface {
	Submit(ctx context.Context, req SubmitRequest) error
	Status(ctx context.Context, jobID string) (Status, error)
}
