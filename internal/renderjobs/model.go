package renderjobs

import "time"

// Main job statuses.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Preview sub-statuses, tracked independently of the main job so a full
// render and a cheap preview can progress on their own.
const (
	PreviewPending    = "pending"
	PreviewProcessing = "processing"
	PreviewCompleted  = "completed"
	PreviewFailed     = "failed"
)

// VideoJob is the local record tracking one render service job.
type VideoJob struct {
	ID            string
	StoryboardID  string
	UserID        string
	Kind          string
	Status        string
	PreviewStatus string
	URL           string
	ErrorMessage  string
	Progress      int
	DurationSecs  float64
	Resolution    string
	SizeBytes     int64
	StartedAt     *time.Time
	FinishedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TerminalStatus reports whether the main status will not change further.
func (j VideoJob) TerminalStatus() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// TerminalPreview reports whether the preview sub-status is terminal.
func (j VideoJob) TerminalPreview() bool {
	return j.PreviewStatus == PreviewCompleted || j.PreviewStatus == PreviewFailed
}
