package renderjobs

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `
id, storyboard_id, user_id, kind, status, preview_status,
url, error_message, progress, duration_secs, resolution, size_bytes,
started_at, finished_at, created_at, updated_at`

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, job VideoJob) error {
	const query = `
INSERT INTO video_jobs (
    id, storyboard_id, user_id, kind, status, preview_status,
    url, error_message, progress, duration_secs, resolution, size_bytes,
    started_at, finished_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	now := job.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, query,
		job.ID, job.StoryboardID, job.UserID, job.Kind, job.Status, job.PreviewStatus,
		job.URL, job.ErrorMessage, job.Progress, job.DurationSecs, job.Resolution, job.SizeBytes,
		nullTime(job.StartedAt), nullTime(job.FinishedAt), now, now,
	)
	return err
}

// GetByID returns a job owned by the user.
func (r *PGRepo) GetByID(ctx context.Context, userID, jobID string) (VideoJob, error) {
	const query = `
SELECT ` + jobColumns + `
FROM video_jobs
WHERE user_id = $1 AND id = $2
LIMIT 1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, userID, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return VideoJob{}, ErrNotFound
		}
		return VideoJob{}, err
	}
	return job, nil
}

// GetLatestByKind returns the newest job of one kind for a storyboard.
func (r *PGRepo) GetLatestByKind(ctx context.Context, userID, storyboardID, kind string) (VideoJob, error) {
	const query = `
SELECT ` + jobColumns + `
FROM video_jobs
WHERE user_id = $1 AND storyboard_id = $2 AND kind = $3
ORDER BY created_at DESC
LIMIT 1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, userID, storyboardID, kind))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return VideoJob{}, ErrNotFound
		}
		return VideoJob{}, err
	}
	return job, nil
}

// Update overwrites the job's mutable fields.
func (r *PGRepo) Update(ctx context.Context, job VideoJob) error {
	const query = `
UPDATE video_jobs
SET status = $1, preview_status = $2, url = $3, error_message = $4,
    progress = $5, duration_secs = $6, resolution = $7, size_bytes = $8,
    started_at = $9, finished_at = $10, updated_at = $11
WHERE user_id = $12 AND id = $13`
	res, err := r.DB.ExecContext(ctx, query,
		job.Status, job.PreviewStatus, job.URL, job.ErrorMessage,
		job.Progress, job.DurationSecs, job.Resolution, job.SizeBytes,
		nullTime(job.StartedAt), nullTime(job.FinishedAt), time.Now().UTC(),
		job.UserID, job.ID,
	)
	if err != nil {
		return err
	}
	updated, _ := res.RowsAffected()
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (VideoJob, error) {
	var job VideoJob
	var startedAt, finishedAt sql.NullTime
	if err := row.Scan(
		&job.ID, &job.StoryboardID, &job.UserID, &job.Kind, &job.Status, &job.PreviewStatus,
		&job.URL, &job.ErrorMessage, &job.Progress, &job.DurationSecs, &job.Resolution, &job.SizeBytes,
		&startedAt, &finishedAt, &job.CreatedAt, &job.UpdatedAt,
	); err != nil {
		return VideoJob{}, err
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	return job, nil
}

var _ Repo = (*PGRepo)(nil)
