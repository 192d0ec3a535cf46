package workflows

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const workflowColumns = `
id, user_id, storyboard_id, status, current_step,
step1_in, step1_out, step2_in, step2_out, step3_in, step3_out,
step4_in, step4_out, step5_in, step5_out, step6_in, step6_out,
step7_in, step7_out,
created_at, updated_at`

// Create inserts a new workflow.
func (r *PGRepo) Create(ctx context.Context, wf Workflow) error {
	const query = `
INSERT INTO workflows (
    id, user_id, storyboard_id, status, current_step,
    step1_in, step1_out, step2_in, step2_out, step3_in, step3_out,
    step4_in, step4_out, step5_in, step5_out, step6_in, step6_out,
    step7_in, step7_out,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5,
          $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
          $20, $21)`

	now := wf.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	args := []any{wf.ID, wf.UserID, wf.StoryboardID, wf.Status, wf.CurrentStep}
	args = append(args, stepArgs(wf)...)
	args = append(args, now, now)

	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

// GetByID returns a workflow owned by the user.
func (r *PGRepo) GetByID(ctx context.Context, userID, workflowID string) (Workflow, error) {
	const query = `
SELECT ` + workflowColumns + `
FROM workflows
WHERE user_id = $1 AND id = $2
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, userID, workflowID)
	wf, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Workflow{}, ErrNotFound
		}
		return Workflow{}, err
	}
	return wf, nil
}

// GetByStoryboard returns the workflow attached to a storyboard.
func (r *PGRepo) GetByStoryboard(ctx context.Context, userID, storyboardID string) (Workflow, error) {
	const query = `
SELECT ` + workflowColumns + `
FROM workflows
WHERE user_id = $1 AND storyboard_id = $2
ORDER BY created_at DESC
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, userID, storyboardID)
	wf, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Workflow{}, ErrNotFound
		}
		return Workflow{}, err
	}
	return wf, nil
}

// Update overwrites the workflow's status, position and step caches.
func (r *PGRepo) Update(ctx context.Context, wf Workflow) error {
	const query = `
UPDATE workflows
SET status = $1, current_step = $2,
    step1_in = $3::jsonb, step1_out = $4::jsonb,
    step2_in = $5::jsonb, step2_out = $6::jsonb,
    step3_in = $7::jsonb, step3_out = $8::jsonb,
    step4_in = $9::jsonb, step4_out = $10::jsonb,
    step5_in = $11::jsonb, step5_out = $12::jsonb,
    step6_in = $13::jsonb, step6_out = $14::jsonb,
    step7_in = $15::jsonb, step7_out = $16::jsonb,
    updated_at = $17
WHERE user_id = $18 AND id = $19`

	args := []any{wf.Status, wf.CurrentStep}
	args = append(args, stepArgs(wf)...)
	args = append(args, time.Now().UTC(), wf.UserID, wf.ID)

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	updated, _ := res.RowsAffected()
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

func stepArgs(wf Workflow) []any {
	out := make([]any, 0, StepCount*2)
	for i := 0; i < StepCount; i++ {
		out = append(out, rawArg(wf.Steps[i].In), rawArg(wf.Steps[i].Out))
	}
	return out
}

func rawArg(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (Workflow, error) {
	var wf Workflow
	var cells [StepCount * 2]sql.NullString

	dest := []any{&wf.ID, &wf.UserID, &wf.StoryboardID, &wf.Status, &wf.CurrentStep}
	for i := range cells {
		dest = append(dest, &cells[i])
	}
	dest = append(dest, &wf.CreatedAt, &wf.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return Workflow{}, err
	}
	for i := 0; i < StepCount; i++ {
		if cells[i*2].Valid {
			wf.Steps[i].In = json.RawMessage(cells[i*2].String)
		}
		if cells[i*2+1].Valid {
			wf.Steps[i].Out = json.RawMessage(cells[i*2+1].String)
		}
	}
	return wf, nil
}

var _ Repo = (*PGRepo)(nil)
