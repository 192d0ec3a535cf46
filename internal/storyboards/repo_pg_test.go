package storyboards

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateMarshalsLayers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	sb := Storyboard{
		ID:         "sb-1",
		UserID:     "user-1",
		Title:      "The Lighthouse",
		Status:     StatusDraft,
		StoryText:  "A keeper tends a lighthouse.",
		SceneCount: 7,
		Summary:    &Summary{Title: "The Lighthouse", Tone: "somber"},
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO storyboards").
		WithArgs(
			sb.ID,
			sb.UserID,
			sb.Title,
			sb.Status,
			sb.StoryText,
			sb.SceneCount,
			sqlmock.AnyArg(), // summary
			nil,              // acts
			nil,              // characters
			nil,              // scenes
			nil,              // audio
			nil,              // style
			nil,              // captions
			nil,              // final_script
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), sb); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScansLayers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "title", "status", "story_text", "scene_count",
		"summary", "acts", "characters", "scenes", "audio", "style", "captions", "final_script",
		"created_at", "updated_at",
	}).AddRow(
		"sb-1", "user-1", "The Lighthouse", StatusDraft, "text", 7,
		`{"title":"The Lighthouse","tone":"somber"}`,
		`[{"actNumber":1,"title":"Calm"}]`,
		nil, nil, nil, nil, nil, nil,
		now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM storyboards").
		WithArgs("user-1", "sb-1").
		WillReturnRows(rows)

	sb, err := repo.GetByID(context.Background(), "user-1", "sb-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if sb.Summary == nil || sb.Summary.Tone != "somber" {
		t.Fatalf("summary = %+v", sb.Summary)
	}
	if len(sb.Acts) != 1 || sb.Acts[0].Title != "Calm" {
		t.Fatalf("acts = %+v", sb.Acts)
	}
	if sb.Characters != nil {
		t.Fatalf("characters should stay nil, got %+v", sb.Characters)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateMissingRowIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE storyboards").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), Storyboard{ID: "missing", UserID: "user-1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteSoftDeletes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE storyboards").
		WithArgs(sqlmock.AnyArg(), "user-1", "sb-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "user-1", "sb-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
