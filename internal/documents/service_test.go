package documents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storyboard-backend/internal/shared/storage/object/local"
)

func newDocService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		Store: local.New(t.TempDir()),
		Repo:  NewMemoryRepo(),
	}
}

func TestUploadAndGet(t *testing.T) {
	svc := newDocService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "user-1", "story.txt", strings.NewReader("Once upon a time."))
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID == "" {
		t.Fatal("expected a document id")
	}
	if doc.FileName != "story.txt" {
		t.Fatalf("fileName = %q", doc.FileName)
	}
	if doc.SizeBytes != int64(len("Once upon a time.")) {
		t.Fatalf("sizeBytes = %d", doc.SizeBytes)
	}
	if doc.StorageKey == "" {
		t.Fatal("expected a storage key")
	}

	got, err := svc.Get(ctx, "user-1", doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != doc.ID {
		t.Fatalf("got id %q", got.ID)
	}
}

func TestUploadRequiresFileName(t *testing.T) {
	svc := newDocService(t)

	_, err := svc.Upload(context.Background(), "user-1", "", strings.NewReader("x"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetIsOwnerScoped(t *testing.T) {
	svc := newDocService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "user-1", "story.txt", strings.NewReader("text"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ctx, "someone-else", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTextExtractsOnceThenServesCache(t *testing.T) {
	svc := newDocService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "user-1", "story.txt", strings.NewReader("  A keeper tends a lighthouse.  \n"))
	if err != nil {
		t.Fatal(err)
	}

	text, err := svc.Text(ctx, "user-1", doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if text != "A keeper tends a lighthouse." {
		t.Fatalf("text = %q", text)
	}

	updated, err := svc.Get(ctx, "user-1", doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.ExtractedTextKey == "" {
		t.Fatal("extraction must record the derived key")
	}
	if updated.ExtractedAt == nil {
		t.Fatal("extraction must record a timestamp")
	}

	// Second read comes from the cached copy.
	again, err := svc.Text(ctx, "user-1", doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again != text {
		t.Fatalf("cached text = %q", again)
	}
}

func TestTextRejectsUnsupportedFormat(t *testing.T) {
	svc := newDocService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "user-1", "story.bin", strings.NewReader("\x00\x01\x02binary"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Text(ctx, "user-1", doc.ID); err == nil {
		t.Fatal("expected an unsupported format error")
	}
}
