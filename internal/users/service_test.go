package users

import (
	"context"
	"errors"
	"testing"
)

func TestUpsertFromAuthAndGet(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	user := User{ID: "google:123", Email: "keeper@example.com", Name: "Keeper"}
	if err := svc.UpsertFromAuth(ctx, user); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetByID(ctx, "google:123")
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "keeper@example.com" || got.Name != "Keeper" {
		t.Fatalf("got %+v", got)
	}

	// Upsert with the same id replaces profile fields.
	user.Name = "Lighthouse Keeper"
	if err := svc.UpsertFromAuth(ctx, user); err != nil {
		t.Fatal(err)
	}
	got, err = svc.GetByID(ctx, "google:123")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Lighthouse Keeper" {
		t.Fatalf("name = %q", got.Name)
	}
}

func TestUpsertFromAuthValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if err := svc.UpsertFromAuth(ctx, User{Email: "x@example.com"}); err == nil {
		t.Fatal("expected an error for a missing id")
	}
	if err := svc.UpsertFromAuth(ctx, User{ID: "google:123"}); err == nil {
		t.Fatal("expected an error for a missing email")
	}
}

func TestGetByIDUnknownUser(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.GetByID(context.Background(), "google:missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
