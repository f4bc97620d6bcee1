package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/platefeed/platefeed/internal/domain"
)

func TestTagListUsesCache(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "Breakfast", "#E26C2D", "breakfast"); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(first))
	}

	// Creating through the repository invalidates the cached list.
	if _, err := repo.Create(ctx, "Dinner", "#8775D2", "dinner"); err != nil {
		t.Fatalf("create second: %v", err)
	}
	second, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list after create: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected invalidated cache with 2 tags, got %d", len(second))
	}
}

func TestTagCreateDerivesSlug(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepository(db)

	tag, err := repo.Create(context.Background(), "Завтрак", "#E26C2D", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tag.Slug != "zavtrak" {
		t.Fatalf("slug = %q, want transliterated zavtrak", tag.Slug)
	}
}

func TestTagGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Lunch", "#49B64E", "lunch")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Slug != "lunch" || got.Color != "#49B64E" {
		t.Fatalf("unexpected tag: %+v", got)
	}

	if _, err := repo.Get(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTagCreateDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "Lunch", "#49B64E", "lunch"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, "Lunch", "#49B64E", "lunch2"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
