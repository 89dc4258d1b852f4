package repos

import (
	"context"
	"testing"

	"github.com/riplabs/annotdb-backend/internal/data/repos/testutil"
)

func TestAnnotationKeyGetOrCreateInterns(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAnnotationKeyRepo(db, testutil.Logger(t))
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, nil, "Owner")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatalf("expected a persisted row, got zero ID")
	}
	if first.Key != "Owner" {
		t.Fatalf("expected key %q, got %q", "Owner", first.Key)
	}

	// A later casing variant reuses the original row.
	second, err := repo.GetOrCreate(ctx, nil, "OWNER")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected reuse of row %d, got %d", first.ID, second.ID)
	}
	if second.Key != "Owner" {
		t.Fatalf("first casing should win, got %q", second.Key)
	}
}

func TestAnnotationKeyGetByKeyCaseInsensitive(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAnnotationKeyRepo(db, testutil.Logger(t))
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, nil, "Status"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	row, err := repo.GetByKey(ctx, nil, "sTaTuS")
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	if row == nil {
		t.Fatalf("expected a match for the casing variant")
	}

	missing, err := repo.GetByKey(ctx, nil, "missing")
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for an unknown key, got %+v", missing)
	}
}

func TestAnnotationValueGetOrCreateInterns(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAnnotationValueRepo(db, testutil.Logger(t))
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, nil, "John Doe")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := repo.GetOrCreate(ctx, nil, "john doe")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected reuse of row %d, got %d", first.ID, second.ID)
	}

	// The empty string is a legal interned value.
	empty, err := repo.GetOrCreate(ctx, nil, "")
	if err != nil {
		t.Fatalf("GetOrCreate failed for empty value: %v", err)
	}
	if empty.ID == 0 {
		t.Fatalf("expected a persisted empty-value row")
	}
}
