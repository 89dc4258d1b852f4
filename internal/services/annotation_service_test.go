package services

import (
	"context"
	"testing"
	"time"

	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
)

func TestAddBatchSetsCurrentValues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	batchNum, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "alice"},
		{Account: "acct-1", Key: "status", Value: "active"},
		{Account: "acct-2", Key: "owner", Value: "bob"},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	if batchNum == 0 {
		t.Fatalf("expected a non-zero batch number")
	}

	if got, _ := env.currentValue(t, "acct-1", "owner"); got != "alice" {
		t.Fatalf("expected owner=alice, got %q", got)
	}
	if got, _ := env.currentValue(t, "acct-1", "status"); got != "active" {
		t.Fatalf("expected status=active, got %q", got)
	}
	if got, _ := env.currentValue(t, "acct-2", "owner"); got != "bob" {
		t.Fatalf("expected owner=bob, got %q", got)
	}
}

func TestAddBatchLaterBatchWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "alice"},
	}); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	if _, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "bob"},
	}); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	if got, _ := env.currentValue(t, "acct-1", "owner"); got != "bob" {
		t.Fatalf("expected the later batch to win, got %q", got)
	}
}

func TestAddBatchSameBatchArrayOrderWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "alice"},
		{Account: "acct-1", Key: "owner", Value: "carol"},
	}); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	if got, _ := env.currentValue(t, "acct-1", "owner"); got != "carol" {
		t.Fatalf("expected the later entry to win, got %q", got)
	}
}

func TestAddBatchKeysMatchCaseInsensitively(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "Owner", Value: "alice"},
	}); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	if _, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "OWNER", Value: "bob"},
	}); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	// One projected key in the original casing, holding the newest value.
	annotations, err := env.queries.CurrentAnnotations(ctx, "acct-1")
	if err != nil {
		t.Fatalf("CurrentAnnotations: %v", err)
	}
	if len(annotations) != 1 {
		t.Fatalf("expected 1 key, got %d", len(annotations))
	}
	if annotations[0].Key != "Owner" || annotations[0].Value != "bob" {
		t.Fatalf("expected Owner=bob, got %s=%s", annotations[0].Key, annotations[0].Value)
	}
}

func TestAddBatchValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		userID      string
		annotations []BatchEntry
	}{
		{"missing user", "", []BatchEntry{{Account: "a", Key: "k", Value: "v"}}},
		{"nil annotations", "tester", nil},
		{"missing account", "tester", []BatchEntry{{Key: "k", Value: "v"}}},
		{"missing key", "tester", []BatchEntry{{Account: "a", Value: "v"}}},
		{"missing value", "tester", []BatchEntry{{Account: "a", Key: "k"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.annotations.AddBatch(ctx, tt.userID, tt.annotations)
			if !apierr.IsValidation(err) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}

	// A rejected batch leaves nothing behind.
	result, err := env.queries.ListBatches(ctx, 1, 100)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(result.Batches) != 0 {
		t.Fatalf("expected no batches after failed adds, got %d", len(result.Batches))
	}
}

func TestAddBatchEmptyListCreatesEmptyBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	batchNum, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	detail, err := env.queries.GetBatch(ctx, batchNum)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(detail.Annotations) != 0 {
		t.Fatalf("expected an empty batch, got %d annotations", len(detail.Annotations))
	}
}

func TestHideRevertsToPreviousValue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "alice"},
	}); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	second, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "bob"},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	if err := env.annotations.Hide(ctx, "tester", second, nil, nil); err != nil {
		t.Fatalf("Hide: %v", err)
	}

	if got, _ := env.currentValue(t, "acct-1", "owner"); got != "alice" {
		t.Fatalf("expected the earlier value back, got %q", got)
	}
}

func TestHideTieBreakPrefersHigherBatchNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "alice"},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	second, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "bob"},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	third, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "carol"},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	// Give the two surviving batches an identical timestamp so the
	// recompute has to fall back to the batch number.
	shared := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)
	if err := env.db.Model(&types.AnnotationBatch{}).
		Where("id IN ?", []uint{first, second}).
		Update("timestamp", shared).Error; err != nil {
		t.Fatalf("forcing timestamps: %v", err)
	}

	if err := env.annotations.Hide(ctx, "tester", third, nil, nil); err != nil {
		t.Fatalf("Hide: %v", err)
	}

	if got, _ := env.currentValue(t, "acct-1", "owner"); got != "bob" {
		t.Fatalf("expected the higher-numbered batch to win the tie, got %q", got)
	}
}

func TestHideLastValueLeavesEmptyString(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	batchNum, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "alice"},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	if err := env.annotations.Hide(ctx, "tester", batchNum, nil, nil); err != nil {
		t.Fatalf("Hide: %v", err)
	}

	// The projection row survives, pointing at the empty string.
	got, ok := env.currentValue(t, "acct-1", "owner")
	if !ok {
		t.Fatalf("expected the projection row to survive")
	}
	if got != "" {
		t.Fatalf("expected an empty value, got %q", got)
	}
}

func TestHideNarrowedByAccountAndKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	batchNum, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "alice"},
		{Account: "acct-1", Key: "status", Value: "active"},
		{Account: "acct-2", Key: "owner", Value: "bob"},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	account := "acct-1"
	key := "owner"
	if err := env.annotations.Hide(ctx, "tester", batchNum, &account, &key); err != nil {
		t.Fatalf("Hide: %v", err)
	}

	if got, _ := env.currentValue(t, "acct-1", "owner"); got != "" {
		t.Fatalf("expected the narrowed pair hidden, got %q", got)
	}
	if got, _ := env.currentValue(t, "acct-1", "status"); got != "active" {
		t.Fatalf("expected status untouched, got %q", got)
	}
	if got, _ := env.currentValue(t, "acct-2", "owner"); got != "bob" {
		t.Fatalf("expected acct-2 untouched, got %q", got)
	}
}

func TestHideIsIdempotentPerRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	batchNum, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "alice"},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	if err := env.annotations.Hide(ctx, "first", batchNum, nil, nil); err != nil {
		t.Fatalf("Hide: %v", err)
	}
	// A second hide finds no visible rows and changes nothing.
	if err := env.annotations.Hide(ctx, "second", batchNum, nil, nil); err != nil {
		t.Fatalf("second Hide: %v", err)
	}

	detail, err := env.queries.GetBatch(ctx, batchNum)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(detail.Annotations) != 1 || !detail.Annotations[0].Hidden {
		t.Fatalf("expected one hidden annotation, got %+v", detail.Annotations)
	}
	if detail.Annotations[0].HiddenBy == nil || *detail.Annotations[0].HiddenBy != "first" {
		t.Fatalf("expected the first hider recorded, got %+v", detail.Annotations[0].HiddenBy)
	}
}

func TestHideNotFoundErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	batchNum, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "alice"},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	if err := env.annotations.Hide(ctx, "tester", batchNum+100, nil, nil); !apierr.IsNotFound(err) {
		t.Fatalf("expected not-found for unknown batch, got %v", err)
	}

	missing := "no-such-account"
	if err := env.annotations.Hide(ctx, "tester", batchNum, &missing, nil); !apierr.IsNotFound(err) {
		t.Fatalf("expected not-found for unknown account, got %v", err)
	}

	badKey := "no-such-key"
	if err := env.annotations.Hide(ctx, "tester", batchNum, nil, &badKey); !apierr.IsNotFound(err) {
		t.Fatalf("expected not-found for unknown key, got %v", err)
	}
}

func TestRecalcCurrentRebuildsProjection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "alice"},
		{Account: "acct-2", Key: "owner", Value: "bob"},
	}); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	if _, err := env.annotations.AddBatch(ctx, "tester", []BatchEntry{
		{Account: "acct-1", Key: "owner", Value: "carol"},
	}); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	// Corrupt the projection, then rebuild it from history.
	if err := env.current.DeleteAll(ctx, nil); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if err := env.annotations.RecalcCurrent(ctx); err != nil {
		t.Fatalf("RecalcCurrent: %v", err)
	}

	if got, _ := env.currentValue(t, "acct-1", "owner"); got != "carol" {
		t.Fatalf("expected owner=carol after recalc, got %q", got)
	}
	if got, _ := env.currentValue(t, "acct-2", "owner"); got != "bob" {
		t.Fatalf("expected owner=bob after recalc, got %q", got)
	}
}
