package idempotency

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreReplayCycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fp := Fingerprint([]byte(`{"guest_email":"kofi@example.com"}`))

	res, err := store.Reserve(ctx, "key-1", fp, now, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != ReservationStateNew {
		t.Fatalf("expected new reservation, got %v", res.State)
	}

	// A concurrent duplicate sees the pending reservation.
	res, err = store.Reserve(ctx, "key-1", fp, now, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != ReservationStatePending {
		t.Fatalf("expected pending reservation, got %v", res.State)
	}

	if err := store.SaveResponse(ctx, "key-1", fp, Response{Status: 201, Body: []byte(`{"number":"100023"}`)}, now, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err = store.Reserve(ctx, "key-1", fp, now.Add(time.Minute), time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != ReservationStateCompleted {
		t.Fatalf("expected completed reservation, got %v", res.State)
	}
	if res.Record.ResponseStatus != 201 {
		t.Fatalf("unexpected replay status %d", res.Record.ResponseStatus)
	}
	if string(res.Record.ResponseBody) != `{"number":"100023"}` {
		t.Fatalf("unexpected replay body %q", res.Record.ResponseBody)
	}
}

func TestMemoryStoreRejectsFingerprintMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	if _, err := store.Reserve(ctx, "key-1", "fp-a", now, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Reserve(ctx, "key-1", "fp-b", now, time.Hour); err != ErrFingerprintMismatch {
		t.Fatalf("expected fingerprint mismatch, got %v", err)
	}
}

func TestMemoryStoreReleaseDropsPendingOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	if _, err := store.Reserve(ctx, "pending", "fp", now, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Release(ctx, "pending", "fp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := store.Reserve(ctx, "pending", "fp", now, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != ReservationStateNew {
		t.Fatalf("released key should be reservable again, got %v", res.State)
	}

	if err := store.SaveResponse(ctx, "done", "fp", Response{Status: 200}, now, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Release(ctx, "done", "fp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err = store.Reserve(ctx, "done", "fp", now, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != ReservationStateCompleted {
		t.Fatalf("completed record must survive release, got %v", res.State)
	}
}

func TestMemoryStoreCleanupExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	if _, err := store.Reserve(ctx, "old", "fp", now.Add(-2*time.Hour), time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Reserve(ctx, "fresh", "fp", now, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	removed, err := store.CleanupExpired(ctx, now, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	res, err := store.Reserve(ctx, "fresh", "fp", now, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != ReservationStatePending {
		t.Fatalf("fresh record should remain, got %v", res.State)
	}
}
