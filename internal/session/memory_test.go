package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLocker_AcquireAndRelease(t *testing.T) {
	m := NewMemoryLocker()
	ctx := context.Background()

	lease, err := m.Acquire(ctx, "conn-1", "owner-a")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if lease.Owner != "owner-a" {
		t.Errorf("Owner = %s, want owner-a", lease.Owner)
	}
	if lease.ExpiresAt <= time.Now().Unix() {
		t.Error("Lease should expire in the future")
	}

	// A different owner is blocked while the lease is live.
	if _, err := m.Acquire(ctx, "conn-1", "owner-b"); !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("Expected ErrLeaseHeld, got %v", err)
	}

	// The holder can re-acquire (refresh) its own lease.
	if _, err := m.Acquire(ctx, "conn-1", "owner-a"); err != nil {
		t.Fatalf("Re-acquire by holder failed: %v", err)
	}

	if err := m.Release(ctx, "conn-1", "owner-a"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := m.Acquire(ctx, "conn-1", "owner-b"); err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
}

func TestMemoryLocker_ReleaseByNonOwnerIsNoOp(t *testing.T) {
	m := NewMemoryLocker()
	ctx := context.Background()

	m.Acquire(ctx, "conn-1", "owner-a")
	if err := m.Release(ctx, "conn-1", "owner-b"); err != nil {
		t.Fatalf("Release by non-owner should be a no-op, got %v", err)
	}

	// owner-a still holds the lease.
	if _, err := m.Acquire(ctx, "conn-1", "owner-b"); !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("Expected ErrLeaseHeld, got %v", err)
	}
}

func TestMemoryLocker_ExpiredLeaseIsStealable(t *testing.T) {
	m := NewMemoryLocker()
	m.ttlDuration = -1 * time.Second // already expired on acquire
	ctx := context.Background()

	m.Acquire(ctx, "conn-1", "owner-a")
	if _, err := m.Acquire(ctx, "conn-1", "owner-b"); err != nil {
		t.Fatalf("Expected expired lease to be stealable, got %v", err)
	}
}

func TestMemoryLocker_Status(t *testing.T) {
	m := NewMemoryLocker()
	ctx := context.Background()

	lease, err := m.Status(ctx, "conn-1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if lease != nil {
		t.Fatal("Expected nil lease for unlocked connection")
	}

	m.Acquire(ctx, "conn-1", "owner-a")
	lease, err = m.Status(ctx, "conn-1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if lease == nil || lease.Owner != "owner-a" {
		t.Fatalf("Expected lease held by owner-a, got %+v", lease)
	}

	// Different connections are independent.
	lease, _ = m.Status(ctx, "conn-2")
	if lease != nil {
		t.Fatal("Expected nil lease for different connection")
	}
}
