package registry

import (
	"errors"
	"testing"
	"time"
)

func TestNewPopulatesTwentyFreeSlots(t *testing.T) {
	r := New()
	if got := r.CountByStatus(StatusFree); got != 20 {
		t.Fatalf("expected 20 free slots, got %d", got)
	}
	if got := r.CountByStatus(StatusOccupied); got != 0 {
		t.Fatalf("expected 0 occupied slots, got %d", got)
	}
	for _, code := range []string{"1A", "1B", "10A", "10B", "3B"} {
		if _, ok := r.Find(code); !ok {
			t.Fatalf("expected slot %s to exist", code)
		}
	}
	if _, ok := r.Find("11A"); ok {
		t.Fatalf("slot 11A should not exist")
	}
}

func TestOccupyAndFind(t *testing.T) {
	r := New()
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if err := r.Occupy("3B", "KA01AB1234", entry, nil, 7); err != nil {
		t.Fatalf("Occupy: %v", err)
	}
	rec, ok := r.Find("3B")
	if !ok {
		t.Fatalf("expected slot 3B")
	}
	if rec.Status != StatusOccupied || rec.Vehicle != "KA01AB1234" || rec.SessionID != 7 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.EntryTime.Equal(entry) {
		t.Fatalf("expected entry %v, got %v", entry, rec.EntryTime)
	}
}

func TestOccupyFailures(t *testing.T) {
	r := New()
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	if err := r.Occupy("99Z", "X", entry, nil, 1); !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("expected ErrUnknownSlot, got %v", err)
	}

	if err := r.Occupy("5A", "FIRST", entry, nil, 1); err != nil {
		t.Fatalf("Occupy: %v", err)
	}
	later := entry.Add(time.Hour)
	if err := r.Occupy("5A", "SECOND", later, nil, 2); !errors.Is(err, ErrSlotOccupied) {
		t.Fatalf("expected ErrSlotOccupied, got %v", err)
	}

	// The failed occupy must not touch the existing occupant.
	rec, _ := r.Find("5A")
	if rec.Vehicle != "FIRST" || rec.SessionID != 1 || !rec.EntryTime.Equal(entry) {
		t.Fatalf("occupant modified by failed occupy: %+v", rec)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := New()
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if err := r.Occupy("2A", "KA01AB1234", entry, nil, 3); err != nil {
		t.Fatalf("Occupy: %v", err)
	}

	for i := 0; i < 2; i++ {
		r.Release("2A")
		rec, _ := r.Find("2A")
		if rec.Status != StatusFree {
			t.Fatalf("release %d: expected free, got %s", i, rec.Status)
		}
		if rec.Vehicle != "" || rec.SessionID != 0 || !rec.EntryTime.IsZero() ||
			rec.ExitTime != nil || rec.Paid || rec.PaidAmount != 0 {
			t.Fatalf("release %d: occupant fields not cleared: %+v", i, rec)
		}
	}
	// Releasing an unknown code must not panic.
	r.Release("nope")
}

func TestSnapshotOrder(t *testing.T) {
	r := New()
	snap := r.Snapshot()
	if len(snap) != 20 {
		t.Fatalf("expected 20 records, got %d", len(snap))
	}
	if snap[0].Code != "1A" || snap[1].Code != "1B" || snap[19].Code != "10B" {
		t.Fatalf("unexpected order: %s %s ... %s", snap[0].Code, snap[1].Code, snap[19].Code)
	}
}
