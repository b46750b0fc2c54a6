package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"parkhub/internal/db"
	"parkhub/internal/registry"
	"parkhub/internal/repository"
)

type fakeSlotRepo struct {
	statuses map[string]string
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{statuses: make(map[string]string)}
}

func (f *fakeSlotRepo) Seed(_ context.Context, codes []string) error {
	for _, code := range codes {
		if _, ok := f.statuses[code]; !ok {
			f.statuses[code] = db.SlotFree
		}
	}
	return nil
}

func (f *fakeSlotRepo) Count(context.Context) (int, error) {
	return len(f.statuses), nil
}

func (f *fakeSlotRepo) UpdateStatus(_ context.Context, code, status string) error {
	if _, ok := f.statuses[code]; !ok {
		return repository.ErrNotFound
	}
	f.statuses[code] = status
	return nil
}

type fakeParkingRepo struct {
	nextID   int
	sessions []*db.ParkingSession
}

func newFakeParkingRepo() *fakeParkingRepo {
	return &fakeParkingRepo{nextID: 1}
}

func (f *fakeParkingRepo) Create(_ context.Context, session *db.ParkingSession) error {
	session.ID = f.nextID
	f.nextID++
	copied := *session
	f.sessions = append(f.sessions, &copied)
	return nil
}

func (f *fakeParkingRepo) byID(id int) *db.ParkingSession {
	for _, s := range f.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (f *fakeParkingRepo) LatestBySlot(_ context.Context, slotCode string) (*db.ParkingSession, error) {
	for i := len(f.sessions) - 1; i >= 0; i-- {
		if f.sessions[i].SlotCode == slotCode {
			copied := *f.sessions[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeParkingRepo) SetExitAndAmount(_ context.Context, id int, exit time.Time, amount int) error {
	s := f.byID(id)
	if s == nil {
		return repository.ErrNotFound
	}
	t := exit
	s.ExitTime = &t
	s.PaidAmount = amount
	return nil
}

func (f *fakeParkingRepo) MarkPaid(_ context.Context, id int, exit time.Time, amount int) error {
	s := f.byID(id)
	if s == nil {
		return repository.ErrNotFound
	}
	t := exit
	s.ExitTime = &t
	s.Paid = true
	s.PaidAmount = amount
	return nil
}

func (f *fakeParkingRepo) OpenSessions(context.Context) ([]db.ParkingSession, error) {
	latest := make(map[string]*db.ParkingSession)
	for _, s := range f.sessions {
		latest[s.SlotCode] = s
	}
	var open []db.ParkingSession
	for _, s := range latest {
		if !s.Paid {
			open = append(open, *s)
		}
	}
	return open, nil
}

func (f *fakeParkingRepo) SumPaidAmount(context.Context) (int, error) {
	total := 0
	for _, s := range f.sessions {
		if s.Paid {
			total += s.PaidAmount
		}
	}
	return total, nil
}

func (f *fakeParkingRepo) RecentPaid(_ context.Context, limit int) ([]db.ParkingSession, error) {
	var paid []db.ParkingSession
	for i := len(f.sessions) - 1; i >= 0 && len(paid) < limit; i-- {
		if f.sessions[i].Paid {
			paid = append(paid, *f.sessions[i])
		}
	}
	return paid, nil
}

func newTestService(now time.Time) (*ParkingService, *fakeSlotRepo, *fakeParkingRepo) {
	slots := newFakeSlotRepo()
	_ = slots.Seed(context.Background(), registry.Codes())
	parkings := newFakeParkingRepo()
	svc := NewParkingService(registry.New(), slots, parkings)
	svc.Now = func() time.Time { return now }
	return svc, slots, parkings
}

func ts(value string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParkVehicleValidation(t *testing.T) {
	svc, _, _ := newTestService(ts("2024-01-01T12:00"))
	ctx := context.Background()
	entry := ts("2024-01-01T10:00")

	if _, err := svc.ParkVehicle(ctx, "42Z", "KA01AB1234", entry, nil, 1); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}

	if _, err := svc.ParkVehicle(ctx, "3B", "KA01AB1234", entry, nil, 1); err != nil {
		t.Fatalf("ParkVehicle: %v", err)
	}
	if _, err := svc.ParkVehicle(ctx, "3B", "MH12CD5678", entry, nil, 2); !errors.Is(err, ErrSlotOccupied) {
		t.Fatalf("expected ErrSlotOccupied, got %v", err)
	}
}

func TestParkThenReceipt(t *testing.T) {
	now := ts("2024-01-01T12:30")
	svc, slots, _ := newTestService(now)
	ctx := context.Background()
	entry := ts("2024-01-01T10:00")

	session, err := svc.ParkVehicle(ctx, "3B", "KA01AB1234", entry, nil, 1)
	if err != nil {
		t.Fatalf("ParkVehicle: %v", err)
	}
	if session.ID == 0 {
		t.Fatalf("expected a persisted session id")
	}
	if slots.statuses["3B"] != db.SlotOccupied {
		t.Fatalf("expected slot row occupied, got %s", slots.statuses["3B"])
	}

	receipt, err := svc.BuildReceipt(ctx, "3B")
	if err != nil {
		t.Fatalf("BuildReceipt: %v", err)
	}
	if receipt.VehicleNumber != "KA01AB1234" || receipt.SlotCode != "3B" {
		t.Fatalf("receipt does not match input: %+v", receipt)
	}
	// 2.5 elapsed hours bill as 2.
	if receipt.Hours != 2 || receipt.Amount != 100 {
		t.Fatalf("expected 2h/100, got %dh/%d", receipt.Hours, receipt.Amount)
	}
	if !receipt.ExitTime.Equal(now) {
		t.Fatalf("expected exit substituted with now, got %v", receipt.ExitTime)
	}
}

func TestReceiptWritesBackToLedger(t *testing.T) {
	now := ts("2024-01-01T11:45")
	svc, _, parkings := newTestService(now)
	ctx := context.Background()

	session, err := svc.ParkVehicle(ctx, "1A", "KA01AB1234", ts("2024-01-01T10:00"), nil, 1)
	if err != nil {
		t.Fatalf("ParkVehicle: %v", err)
	}
	if _, err := svc.BuildReceipt(ctx, "1A"); err != nil {
		t.Fatalf("BuildReceipt: %v", err)
	}

	row := parkings.byID(session.ID)
	if row.ExitTime == nil || !row.ExitTime.Equal(now) {
		t.Fatalf("expected exit time written back, got %v", row.ExitTime)
	}
	if row.PaidAmount != 50 {
		t.Fatalf("expected amount 50 written back, got %d", row.PaidAmount)
	}
	if row.Paid {
		t.Fatalf("receipt must not mark the session paid")
	}
}

func TestConfirmPaymentHalfHour(t *testing.T) {
	svc, slots, parkings := newTestService(ts("2024-01-01T10:30"))
	ctx := context.Background()

	if _, err := svc.ParkVehicle(ctx, "3B", "KA01AB1234", ts("2024-01-01T10:00"), nil, 1); err != nil {
		t.Fatalf("ParkVehicle: %v", err)
	}

	result, err := svc.ConfirmPayment(ctx, "3B", 1)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if !result.Success || result.Amount != 50 || result.SlotCode != "3B" || result.VehicleNumber != "KA01AB1234" {
		t.Fatalf("unexpected result: %+v", result)
	}

	rec, _ := svc.Registry.Find("3B")
	if rec.Status != registry.StatusFree || rec.Vehicle != "" || rec.SessionID != 0 {
		t.Fatalf("registry entry not cleared: %+v", rec)
	}
	if slots.statuses["3B"] != db.SlotFree {
		t.Fatalf("slot row not freed: %s", slots.statuses["3B"])
	}

	row, err := parkings.LatestBySlot(ctx, "3B")
	if err != nil {
		t.Fatalf("LatestBySlot: %v", err)
	}
	if !row.Paid || row.PaidAmount != 50 {
		t.Fatalf("ledger row not settled: %+v", row)
	}
}

func TestConfirmPaymentFloorsHours(t *testing.T) {
	svc, _, _ := newTestService(ts("2024-01-01T13:05"))
	ctx := context.Background()

	if _, err := svc.ParkVehicle(ctx, "3B", "KA01AB1234", ts("2024-01-01T10:00"), nil, 1); err != nil {
		t.Fatalf("ParkVehicle: %v", err)
	}
	result, err := svc.ConfirmPayment(ctx, "3B", 1)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	// 3h05m bills 3 full hours; the extra minutes do not start a 4th.
	if result.Amount != 150 {
		t.Fatalf("expected 150, got %d", result.Amount)
	}
}

func TestConfirmPaymentNoHistory(t *testing.T) {
	svc, _, _ := newTestService(ts("2024-01-01T10:00"))

	result, err := svc.ConfirmPayment(context.Background(), "7A", 1)
	if err != nil {
		t.Fatalf("expected failed result, not error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected failure for a slot with no history")
	}
}

func TestConfirmPaymentAlreadyPaid(t *testing.T) {
	svc, _, _ := newTestService(ts("2024-01-01T11:00"))
	ctx := context.Background()

	if _, err := svc.ParkVehicle(ctx, "2B", "KA01AB1234", ts("2024-01-01T10:00"), nil, 1); err != nil {
		t.Fatalf("ParkVehicle: %v", err)
	}
	if result, err := svc.ConfirmPayment(ctx, "2B", 1); err != nil || !result.Success {
		t.Fatalf("first payment should succeed: %+v %v", result, err)
	}

	result, err := svc.ConfirmPayment(ctx, "2B", 1)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if result.Success {
		t.Fatalf("second payment must fail")
	}
}

func TestWarmRegistryRestoresOccupancy(t *testing.T) {
	now := ts("2024-01-01T12:00")
	svc, slots, parkings := newTestService(now)
	ctx := context.Background()

	if _, err := svc.ParkVehicle(ctx, "3B", "KA01AB1234", ts("2024-01-01T10:00"), nil, 1); err != nil {
		t.Fatalf("ParkVehicle: %v", err)
	}

	// Simulate a restart: fresh registry, same store.
	restarted := NewParkingService(registry.New(), slots, parkings)
	restarted.Now = func() time.Time { return now }
	if err := restarted.WarmRegistry(ctx); err != nil {
		t.Fatalf("WarmRegistry: %v", err)
	}

	rec, ok := restarted.Registry.Find("3B")
	if !ok || rec.Status != registry.StatusOccupied || rec.Vehicle != "KA01AB1234" {
		t.Fatalf("occupancy not restored: %+v", rec)
	}

	result, err := restarted.ConfirmPayment(ctx, "3B", 1)
	if err != nil {
		t.Fatalf("ConfirmPayment after restart: %v", err)
	}
	if !result.Success || result.Amount != 100 {
		t.Fatalf("unexpected result after restart: %+v", result)
	}
}

func TestReceiptFallsBackToLedger(t *testing.T) {
	now := ts("2024-01-01T12:00")
	svc, slots, parkings := newTestService(now)
	ctx := context.Background()

	if _, err := svc.ParkVehicle(ctx, "4A", "KA01AB1234", ts("2024-01-01T10:00"), nil, 1); err != nil {
		t.Fatalf("ParkVehicle: %v", err)
	}
	if result, err := svc.ConfirmPayment(ctx, "4A", 1); err != nil || !result.Success {
		t.Fatalf("ConfirmPayment: %+v %v", result, err)
	}

	// Slot is free again, so the receipt must come from the ledger.
	fresh := NewParkingService(registry.New(), slots, parkings)
	fresh.Now = func() time.Time { return now }
	receipt, err := fresh.BuildReceipt(ctx, "4A")
	if err != nil {
		t.Fatalf("BuildReceipt: %v", err)
	}
	if !receipt.Paid || receipt.Amount != 100 || receipt.VehicleNumber != "KA01AB1234" {
		t.Fatalf("unexpected ledger receipt: %+v", receipt)
	}

	if _, err := fresh.BuildReceipt(ctx, "9B"); !errors.Is(err, ErrNoReceipt) {
		t.Fatalf("expected ErrNoReceipt, got %v", err)
	}
}
