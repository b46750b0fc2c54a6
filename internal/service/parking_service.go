package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"parkhub/internal/billing"
	"parkhub/internal/db"
	"parkhub/internal/entities"
	"parkhub/internal/registry"
	"parkhub/internal/repository"
)

var (
	ErrInvalidSlot  = errors.New("invalid slot selected")
	ErrSlotOccupied = errors.New("slot is already occupied")
	ErrNoReceipt    = errors.New("no receipt found for this slot")
)

// ParkingService bridges the live slot registry and the parkings ledger. The
// ledger is the source of truth; the registry is a cache updated on every
// write and rebuilt from the ledger via WarmRegistry.
type ParkingService struct {
	Registry *registry.Registry
	Slots    repository.SlotRepository
	Parkings repository.ParkingRepository

	// Now is the clock used wherever an exit time must be substituted.
	Now func() time.Time
}

func NewParkingService(reg *registry.Registry, slots repository.SlotRepository, parkings repository.ParkingRepository) *ParkingService {
	return &ParkingService{
		Registry: reg,
		Slots:    slots,
		Parkings: parkings,
		Now:      time.Now,
	}
}

// WarmRegistry rebuilds the registry from the latest unpaid session per slot,
// so occupancy survives a restart. Slot codes in the ledger that the registry
// does not know are logged and skipped.
func (s *ParkingService) WarmRegistry(ctx context.Context) error {
	sessions, err := s.Parkings.OpenSessions(ctx)
	if err != nil {
		return fmt.Errorf("warming slot registry: %w", err)
	}
	s.Registry.Reset()
	for _, session := range sessions {
		err := s.Registry.Occupy(session.SlotCode, session.VehicleNumber,
			session.EntryTime, session.ExitTime, session.ID)
		if err != nil {
			log.Printf("warm registry: skipping session %d on slot %s: %v",
				session.ID, session.SlotCode, err)
		}
	}
	return nil
}

// ParkVehicle opens a parking session: validates the slot through the
// registry, appends the ledger row, then mirrors the occupancy in the registry
// and the slots table.
func (s *ParkingService) ParkVehicle(ctx context.Context, slotCode, vehicleNumber string, entry time.Time, exit *time.Time, userID int) (*db.ParkingSession, error) {
	rec, ok := s.Registry.Find(slotCode)
	if !ok {
		return nil, ErrInvalidSlot
	}
	if rec.Status == registry.StatusOccupied {
		return nil, ErrSlotOccupied
	}

	session := &db.ParkingSession{
		VehicleNumber: vehicleNumber,
		SlotCode:      slotCode,
		UserID:        userID,
		EntryTime:     entry,
		ExitTime:      exit,
	}
	if err := s.Parkings.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.Registry.Occupy(slotCode, vehicleNumber, entry, exit, session.ID); err != nil {
		// Lost a race for the slot after the row was written. The row stays in
		// the ledger unpaid; the next warm-up or payment resolves it.
		return nil, ErrSlotOccupied
	}
	if err := s.Slots.UpdateStatus(ctx, slotCode, db.SlotOccupied); err != nil {
		log.Printf("park: could not mark slot %s occupied in store: %v", slotCode, err)
	}
	return session, nil
}

// BuildReceipt computes the receipt for a slot's current session, falling back
// to the most recent ledger row when the registry has no live entry.
func (s *ParkingService) BuildReceipt(ctx context.Context, slotCode string) (*entities.Receipt, error) {
	if rec, ok := s.Registry.Find(slotCode); ok && rec.Status == registry.StatusOccupied {
		exit := s.Now()
		if rec.ExitTime != nil {
			exit = *rec.ExitTime
		}
		hours, amount := s.bill(rec.EntryTime, exit)

		// Best effort: keep the ledger row current so the receipt survives a
		// restart. Failures are logged, the receipt is still served.
		if rec.SessionID != 0 {
			if err := s.Parkings.SetExitAndAmount(ctx, rec.SessionID, exit, amount); err != nil {
				log.Printf("receipt: could not update session %d: %v", rec.SessionID, err)
			}
		}
		return &entities.Receipt{
			VehicleNumber: rec.Vehicle,
			SlotCode:      slotCode,
			EntryTime:     rec.EntryTime,
			ExitTime:      exit,
			Hours:         hours,
			Amount:        amount,
			Paid:          rec.Paid,
		}, nil
	}

	session, err := s.Parkings.LatestBySlot(ctx, slotCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoReceipt
		}
		return nil, err
	}
	exit := s.Now()
	if session.ExitTime != nil {
		exit = *session.ExitTime
	}
	hours, _ := s.bill(session.EntryTime, exit)
	return &entities.Receipt{
		VehicleNumber: session.VehicleNumber,
		SlotCode:      slotCode,
		EntryTime:     session.EntryTime,
		ExitTime:      exit,
		Hours:         hours,
		Amount:        session.PaidAmount,
		Paid:          session.Paid,
	}, nil
}

// ConfirmPayment settles the slot's session and frees the slot. Missing or
// already-paid sessions produce a failed result, not an error; only store
// failures are returned as errors.
func (s *ParkingService) ConfirmPayment(ctx context.Context, slotCode string, userID int) (entities.PaymentResult, error) {
	if rec, ok := s.Registry.Find(slotCode); ok && rec.Status == registry.StatusOccupied {
		exit := s.Now()
		if rec.ExitTime != nil {
			exit = *rec.ExitTime
		}
		_, amount := s.bill(rec.EntryTime, exit)

		if rec.SessionID != 0 {
			if err := s.Parkings.MarkPaid(ctx, rec.SessionID, exit, amount); err != nil {
				return entities.PaymentResult{}, err
			}
		} else {
			// Registry entry with no linked row (should not happen since rows
			// are written before occupancy): record the payment anyway.
			session := &db.ParkingSession{
				VehicleNumber: rec.Vehicle,
				SlotCode:      slotCode,
				UserID:        userID,
				EntryTime:     rec.EntryTime,
				ExitTime:      &exit,
				Paid:          true,
				PaidAmount:    amount,
			}
			if err := s.Parkings.Create(ctx, session); err != nil {
				return entities.PaymentResult{}, err
			}
		}

		s.Registry.Release(slotCode)
		if err := s.Slots.UpdateStatus(ctx, slotCode, db.SlotFree); err != nil {
			log.Printf("payment: could not mark slot %s free in store: %v", slotCode, err)
		}
		return entities.PaymentResult{
			Success:       true,
			Amount:        amount,
			SlotCode:      slotCode,
			VehicleNumber: rec.Vehicle,
			Message:       fmt.Sprintf("Payment confirmed and slot %s is now free", slotCode),
		}, nil
	}

	// No live entry: settle the latest ledger row if it is still unpaid.
	session, err := s.Parkings.LatestBySlot(ctx, slotCode)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return entities.PaymentResult{}, err
	}
	if err != nil || session.Paid {
		return entities.PaymentResult{
			Success: false,
			Message: "Slot not found or already paid",
		}, nil
	}

	exit := s.Now()
	if session.ExitTime != nil {
		exit = *session.ExitTime
	}
	_, amount := s.bill(session.EntryTime, exit)
	if err := s.Parkings.MarkPaid(ctx, session.ID, exit, amount); err != nil {
		return entities.PaymentResult{}, err
	}
	if err := s.Slots.UpdateStatus(ctx, slotCode, db.SlotFree); err != nil {
		log.Printf("payment: could not mark slot %s free in store: %v", slotCode, err)
	}
	return entities.PaymentResult{
		Success:       true,
		Amount:        amount,
		SlotCode:      slotCode,
		VehicleNumber: session.VehicleNumber,
		Message:       "Payment confirmed",
	}, nil
}

// SlotSnapshot exposes the registry view for the park page.
func (s *ParkingService) SlotSnapshot() []registry.SlotRecord {
	return s.Registry.Snapshot()
}

// bill applies the one documented quirk the engine itself does not handle: a
// session with no entry time bills a single hour.
func (s *ParkingService) bill(entry, exit time.Time) (hours, amount int) {
	if entry.IsZero() {
		return 1, billing.HourlyRate
	}
	hours = billing.BillableHours(entry, exit)
	return hours, hours * billing.HourlyRate
}
