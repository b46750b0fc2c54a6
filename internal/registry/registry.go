package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

type Status string

const (
	StatusFree     Status = "free"
	StatusOccupied Status = "occupied"
)

var (
	ErrUnknownSlot  = errors.New("unknown slot code")
	ErrSlotOccupied = errors.New("slot already occupied")
)

// SlotRecord is the live view of one parking slot for the running process.
type SlotRecord struct {
	Code       string
	Status     Status
	Vehicle    string
	EntryTime  time.Time
	ExitTime   *time.Time
	Paid       bool
	PaidAmount int
	SessionID  int
}

// Registry holds the in-memory occupancy state for all slots. It is a cache of
// the parkings ledger: rebuilt from the store at startup and updated on every
// park/payment write. Safe for concurrent handlers.
type Registry struct {
	mu    sync.RWMutex
	order []string
	slots map[string]*SlotRecord
}

// Codes returns the canonical slot codes: index 1..10 crossed with sub-codes
// A and B. The database seeder uses the same list, so the persisted slots table
// and the registry always agree on the slot set.
func Codes() []string {
	codes := make([]string, 0, 20)
	for i := 1; i <= 10; i++ {
		for _, sub := range []string{"A", "B"} {
			codes = append(codes, fmt.Sprintf("%d%s", i, sub))
		}
	}
	return codes
}

func New() *Registry {
	r := &Registry{slots: make(map[string]*SlotRecord)}
	for _, code := range Codes() {
		r.order = append(r.order, code)
		r.slots[code] = &SlotRecord{Code: code, Status: StatusFree}
	}
	return r
}

// Find returns a copy of the record for code, and whether the code exists.
func (r *Registry) Find(code string) (SlotRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.slots[code]
	if !ok {
		return SlotRecord{}, false
	}
	return *rec, true
}

// Occupy marks a free slot occupied and stores the occupant fields. The
// existing occupant is left untouched when the slot is already taken.
func (r *Registry) Occupy(code, vehicle string, entry time.Time, exit *time.Time, sessionID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.slots[code]
	if !ok {
		return ErrUnknownSlot
	}
	if rec.Status == StatusOccupied {
		return ErrSlotOccupied
	}
	rec.Status = StatusOccupied
	rec.Vehicle = vehicle
	rec.EntryTime = entry
	rec.ExitTime = exit
	rec.Paid = false
	rec.PaidAmount = 0
	rec.SessionID = sessionID
	return nil
}

// Release resets the slot to free and clears every occupant field. Unknown
// codes and already-free slots are no-ops, so Release is idempotent.
func (r *Registry) Release(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.slots[code]
	if !ok {
		return
	}
	*rec = SlotRecord{Code: code, Status: StatusFree}
}

// Reset frees every slot. Used before re-warming the cache from the store.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, rec := range r.slots {
		*rec = SlotRecord{Code: code, Status: StatusFree}
	}
}

func (r *Registry) CountByStatus(status Status) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.slots {
		if rec.Status == status {
			n++
		}
	}
	return n
}

// Snapshot returns copies of all records in canonical code order.
func (r *Registry) Snapshot() []SlotRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SlotRecord, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, *r.slots[code])
	}
	return out
}
