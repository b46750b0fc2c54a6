package db

import "time"

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

const (
	SlotFree     = "free"
	SlotOccupied = "occupied"
)

type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Phone        string
	CreatedAt    time.Time
}

type Slot struct {
	ID        int
	Code      string
	Status    string
	CreatedAt time.Time
}

// ParkingSession is one row of the parkings ledger: a vehicle occupying a slot
// from entry until paid exit. Rows are inserted on park and updated on
// receipt/payment, never deleted.
type ParkingSession struct {
	ID            int
	VehicleNumber string
	SlotCode      string
	UserID        int
	EntryTime     time.Time
	ExitTime      *time.Time
	Paid          bool
	PaidAmount    int
	CreatedAt     time.Time
}
