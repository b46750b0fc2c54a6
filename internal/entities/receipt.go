package entities

import "time"

// Receipt is the computed summary for a slot's current or most recent session.
type Receipt struct {
	VehicleNumber string    `json:"vehicle_number"`
	SlotCode      string    `json:"slot"`
	EntryTime     time.Time `json:"entry_time"`
	ExitTime      time.Time `json:"exit_time"`
	Hours         int       `json:"hours"`
	Amount        int       `json:"amount"`
	Paid          bool      `json:"paid"`
}

// PaymentResult reports the outcome of a payment confirmation. A business miss
// (no session, or already paid) is a failed result, not an error.
type PaymentResult struct {
	Success       bool   `json:"success"`
	Amount        int    `json:"amount,omitempty"`
	SlotCode      string `json:"slot,omitempty"`
	VehicleNumber string `json:"vehicle,omitempty"`
	Message       string `json:"message"`
}
