package entities

type PaymentEvent struct {
	SlotCode      string `json:"slot"`
	VehicleNumber string `json:"vehicle"`
	Amount        int    `json:"amount"`
	Time          string `json:"time"`
}

type DashboardStats struct {
	TotalSlots     int            `json:"total_slots"`
	Occupied       int            `json:"occupied"`
	Available      int            `json:"available"`
	Revenue        int            `json:"revenue"`
	RecentPayments []PaymentEvent `json:"recent_payments,omitempty"`
}
