package api

// Dashboard stats
type DashboardStatsResponse struct {
	TotalSlots     int                  `json:"total_slots"`
	Occupied       int                  `json:"occupied"`
	Available      int                  `json:"available"`
	Revenue        int                  `json:"revenue"`
	RecentPayments []RecentPaymentEntry `json:"recent_payments"`
}

type RecentPaymentEntry struct {
	Slot    string `json:"slot"`
	Vehicle string `json:"vehicle"`
	Amount  int    `json:"amount"`
	Time    string `json:"time"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
