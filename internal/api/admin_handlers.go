package api

import (
	"encoding/json"
	"log"
	"net/http"

	"parkhub/internal/service"
)

type AdminHandler struct {
	Service *service.AdminService
	Render  *Renderer
}

func NewAdminHandler(svc *service.AdminService, render *Renderer) *AdminHandler {
	return &AdminHandler{Service: svc, Render: render}
}

func (h *AdminHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.DashboardStats(r.Context())
	if err != nil {
		log.Printf("Dashboard: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.Render.Render(w, r, "dashboard.html", stats)
}

// DashboardStats feeds the dashboard's refresh script.
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.DashboardStats(r.Context())
	if err != nil {
		log.Printf("DashboardStats: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Internal server error"})
		return
	}
	resp := DashboardStatsResponse{
		TotalSlots:     stats.TotalSlots,
		Occupied:       stats.Occupied,
		Available:      stats.Available,
		Revenue:        stats.Revenue,
		RecentPayments: make([]RecentPaymentEntry, 0, len(stats.RecentPayments)),
	}
	for _, p := range stats.RecentPayments {
		resp.RecentPayments = append(resp.RecentPayments, RecentPaymentEntry{
			Slot:    p.SlotCode,
			Vehicle: p.VehicleNumber,
			Amount:  p.Amount,
			Time:    p.Time,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
