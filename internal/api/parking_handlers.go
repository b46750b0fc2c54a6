package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"parkhub/internal/auth"
	"parkhub/internal/entities"
	"parkhub/internal/registry"
	"parkhub/internal/repository"
	"parkhub/internal/service"
)

// entryTimeLayout matches the value of an HTML datetime-local input.
const entryTimeLayout = "2006-01-02T15:04"

type ParkingHandler struct {
	Service *service.ParkingService
	Users   repository.UserRepository
	Sender  *service.SenderService
	Render  *Renderer
}

func NewParkingHandler(svc *service.ParkingService, users repository.UserRepository, sender *service.SenderService, render *Renderer) *ParkingHandler {
	return &ParkingHandler{
		Service: svc,
		Users:   users,
		Sender:  sender,
		Render:  render,
	}
}

type parkPageData struct {
	Slots []registry.SlotRecord
}

func (h *ParkingHandler) ParkPage(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, r, "park.html", parkPageData{Slots: h.Service.SlotSnapshot()})
}

func (h *ParkingHandler) Park(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	slotCode := r.FormValue("slot_code")
	vehicleNumber := strings.ToUpper(strings.TrimSpace(r.FormValue("vehicle_number")))
	if slotCode == "" || vehicleNumber == "" {
		SetFlash(w, "Slot and vehicle number are required")
		http.Redirect(w, r, "/park", http.StatusSeeOther)
		return
	}

	entry, err := time.Parse(entryTimeLayout, r.FormValue("entry_time"))
	if err != nil {
		SetFlash(w, "Entry time is not valid")
		http.Redirect(w, r, "/park", http.StatusSeeOther)
		return
	}
	var exit *time.Time
	if raw := r.FormValue("exit_time"); raw != "" {
		parsed, err := time.Parse(entryTimeLayout, raw)
		if err != nil {
			SetFlash(w, "Exit time is not valid")
			http.Redirect(w, r, "/park", http.StatusSeeOther)
			return
		}
		exit = &parsed
	}

	session, _ := auth.SessionFromContext(r.Context())
	_, err = h.Service.ParkVehicle(r.Context(), slotCode, vehicleNumber, entry, exit, session.UserID)
	switch {
	case errors.Is(err, service.ErrInvalidSlot):
		SetFlash(w, "Unknown slot "+slotCode)
		http.Redirect(w, r, "/park", http.StatusSeeOther)
	case errors.Is(err, service.ErrSlotOccupied):
		SetFlash(w, "Slot "+slotCode+" is already occupied")
		http.Redirect(w, r, "/park", http.StatusSeeOther)
	case err != nil:
		log.Printf("Park: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	default:
		http.Redirect(w, r, "/receipt_by_slot/"+slotCode, http.StatusSeeOther)
	}
}

func (h *ParkingHandler) ReceiptPage(w http.ResponseWriter, r *http.Request) {
	slotCode := mux.Vars(r)["slot_code"]
	receipt, err := h.Service.BuildReceipt(r.Context(), slotCode)
	if errors.Is(err, service.ErrNoReceipt) {
		SetFlash(w, "No parking record for slot "+slotCode)
		http.Redirect(w, r, "/park", http.StatusSeeOther)
		return
	}
	if err != nil {
		log.Printf("Receipt: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.Render.Render(w, r, "receipt.html", receipt)
}

// ConfirmPayment settles the slot's session and answers JSON for the receipt
// page script. A business miss is a success:false body, not an error status.
func (h *ParkingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	slotCode := mux.Vars(r)["slot_code"]
	session, _ := auth.SessionFromContext(r.Context())

	result, err := h.Service.ConfirmPayment(r.Context(), slotCode, session.UserID)
	if err != nil {
		log.Printf("ConfirmPayment: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(entities.PaymentResult{
			Success: false,
			Message: "Internal server error",
		})
		return
	}
	if result.Success {
		if user, err := h.Users.FindByID(r.Context(), session.UserID); err == nil {
			h.Sender.SendPaymentReceipt(user, result)
		} else {
			log.Printf("ConfirmPayment: loading user %d for notification: %v", session.UserID, err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
