package service

import (
	"context"

	"parkhub/internal/entities"
	"parkhub/internal/registry"
	"parkhub/internal/repository"
)

// AdminService computes the dashboard statistics. Revenue comes from the
// ledger only: the registry never carries paid amounts past Release, so there
// is nothing to double count.
type AdminService struct {
	Registry *registry.Registry
	Slots    repository.SlotRepository
	Parkings repository.ParkingRepository
}

func NewAdminService(reg *registry.Registry, slots repository.SlotRepository, parkings repository.ParkingRepository) *AdminService {
	return &AdminService{Registry: reg, Slots: slots, Parkings: parkings}
}

func (s *AdminService) DashboardStats(ctx context.Context) (*entities.DashboardStats, error) {
	total, err := s.Slots.Count(ctx)
	if err != nil {
		return nil, err
	}
	occupied := s.Registry.CountByStatus(registry.StatusOccupied)

	revenue, err := s.Parkings.SumPaidAmount(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.Parkings.RecentPaid(ctx, 5)
	if err != nil {
		return nil, err
	}
	events := make([]entities.PaymentEvent, 0, len(recent))
	for _, session := range recent {
		event := entities.PaymentEvent{
			SlotCode:      session.SlotCode,
			VehicleNumber: session.VehicleNumber,
			Amount:        session.PaidAmount,
		}
		if session.ExitTime != nil {
			event.Time = session.ExitTime.Format("15:04")
		}
		events = append(events, event)
	}

	return &entities.DashboardStats{
		TotalSlots:     total,
		Occupied:       occupied,
		Available:      total - occupied,
		Revenue:        revenue,
		RecentPayments: events,
	}, nil
}
