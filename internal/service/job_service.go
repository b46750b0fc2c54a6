package service

import (
	"context"
	"log"
	"time"
)

// JobService runs the periodic maintenance work scheduled by cron.
type JobService struct {
	Parking *ParkingService
}

func NewJobService(parking *ParkingService) *JobService {
	return &JobService{Parking: parking}
}

// ReconcileRegistry re-warms the slot registry from the ledger so the cache
// cannot drift from the store in a long-running process.
func (s *JobService) ReconcileRegistry() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Parking.WarmRegistry(ctx); err != nil {
		log.Printf("Cron Job: registry reconciliation failed: %v", err)
		return
	}
	log.Println("Cron Job: slot registry reconciled with the session ledger")
}
