package billing

import "time"

// HourlyRate is the flat parking fee per billed hour, in currency-agnostic units.
const HourlyRate = 50

// BillableHours converts an entry/exit pair into whole billed hours: elapsed
// time is floor-divided into hours and clamped to a minimum of one, so any stay
// under an hour (or a zero/negative duration) bills exactly one hour. A started
// hour beyond the first is not billed until it completes.
func BillableHours(entry, exit time.Time) int {
	hours := int(exit.Sub(entry) / time.Hour)
	if hours < 1 {
		return 1
	}
	return hours
}

// ComputeFee returns the fee for the stay. It never reads the wall clock: when
// the vehicle has not exited yet the caller substitutes "now" for exit.
func ComputeFee(entry, exit time.Time) int {
	return BillableHours(entry, exit) * HourlyRate
}
