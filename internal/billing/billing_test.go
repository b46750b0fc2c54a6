package billing

import (
	"testing"
	"time"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", "2024-01-01T"+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeFeeMinimumOneHour(t *testing.T) {
	cases := []struct {
		name  string
		entry time.Time
		exit  time.Time
	}{
		{"half hour", at("10:00"), at("10:30")},
		{"one minute", at("10:00"), at("10:01")},
		{"zero duration", at("10:00"), at("10:00")},
		{"exit before entry", at("10:00"), at("09:00")},
	}
	for _, c := range cases {
		if got := ComputeFee(c.entry, c.exit); got != HourlyRate {
			t.Fatalf("%s: expected %d, got %d", c.name, HourlyRate, got)
		}
	}
}

func TestComputeFeeFloorsPartialHours(t *testing.T) {
	cases := []struct {
		name   string
		entry  time.Time
		exit   time.Time
		amount int
	}{
		{"exactly one hour", at("10:00"), at("11:00"), 50},
		{"hour and a half", at("10:00"), at("11:30"), 50},
		{"exactly two hours", at("10:00"), at("12:00"), 100},
		{"three hours five minutes", at("10:00"), at("13:05"), 150},
		{"just under four hours", at("10:00"), at("13:59"), 150},
	}
	for _, c := range cases {
		if got := ComputeFee(c.entry, c.exit); got != c.amount {
			t.Fatalf("%s: expected %d, got %d", c.name, c.amount, got)
		}
	}
}

func TestBillableHoursMatchesFee(t *testing.T) {
	entry, exit := at("08:00"), at("12:45")
	if h := BillableHours(entry, exit); h != 4 {
		t.Fatalf("expected 4 billable hours, got %d", h)
	}
	if f := ComputeFee(entry, exit); f != 4*HourlyRate {
		t.Fatalf("expected fee %d, got %d", 4*HourlyRate, f)
	}
}
