package schedule

import (
	"testing"
	"time"

	"github.com/dentalbook/dentalbook-api/internal/models"
)

func day(hour, minute int) time.Time {
	return time.Date(2025, 9, 1, hour, minute, 0, 0, time.UTC)
}

func TestDefaultSlots_SkipsLunchHour(t *testing.T) {
	if len(DefaultSlots) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(DefaultSlots))
	}
	for _, slot := range DefaultSlots {
		if slot.Start == "12:00" {
			t.Error("12:00-13:00 should not be a bookable slot")
		}
	}
}

func TestSlotHour(t *testing.T) {
	cases := []struct {
		start string
		want  int
	}{
		{"09:00", 9},
		{"16:00", 16},
		{"bogus", -1},
		{"25:00", -1},
		{"", -1},
	}
	for _, tc := range cases {
		got := SlotHour(models.TimeSlot{Start: tc.start, End: ""})
		if got != tc.want {
			t.Errorf("SlotHour(%q) = %d, want %d", tc.start, got, tc.want)
		}
	}
}

func TestSameSlot_HourGranularity(t *testing.T) {
	// Two bookings within the same clock hour collide regardless of minutes.
	if !SameSlot(day(10, 0), day(10, 30)) {
		t.Error("10:00 and 10:30 on the same date should share a slot")
	}
	if SameSlot(day(10, 59), day(11, 0)) {
		t.Error("10:59 and 11:00 are different slots")
	}
	if SameSlot(day(10, 0), day(10, 0).AddDate(0, 0, 1)) {
		t.Error("same hour on different dates is not the same slot")
	}
}

func TestFreeSlots_RemovesBookedHours(t *testing.T) {
	date := day(0, 0)
	booked := []time.Time{day(10, 15), day(14, 45)}

	free := FreeSlots(date, DefaultSlots, booked)
	if len(free) != 5 {
		t.Fatalf("expected 5 free slots, got %d: %v", len(free), free)
	}
	for _, slot := range free {
		if slot.Start == "10:00" || slot.Start == "14:00" {
			t.Errorf("slot %s should be taken", slot.Start)
		}
	}
}

func TestFreeSlots_IgnoresOtherDates(t *testing.T) {
	date := day(0, 0)
	booked := []time.Time{day(10, 0).AddDate(0, 0, 1)}

	free := FreeSlots(date, DefaultSlots, booked)
	if len(free) != len(DefaultSlots) {
		t.Errorf("bookings on other dates should not occupy slots, got %d free", len(free))
	}
}

func TestFullyBooked(t *testing.T) {
	date := day(0, 0)
	var booked []time.Time
	for _, slot := range DefaultSlots {
		booked = append(booked, day(SlotHour(slot), 30))
	}

	if !FullyBooked(date, DefaultSlots, booked) {
		t.Error("all seven slots taken should report fully booked")
	}
	if FullyBooked(date, DefaultSlots, booked[:6]) {
		t.Error("six of seven slots taken should not report fully booked")
	}
}

func TestSlotsFor_UsesOverride(t *testing.T) {
	date := day(0, 0)
	overrides := []models.AvailabilityDate{
		{
			Date:  date,
			Slots: []models.TimeSlot{{Start: "09:00", End: "10:00"}},
		},
		{
			Date:  date.AddDate(0, 0, 1),
			Slots: []models.TimeSlot{{Start: "13:00", End: "14:00"}},
		},
	}

	got := SlotsFor(date, overrides)
	if len(got) != 1 || got[0].Start != "09:00" {
		t.Errorf("expected the override for the date, got %v", got)
	}

	got = SlotsFor(date.AddDate(0, 0, 2), overrides)
	if len(got) != len(DefaultSlots) {
		t.Errorf("dates without an override should use the default grid, got %v", got)
	}
}
