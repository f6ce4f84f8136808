// Package schedule derives free appointment slots for a dentist from the
// bookings that already occupy their calendar. Matching is by clock hour:
// two bookings inside the same hour on the same date collide regardless of
// their minute offsets.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/dentalbook/dentalbook-api/internal/models"
)

// DefaultSlots is the standard working day: seven one-hour windows with the
// 12:00-13:00 lunch hour skipped.
var DefaultSlots = []models.TimeSlot{
	{Start: "09:00", End: "10:00"},
	{Start: "10:00", End: "11:00"},
	{Start: "11:00", End: "12:00"},
	{Start: "13:00", End: "14:00"},
	{Start: "14:00", End: "15:00"},
	{Start: "15:00", End: "16:00"},
	{Start: "16:00", End: "17:00"},
}

// SlotHour parses the starting hour of a slot like {"09:00","10:00"}.
// Returns -1 for a malformed start time.
func SlotHour(slot models.TimeSlot) int {
	h, _, ok := strings.Cut(slot.Start, ":")
	if !ok {
		return -1
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return -1
	}
	return hour
}

// SameSlot reports whether two instants fall in the same one-hour slot,
// i.e. the same calendar date and the same clock hour.
func SameSlot(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd && a.Hour() == b.Hour()
}

// SlotsFor returns the bookable windows for a date, honoring any per-date
// availability override the dentist has configured.
func SlotsFor(date time.Time, overrides []models.AvailabilityDate) []models.TimeSlot {
	y, m, d := date.UTC().Date()
	for _, o := range overrides {
		oy, om, od := o.Date.UTC().Date()
		if oy == y && om == m && od == d {
			return o.Slots
		}
	}
	return DefaultSlots
}

// FreeSlots filters the given slots down to those not occupied by any of the
// booked instants on the same date as date.
func FreeSlots(date time.Time, slots []models.TimeSlot, booked []time.Time) []models.TimeSlot {
	free := make([]models.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		hour := SlotHour(slot)
		taken := false
		for _, b := range booked {
			if SameSlot(b, date.UTC().Truncate(24*time.Hour).Add(time.Duration(hour)*time.Hour)) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, slot)
		}
	}
	return free
}

// FullyBooked reports whether every slot of the date is occupied. Dates with
// no slots at all (a dentist marked the day off) also count as fully booked.
func FullyBooked(date time.Time, slots []models.TimeSlot, booked []time.Time) bool {
	return len(FreeSlots(date, slots, booked)) == 0
}
