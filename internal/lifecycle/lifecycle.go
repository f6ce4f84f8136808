package lifecycle

import (
	"fmt"

	"github.com/dentalbook/dentalbook-api/internal/models"
)

// Transition defines a valid booking status change.
type Transition struct {
	From models.BookingStatus
	To   models.BookingStatus
}

// validTransitions is the authoritative lifecycle definition. Completed,
// cancelled and blocked are terminal: blocked records are created directly in
// that status and deleted rather than transitioned.
var validTransitions = []Transition{
	{From: models.StatusUpcoming, To: models.StatusConfirmed},
	{From: models.StatusUpcoming, To: models.StatusCancelled},
	{From: models.StatusUpcoming, To: models.StatusCompleted},
	{From: models.StatusConfirmed, To: models.StatusCancelled},
	{From: models.StatusConfirmed, To: models.StatusCompleted},
}

var transitionMap = func() map[Transition]bool {
	m := make(map[Transition]bool)
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

// ValidTransitionsFrom returns all statuses reachable from the given one.
func ValidTransitionsFrom(status models.BookingStatus) []models.BookingStatus {
	var nexts []models.BookingStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks whether a booking may move between two statuses.
func CanTransition(from, to models.BookingStatus) error {
	if from == to {
		return nil
	}
	if transitionMap[Transition{From: from, To: to}] {
		return nil
	}
	return fmt.Errorf("invalid transition: a %s booking cannot become %s (valid next statuses: %s)",
		from, to, describeValidFrom(from))
}

// CanConfirm gates the public confirmation link: only an upcoming booking
// may be confirmed, and the error reports the current status so the caller
// can tell an already-confirmed booking from a cancelled one.
func CanConfirm(current models.BookingStatus) error {
	if current == models.StatusUpcoming {
		return nil
	}
	return fmt.Errorf("booking is already %s; only upcoming bookings can be confirmed", current)
}

func describeValidFrom(status models.BookingStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal status)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}
