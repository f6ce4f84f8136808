package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus tracks where an appointment is in its life.
type BookingStatus string

const (
	StatusUpcoming  BookingStatus = "upcoming"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	// StatusBlocked reserves a slot administratively. Blocked records have
	// no real patient semantics and never transition.
	StatusBlocked BookingStatus = "blocked"
)

// ValidStatus reports whether s is one of the known booking statuses.
func ValidStatus(s BookingStatus) bool {
	switch s {
	case StatusUpcoming, StatusConfirmed, StatusCompleted, StatusCancelled, StatusBlocked:
		return true
	}
	return false
}

// OccupyingStatuses are the statuses that count against slot availability.
// Completed and cancelled bookings describe the past or a freed slot.
var OccupyingStatuses = []BookingStatus{StatusUpcoming, StatusConfirmed, StatusBlocked}

type Booking struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	BookingDate     time.Time          `bson:"bookingDate" json:"bookingDate"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	Dentist         primitive.ObjectID `bson:"dentist" json:"dentist"`
	Status          BookingStatus      `bson:"status" json:"status"`
	TreatmentDetail string             `bson:"treatmentDetail,omitempty" json:"treatmentDetail,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
