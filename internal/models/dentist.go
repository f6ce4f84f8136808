package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExpertiseAreas is the fixed set of practice areas a dentist can list.
var ExpertiseAreas = []string{
	"Orthodontics",
	"Endodontics",
	"Prosthodontics",
	"Pediatric Dentistry",
	"Oral Surgery",
	"Periodontics",
	"Cosmetic Dentistry",
	"General Dentistry",
	"Implant Dentistry",
}

// ValidExpertise reports whether area is one of the known practice areas.
func ValidExpertise(area string) bool {
	for _, a := range ExpertiseAreas {
		if a == area {
			return true
		}
	}
	return false
}

// Rating is a single user review embedded in a dentist document. A user
// holds at most one rating per dentist.
type Rating struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	Rating    int                `bson:"rating" json:"rating"`
	Review    string             `bson:"review,omitempty" json:"review,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TimeSlot is a bookable window within a day, e.g. {"09:00", "10:00"}.
type TimeSlot struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// AvailabilityDate overrides the default slot grid for one calendar date.
type AvailabilityDate struct {
	Date  time.Time  `bson:"date" json:"date"`
	Slots []TimeSlot `bson:"slots" json:"slots"`
}

type Dentist struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name           string             `bson:"name" json:"name"`
	YearExperience int                `bson:"year_experience" json:"year_experience"`
	AreaExpertise  []string           `bson:"area_expertise" json:"area_expertise"`
	Picture        string             `bson:"picture,omitempty" json:"picture,omitempty"`
	StartingPrice  float64            `bson:"StartingPrice" json:"StartingPrice"`
	Rating         []Rating           `bson:"rating" json:"rating"`
	Availability   []AvailabilityDate `bson:"availability,omitempty" json:"availability,omitempty"`
}
