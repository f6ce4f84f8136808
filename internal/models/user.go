package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleDentist = "dentist"
	RoleBanned  = "banned"
)

var (
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[a-zA-Z]{2,}$`)
	telephonePattern = regexp.MustCompile(`^(0[689]\d{8}|\+?[1-9]\d{1,14})$`)
)

type User struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name                string              `bson:"name" json:"name"`
	Email               string              `bson:"email" json:"email"`
	Telephone           string              `bson:"telephone" json:"telephone"`
	Role                string              `bson:"role" json:"role"`
	DentistID           *primitive.ObjectID `bson:"dentist_id,omitempty" json:"dentist_id,omitempty"`
	Password            string              `bson:"password" json:"-"`
	ResetPasswordToken  string              `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpire time.Time           `bson:"resetPasswordExpire,omitempty" json:"-"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleDentist, RoleBanned:
		return true
	}
	return false
}

// ValidEmail reports whether the address has a plausible mailbox format.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidTelephone accepts Thai local numbers (06/08/09 prefixes) or
// international E.164 numbers.
func ValidTelephone(tel string) bool {
	return telephonePattern.MatchString(tel)
}

// NewResetPasswordToken generates and stores a reset token valid for ten
// minutes, returning the token so it can be mailed to the user.
func (u *User) NewResetPasswordToken() string {
	u.ResetPasswordToken = uuid.NewString()
	u.ResetPasswordExpire = time.Now().Add(10 * time.Minute)
	return u.ResetPasswordToken
}
