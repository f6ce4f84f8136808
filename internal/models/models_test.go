package models

import (
	"testing"
	"time"
)

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleUser, RoleAdmin, RoleDentist, RoleBanned} {
		if !ValidRole(role) {
			t.Errorf("%s should be a valid role", role)
		}
	}
	if ValidRole("staff") {
		t.Error("unknown role accepted")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []BookingStatus{StatusUpcoming, StatusConfirmed, StatusCompleted, StatusCancelled, StatusBlocked} {
		if !ValidStatus(s) {
			t.Errorf("%s should be a valid status", s)
		}
	}
	if ValidStatus("scheduled") {
		t.Error("unknown status accepted")
	}
}

func TestValidEmail(t *testing.T) {
	for _, ok := range []string{"john@example.com", "a.b+c@sub.domain.co"} {
		if !ValidEmail(ok) {
			t.Errorf("%s should be valid", ok)
		}
	}
	for _, bad := range []string{"not-an-email", "a@b", "a b@c.com", ""} {
		if ValidEmail(bad) {
			t.Errorf("%s should be invalid", bad)
		}
	}
}

func TestValidTelephone(t *testing.T) {
	for _, ok := range []string{"0951341532", "0812345678", "+66912345678", "+14155550123"} {
		if !ValidTelephone(ok) {
			t.Errorf("%s should be valid", ok)
		}
	}
	for _, bad := range []string{"12345", "0112345678", "phone", ""} {
		if ValidTelephone(bad) {
			t.Errorf("%s should be invalid", bad)
		}
	}
}

func TestValidExpertise(t *testing.T) {
	if !ValidExpertise("General Dentistry") {
		t.Error("General Dentistry should be a known area")
	}
	if ValidExpertise("Astrology") {
		t.Error("unknown area accepted")
	}
}

func TestNewResetPasswordToken(t *testing.T) {
	var u User
	token := u.NewResetPasswordToken()
	if token == "" || token != u.ResetPasswordToken {
		t.Error("token should be generated and stored on the user")
	}
	if !u.ResetPasswordExpire.After(time.Now()) {
		t.Error("reset token should expire in the future")
	}
}
