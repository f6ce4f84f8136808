package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dentalbook/dentalbook-api/internal/middleware"
	"github.com/dentalbook/dentalbook-api/internal/models"
)

func TestBookingListFilter_DentistScope(t *testing.T) {
	dentistID := primitive.NewObjectID()
	p := middleware.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleDentist, DentistID: dentistID.Hex()}

	filter, err := bookingListFilter(p, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if filter["dentist"] != dentistID {
		t.Errorf("dentist should only see their bookings, filter = %v", filter)
	}
	if _, ok := filter["user"]; ok {
		t.Error("dentist scope should not filter by user")
	}
}

func TestBookingListFilter_DentistWithoutProfile(t *testing.T) {
	p := middleware.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleDentist}
	if _, err := bookingListFilter(p, "", ""); err == nil {
		t.Error("a dentist token without dentist_id should be rejected")
	}
}

func TestBookingListFilter_UserScope(t *testing.T) {
	userID := primitive.NewObjectID()
	p := middleware.Principal{ID: userID.Hex(), Role: models.RoleUser}

	filter, err := bookingListFilter(p, "", "upcoming")
	if err != nil {
		t.Fatal(err)
	}
	if filter["user"] != userID {
		t.Errorf("user should only see their bookings, filter = %v", filter)
	}
	if filter["status"] != "upcoming" {
		t.Errorf("status filter lost, filter = %v", filter)
	}
}

func TestBookingListFilter_AdminScope(t *testing.T) {
	p := middleware.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}

	filter, err := bookingListFilter(p, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(filter) != 0 {
		t.Errorf("admin should see everything, filter = %v", filter)
	}

	dentistID := primitive.NewObjectID()
	filter, err = bookingListFilter(p, dentistID.Hex(), "")
	if err != nil {
		t.Fatal(err)
	}
	if filter["dentist"] != dentistID {
		t.Errorf("admin dentist narrowing lost, filter = %v", filter)
	}

	if _, err := bookingListFilter(p, "not-an-id", ""); err == nil {
		t.Error("a malformed dentist id should be rejected")
	}
}

func TestCanModifyBooking(t *testing.T) {
	owner := primitive.NewObjectID()
	dentist := primitive.NewObjectID()
	booking := &models.Booking{User: owner, Dentist: dentist, Status: models.StatusUpcoming}

	cases := []struct {
		name string
		p    middleware.Principal
		want bool
	}{
		{"owner", middleware.Principal{ID: owner.Hex(), Role: models.RoleUser}, true},
		{"admin", middleware.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}, true},
		{"assigned dentist", middleware.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleDentist, DentistID: dentist.Hex()}, true},
		{"other dentist", middleware.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleDentist, DentistID: primitive.NewObjectID().Hex()}, false},
		{"other user", middleware.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleUser}, false},
	}
	for _, tc := range cases {
		if got := canModifyBooking(tc.p, booking); got != tc.want {
			t.Errorf("%s: canModifyBooking = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestInitialStatus(t *testing.T) {
	cases := []struct {
		name      string
		requested models.BookingStatus
		role      string
		want      models.BookingStatus
		wantErr   error
	}{
		{"default upcoming", "", models.RoleUser, models.StatusUpcoming, nil},
		{"explicit upcoming", models.StatusUpcoming, models.RoleUser, models.StatusUpcoming, nil},
		{"admin blocks", models.StatusBlocked, models.RoleAdmin, models.StatusBlocked, nil},
		{"dentist blocks", models.StatusBlocked, models.RoleDentist, models.StatusBlocked, nil},
		{"user cannot block", models.StatusBlocked, models.RoleUser, "", errBlockedNotAllowed},
		{"cannot start confirmed", models.StatusConfirmed, models.RoleAdmin, "", errBadInitialStatus},
		{"cannot start completed", models.StatusCompleted, models.RoleUser, "", errBadInitialStatus},
	}
	for _, tc := range cases {
		got, err := initialStatus(tc.requested, tc.role)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("%s: status = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExceedsBookingLimit(t *testing.T) {
	cases := []struct {
		name     string
		role     string
		upcoming int64
		want     bool
	}{
		{"first booking allowed", models.RoleUser, 0, false},
		{"second booking denied", models.RoleUser, 1, true},
		{"stale extras still denied", models.RoleUser, 3, true},
		{"admin exempt", models.RoleAdmin, 5, false},
		{"dentist exempt", models.RoleDentist, 5, false},
	}
	for _, tc := range cases {
		if got := exceedsBookingLimit(tc.role, tc.upcoming); got != tc.want {
			t.Errorf("%s: exceedsBookingLimit(%q, %d) = %v, want %v", tc.name, tc.role, tc.upcoming, got, tc.want)
		}
	}
}

func TestSlotConflict(t *testing.T) {
	occupied := []time.Time{
		time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 1, 14, 0, 0, 0, time.UTC),
	}

	// Any instant inside an occupied clock hour collides.
	if !slotConflict(occupied, time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)) {
		t.Error("an instant in an occupied hour should conflict")
	}
	if !slotConflict(occupied, time.Date(2025, 9, 1, 14, 0, 0, 0, time.UTC)) {
		t.Error("the exact occupied instant should conflict")
	}
	if slotConflict(occupied, time.Date(2025, 9, 1, 11, 0, 0, 0, time.UTC)) {
		t.Error("a free hour of the same day should not conflict")
	}
	if slotConflict(occupied, time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)) {
		t.Error("the same hour on another day should not conflict")
	}
	if slotConflict(nil, time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)) {
		t.Error("no occupied slots means no conflict")
	}
}

func TestDeleteBooking_NonAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{}

	for _, role := range []string{models.RoleUser, models.RoleDentist, models.RoleBanned} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/x", nil)
		c.Params = gin.Params{{Key: "id", Value: primitive.NewObjectID().Hex()}}
		c.Set("userID", primitive.NewObjectID().Hex())
		c.Set("userRole", role)

		h.DeleteBooking(c)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("role %s: status = %d, want %d", role, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestJoinDentistSummaries(t *testing.T) {
	known := primitive.NewObjectID()
	gone := primitive.NewObjectID()
	bookings := []models.Booking{
		{ID: primitive.NewObjectID(), Dentist: known, User: primitive.NewObjectID(), Status: models.StatusUpcoming},
		{ID: primitive.NewObjectID(), Dentist: gone, User: primitive.NewObjectID(), Status: models.StatusConfirmed},
	}
	dentists := map[primitive.ObjectID]dentistSummary{
		known: {ID: known, Name: "Dr. A", YearExperience: 12, AreaExpertise: []string{"Orthodontics"}},
	}

	views := joinDentistSummaries(bookings, dentists)
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}

	d, ok := views[0].Dentist.(dentistSummary)
	if !ok {
		t.Fatalf("known dentist should be expanded, got %T", views[0].Dentist)
	}
	if d.Name != "Dr. A" || d.YearExperience != 12 {
		t.Errorf("dentist fields lost: %+v", d)
	}

	if id, ok := views[1].Dentist.(primitive.ObjectID); !ok || id != gone {
		t.Errorf("missing dentist should keep the raw id, got %v", views[1].Dentist)
	}
}

func TestCanEditExpertise(t *testing.T) {
	dentistID := primitive.NewObjectID().Hex()

	if !canEditExpertise(middleware.Principal{Role: models.RoleAdmin}, dentistID) {
		t.Error("admin may edit any expertise")
	}
	if !canEditExpertise(middleware.Principal{Role: models.RoleDentist, DentistID: dentistID}, dentistID) {
		t.Error("a dentist may edit their own expertise")
	}
	if canEditExpertise(middleware.Principal{Role: models.RoleDentist, DentistID: primitive.NewObjectID().Hex()}, dentistID) {
		t.Error("a dentist may not edit another dentist's expertise")
	}
	if canEditExpertise(middleware.Principal{Role: models.RoleUser, DentistID: dentistID}, dentistID) {
		t.Error("a regular user may not edit expertise")
	}
}
