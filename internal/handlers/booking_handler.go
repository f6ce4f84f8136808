package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dentalbook/dentalbook-api/internal/lifecycle"
	"github.com/dentalbook/dentalbook-api/internal/middleware"
	"github.com/dentalbook/dentalbook-api/internal/models"
	"github.com/dentalbook/dentalbook-api/internal/schedule"
)

// bookingListFilter scopes a booking listing to what the principal may see:
// a dentist sees their own bookings, a regular user theirs, an admin all of
// them (optionally narrowed to one dentist via the nested route). Any role
// may additionally filter by an exact status.
func bookingListFilter(p middleware.Principal, dentistIDParam, status string) (bson.M, error) {
	filter := bson.M{}

	switch {
	case p.Role == models.RoleDentist:
		dentistID, err := primitive.ObjectIDFromHex(p.DentistID)
		if err != nil {
			return nil, errors.New("dentist account has no valid dentist_id")
		}
		filter["dentist"] = dentistID
	case p.Role != models.RoleAdmin:
		userID, err := primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return nil, errors.New("invalid user ID in token")
		}
		filter["user"] = userID
	default:
		if dentistIDParam != "" {
			dentistID, err := primitive.ObjectIDFromHex(dentistIDParam)
			if err != nil {
				return nil, errors.New("invalid dentist ID")
			}
			filter["dentist"] = dentistID
		}
	}

	if status != "" {
		filter["status"] = status
	}
	return filter, nil
}

// canModifyBooking reports whether the principal may update the booking:
// its owner, the assigned dentist, or an admin.
func canModifyBooking(p middleware.Principal, booking *models.Booking) bool {
	if p.Role == models.RoleAdmin {
		return true
	}
	if p.Role == models.RoleDentist && p.DentistID == booking.Dentist.Hex() {
		return true
	}
	return p.ID == booking.User.Hex()
}

var (
	errBlockedNotAllowed = errors.New("Only admins and dentists can block a slot")
	errBadInitialStatus  = errors.New("New bookings must start as upcoming or blocked")
)

// initialStatus resolves the starting status of a new booking. An empty
// request means upcoming; blocked is reserved to admins and dentists; no
// other status is a legal starting point.
func initialStatus(requested models.BookingStatus, role string) (models.BookingStatus, error) {
	if requested == "" {
		requested = models.StatusUpcoming
	}
	switch requested {
	case models.StatusUpcoming:
		return requested, nil
	case models.StatusBlocked:
		if role != models.RoleAdmin && role != models.RoleDentist {
			return "", errBlockedNotAllowed
		}
		return requested, nil
	default:
		return "", errBadInitialStatus
	}
}

// exceedsBookingLimit reports whether another booking would break the
// one-upcoming-booking rule. Admins and dentists are exempt.
func exceedsBookingLimit(role string, upcoming int64) bool {
	if role == models.RoleAdmin || role == models.RoleDentist {
		return false
	}
	return upcoming >= 1
}

// slotConflict reports whether the requested instant lands in the same hour
// slot as any of the given booking dates.
func slotConflict(occupied []time.Time, at time.Time) bool {
	for _, booked := range occupied {
		if schedule.SameSlot(booked, at) {
			return true
		}
	}
	return false
}

// dentistSummary is the slice of a dentist document embedded in booking
// responses.
type dentistSummary struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	Name           string             `bson:"name" json:"name"`
	YearExperience int                `bson:"year_experience" json:"year_experience"`
	AreaExpertise  []string           `bson:"area_expertise" json:"area_expertise"`
}

// bookingView is a booking with its dentist (and, on single reads, its
// user) expanded into the referenced documents' key fields.
type bookingView struct {
	ID              primitive.ObjectID   `json:"_id"`
	BookingDate     time.Time            `json:"bookingDate"`
	User            interface{}          `json:"user"`
	Dentist         interface{}          `json:"dentist"`
	Status          models.BookingStatus `json:"status"`
	TreatmentDetail string               `json:"treatmentDetail,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// joinDentistSummaries expands each booking's dentist reference using the
// given lookup. A dentist missing from the lookup (deleted out from under
// the booking) leaves the raw id in place.
func joinDentistSummaries(bookings []models.Booking, dentists map[primitive.ObjectID]dentistSummary) []bookingView {
	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		v := bookingView{
			ID:              b.ID,
			BookingDate:     b.BookingDate,
			User:            b.User,
			Dentist:         b.Dentist,
			Status:          b.Status,
			TreatmentDetail: b.TreatmentDetail,
			CreatedAt:       b.CreatedAt,
		}
		if d, ok := dentists[b.Dentist]; ok {
			v.Dentist = d
		}
		views = append(views, v)
	}
	return views
}

// dentistSummaries loads the dentists referenced by the given bookings in
// one query.
func (h *Handler) dentistSummaries(c *gin.Context, bookings []models.Booking) (map[primitive.ObjectID]dentistSummary, error) {
	ids := make([]primitive.ObjectID, 0, len(bookings))
	seen := make(map[primitive.ObjectID]bool)
	for _, b := range bookings {
		if !seen[b.Dentist] {
			seen[b.Dentist] = true
			ids = append(ids, b.Dentist)
		}
	}
	dentists := make(map[primitive.ObjectID]dentistSummary, len(ids))
	if len(ids) == 0 {
		return dentists, nil
	}

	cursor, err := h.DB.Collection("dentists").Find(c.Request.Context(),
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "year_experience": 1, "area_expertise": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(c.Request.Context())

	var docs []dentistSummary
	if err := cursor.All(c.Request.Context(), &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		dentists[d.ID] = d
	}
	return dentists, nil
}

// GetBookings lists bookings visible to the caller, with optional ?status=
// filtering. Mounted on both /bookings and /dentists/:dentistId/bookings.
func (h *Handler) GetBookings(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)

	filter, err := bookingListFilter(p, c.Param("dentistId"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	cursor, err := h.DB.Collection("bookings").Find(c.Request.Context(), filter,
		options.Find().SetSort(bson.D{{Key: "bookingDate", Value: 1}}))
	if err != nil {
		h.Log.WithError(err).Error("failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot find Booking"})
		return
	}
	defer cursor.Close(c.Request.Context())

	bookings := make([]models.Booking, 0)
	if err := cursor.All(c.Request.Context(), &bookings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot find Booking"})
		return
	}

	dentists, err := h.dentistSummaries(c, bookings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot find Booking"})
		return
	}

	views := joinDentistSummaries(bookings, dentists)
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(views), "data": views})
}

// GetPatientHistory returns every booking of one patient. Only an admin, a
// dentist, or the patient themselves may look.
func (h *Handler) GetPatientHistory(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)
	userIDParam := c.Param("userId")

	if p.Role != models.RoleAdmin && p.Role != models.RoleDentist && p.ID != userIDParam {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not authorized to access this patient history"})
		return
	}

	userID, err := primitive.ObjectIDFromHex(userIDParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	cursor, err := h.DB.Collection("bookings").Find(c.Request.Context(), bson.M{"user": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot retrieve patient history"})
		return
	}
	defer cursor.Close(c.Request.Context())

	bookings := make([]models.Booking, 0)
	if err := cursor.All(c.Request.Context(), &bookings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot retrieve patient history"})
		return
	}

	dentists, err := h.dentistSummaries(c, bookings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot retrieve patient history"})
		return
	}

	views := joinDentistSummaries(bookings, dentists)
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(views), "data": views})
}

// GetBooking returns a single booking. Public: the email confirmation page
// loads it without a session.
func (h *Handler) GetBooking(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid booking ID"})
		return
	}

	var booking models.Booking
	err = h.DB.Collection("bookings").FindOne(c.Request.Context(), bson.M{"_id": bookingID}).Decode(&booking)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No booking with the id of " + c.Param("id")})
		return
	}

	dentists, err := h.dentistSummaries(c, []models.Booking{booking})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot find Booking"})
		return
	}
	view := joinDentistSummaries([]models.Booking{booking}, dentists)[0]

	// A single read also expands the patient, for the confirmation page.
	var user struct {
		ID    primitive.ObjectID `bson:"_id" json:"_id"`
		Name  string             `bson:"name" json:"name"`
		Email string             `bson:"email" json:"email"`
	}
	if err := h.DB.Collection("users").FindOne(c.Request.Context(),
		bson.M{"_id": booking.User},
		options.FindOne().SetProjection(bson.M{"name": 1, "email": 1}),
	).Decode(&user); err == nil {
		view.User = user
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

type createBookingRequest struct {
	BookingDate time.Time            `json:"bookingDate" binding:"required"`
	Status      models.BookingStatus `json:"status"`
}

// CreateBooking books an appointment with a dentist. Regular users may hold
// only one upcoming booking; admins and dentists are exempt (and may create
// blocked records to reserve slots). A slot already occupied in the same
// clock hour is rejected.
func (h *Handler) CreateBooking(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)

	dentistID, err := primitive.ObjectIDFromHex(c.Param("dentistId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid dentist ID"})
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	status, err := initialStatus(req.Status, p.Role)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, errBlockedNotAllowed) {
			code = http.StatusForbidden
		}
		c.JSON(code, gin.H{"success": false, "message": err.Error()})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOne(c.Request.Context(), bson.M{"_id": dentistID}).Decode(&dentist)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No dentist with the id of " + c.Param("dentistId")})
		return
	}

	userID, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID in token"})
		return
	}

	// One upcoming booking per regular user.
	if p.Role != models.RoleAdmin && p.Role != models.RoleDentist {
		count, err := h.DB.Collection("bookings").CountDocuments(c.Request.Context(),
			bson.M{"user": userID, "status": models.StatusUpcoming})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot create Booking"})
			return
		}
		if exceedsBookingLimit(p.Role, count) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "The user with ID " + p.ID + " has already made 1 booking"})
			return
		}
	}

	// Reject a slot already occupied in the same clock hour. There is no
	// transactional guard behind this check, so two near-simultaneous
	// creates can still both pass it; the window is accepted.
	if taken, err := h.slotTaken(c, dentistID, req.BookingDate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot create Booking"})
		return
	} else if taken {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "The requested time slot is already booked"})
		return
	}

	booking := models.Booking{
		ID:          primitive.NewObjectID(),
		BookingDate: req.BookingDate,
		User:        userID,
		Dentist:     dentistID,
		Status:      status,
		CreatedAt:   time.Now(),
	}

	if _, err := h.DB.Collection("bookings").InsertOne(c.Request.Context(), booking); err != nil {
		h.Log.WithError(err).Error("failed to create booking")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot create Booking"})
		return
	}

	// Confirmation email is best effort; a blocked slot has no patient to
	// notify.
	if status != models.StatusBlocked {
		var user models.User
		if err := h.DB.Collection("users").FindOne(c.Request.Context(), bson.M{"_id": userID}).Decode(&user); err == nil {
			h.NotificationSvc.SendBookingConfirmation(&booking, &user, &dentist, h.Config.FrontendURL)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
}

type updateBookingRequest struct {
	BookingDate     *time.Time            `json:"bookingDate,omitempty"`
	Status          *models.BookingStatus `json:"status,omitempty"`
	TreatmentDetail *string               `json:"treatmentDetail,omitempty"`
}

// UpdateBooking changes a booking's date, status or treatment detail.
// Allowed for the booking's owner, its assigned dentist, or an admin.
// Status changes go through the lifecycle table; a date change re-sends the
// confirmation email.
func (h *Handler) UpdateBooking(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)

	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid booking ID"})
		return
	}

	var booking models.Booking
	err = h.DB.Collection("bookings").FindOne(c.Request.Context(), bson.M{"_id": bookingID}).Decode(&booking)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No booking with the id of " + c.Param("id")})
		return
	}

	if !canModifyBooking(p, &booking) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User " + p.ID + " is not authorized to update this booking"})
		return
	}

	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	updateFields := bson.M{}
	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid status: " + string(*req.Status)})
			return
		}
		if err := lifecycle.CanTransition(booking.Status, *req.Status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		updateFields["status"] = *req.Status
	}
	if req.BookingDate != nil {
		updateFields["bookingDate"] = *req.BookingDate
	}
	if req.TreatmentDetail != nil {
		updateFields["treatmentDetail"] = *req.TreatmentDetail
	}

	if len(updateFields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No fields to update"})
		return
	}

	var updated models.Booking
	err = h.DB.Collection("bookings").FindOneAndUpdate(c.Request.Context(),
		bson.M{"_id": bookingID},
		bson.M{"$set": updateFields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		h.Log.WithError(err).Error("failed to update booking")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot update Booking"})
		return
	}

	// Re-confirm with the patient when the date moved.
	if req.BookingDate != nil {
		var user models.User
		var dentist models.Dentist
		userErr := h.DB.Collection("users").FindOne(c.Request.Context(), bson.M{"_id": updated.User}).Decode(&user)
		dentistErr := h.DB.Collection("dentists").FindOne(c.Request.Context(), bson.M{"_id": updated.Dentist}).Decode(&dentist)
		if userErr == nil && dentistErr == nil {
			h.NotificationSvc.SendBookingConfirmation(&updated, &user, &dentist, h.Config.FrontendURL)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
}

// DeleteBooking removes a booking. Admin only; this is also how blocked
// slot reservations are released.
func (h *Handler) DeleteBooking(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)

	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid booking ID"})
		return
	}

	if p.Role != models.RoleAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User " + p.ID + " is not authorized to delete this booking"})
		return
	}

	var booking models.Booking
	err = h.DB.Collection("bookings").FindOne(c.Request.Context(), bson.M{"_id": bookingID}).Decode(&booking)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No booking with the id of " + c.Param("id")})
		return
	}

	if _, err := h.DB.Collection("bookings").DeleteOne(c.Request.Context(), bson.M{"_id": bookingID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot delete Booking"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}

// ConfirmBooking flips an upcoming booking to confirmed. Public: reached
// from the link in the confirmation email, so there is no auth; the gate is
// purely the current status.
func (h *Handler) ConfirmBooking(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid booking ID"})
		return
	}

	var booking models.Booking
	err = h.DB.Collection("bookings").FindOne(c.Request.Context(), bson.M{"_id": bookingID}).Decode(&booking)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No booking found with the id of " + c.Param("id")})
		return
	}

	if err := lifecycle.CanConfirm(booking.Status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var updated models.Booking
	err = h.DB.Collection("bookings").FindOneAndUpdate(c.Request.Context(),
		bson.M{"_id": bookingID},
		bson.M{"$set": bson.M{"status": models.StatusConfirmed}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": updated, "message": "Appointment confirmed successfully"})
}

// slotTaken checks whether any occupying booking of the dentist falls in the
// same hour slot as the requested instant.
func (h *Handler) slotTaken(c *gin.Context, dentistID primitive.ObjectID, at time.Time) (bool, error) {
	dayStart := at.UTC().Truncate(24 * time.Hour)
	cursor, err := h.DB.Collection("bookings").Find(c.Request.Context(), bson.M{
		"dentist":     dentistID,
		"status":      bson.M{"$in": models.OccupyingStatuses},
		"bookingDate": bson.M{"$gte": dayStart, "$lt": dayStart.Add(24 * time.Hour)},
	})
	if err != nil {
		return false, err
	}
	defer cursor.Close(c.Request.Context())

	var sameDay []models.Booking
	if err := cursor.All(c.Request.Context(), &sameDay); err != nil {
		return false, err
	}
	occupied := make([]time.Time, 0, len(sameDay))
	for _, b := range sameDay {
		occupied = append(occupied, b.BookingDate)
	}
	return slotConflict(occupied, at), nil
}
