package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dentalbook/dentalbook-api/internal/middleware"
	"github.com/dentalbook/dentalbook-api/internal/models"
	"github.com/dentalbook/dentalbook-api/internal/query"
	"github.com/dentalbook/dentalbook-api/internal/schedule"
)

// GetDentists lists dentists. Public. Supports field filtering with
// gt/gte/lt/lte/in operators plus select, sort, page and limit.
func (h *Handler) GetDentists(c *gin.Context) {
	list := query.ParseList(c.Request.URL.Query())

	col := h.DB.Collection("dentists")
	total, err := col.CountDocuments(c.Request.Context(), bson.M{})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	cursor, err := col.Find(c.Request.Context(), list.Filter, list.Find)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}
	defer cursor.Close(c.Request.Context())

	dentists := make([]models.Dentist, 0)
	if err := cursor.All(c.Request.Context(), &dentists); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	pagination := gin.H{}
	if int64(list.Skip()+list.Limit) < total {
		pagination["next"] = gin.H{"page": list.Page + 1, "limit": list.Limit}
	}
	if list.Skip() > 0 {
		pagination["prev"] = gin.H{"page": list.Page - 1, "limit": list.Limit}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(dentists), "pagination": pagination, "data": dentists})
}

// GetDentist returns one dentist profile. Public.
func (h *Handler) GetDentist(c *gin.Context) {
	dentistID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOne(c.Request.Context(), bson.M{"_id": dentistID}).Decode(&dentist)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": dentist})
}

type dentistRequest struct {
	Name           string   `json:"name" binding:"required"`
	YearExperience int      `json:"year_experience"`
	AreaExpertise  []string `json:"area_expertise" binding:"required"`
	Picture        string   `json:"picture"`
	StartingPrice  float64  `json:"StartingPrice"`
}

func (r *dentistRequest) validate() string {
	if r.YearExperience < 0 {
		return "Years of experience cannot be negative"
	}
	if r.StartingPrice < 0 {
		return "Starting price cannot be negative"
	}
	if len(r.AreaExpertise) == 0 {
		return "At least one area of expertise is required"
	}
	for _, area := range r.AreaExpertise {
		if !models.ValidExpertise(area) {
			return "Unknown area of expertise: " + area
		}
	}
	return ""
}

// CreateDentist adds a provider profile. Admin only.
func (h *Handler) CreateDentist(c *gin.Context) {
	var req dentistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
		return
	}

	dentist := models.Dentist{
		ID:             primitive.NewObjectID(),
		Name:           req.Name,
		YearExperience: req.YearExperience,
		AreaExpertise:  req.AreaExpertise,
		Picture:        req.Picture,
		StartingPrice:  req.StartingPrice,
		Rating:         []models.Rating{},
	}

	if _, err := h.DB.Collection("dentists").InsertOne(c.Request.Context(), dentist); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "A dentist with this name already exists"})
			return
		}
		h.Log.WithError(err).Error("failed to create dentist")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": dentist})
}

type dentistUpdateRequest struct {
	Name           *string                   `json:"name,omitempty"`
	YearExperience *int                      `json:"year_experience,omitempty"`
	AreaExpertise  []string                  `json:"area_expertise,omitempty"`
	Picture        *string                   `json:"picture,omitempty"`
	StartingPrice  *float64                  `json:"StartingPrice,omitempty"`
	Availability   []models.AvailabilityDate `json:"availability,omitempty"`
}

// UpdateDentist edits profile fields. Admin may edit anyone; a dentist only
// their own profile.
func (h *Handler) UpdateDentist(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)

	if p.Role == models.RoleDentist && c.Param("id") != p.DentistID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Dentist user " + p.ID + " is not authorized to update another dentist's profile",
		})
		return
	}

	dentistID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	var req dentistUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	updateFields := bson.M{}
	if req.Name != nil {
		updateFields["name"] = *req.Name
	}
	if req.YearExperience != nil {
		if *req.YearExperience < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Years of experience cannot be negative"})
			return
		}
		updateFields["year_experience"] = *req.YearExperience
	}
	if req.AreaExpertise != nil {
		if len(req.AreaExpertise) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "At least one area of expertise is required"})
			return
		}
		for _, area := range req.AreaExpertise {
			if !models.ValidExpertise(area) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unknown area of expertise: " + area})
				return
			}
		}
		updateFields["area_expertise"] = req.AreaExpertise
	}
	if req.Picture != nil {
		updateFields["picture"] = *req.Picture
	}
	if req.StartingPrice != nil {
		if *req.StartingPrice < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Starting price cannot be negative"})
			return
		}
		updateFields["StartingPrice"] = *req.StartingPrice
	}
	if req.Availability != nil {
		updateFields["availability"] = req.Availability
	}

	if len(updateFields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No fields to update"})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOneAndUpdate(c.Request.Context(),
		bson.M{"_id": dentistID},
		bson.M{"$set": updateFields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&dentist)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": dentist})
}

// DeleteDentist removes a dentist and every booking that references them.
// Admin only.
func (h *Handler) DeleteDentist(c *gin.Context) {
	dentistID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOne(c.Request.Context(), bson.M{"_id": dentistID}).Decode(&dentist)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}

	if _, err := h.DB.Collection("bookings").DeleteMany(c.Request.Context(), bson.M{"dentist": dentistID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	if _, err := h.DB.Collection("dentists").DeleteOne(c.Request.Context(), bson.M{"_id": dentistID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}

// canEditExpertise: admin unconditionally, a dentist only for their own
// profile. Checked before any mutation is applied.
func canEditExpertise(p middleware.Principal, dentistID string) bool {
	if p.Role == models.RoleAdmin {
		return true
	}
	return p.Role == models.RoleDentist && p.DentistID == dentistID
}

// AddExpertise appends a practice area to a dentist profile.
func (h *Handler) AddExpertise(c *gin.Context) {
	h.editExpertise(c, "$addToSet")
}

// RemoveExpertise drops a practice area from a dentist profile.
func (h *Handler) RemoveExpertise(c *gin.Context) {
	h.editExpertise(c, "$pull")
}

func (h *Handler) editExpertise(c *gin.Context, op string) {
	p := middleware.PrincipalFromContext(c)

	if !canEditExpertise(p, c.Param("id")) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User " + p.ID + " is not authorized to update this Expertise"})
		return
	}

	dentistID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid dentist ID"})
		return
	}

	var req struct {
		Expertise string `json:"expertise"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Expertise == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No expertise provided"})
		return
	}
	if !models.ValidExpertise(req.Expertise) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unknown area of expertise: " + req.Expertise})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOneAndUpdate(c.Request.Context(),
		bson.M{"_id": dentistID},
		bson.M{op: bson.M{"area_expertise": req.Expertise}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&dentist)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Dentist not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": dentist})
}

// GetDentistReviews returns all ratings of a dentist. Public.
func (h *Handler) GetDentistReviews(c *gin.Context) {
	dentistID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid dentist ID"})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOne(c.Request.Context(),
		bson.M{"_id": dentistID},
		options.FindOne().SetProjection(bson.M{"rating": 1}),
	).Decode(&dentist)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No dentist found with the id of " + c.Param("id")})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(dentist.Rating), "data": dentist.Rating})
}

// UpdateDentistReview upserts the caller's review of a dentist: any prior
// review by the same user is pulled before the new one is pushed, so a user
// holds at most one review per dentist. Order of the other reviews is kept.
func (h *Handler) UpdateDentistReview(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)

	dentistID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid dentist ID"})
		return
	}
	userID, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID in token"})
		return
	}

	var req struct {
		Rating int    `json:"rating" binding:"required"`
		Review string `json:"review"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Rating must be between 1 and 5"})
		return
	}

	col := h.DB.Collection("dentists")

	// Pull then push, as two updates. Not atomic, matching the original
	// behavior; the worst case under a race is a lost review, never a
	// duplicate pair surviving a later pull.
	_, err = col.UpdateByID(c.Request.Context(), dentistID,
		bson.M{"$pull": bson.M{"rating": bson.M{"user": userID}}})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	now := time.Now()
	rating := models.Rating{
		User:      userID,
		Rating:    req.Rating,
		Review:    req.Review,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var dentist models.Dentist
	err = col.FindOneAndUpdate(c.Request.Context(),
		bson.M{"_id": dentistID},
		bson.M{"$push": bson.M{"rating": rating}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&dentist)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": dentist})
}

// RemoveDentistReview deletes the caller's review of a dentist.
func (h *Handler) RemoveDentistReview(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)

	dentistID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid dentist ID"})
		return
	}
	userID, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID in token"})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOneAndUpdate(c.Request.Context(),
		bson.M{"_id": dentistID},
		bson.M{"$pull": bson.M{"rating": bson.M{"user": userID}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&dentist)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": dentist})
}

// GetDentistAvailability returns the booking dates occupying the dentist's
// calendar (upcoming, confirmed or blocked) together with the free slots
// derived server-side for each affected date.
func (h *Handler) GetDentistAvailability(c *gin.Context) {
	dentistID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid dentist ID"})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOne(c.Request.Context(), bson.M{"_id": dentistID}).Decode(&dentist)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No dentist with the id of " + c.Param("id")})
		return
	}

	cursor, err := h.DB.Collection("bookings").Find(c.Request.Context(),
		bson.M{
			"dentist": dentistID,
			"status":  bson.M{"$in": models.OccupyingStatuses},
		},
		options.Find().SetProjection(bson.M{"bookingDate": 1}),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}
	defer cursor.Close(c.Request.Context())

	type bookedDate struct {
		ID          primitive.ObjectID `bson:"_id" json:"_id"`
		BookingDate time.Time          `bson:"bookingDate" json:"bookingDate"`
	}
	var occupying []bookedDate
	if err := cursor.All(c.Request.Context(), &occupying); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	booked := make([]time.Time, 0, len(occupying))
	byDate := map[string][]time.Time{}
	for _, b := range occupying {
		booked = append(booked, b.BookingDate)
		day := b.BookingDate.UTC().Format("2006-01-02")
		byDate[day] = append(byDate[day], b.BookingDate)
	}

	freeSlots := gin.H{}
	fullyBooked := make([]string, 0)
	for day := range byDate {
		date, _ := time.Parse("2006-01-02", day)
		slots := schedule.SlotsFor(date, dentist.Availability)
		free := schedule.FreeSlots(date, slots, booked)
		freeSlots[day] = free
		if len(free) == 0 {
			fullyBooked = append(fullyBooked, day)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        occupying,
		"freeSlots":   freeSlots,
		"fullyBooked": fullyBooked,
	})
}
