package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dentalbook/dentalbook-api/internal/middleware"
	"github.com/dentalbook/dentalbook-api/internal/models"
	"github.com/dentalbook/dentalbook-api/internal/utils"
)

type RegisterRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Telephone string `json:"telephone" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role"`
	DentistID string `json:"dentist_id"`
}

// Register creates a user account and signs them in.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if !models.ValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please add a valid email"})
		return
	}
	if !models.ValidTelephone(req.Telephone) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please enter a valid Thai or international phone number"})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid role: " + role})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to hash password"})
		return
	}

	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Email:     req.Email,
		Telephone: req.Telephone,
		Role:      role,
		Password:  hashedPassword,
		CreatedAt: time.Now(),
	}

	// A dentist account must point at the dentist profile it owns.
	if role == models.RoleDentist {
		dentistID, err := primitive.ObjectIDFromHex(req.DentistID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A dentist account requires a valid dentist_id"})
			return
		}
		count, err := h.DB.Collection("dentists").CountDocuments(c.Request.Context(), bson.M{"_id": dentistID})
		if err != nil || count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No dentist with the id of " + req.DentistID})
			return
		}
		user.DentistID = &dentistID
	}

	if _, err := h.DB.Collection("users").InsertOne(c.Request.Context(), user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "An account with this name, email or telephone already exists"})
			return
		}
		h.Log.WithError(err).Error("failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create user"})
		return
	}

	h.sendTokenResponse(c, &user, http.StatusCreated)
}

// Login verifies credentials and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide an email and password"})
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(c.Request.Context(), bson.M{"email": req.Email}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	h.sendTokenResponse(c, &user, http.StatusOK)
}

// Me returns the profile of the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)
	userID, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID in token"})
		return
	}

	var user models.User
	err = h.DB.Collection("users").FindOne(c.Request.Context(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// ForgotPassword issues a reset token and mails it to the account's
// address. The response is the same whether or not the email exists, so the
// endpoint cannot be used to enumerate accounts.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide an email"})
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(c.Request.Context(), bson.M{"email": req.Email}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": "Email sent"})
		return
	}

	token := user.NewResetPasswordToken()
	_, err = h.DB.Collection("users").UpdateByID(c.Request.Context(), user.ID, bson.M{"$set": bson.M{
		"resetPasswordToken":  user.ResetPasswordToken,
		"resetPasswordExpire": user.ResetPasswordExpire,
	}})
	if err != nil {
		h.Log.WithError(err).Error("failed to store reset token")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Email could not be sent"})
		return
	}

	h.NotificationSvc.SendPasswordReset(&user, token, h.Config.FrontendURL)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": "Email sent"})
}

// ResetPassword sets a new password for the account holding a valid,
// unexpired reset token and signs the user in.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(c.Request.Context(), bson.M{
		"resetPasswordToken":  c.Param("token"),
		"resetPasswordExpire": bson.M{"$gt": time.Now()},
	}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or expired token"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to hash password"})
		return
	}

	_, err = h.DB.Collection("users").UpdateByID(c.Request.Context(), user.ID, bson.M{
		"$set":   bson.M{"password": hashedPassword},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""},
	})
	if err != nil {
		h.Log.WithError(err).Error("failed to reset password")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to reset password"})
		return
	}

	h.sendTokenResponse(c, &user, http.StatusOK)
}

// Logout clears the session cookie.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "none", 10, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}

// sendTokenResponse issues the JWT both as a cookie for the frontend and in
// the body for API clients.
func (h *Handler) sendTokenResponse(c *gin.Context, user *models.User, status int) {
	dentistID := ""
	if user.DentistID != nil {
		dentistID = user.DentistID.Hex()
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role, dentistID, h.Config.JWTExpire)
	if err != nil {
		h.Log.WithError(err).Error("failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not generate token"})
		return
	}

	c.SetCookie("token", token, int(h.Config.JWTExpire.Seconds()), "/", "", false, true)
	c.JSON(status, gin.H{
		"success":   true,
		"_id":       user.ID.Hex(),
		"name":      user.Name,
		"email":     user.Email,
		"telephone": user.Telephone,
		"role":      user.Role,
		"token":     token,
	})
}
