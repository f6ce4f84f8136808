package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dentalbook/dentalbook-api/internal/models"
)

// GetUsers lists all user accounts. Admin only.
func (h *Handler) GetUsers(c *gin.Context) {
	cursor, err := h.DB.Collection("users").Find(c.Request.Context(), bson.M{})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}
	defer cursor.Close(c.Request.Context())

	users := make([]models.User, 0)
	if err := cursor.All(c.Request.Context(), &users); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "data": users})
}

// GetUser returns one user account. Admin only.
func (h *Handler) GetUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	var user models.User
	err = h.DB.Collection("users").FindOne(c.Request.Context(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

type updateUserRequest struct {
	Role      *string `json:"role,omitempty"`
	DentistID *string `json:"dentist_id,omitempty"`
}

// UpdateUser changes a user's role (and, for the dentist role, the dentist
// profile they own). Admin only.
func (h *Handler) UpdateUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	updateFields := bson.M{}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid role: " + *req.Role})
			return
		}
		updateFields["role"] = *req.Role
	}
	if req.DentistID != nil {
		dentistID, err := primitive.ObjectIDFromHex(*req.DentistID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid dentist ID"})
			return
		}
		count, err := h.DB.Collection("dentists").CountDocuments(c.Request.Context(), bson.M{"_id": dentistID})
		if err != nil || count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No dentist with the id of " + *req.DentistID})
			return
		}
		updateFields["dentist_id"] = dentistID
	}

	if len(updateFields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No fields to update"})
		return
	}

	var user models.User
	err = h.DB.Collection("users").FindOneAndUpdate(c.Request.Context(),
		bson.M{"_id": userID},
		bson.M{"$set": updateFields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}
