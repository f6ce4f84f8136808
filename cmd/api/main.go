package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dentalbook/dentalbook-api/internal/config"
	"github.com/dentalbook/dentalbook-api/internal/handlers"
	"github.com/dentalbook/dentalbook-api/internal/middleware"
	"github.com/dentalbook/dentalbook-api/internal/models"
	"github.com/dentalbook/dentalbook-api/internal/services"
	"github.com/dentalbook/dentalbook-api/internal/utils"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, relying on environment variables.")
	}
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, using the development fallback")
	}
	utils.SetJWTSecret(cfg.JWTSecret)

	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDatabase)
	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	log.Info("Successfully connected to MongoDB")

	// --- Services & Handlers ---
	notificationSvc := services.NewNotificationService(cfg, log)
	h := handlers.NewHandler(db, notificationSvc, cfg, log)

	// --- Gin Router ---
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", middleware.Protect(), h.Me)
		auth.GET("/logout", h.Logout)
		auth.POST("/forgotPassword", h.ForgotPassword)
		auth.PUT("/resetPassword/:token", h.ResetPassword)
	}

	dentists := v1.Group("/dentists")
	{
		dentists.GET("", h.GetDentists)
		dentists.POST("", middleware.Protect(), middleware.Authorize(models.RoleAdmin), h.CreateDentist)

		dentists.GET("/availibility/:id", h.GetDentistAvailability)

		dentists.GET("/reviews/:id", h.GetDentistReviews)
		dentists.PUT("/reviews/:id", middleware.Protect(), middleware.Authorize(models.RoleAdmin, models.RoleUser), h.UpdateDentistReview)
		dentists.DELETE("/reviews/:id", middleware.Protect(), middleware.Authorize(models.RoleAdmin, models.RoleUser), h.RemoveDentistReview)

		dentists.GET("/:id", h.GetDentist)
		dentists.PUT("/:id", middleware.Protect(), middleware.Authorize(models.RoleAdmin, models.RoleDentist), h.UpdateDentist)
		dentists.DELETE("/:id", middleware.Protect(), middleware.Authorize(models.RoleAdmin), h.DeleteDentist)

		dentists.PUT("/:id/expertise", middleware.Protect(), middleware.Authorize(models.RoleAdmin, models.RoleDentist), h.AddExpertise)
		dentists.DELETE("/:id/expertise", middleware.Protect(), middleware.Authorize(models.RoleAdmin, models.RoleDentist), h.RemoveExpertise)

		// Nested booking routes, scoped to one dentist.
		dentists.GET("/:id/bookings", middleware.Protect(), middleware.Authorize(models.RoleAdmin, models.RoleUser, models.RoleDentist), withDentistParam(h.GetBookings))
		dentists.POST("/:id/bookings", middleware.Protect(), middleware.Authorize(models.RoleAdmin, models.RoleUser, models.RoleDentist), withDentistParam(h.CreateBooking))
	}

	bookings := v1.Group("/bookings")
	{
		bookings.GET("", middleware.Protect(), middleware.Authorize(models.RoleAdmin, models.RoleUser, models.RoleDentist), h.GetBookings)
		bookings.GET("/patientHistory/:userId", middleware.Protect(), middleware.Authorize(models.RoleAdmin, models.RoleUser, models.RoleDentist), h.GetPatientHistory)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", middleware.Protect(), middleware.Authorize(models.RoleAdmin, models.RoleUser, models.RoleDentist), h.UpdateBooking)
		// No Authorize here: the handler answers 401 itself so non-admins
		// get the same status whether or not the booking exists.
		bookings.DELETE("/:id", middleware.Protect(), h.DeleteBooking)
		// Public: reached from the link in the confirmation email.
		bookings.PUT("/:id/confirm", h.ConfirmBooking)
	}

	users := v1.Group("/users", middleware.Protect(), middleware.Authorize(models.RoleAdmin))
	{
		users.GET("", h.GetUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
	}

	log.Infof("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// withDentistParam renames the :id path parameter of the nested dentist
// routes to the dentistId the booking handlers expect.
func withDentistParam(handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Params = append(c.Params, gin.Param{Key: "dentistId", Value: c.Param("id")})
		handler(c)
	}
}

// ensureIndexes creates the unique indexes the schema relies on: user name,
// email and telephone, and dentist name.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "telephone", Value: 1}}, Options: unique},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("dentists").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("bookings").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "dentist", Value: 1}, {Key: "bookingDate", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "status", Value: 1}}},
	})
	return err
}
