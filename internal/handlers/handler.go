package handlers

import (
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dentalbook/dentalbook-api/internal/config"
	"github.com/dentalbook/dentalbook-api/internal/services"
)

// Handler bundles everything the request handlers need: the database, the
// notification service, configuration and a logger.
type Handler struct {
	DB              *mongo.Database
	NotificationSvc *services.NotificationService
	Config          *config.Config
	Log             *logrus.Logger
}

func NewHandler(db *mongo.Database, notificationSvc *services.NotificationService, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{
		DB:              db,
		NotificationSvc: notificationSvc,
		Config:          cfg,
		Log:             log,
	}
}
