package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"executive-portfolio-api/internal/config"
	"executive-portfolio-api/models"
	"executive-portfolio-api/utils"
)

// SetupAuthRoutes registers admin login. There is no self-serve signup:
// admins are provisioned with the seed command.
func SetupAuthRoutes(router *gin.Engine, cfg *config.Config, mongoClient *mongo.Client) {
	auth := router.Group("/api/auth")

	db := mongoClient.Database(cfg.DBName)
	adminsCollection := db.Collection("admins")

	auth.POST("/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_input",
				"Invalid request data", gin.H{"error": err.Error()})
			return
		}

		var admin models.Admin
		err := adminsCollection.FindOne(context.Background(), bson.M{"username": req.Username}).Decode(&admin)
		if err != nil {
			// Same response for unknown user and bad password
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		if !utils.CheckPassword(req.Password, admin.PasswordHash) {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		duration, err := time.ParseDuration(cfg.JWTExpiresIn)
		if err != nil {
			duration = 24 * time.Hour
		}

		token, err := utils.GenerateJWT(admin.ID.Hex(), admin.Username, cfg.JWTSecret, duration)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to generate token", nil)
			return
		}

		c.JSON(http.StatusOK, models.LoginResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(duration),
			Username:  admin.Username,
		})
	})
}
