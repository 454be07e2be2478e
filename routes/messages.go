package routes

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"executive-portfolio-api/internal/config"
	"executive-portfolio-api/internal/logger"
	"executive-portfolio-api/internal/telemetry"
	"executive-portfolio-api/middleware"
	"executive-portfolio-api/models"
	"executive-portfolio-api/utils"
)

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// SetupMessageRoutes registers the public intake endpoint. Submission is the
// only unauthenticated write in the system, so it alone sits behind the
// per-IP rate limiter.
func SetupMessageRoutes(
	router *gin.Engine,
	cfg *config.Config,
	mongoClient *mongo.Client,
	rdb *redis.Client,
	metrics *telemetry.Metrics,
) {
	db := mongoClient.Database(cfg.DBName)
	messagesCollection := db.Collection("messages")

	public := router.Group("/api/messages")
	if rdb != nil {
		public.Use(middleware.SubmitRateLimit(rdb, cfg, metrics))
	}

	public.POST("/submit", func(c *gin.Context) {
		req := models.SubmitRequest{
			FullName:      c.PostForm("fullName"),
			Email:         c.PostForm("email"),
			Purpose:       c.PostForm("purpose"),
			PurposeDetail: c.PostForm("purposeDetail"),
			Organization:  c.PostForm("organization"),
			Phone:         c.PostForm("phone"),
		}
		req.Message = c.PostForm("message")
		req.ConsentGiven, _ = strconv.ParseBool(c.PostForm("consentGiven"))

		// Every violated rule is reported at once so the form can annotate
		// all invalid fields in a single round trip.
		if fieldErrors := models.ValidateSubmission(req); len(fieldErrors) > 0 {
			if metrics != nil {
				metrics.RecordSubmission("validation_error")
			}
			utils.RespondWithValidationErrors(c, fieldErrors)
			return
		}

		msg := models.Message{
			FullName:      trimmed(req.FullName),
			Email:         trimmed(req.Email),
			Purpose:       req.Purpose,
			PurposeDetail: trimmed(req.PurposeDetail),
			Organization:  trimmed(req.Organization),
			Phone:         trimmed(req.Phone),
			Message:       trimmed(req.Message),
			ConsentGiven:  true,
			Status:        models.StatusNew,
			IsRead:        false,
			CreatedAt:     time.Now(),
		}

		// Optional single attachment, immutable after creation
		if fileHeader, err := c.FormFile("attachment"); err == nil && fileHeader != nil {
			mimeType := fileHeader.Header.Get("Content-Type")
			if fieldErr := models.ValidateAttachmentPolicy(mimeType, fileHeader.Size,
				cfg.AllowedTypes, cfg.MaxFileSize); fieldErr != "" {
				if metrics != nil {
					metrics.RecordSubmission("validation_error")
				}
				utils.RespondWithValidationErrors(c, map[string]string{"attachment": fieldErr})
				return
			}

			if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
				utils.RespondWithInternalError(c, "Failed to store attachment", nil)
				return
			}

			storedName := uuid.NewString() + filepath.Ext(fileHeader.Filename)
			dest := filepath.Join(cfg.UploadDir, storedName)
			if err := c.SaveUploadedFile(fileHeader, dest); err != nil {
				logger.Error("Failed to save attachment", "error", err)
				utils.RespondWithInternalError(c, "Failed to store attachment", nil)
				return
			}

			msg.Attachment = &models.Attachment{
				OriginalName: fileHeader.Filename,
				StoredName:   storedName,
				Size:         fileHeader.Size,
				MimeType:     mimeType,
			}
		}

		result, err := messagesCollection.InsertOne(context.Background(), msg)
		if err != nil {
			// Attachment already on disk is swept later by the orphan job
			logger.Error("Failed to persist message", "error", err)
			utils.RespondWithInternalError(c, "Failed to send message. Please try again.", nil)
			return
		}

		if metrics != nil {
			metrics.RecordSubmission("success")
		}
		logger.Info("Message submitted",
			"id", result.InsertedID, "purpose", msg.Purpose, "has_attachment", msg.Attachment != nil)

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Your message has been sent successfully",
		})
	})
}
