package routes

import (
	"context"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"executive-portfolio-api/internal/config"
	"executive-portfolio-api/internal/logger"
	"executive-portfolio-api/internal/queue"
	"executive-portfolio-api/middleware"
	"executive-portfolio-api/models"
	"executive-portfolio-api/services"
	"executive-portfolio-api/utils"
)

// sortSpecs maps the console's sortBy values to Mongo sort documents.
// Exactly one sort key is active at a time; unknown values fall back to
// newest-first.
var sortSpecs = map[string]bson.D{
	"-createdAt": {{Key: "created_at", Value: -1}},
	"createdAt":  {{Key: "created_at", Value: 1}},
	"fullName":   {{Key: "full_name", Value: 1}},
	"-fullName":  {{Key: "full_name", Value: -1}},
}

// SetupAdminMessageRoutes registers the moderation console API. Every
// endpoint requires an admin bearer token; the attachment download also
// accepts the token as a query parameter for browser-initiated links.
func SetupAdminMessageRoutes(
	router *gin.Engine,
	cfg *config.Config,
	mongoClient *mongo.Client,
	asynqClient *asynq.Client,
	authMiddleware *middleware.AuthMiddleware,
) {
	db := mongoClient.Database(cfg.DBName)
	messagesCollection := db.Collection("messages")

	admin := router.Group("/api/messages/admin")

	// Download is registered outside the authed group so it can take the
	// query-token variant; everything else uses the standard header guard.
	admin.GET("/:id/download", authMiddleware.RequireAuthOrQueryToken(), func(c *gin.Context) {
		msg, ok := findMessage(c, messagesCollection)
		if !ok {
			return
		}

		if msg.Attachment == nil {
			utils.RespondWithNotFound(c, "Message has no attachment")
			return
		}

		path := filepath.Join(cfg.UploadDir, msg.Attachment.StoredName)
		if _, err := os.Stat(path); err != nil {
			logger.Error("Attachment file missing", "id", msg.ID.Hex(), "path", path)
			utils.RespondWithNotFound(c, "Attachment file not found")
			return
		}

		c.FileAttachment(path, msg.Attachment.OriginalName)
	})

	authed := admin.Group("")
	authed.Use(authMiddleware.RequireAuth())

	// -------------------------
	// List with server-side filter/sort/pagination
	// -------------------------
	authed.GET("/all", func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit < 1 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}

		filter := buildMessageFilter(c.Query("status"), c.Query("search"))

		totalCount, err := messagesCollection.CountDocuments(context.Background(), filter)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to count messages", nil)
			return
		}

		totalPages := int(math.Ceil(float64(totalCount) / float64(limit)))
		if totalPages < 1 {
			totalPages = 1
		}
		if page > totalPages {
			page = totalPages
		}

		sort, ok := sortSpecs[c.DefaultQuery("sortBy", "-createdAt")]
		if !ok {
			sort = sortSpecs["-createdAt"]
		}

		opts := options.Find().
			SetSort(sort).
			SetSkip(int64((page - 1) * limit)).
			SetLimit(int64(limit))

		cursor, err := messagesCollection.Find(context.Background(), filter, opts)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to fetch messages", nil)
			return
		}
		defer cursor.Close(context.Background())

		messages := []models.Message{}
		if err := cursor.All(context.Background(), &messages); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode messages", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"messages":    messages,
				"totalPages":  totalPages,
				"currentPage": page,
				"totalCount":  totalCount,
			},
		})
	})

	// -------------------------
	// Aggregate counts, independent of the active filter
	// -------------------------
	authed.GET("/stats", func(c *gin.Context) {
		ctx := context.Background()

		stats := models.MessageStats{}
		var err error

		if stats.Total, err = messagesCollection.CountDocuments(ctx, bson.M{}); err != nil {
			utils.RespondWithInternalError(c, "Failed to compute stats", nil)
			return
		}
		if stats.New, err = messagesCollection.CountDocuments(ctx, bson.M{"status": models.StatusNew}); err != nil {
			utils.RespondWithInternalError(c, "Failed to compute stats", nil)
			return
		}
		if stats.Responded, err = messagesCollection.CountDocuments(ctx, bson.M{"status": models.StatusResponded}); err != nil {
			utils.RespondWithInternalError(c, "Failed to compute stats", nil)
			return
		}
		if stats.Archived, err = messagesCollection.CountDocuments(ctx, bson.M{"status": models.StatusArchived}); err != nil {
			utils.RespondWithInternalError(c, "Failed to compute stats", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
	})

	// -------------------------
	// Inbox export (XLSX), honors the same filter params as the list
	// -------------------------
	authed.GET("/export", func(c *gin.Context) {
		filter := buildMessageFilter(c.Query("status"), c.Query("search"))

		opts := options.Find().SetSort(sortSpecs["-createdAt"])
		cursor, err := messagesCollection.Find(context.Background(), filter, opts)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to fetch messages", nil)
			return
		}
		defer cursor.Close(context.Background())

		messages := []models.Message{}
		if err := cursor.All(context.Background(), &messages); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode messages", nil)
			return
		}

		data, err := services.WriteMessageWorkbook(messages)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build export", nil)
			return
		}

		filename := "messages-" + time.Now().Format("2006-01-02") + ".xlsx"
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			data)
	})

	// -------------------------
	// Single message; viewing marks it read (read state is independent of
	// the lifecycle status)
	// -------------------------
	authed.GET("/:id", func(c *gin.Context) {
		id, ok := parseMessageID(c)
		if !ok {
			return
		}

		var msg models.Message
		after := options.After
		err := messagesCollection.FindOneAndUpdate(
			context.Background(),
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"is_read": true}},
			&options.FindOneAndUpdateOptions{ReturnDocument: &after},
		).Decode(&msg)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				utils.RespondWithNotFound(c, "Message not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to fetch message", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": msg})
	})

	// -------------------------
	// Send response. This is the one transition that mutates response
	// content and status together: storing a reply advances the message to
	// Responded, though the admin may still override status afterwards.
	// -------------------------
	authed.POST("/:id/respond", func(c *gin.Context) {
		id, ok := parseMessageID(c)
		if !ok {
			return
		}

		var req models.RespondRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_input",
				"Invalid request data", gin.H{"error": err.Error()})
			return
		}

		responseText := strings.TrimSpace(req.Response)
		if responseText == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_input",
				"Response text is required", nil)
			return
		}

		username := middleware.GetUsername(c)
		now := time.Now()

		// A later reply overwrites the previous one: single slot, no thread
		var msg models.Message
		after := options.After
		err := messagesCollection.FindOneAndUpdate(
			context.Background(),
			bson.M{"_id": id},
			bson.M{"$set": bson.M{
				"admin_response":     responseText,
				"response_timestamp": now,
				"responded_by":       username,
				"status":             models.StatusResponded,
				"is_read":            true,
			}},
			&options.FindOneAndUpdateOptions{ReturnDocument: &after},
		).Decode(&msg)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				utils.RespondWithNotFound(c, "Message not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to save response", nil)
			return
		}

		// Delivery is best-effort and asynchronous; the stored response is
		// the source of truth either way
		if asynqClient != nil {
			task, err := queue.NewResponseEmailTask(queue.ResponseEmailPayload{
				MessageID:    msg.ID.Hex(),
				Recipient:    msg.Email,
				FullName:     msg.FullName,
				Purpose:      msg.Purpose,
				OriginalText: msg.Message,
				ResponseText: responseText,
				RespondedBy:  username,
			})
			if err == nil {
				if _, err := asynqClient.Enqueue(task); err != nil {
					logger.Error("Failed to enqueue response email", "id", msg.ID.Hex(), "error", err)
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": msg})
	})

	// -------------------------
	// Direct status override, independent of whether a response exists.
	// Backward moves (Responded -> New) are allowed by design.
	// -------------------------
	authed.PUT("/:id/status", func(c *gin.Context) {
		id, ok := parseMessageID(c)
		if !ok {
			return
		}

		var req models.StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_input",
				"Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if !models.ValidStatus(req.Status) {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_status",
				"Status must be one of New, Responded, Archived", nil)
			return
		}

		result, err := messagesCollection.UpdateOne(
			context.Background(),
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"status": req.Status}},
		)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to update status", nil)
			return
		}
		if result.MatchedCount == 0 {
			utils.RespondWithNotFound(c, "Message not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "status": req.Status})
	})

	// -------------------------
	// Internal notes, admin-only, no effect on lifecycle state
	// -------------------------
	authed.PUT("/:id/notes", func(c *gin.Context) {
		id, ok := parseMessageID(c)
		if !ok {
			return
		}

		var req models.NotesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_input",
				"Invalid request data", gin.H{"error": err.Error()})
			return
		}

		result, err := messagesCollection.UpdateOne(
			context.Background(),
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"internal_notes": req.Notes}},
		)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to save notes", nil)
			return
		}
		if result.MatchedCount == 0 {
			utils.RespondWithNotFound(c, "Message not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	// -------------------------
	// Irreversible delete; removes the stored attachment with the document
	// -------------------------
	authed.DELETE("/:id", func(c *gin.Context) {
		msg, ok := findMessage(c, messagesCollection)
		if !ok {
			return
		}

		if _, err := messagesCollection.DeleteOne(context.Background(), bson.M{"_id": msg.ID}); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete message", nil)
			return
		}

		if msg.Attachment != nil {
			path := filepath.Join(cfg.UploadDir, msg.Attachment.StoredName)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Warn("Failed to remove attachment file", "path", path, "error", err)
			}
		}

		logger.Info("Message deleted", "id", msg.ID.Hex(), "by", middleware.GetUsername(c))
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
}

// buildMessageFilter translates the console's status + search params into a
// Mongo filter. Search matches case-insensitively over name, email and
// organization, the same fields the console's search box advertises.
func buildMessageFilter(status, search string) bson.M {
	filter := bson.M{}

	if status != "" && status != "all" && models.ValidStatus(status) {
		filter["status"] = status
	}

	if s := strings.TrimSpace(search); s != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		filter["$or"] = []bson.M{
			{"full_name": pattern},
			{"email": pattern},
			{"organization": pattern},
		}
	}

	return filter
}

func parseMessageID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "invalid_message_id",
			"Invalid message ID format", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}

func findMessage(c *gin.Context, collection *mongo.Collection) (models.Message, bool) {
	id, ok := parseMessageID(c)
	if !ok {
		return models.Message{}, false
	}

	var msg models.Message
	err := collection.FindOne(context.Background(), bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithNotFound(c, "Message not found")
			return models.Message{}, false
		}
		utils.RespondWithInternalError(c, "Failed to fetch message", nil)
		return models.Message{}, false
	}

	return msg, true
}
