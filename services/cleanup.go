package services

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"executive-portfolio-api/internal/logger"
)

// AttachmentSweeper periodically removes files in the upload directory that
// no message references. Orphans appear when an insert fails after the file
// was already written, or when a delete removed the document but not the
// file.
type AttachmentSweeper struct {
	scheduler *gocron.Scheduler
	messages  *mongo.Collection
	uploadDir string
}

func NewAttachmentSweeper(messages *mongo.Collection, uploadDir string) *AttachmentSweeper {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &AttachmentSweeper{
		scheduler: s,
		messages:  messages,
		uploadDir: uploadDir,
	}
}

// Start schedules the sweep at the given interval and runs asynchronously.
func (s *AttachmentSweeper) Start(interval time.Duration) error {
	_, err := s.scheduler.Every(interval).Tag("attachment-sweep").Do(func() {
		if err := s.Sweep(context.Background()); err != nil {
			logger.Error("Attachment sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *AttachmentSweeper) Stop() {
	s.scheduler.Stop()
}

// Sweep deletes unreferenced files. Files younger than an hour are left
// alone so an in-flight submission is never raced.
func (s *AttachmentSweeper) Sweep(ctx context.Context) error {
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cursor, err := s.messages.Find(ctx,
		bson.M{"attachment": bson.M{"$ne": nil}})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	referenced := make(map[string]bool)
	for cursor.Next(ctx) {
		var doc struct {
			Attachment struct {
				StoredName string `bson:"stored_name"`
			} `bson:"attachment"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		referenced[doc.Attachment.StoredName] = true
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || referenced[entry.Name()] {
			continue
		}

		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < time.Hour {
			continue
		}

		path := filepath.Join(s.uploadDir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("Failed to remove orphaned attachment", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("Swept orphaned attachments", "removed", removed)
	}
	return nil
}
