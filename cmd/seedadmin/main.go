package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"executive-portfolio-api/internal/config"
	"executive-portfolio-api/models"
	"executive-portfolio-api/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DBName)
	adminsCollection := db.Collection("admins")

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	// Check if admin already exists
	var existing models.Admin
	err = adminsCollection.FindOne(context.Background(), bson.M{"username": username}).Decode(&existing)
	if err == nil {
		fmt.Printf("Admin user already exists: %s\n", existing.Username)
		os.Exit(0)
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ADMIN_PASSWORD is required")
	}

	hash, err := utils.HashPassword(password, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := models.Admin{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if _, err := adminsCollection.InsertOne(context.Background(), admin); err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Printf("Admin user created: %s\n", username)
}
