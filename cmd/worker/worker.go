package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"executive-portfolio-api/internal/config"
	"executive-portfolio-api/internal/logger"
	"executive-portfolio-api/internal/mailer"
	"executive-portfolio-api/internal/queue"
	"executive-portfolio-api/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	m := mailer.New(cfg)
	if !m.Configured() {
		logger.Warn("SMTP relay not configured; queued deliveries will fail until it is")
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
		metrics = nil
	}

	processor := queue.NewTaskProcessor(m, metrics)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskResponseEmail, processor.ProcessResponseEmail)

	logger.Info("Starting response email worker", "redis", redisOpt.Addr)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
