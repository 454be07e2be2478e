package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"executive-portfolio-api/internal/logger"
	"executive-portfolio-api/internal/mailer"
	"executive-portfolio-api/internal/telemetry"
)

const (
	TaskResponseEmail = "message:response_email"
)

// ResponseEmailPayload carries everything the worker needs to deliver an
// admin reply, so the worker never has to read the database.
type ResponseEmailPayload struct {
	MessageID    string `json:"message_id"`
	Recipient    string `json:"recipient"`
	FullName     string `json:"full_name"`
	Purpose      string `json:"purpose"`
	OriginalText string `json:"original_text"`
	ResponseText string `json:"response_text"`
	RespondedBy  string `json:"responded_by"`
}

// NewResponseEmailTask builds a queued delivery for an admin response.
func NewResponseEmailTask(p ResponseEmailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskResponseEmail,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(1*time.Minute),
		asynq.Queue("default"),
	), nil
}

// TaskProcessor handles queued tasks in the worker process.
type TaskProcessor struct {
	mailer  *mailer.Mailer
	metrics *telemetry.Metrics
}

func NewTaskProcessor(m *mailer.Mailer, metrics *telemetry.Metrics) *TaskProcessor {
	return &TaskProcessor{mailer: m, metrics: metrics}
}

// ProcessResponseEmail delivers one admin reply. Malformed payloads are not
// retried; relay failures are, up to the task's MaxRetry.
func (p *TaskProcessor) ProcessResponseEmail(ctx context.Context, t *asynq.Task) error {
	var payload ResponseEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("Delivering response email",
		"message_id", payload.MessageID, "recipient", payload.Recipient)

	err := p.mailer.SendResponse(payload.Recipient, mailer.ResponseEmailData{
		FullName:     payload.FullName,
		Purpose:      payload.Purpose,
		OriginalText: payload.OriginalText,
		ResponseText: payload.ResponseText,
		RespondedBy:  payload.RespondedBy,
	})
	if p.metrics != nil {
		p.metrics.RecordResponseEmail(err == nil)
	}
	if err != nil {
		logger.Error("Response email delivery failed",
			"message_id", payload.MessageID, "error", err)
		return err
	}

	return nil
}
