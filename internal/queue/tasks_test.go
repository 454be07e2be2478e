package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"executive-portfolio-api/internal/config"
	"executive-portfolio-api/internal/mailer"
)

func TestNewResponseEmailTask(t *testing.T) {
	task, err := NewResponseEmailTask(ResponseEmailPayload{
		MessageID:    "65f1a2b3c4d5e6f7a8b9c0d1",
		Recipient:    "jordan@example.com",
		FullName:     "Jordan Avery",
		ResponseText: "Thank you for reaching out.",
		RespondedBy:  "admin",
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskResponseEmail {
		t.Fatalf("got type %q, want %q", task.Type(), TaskResponseEmail)
	}

	var payload ResponseEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Recipient != "jordan@example.com" || payload.RespondedBy != "admin" {
		t.Fatalf("payload round trip failed: %+v", payload)
	}
}

func TestProcessResponseEmailMalformedPayloadSkipsRetry(t *testing.T) {
	p := NewTaskProcessor(mailer.New(&config.Config{}), nil)

	task := asynq.NewTask(TaskResponseEmail, []byte("not json"))
	err := p.ProcessResponseEmail(context.Background(), task)
	if err == nil {
		t.Fatal("malformed payload should error")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload must not be retried, got %v", err)
	}
}
