package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"executive-portfolio-api/models"
)

func TestBuildMessageWorkbook(t *testing.T) {
	id := primitive.NewObjectID()
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	messages := []models.Message{
		{
			ID:           id,
			FullName:     "Jordan Avery",
			Email:        "jordan@example.com",
			Organization: "Avery Holdings",
			Purpose:      "Partnership Proposal",
			Message:      "Interested in exploring a joint venture.",
			Status:       models.StatusNew,
			CreatedAt:    created,
			Attachment:   &models.Attachment{OriginalName: "proposal.pdf"},
		},
	}

	f, err := BuildMessageWorkbook(messages)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}
	defer f.Close()

	checks := map[string]string{
		"A1": "ID",
		"B1": "Full Name",
		"P1": "Submitted At",
		"A2": id.Hex(),
		"B2": "Jordan Avery",
		"C2": "jordan@example.com",
		"F2": "Partnership Proposal",
		"I2": models.StatusNew,
		"K2": "proposal.pdf",
		"P2": "2026-03-14 09:30:00",
	}

	for cell, want := range checks {
		got, err := f.GetCellValue("Messages", cell)
		if err != nil {
			t.Fatalf("cell %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("cell %s: got %q, want %q", cell, got, want)
		}
	}

	rows, err := f.GetRows("Messages")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(rows))
	}
}

func TestWriteMessageWorkbook(t *testing.T) {
	data, err := WriteMessageWorkbook([]models.Message{
		{
			ID:       primitive.NewObjectID(),
			FullName: "Jordan Avery",
			Email:    "jordan@example.com",
			Status:   models.StatusNew,
		},
	})
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("serialized workbook should reopen: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Messages", "B2")
	if err != nil {
		t.Fatalf("cell B2: %v", err)
	}
	if got != "Jordan Avery" {
		t.Fatalf("cell B2: got %q, want %q", got, "Jordan Avery")
	}
}

func TestBuildMessageWorkbookEmpty(t *testing.T) {
	f, err := BuildMessageWorkbook(nil)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Messages")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the header row, got %d", len(rows))
	}
}
