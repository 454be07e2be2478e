package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"executive-portfolio-api/models"
)

const testID = "65f1a2b3c4d5e6f7a8b9c0d1"

func TestDetailFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error_code":"not_found","message":"Message not found"}`))
	}))
	defer server.Close()

	d := NewDetail(New(Config{BaseURL: server.URL, Token: "t"}), testID)
	if err := d.Fetch(context.Background()); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDetailSendResponseRejectsEmptyBeforeNetwork(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	d := NewDetail(New(Config{BaseURL: server.URL, Token: "t"}), testID)
	always := func(string) bool { return true }

	for _, text := range []string{"", "   ", "\n\t"} {
		if err := d.SendResponse(context.Background(), text, always); err != ErrEmptyResponse {
			t.Fatalf("text %q: got %v, want ErrEmptyResponse", text, err)
		}
	}
	if requests != 0 {
		t.Fatalf("empty drafts must be rejected locally, got %d requests", requests)
	}
}

func TestDetailSendResponseConfirmNamesRecipient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/respond") {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req models.RespondRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Response != "Thank you for reaching out." {
			t.Errorf("unexpected response text %q", req.Response)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"id":            testID,
				"email":         "jordan@example.com",
				"status":        models.StatusResponded,
				"adminResponse": req.Response,
				"respondedBy":   "admin",
			},
		})
	}))
	defer server.Close()

	d := NewDetail(New(Config{BaseURL: server.URL, Token: "t"}), testID)
	d.Message = &models.Message{Email: "jordan@example.com", Status: models.StatusNew}

	var prompt string
	confirm := func(p string) bool {
		prompt = p
		return true
	}

	if err := d.SendResponse(context.Background(), "Thank you for reaching out.", confirm); err != nil {
		t.Fatalf("send response: %v", err)
	}
	if !strings.Contains(prompt, "jordan@example.com") {
		t.Fatalf("prompt must name the recipient, got %q", prompt)
	}
	if d.Message.Status != models.StatusResponded {
		t.Fatalf("message should advance to Responded, got %s", d.Message.Status)
	}
	if d.Message.AdminResponse != "Thank you for reaching out." {
		t.Fatalf("response not recorded: %q", d.Message.AdminResponse)
	}
}

func TestDetailSendResponseDeclinedIssuesNoRequest(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	d := NewDetail(New(Config{BaseURL: server.URL, Token: "t"}), testID)
	declined := func(string) bool { return false }

	if err := d.SendResponse(context.Background(), "A perfectly good reply", declined); err != ErrNotConfirmed {
		t.Fatalf("got %v, want ErrNotConfirmed", err)
	}
	if requests != 0 {
		t.Fatalf("declined confirmation must not transmit, got %d requests", requests)
	}
}

func TestDetailSetStatusRejectsUnknown(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	d := NewDetail(New(Config{BaseURL: server.URL, Token: "t"}), testID)
	d.Message = &models.Message{Status: models.StatusNew}

	if err := d.SetStatus(context.Background(), "Spam"); err == nil {
		t.Fatal("unknown status must be rejected")
	}
	if requests != 0 {
		t.Fatalf("invalid status must be rejected locally, got %d requests", requests)
	}

	if err := d.SetStatus(context.Background(), models.StatusArchived); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if d.Message.Status != models.StatusArchived {
		t.Fatalf("local state not updated, got %s", d.Message.Status)
	}
	if requests != 1 {
		t.Fatalf("expected one request, got %d", requests)
	}
}

func TestDetailSaveNotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || !strings.HasSuffix(r.URL.Path, "/notes") {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req models.NotesRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Notes != "Met at the leadership summit" {
			t.Errorf("unexpected notes %q", req.Notes)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	d := NewDetail(New(Config{BaseURL: server.URL, Token: "t"}), testID)
	d.Message = &models.Message{}

	if err := d.SaveNotes(context.Background(), "Met at the leadership summit"); err != nil {
		t.Fatalf("save notes: %v", err)
	}
	if d.Message.InternalNotes != "Met at the leadership summit" {
		t.Fatal("local notes not updated")
	}
}

func TestDetailAttachmentDownloadURL(t *testing.T) {
	c := New(Config{BaseURL: "https://api.example.com", Token: "tok123"})
	d := NewDetail(c, testID)

	if got := d.AttachmentDownloadURL(); got != "" {
		t.Fatalf("no attachment should yield empty URL, got %q", got)
	}

	d.Message = &models.Message{Attachment: &models.Attachment{OriginalName: "profile.pdf"}}
	want := "https://api.example.com/api/messages/admin/" + testID + "/download?token=tok123"
	if got := d.AttachmentDownloadURL(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDetailDeleteRequiresConfirmation(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	d := NewDetail(New(Config{BaseURL: server.URL, Token: "t"}), testID)

	if err := d.Delete(context.Background(), func(string) bool { return false }); err != ErrNotConfirmed {
		t.Fatalf("got %v, want ErrNotConfirmed", err)
	}
	if requests != 0 {
		t.Fatal("declined delete must not transmit")
	}

	if err := d.Delete(context.Background(), func(string) bool { return true }); err != nil {
		t.Fatalf("confirmed delete: %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected one request, got %d", requests)
	}
}
