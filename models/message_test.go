package models

import (
	"testing"
)

func validSubmission() SubmitRequest {
	return SubmitRequest{
		FullName:     "Jordan Avery",
		Email:        "jordan@example.com",
		Purpose:      "General Inquiry",
		Message:      "I would like to discuss a potential engagement.",
		ConsentGiven: true,
	}
}

func TestValidateSubmissionAccepts(t *testing.T) {
	if errs := ValidateSubmission(validSubmission()); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateSubmissionFieldRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SubmitRequest)
		field   string
		message string
	}{
		{
			name:    "missing name",
			mutate:  func(r *SubmitRequest) { r.FullName = "   " },
			field:   "fullName",
			message: "Full name is required",
		},
		{
			name:    "short name",
			mutate:  func(r *SubmitRequest) { r.FullName = " J " },
			field:   "fullName",
			message: "Name must be at least 2 characters",
		},
		{
			name:    "missing email",
			mutate:  func(r *SubmitRequest) { r.Email = "" },
			field:   "email",
			message: "Email is required",
		},
		{
			name:    "malformed email",
			mutate:  func(r *SubmitRequest) { r.Email = "not-an-email" },
			field:   "email",
			message: "Please enter a valid email address",
		},
		{
			name:    "email without tld",
			mutate:  func(r *SubmitRequest) { r.Email = "a@b" },
			field:   "email",
			message: "Please enter a valid email address",
		},
		{
			name:    "missing purpose",
			mutate:  func(r *SubmitRequest) { r.Purpose = "" },
			field:   "purpose",
			message: "Please select a purpose",
		},
		{
			name:    "unknown purpose",
			mutate:  func(r *SubmitRequest) { r.Purpose = "Sales Pitch" },
			field:   "purpose",
			message: "Unknown purpose",
		},
		{
			name:    "other without detail",
			mutate:  func(r *SubmitRequest) { r.Purpose = "Other"; r.PurposeDetail = "  " },
			field:   "purposeDetail",
			message: "Please specify the purpose",
		},
		{
			name:    "missing message",
			mutate:  func(r *SubmitRequest) { r.Message = "" },
			field:   "message",
			message: "Message is required",
		},
		{
			name:    "short message",
			mutate:  func(r *SubmitRequest) { r.Message = "   too short   " },
			field:   "message",
			message: "Message must be at least 10 characters",
		},
		{
			name:    "no consent",
			mutate:  func(r *SubmitRequest) { r.ConsentGiven = false },
			field:   "consentGiven",
			message: "You must consent to proceed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validSubmission()
			tc.mutate(&req)

			errs := ValidateSubmission(req)
			if len(errs) != 1 {
				t.Fatalf("expected exactly one error, got %v", errs)
			}
			if errs[tc.field] != tc.message {
				t.Fatalf("field %s: got %q, want %q", tc.field, errs[tc.field], tc.message)
			}
		})
	}
}

func TestValidateSubmissionReportsAllViolationsAtOnce(t *testing.T) {
	req := SubmitRequest{
		FullName:     "J",
		Email:        "bad",
		Purpose:      "",
		Message:      "short",
		ConsentGiven: false,
	}

	errs := ValidateSubmission(req)
	for _, field := range []string{"fullName", "email", "purpose", "message", "consentGiven"} {
		if errs[field] == "" {
			t.Errorf("expected an error for %s, got none (all: %v)", field, errs)
		}
	}
	if len(errs) != 5 {
		t.Fatalf("expected 5 errors, got %d: %v", len(errs), errs)
	}
}

func TestValidateSubmissionOtherWithDetail(t *testing.T) {
	req := validSubmission()
	req.Purpose = "Other"
	req.PurposeDetail = "Board advisory introduction"

	if errs := ValidateSubmission(req); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateAttachment(t *testing.T) {
	tests := []struct {
		name string
		mime string
		size int64
		want string
	}{
		{"pdf ok", "application/pdf", 1024, ""},
		{"doc ok", "application/msword", 1024, ""},
		{"docx ok", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", MaxAttachmentSize, ""},
		{"png rejected", "image/png", 1024, "Only PDF, DOC, and DOCX files are allowed"},
		{"exe rejected", "application/octet-stream", 1024, "Only PDF, DOC, and DOCX files are allowed"},
		{"oversize pdf", "application/pdf", MaxAttachmentSize + 1, "File size must be less than 5MB"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateAttachment(tc.mime, tc.size); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateAttachmentPolicyHonorsConfiguredLimits(t *testing.T) {
	allowed := []string{"application/pdf"}
	maxSize := int64(1 * 1024 * 1024)

	if got := ValidateAttachmentPolicy("application/pdf", maxSize, allowed, maxSize); got != "" {
		t.Fatalf("pdf at the cap should pass, got %q", got)
	}
	if got := ValidateAttachmentPolicy("application/msword", 1024, allowed, maxSize); got == "" {
		t.Fatal("type outside the configured allow-list must be rejected")
	}
	got := ValidateAttachmentPolicy("application/pdf", maxSize+1, allowed, maxSize)
	if got != "File size must be less than 1MB" {
		t.Fatalf("configured cap not enforced, got %q", got)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusNew, StatusResponded, StatusArchived} {
		if !ValidStatus(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []string{"", "new", "Closed", "Spam"} {
		if ValidStatus(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}
