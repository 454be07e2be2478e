package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message lifecycle states. Archived is reachable from any state and no
// state is terminal: an admin may move a message backward by explicit
// override, even Responded -> New.
const (
	StatusNew       = "New"
	StatusResponded = "Responded"
	StatusArchived  = "Archived"
)

// Purposes a visitor can select. "Other" requires a purpose detail.
var ValidPurposes = []string{
	"General Inquiry",
	"Partnership Proposal",
	"Consulting / Advisory Request",
	"Speaking / Media Request",
	"Other",
}

// AllowedAttachmentTypes is the MIME allow-list for intake attachments.
var AllowedAttachmentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// MaxAttachmentSize caps intake attachments at 5 MB.
const MaxAttachmentSize = 5 * 1024 * 1024

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type Attachment struct {
	OriginalName string `bson:"original_name" json:"originalName"`
	StoredName   string `bson:"stored_name" json:"-"`
	Size         int64  `bson:"size" json:"size"`
	MimeType     string `bson:"mimetype" json:"mimetype"`
}

type Message struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName          string             `bson:"full_name" json:"fullName"`
	Email             string             `bson:"email" json:"email"`
	Purpose           string             `bson:"purpose" json:"purpose"`
	PurposeDetail     string             `bson:"purpose_detail,omitempty" json:"purposeDetail,omitempty"`
	Organization      string             `bson:"organization,omitempty" json:"organization,omitempty"`
	Phone             string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Message           string             `bson:"message" json:"message"`
	ConsentGiven      bool               `bson:"consent_given" json:"consentGiven"`
	Attachment        *Attachment        `bson:"attachment,omitempty" json:"attachment,omitempty"`
	Status            string             `bson:"status" json:"status"`
	IsRead            bool               `bson:"is_read" json:"isRead"`
	AdminResponse     string             `bson:"admin_response,omitempty" json:"adminResponse,omitempty"`
	ResponseTimestamp *time.Time         `bson:"response_timestamp,omitempty" json:"responseTimestamp,omitempty"`
	RespondedBy       string             `bson:"responded_by,omitempty" json:"respondedBy,omitempty"`
	InternalNotes     string             `bson:"internal_notes,omitempty" json:"internalNotes,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"createdAt"`
}

// SubmitRequest is the intake form payload before persistence. Fields mirror
// the multipart form the public site posts.
type SubmitRequest struct {
	FullName      string `form:"fullName"`
	Email         string `form:"email"`
	Purpose       string `form:"purpose"`
	PurposeDetail string `form:"purposeDetail"`
	Organization  string `form:"organization"`
	Phone         string `form:"phone"`
	Message       string `form:"message"`
	ConsentGiven  bool   `form:"consentGiven"`
}

// MessageStats are the aggregate counts shown on the admin summary tiles.
// They are computed over all messages regardless of the active list filter.
type MessageStats struct {
	Total     int64 `json:"total"`
	New       int64 `json:"new"`
	Responded int64 `json:"responded"`
	Archived  int64 `json:"archived"`
}

type RespondRequest struct {
	Response string `json:"response"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

// ValidStatus reports whether s is one of the closed lifecycle set.
func ValidStatus(s string) bool {
	return s == StatusNew || s == StatusResponded || s == StatusArchived
}

// ValidPurpose reports whether p is one of the fixed purpose options.
func ValidPurpose(p string) bool {
	for _, v := range ValidPurposes {
		if p == v {
			return true
		}
	}
	return false
}

// ValidateSubmission checks every intake rule and returns all violations at
// once, keyed by field name, so callers can annotate each invalid field.
// An empty map means the submission is acceptable.
func ValidateSubmission(req SubmitRequest) map[string]string {
	errs := make(map[string]string)

	name := strings.TrimSpace(req.FullName)
	if name == "" {
		errs["fullName"] = "Full name is required"
	} else if len(name) < 2 {
		errs["fullName"] = "Name must be at least 2 characters"
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs["email"] = "Email is required"
	} else if !emailPattern.MatchString(email) {
		errs["email"] = "Please enter a valid email address"
	}

	if req.Purpose == "" {
		errs["purpose"] = "Please select a purpose"
	} else if !ValidPurpose(req.Purpose) {
		errs["purpose"] = "Unknown purpose"
	}

	if req.Purpose == "Other" && strings.TrimSpace(req.PurposeDetail) == "" {
		errs["purposeDetail"] = "Please specify the purpose"
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		errs["message"] = "Message is required"
	} else if len(msg) < 10 {
		errs["message"] = "Message must be at least 10 characters"
	}

	if !req.ConsentGiven {
		errs["consentGiven"] = "You must consent to proceed"
	}

	return errs
}

// ValidateAttachment enforces the default MIME allow-list and size cap.
// Returns an empty string when the file is acceptable, otherwise the field
// error text.
func ValidateAttachment(mimeType string, size int64) string {
	return ValidateAttachmentPolicy(mimeType, size, AllowedAttachmentTypes, MaxAttachmentSize)
}

// ValidateAttachmentPolicy is ValidateAttachment against an explicit
// allow-list and size cap, for deployments that tighten the defaults.
func ValidateAttachmentPolicy(mimeType string, size int64, allowedTypes []string, maxSize int64) string {
	allowed := false
	for _, t := range allowedTypes {
		if mimeType == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return "Only PDF, DOC, and DOCX files are allowed"
	}
	if size > maxSize {
		return fmt.Sprintf("File size must be less than %dMB", maxSize/(1024*1024))
	}
	return ""
}
