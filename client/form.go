package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"sync"

	"executive-portfolio-api/models"
)

// Submit outcomes. Rate limiting is its own class so callers can show the
// cooldown message instead of a generic failure.
type SubmitOutcome int

const (
	SubmitInvalid SubmitOutcome = iota
	SubmitSuccess
	SubmitRateLimited
	SubmitFailed
)

// SubmitResult is the user-visible outcome of a submit attempt. Network and
// server failures are folded in here rather than returned as errors, because
// the form always stays usable for another attempt.
type SubmitResult struct {
	Outcome     SubmitOutcome
	Message     string
	FieldErrors map[string]string
}

// Attachment is a file selected for upload, held in memory until submit.
type Attachment struct {
	Filename string
	MimeType string
	Content  []byte
}

// Form is a contact form draft. Field edits, validation, and submission all
// go through it; after a failed submit every entered value survives so the
// visitor never retypes the message.
type Form struct {
	client *Client

	mu         sync.Mutex
	fields     map[string]string
	consent    bool
	attachment *Attachment
	errors     map[string]string
	submitting bool
}

func NewForm(c *Client) *Form {
	return &Form{
		client: c,
		fields: make(map[string]string),
		errors: make(map[string]string),
	}
}

// UpdateField sets a field value and clears any prior validation error for
// that field only. Errors on other fields are left in place until the next
// full validation. consentGiven accepts "true"/"false".
func (f *Form) UpdateField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if name == "consentGiven" {
		f.consent, _ = strconv.ParseBool(value)
	} else {
		f.fields[name] = value
	}
	delete(f.errors, name)
}

// SelectAttachment validates the candidate file before accepting it. A file
// with a disallowed type or over the size limit is rejected outright: the
// slot stays empty (or keeps its previous file) and the violation is
// reported under the "attachment" key.
func (f *Form) SelectAttachment(filename, mimeType string, content []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg := models.ValidateAttachment(mimeType, int64(len(content))); msg != "" {
		f.errors["attachment"] = msg
		return false
	}

	f.attachment = &Attachment{Filename: filename, MimeType: mimeType, Content: content}
	delete(f.errors, "attachment")
	return true
}

// ClearAttachment removes the selected file from the draft.
func (f *Form) ClearAttachment() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachment = nil
	delete(f.errors, "attachment")
}

// Errors returns the current per-field validation errors.
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

func (f *Form) request() models.SubmitRequest {
	return models.SubmitRequest{
		FullName:      f.fields["fullName"],
		Email:         f.fields["email"],
		Organization:  f.fields["organization"],
		Phone:         f.fields["phone"],
		Purpose:       f.fields["purpose"],
		PurposeDetail: f.fields["purposeDetail"],
		Message:       f.fields["message"],
		ConsentGiven:  f.consent,
	}
}

// Validate checks every rule at once and records all violations, so a draft
// with five problems surfaces five messages in a single pass.
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	fieldErrors := models.ValidateSubmission(f.request())
	for k, v := range fieldErrors {
		f.errors[k] = v
	}
	return len(fieldErrors) == 0
}

// Submit validates and sends the draft. While an attempt is in flight,
// further calls are no-ops and report SubmitFailed without touching the
// network. On success the draft is reset; on any failure it is preserved.
func (f *Form) Submit(ctx context.Context) SubmitResult {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return SubmitResult{Outcome: SubmitFailed, Message: "A submission is already in progress"}
	}

	fieldErrors := models.ValidateSubmission(f.request())
	if len(fieldErrors) > 0 {
		for k, v := range fieldErrors {
			f.errors[k] = v
		}
		f.mu.Unlock()
		return SubmitResult{Outcome: SubmitInvalid, FieldErrors: fieldErrors}
	}

	f.submitting = true
	req := f.request()
	attachment := f.attachment
	f.mu.Unlock()

	result := f.client.submitMessage(ctx, req, attachment)

	f.mu.Lock()
	f.submitting = false
	if result.Outcome == SubmitSuccess {
		f.fields = make(map[string]string)
		f.consent = false
		f.attachment = nil
		f.errors = make(map[string]string)
	}
	f.mu.Unlock()

	return result
}

func (c *Client) submitMessage(ctx context.Context, req models.SubmitRequest, attachment *Attachment) SubmitResult {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	formFields := map[string]string{
		"fullName":      req.FullName,
		"email":         req.Email,
		"organization":  req.Organization,
		"phone":         req.Phone,
		"purpose":       req.Purpose,
		"purposeDetail": req.PurposeDetail,
		"message":       req.Message,
		"consentGiven":  strconv.FormatBool(req.ConsentGiven),
	}
	for name, value := range formFields {
		if err := writer.WriteField(name, value); err != nil {
			return SubmitResult{Outcome: SubmitFailed, Message: "Failed to send message. Please try again."}
		}
	}

	if attachment != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="attachment"; filename=%q`, attachment.Filename))
		header.Set("Content-Type", attachment.MimeType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return SubmitResult{Outcome: SubmitFailed, Message: "Failed to send message. Please try again."}
		}
		if _, err := part.Write(attachment.Content); err != nil {
			return SubmitResult{Outcome: SubmitFailed, Message: "Failed to send message. Please try again."}
		}
	}

	if err := writer.Close(); err != nil {
		return SubmitResult{Outcome: SubmitFailed, Message: "Failed to send message. Please try again."}
	}

	httpReq, err := c.newRequest(http.MethodPost, "/api/messages/submit", &buf)
	if err != nil {
		return SubmitResult{Outcome: SubmitFailed, Message: "Failed to send message. Please try again."}
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(httpReq.WithContext(ctx))
	if err != nil {
		return SubmitResult{Outcome: SubmitFailed, Message: "Network error. Please check your connection and try again."}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var body struct {
			Message string `json:"message"`
		}
		msg := "Your message has been sent successfully"
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
			msg = body.Message
		}
		return SubmitResult{Outcome: SubmitSuccess, Message: msg}

	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr := decodeError(resp)
		msg := apiErr.Message
		if msg == "" {
			msg = "You have reached the message limit. Please try again after an hour."
		}
		return SubmitResult{Outcome: SubmitRateLimited, Message: msg}

	default:
		apiErr := decodeError(resp)
		msg := apiErr.Message
		if msg == "" {
			msg = "Failed to send message. Please try again."
		}
		return SubmitResult{Outcome: SubmitFailed, Message: msg}
	}
}
