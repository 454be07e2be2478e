package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"executive-portfolio-api/models"
)

// ErrEmptyResponse is returned by SendResponse when the draft is empty or
// whitespace. The check happens before any network traffic.
var ErrEmptyResponse = errors.New("response text is required")

// Detail is the admin view of a single message. Fetching it marks the
// message read on the server side.
type Detail struct {
	client  *Client
	id      string
	Message *models.Message
}

func NewDetail(c *Client, id string) *Detail {
	return &Detail{client: c, id: id}
}

// Fetch loads the message. A missing ID yields ErrNotFound so callers can
// show a dedicated not-found view instead of a generic failure.
func (d *Detail) Fetch(ctx context.Context) error {
	req, err := d.client.newRequest(http.MethodGet, "/api/messages/admin/"+url.PathEscape(d.id), nil)
	if err != nil {
		return err
	}

	resp, err := d.client.http.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return decodeError(resp)
	}

	var body struct {
		Success bool           `json:"success"`
		Data    models.Message `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	d.Message = &body.Data
	return nil
}

// SendResponse stores a reply after confirmation. The prompt names the
// recipient so the admin sees exactly where the response goes. An empty or
// whitespace draft is rejected locally. A later response overwrites any
// earlier one, and the message advances to Responded.
func (d *Detail) SendResponse(ctx context.Context, text string, confirm ConfirmFunc) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyResponse
	}

	recipient := ""
	if d.Message != nil {
		recipient = d.Message.Email
	}
	prompt := fmt.Sprintf("Send this response to %s?", recipient)
	if confirm == nil || !confirm(prompt) {
		return ErrNotConfirmed
	}

	payload, err := json.Marshal(models.RespondRequest{Response: text})
	if err != nil {
		return err
	}

	req, err := d.client.newRequest(http.MethodPost,
		"/api/messages/admin/"+url.PathEscape(d.id)+"/respond", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.http.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return decodeError(resp)
	}

	var body struct {
		Success bool           `json:"success"`
		Data    models.Message `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	d.Message = &body.Data
	return nil
}

// SetStatus moves the message to one of the closed lifecycle states. Any
// other value is rejected locally.
func (d *Detail) SetStatus(ctx context.Context, status string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}

	if err := d.putJSON(ctx, "/status", models.StatusRequest{Status: status}); err != nil {
		return err
	}

	if d.Message != nil {
		d.Message.Status = status
	}
	return nil
}

// SaveNotes replaces the internal notes. Notes never leave the admin
// surface and do not affect the lifecycle state.
func (d *Detail) SaveNotes(ctx context.Context, notes string) error {
	if err := d.putJSON(ctx, "/notes", models.NotesRequest{Notes: notes}); err != nil {
		return err
	}

	if d.Message != nil {
		d.Message.InternalNotes = notes
	}
	return nil
}

// AttachmentDownloadURL builds a browser-usable download link carrying the
// admin token as a query parameter. Empty when the message has no
// attachment.
func (d *Detail) AttachmentDownloadURL() string {
	if d.Message == nil || d.Message.Attachment == nil {
		return ""
	}

	u := d.client.baseURL + "/api/messages/admin/" + url.PathEscape(d.id) + "/download"
	if token := d.client.bearerToken(); token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

// Delete permanently removes the message after the confirm callback
// approves. Without approval no request is issued.
func (d *Detail) Delete(ctx context.Context, confirm ConfirmFunc) error {
	if confirm == nil || !confirm("Are you sure you want to delete this message? This cannot be undone.") {
		return ErrNotConfirmed
	}
	return d.client.deleteMessage(ctx, d.id)
}

func (d *Detail) putJSON(ctx context.Context, suffix string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := d.client.newRequest(http.MethodPut,
		"/api/messages/admin/"+url.PathEscape(d.id)+suffix, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.http.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return decodeError(resp)
	}
}
