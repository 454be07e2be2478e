package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"executive-portfolio-api/models"
)

// Login exchanges admin credentials for a bearer token and installs it on
// the client. The returned expiry lets callers schedule a re-login.
func (c *Client) Login(ctx context.Context, username, password string) (time.Time, error) {
	payload, err := json.Marshal(models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return time.Time{}, err
	}

	req, err := c.newRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, decodeError(resp)
	}

	var body models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return time.Time{}, fmt.Errorf("decode login response: %w", err)
	}

	c.SetToken(body.Token)
	return body.ExpiresAt, nil
}

// Logout discards the bearer token. Tokens are stateless, so this is purely
// client-side.
func (c *Client) Logout() {
	c.SetToken("")
}
