package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/courseforge/usersync/internal/logger"
	"github.com/courseforge/usersync/internal/model"
)

const remoteSystem = "bitbucket"

var _ model.VersionControlService = (*Client)(nil)

// Client talks to a Bitbucket Server instance through its REST API.
// It holds no remote state beyond the current call.
type Client struct {
	baseURL  string
	username string
	password string
	token    string
	http     *http.Client
	logger   *logger.Logger
}

func NewClient(baseURL, username, password, token string, logger *logger.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// do executes a JSON request against the REST API. Admin endpoints (user
// administration, project creation) reject personal access tokens, so
// they authenticate with basic credentials even when a token is
// configured; everything else prefers the token.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, admin bool) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" && !admin {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.remoteError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
		}
	}

	return nil
}

// remoteError reads the Bitbucket error envelope, falling back to the
// raw body when the envelope is absent.
func (c *Client) remoteError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := strings.TrimSpace(string(raw))
	var envelope struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Errors) > 0 {
		message = envelope.Errors[0].Message
	}

	return &model.RemoteError{
		System:     remoteSystem,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
