package ci

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

const remoteSystem = "ci"

var _ model.ContinuousIntegrationService = (*Client)(nil)

// Client manages accounts on the continuous integration server through
// its admin REST API.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   *logger.Logger
}

func NewClient(baseURL, username, password string, logger *logger.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &model.RemoteError{
			System:     remoteSystem,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(raw)),
		}
	}

	return nil
}

func userPath(login string) string {
	return "/api/v1/users/" + url.PathEscape(login)
}

// CreateUser creates the CI account. An already existing account is
// success-equivalent.
func (c *Client) CreateUser(ctx context.Context, user model.User, password string) error {
	body := map[string]string{
		"login":    user.Login,
		"password": password,
		"email":    user.Email,
		"fullName": user.DisplayName,
	}

	err := c.do(ctx, http.MethodPost, "/api/v1/users", body)
	if err != nil {
		if model.IsRemoteStatus(err, http.StatusConflict) {
			c.logger.Info("ci: user already exists", "login", user.Login)
			return nil
		}
		return fmt.Errorf("failed to create CI user: %w", err)
	}
	return nil
}

// UpdateUser updates the CI account's profile and, when password is
// non-empty, its password.
func (c *Client) UpdateUser(ctx context.Context, user model.User, password string) error {
	body := map[string]string{
		"email":    user.Email,
		"fullName": user.DisplayName,
	}
	if password != "" {
		body["password"] = password
	}

	if err := c.do(ctx, http.MethodPut, userPath(user.Login), body); err != nil {
		return fmt.Errorf("failed to update CI user: %w", err)
	}
	return nil
}

// DeleteUser removes the CI account. Deleting an already deleted account
// is success.
func (c *Client) DeleteUser(ctx context.Context, login string) error {
	err := c.do(ctx, http.MethodDelete, userPath(login), nil)
	if err != nil {
		if model.IsRemoteStatus(err, http.StatusNotFound) {
			c.logger.Info("ci: user already deleted", "login", login)
			return nil
		}
		return fmt.Errorf("failed to delete CI user: %w", err)
	}
	return nil
}

// AddUserToGroups adds the CI account to the named groups.
func (c *Client) AddUserToGroups(ctx context.Context, login string, groups []string) error {
	if err := c.do(ctx, http.MethodPost, userPath(login)+"/groups", map[string]any{"groups": groups}); err != nil {
		return fmt.Errorf("failed to add CI user to groups: %w", err)
	}
	return nil
}

// RemoveUserFromGroups removes the CI account from the named groups.
func (c *Client) RemoveUserFromGroups(ctx context.Context, login string, groups []string) error {
	if err := c.do(ctx, http.MethodPost, userPath(login)+"/groups/remove", map[string]any{"groups": groups}); err != nil {
		return fmt.Errorf("failed to remove CI user from groups: %w", err)
	}
	return nil
}
