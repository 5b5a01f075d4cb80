package directory

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

const remoteSystem = "directory"

var _ model.DirectoryService = (*Client)(nil)

// Client manages group membership on the directory provider through its
// usermanagement REST API. Callers treat its failures as best-effort:
// platform-local groups do not exist in the directory and calls touching
// them are expected to fail.
type Client struct {
	baseURL     string
	application string
	password    string
	http        *http.Client
	logger      *logger.Logger
}

func NewClient(baseURL, application, password string, logger *logger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		application: application,
		password:    password,
		http:        &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) error {
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
	req.SetBasicAuth(c.application, c.password)

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

// CreateUser creates the directory entry for the user. An existing entry
// is success-equivalent.
func (c *Client) CreateUser(ctx context.Context, user model.User) error {
	body := map[string]any{
		"name":         user.Login,
		"display-name": user.DisplayName,
		"email":        user.Email,
		"active":       true,
	}

	err := c.do(ctx, http.MethodPost, "/rest/usermanagement/1/user", nil, body)
	if err != nil {
		if model.IsRemoteStatus(err, http.StatusConflict) {
			c.logger.Info("directory: user already exists", "login", user.Login)
			return nil
		}
		return fmt.Errorf("failed to create directory user: %w", err)
	}
	return nil
}

// AddUserToGroup adds the user to the named directory group.
func (c *Client) AddUserToGroup(ctx context.Context, login, group string) error {
	query := url.Values{}
	query.Set("username", login)

	body := map[string]string{"name": group}
	if err := c.do(ctx, http.MethodPost, "/rest/usermanagement/1/user/group/direct", query, body); err != nil {
		return fmt.Errorf("failed to add user to directory group: %w", err)
	}
	return nil
}

// RemoveUserFromGroup removes the user from the named directory group.
func (c *Client) RemoveUserFromGroup(ctx context.Context, login, group string) error {
	query := url.Values{}
	query.Set("username", login)
	query.Set("groupname", group)

	if err := c.do(ctx, http.MethodDelete, "/rest/usermanagement/1/user/group/direct", query, nil); err != nil {
		return fmt.Errorf("failed to remove user from directory group: %w", err)
	}
	return nil
}
