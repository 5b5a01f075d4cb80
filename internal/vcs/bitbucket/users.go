package bitbucket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/courseforge/usersync/internal/model"
)

// UserExists checks whether the login is known to the server.
func (c *Client) UserExists(ctx context.Context, login string) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/rest/api/1.0/users/"+url.PathEscape(login), nil, nil, nil, false)
	if err != nil {
		if model.IsRemoteStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return true, nil
}

// CreateUser creates the account. An already existing account is
// success-equivalent: the goal state is reached either way.
func (c *Client) CreateUser(ctx context.Context, user model.User, password string) error {
	query := url.Values{}
	query.Set("name", user.Login)
	query.Set("password", password)
	query.Set("displayName", user.DisplayName)
	query.Set("emailAddress", user.Email)
	query.Set("addToDefaultGroup", "false")
	query.Set("notify", "false")

	err := c.do(ctx, http.MethodPost, "/rest/api/1.0/admin/users", query, nil, nil, true)
	if err != nil {
		if model.IsRemoteStatus(err, http.StatusConflict) {
			c.logger.Info("bitbucket: user already exists", "login", user.Login)
			return nil
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateUser updates the account's profile fields.
func (c *Client) UpdateUser(ctx context.Context, user model.User) error {
	body := map[string]string{
		"name":        user.Login,
		"displayName": user.DisplayName,
		"email":       user.Email,
	}

	if err := c.do(ctx, http.MethodPut, "/rest/api/1.0/admin/users", nil, body, nil, true); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdatePassword replaces the account's password.
func (c *Client) UpdatePassword(ctx context.Context, login, password string) error {
	body := map[string]string{
		"name":            login,
		"password":        password,
		"passwordConfirm": password,
	}

	if err := c.do(ctx, http.MethodPut, "/rest/api/1.0/admin/users/credentials", nil, body, nil, true); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// DeleteUser removes the account. Deleting an already deleted account is
// success.
func (c *Client) DeleteUser(ctx context.Context, login string) error {
	query := url.Values{}
	query.Set("name", login)

	err := c.do(ctx, http.MethodDelete, "/rest/api/1.0/admin/users", query, nil, nil, true)
	if err != nil {
		if model.IsRemoteStatus(err, http.StatusNotFound) {
			c.logger.Info("bitbucket: user already deleted", "login", login)
			return nil
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// AddUserToGroups adds the account to the named groups.
func (c *Client) AddUserToGroups(ctx context.Context, login string, groups []string) error {
	body := map[string]any{
		"user":   login,
		"groups": groups,
	}

	if err := c.do(ctx, http.MethodPost, "/rest/api/1.0/admin/users/add-groups", nil, body, nil, true); err != nil {
		return fmt.Errorf("failed to add user to groups: %w", err)
	}
	return nil
}

// RemoveUserFromGroups removes the account from the named groups. The
// API removes one group per call.
func (c *Client) RemoveUserFromGroups(ctx context.Context, login string, groups []string) error {
	for _, group := range groups {
		body := map[string]string{
			"context":  login,
			"itemName": group,
		}
		if err := c.do(ctx, http.MethodPost, "/rest/api/1.0/admin/users/remove-group", nil, body, nil, true); err != nil {
			return fmt.Errorf("failed to remove user from group %s: %w", group, err)
		}
	}
	return nil
}
