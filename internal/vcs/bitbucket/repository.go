package bitbucket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/courseforge/usersync/internal/model"
)

const webhookPageSize = 25

func repoPath(repo model.RepositoryRef) string {
	return "/rest/api/1.0/projects/" + url.PathEscape(repo.ProjectKey) + "/repos/" + url.PathEscape(repo.Slug)
}

// CreateRepository creates the repository in its project. An already
// existing repository is success-equivalent.
func (c *Client) CreateRepository(ctx context.Context, repo model.RepositoryRef) error {
	body := map[string]string{
		"name":  repo.Slug,
		"scmId": "git",
	}

	path := "/rest/api/1.0/projects/" + url.PathEscape(repo.ProjectKey) + "/repos"
	err := c.do(ctx, http.MethodPost, path, nil, body, nil, true)
	if err != nil {
		if model.IsRemoteStatus(err, http.StatusConflict) {
			c.logger.Info("bitbucket: repository already exists", "project", repo.ProjectKey, "repository", repo.Slug)
			return nil
		}
		return fmt.Errorf("failed to create repository: %w", err)
	}
	return nil
}

// DeleteRepository removes the repository. Deleting an already deleted
// repository is success.
func (c *Client) DeleteRepository(ctx context.Context, repo model.RepositoryRef) error {
	err := c.do(ctx, http.MethodDelete, repoPath(repo), nil, nil, nil, false)
	if err != nil {
		if model.IsRemoteStatus(err, http.StatusNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete repository: %w", err)
	}
	return nil
}

// GrantRepositoryAccess grants the permission to the user. The call is a
// PUT, so granting the same level twice is idempotent on the server. A
// 404 means the server does not know the user — shortly after account
// creation that is a propagation race, surfaced as ErrPrincipalNotFound
// so the caller can retry within its grace window.
func (c *Client) GrantRepositoryAccess(ctx context.Context, repo model.RepositoryRef, login string, permission model.RepositoryPermission) error {
	query := url.Values{}
	query.Set("name", login)
	query.Set("permission", string(permission))

	err := c.do(ctx, http.MethodPut, repoPath(repo)+"/permissions/users", query, nil, nil, false)
	if err != nil {
		if model.IsRemoteStatus(err, http.StatusNotFound) {
			return fmt.Errorf("user %s unknown to bitbucket: %w", login, model.ErrPrincipalNotFound)
		}
		return fmt.Errorf("failed to grant repository access: %w", err)
	}
	return nil
}

// RevokeRepositoryAccess removes the user's permission on the
// repository. A missing permission or user is success.
func (c *Client) RevokeRepositoryAccess(ctx context.Context, repo model.RepositoryRef, login string) error {
	query := url.Values{}
	query.Set("name", login)

	err := c.do(ctx, http.MethodDelete, repoPath(repo)+"/permissions/users", query, nil, nil, false)
	if err != nil {
		if model.IsRemoteStatus(err, http.StatusNotFound) {
			return nil
		}
		return fmt.Errorf("failed to revoke repository access: %w", err)
	}
	return nil
}

// ProtectBranches applies fast-forward-only and no-deletes restrictions
// to all branches via a wildcard matcher, so new branches are covered
// without per-branch bookkeeping. Re-submission does not duplicate rules
// on the server. Failures are logged and swallowed: protection hardens
// the repository but must never block provisioning.
func (c *Client) ProtectBranches(ctx context.Context, repo model.RepositoryRef) error {
	path := "/rest/branch-permissions/2.0/projects/" + url.PathEscape(repo.ProjectKey) +
		"/repos/" + url.PathEscape(repo.Slug) + "/restrictions"

	for _, restriction := range []string{"fast-forward-only", "no-deletes"} {
		body := map[string]any{
			"type": restriction,
			"matcher": map[string]any{
				"id":        "**",
				"displayId": "**",
				"type":      map[string]string{"id": "PATTERN"},
				"active":    true,
			},
			"users":  []string{},
			"groups": []string{},
		}
		if err := c.do(ctx, http.MethodPost, path, nil, body, nil, false); err != nil {
			c.logger.Warn("bitbucket: failed to apply branch restriction",
				"project", repo.ProjectKey,
				"repository", repo.Slug,
				"restriction", restriction,
				"error", err.Error(),
			)
		}
	}

	return nil
}

type webhookPage struct {
	Values []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"values"`
	IsLastPage    bool `json:"isLastPage"`
	NextPageStart int  `json:"nextPageStart"`
}

// EnsureWebhook registers the push webhook unless one with the same name
// already exists. The check-then-act is not safe against concurrent
// provisioning of the same repository; a duplicate webhook is cosmetic,
// so no locking is introduced.
func (c *Client) EnsureWebhook(ctx context.Context, repo model.RepositoryRef, name, notificationURL string) error {
	start := 0
	for {
		query := url.Values{}
		query.Set("start", strconv.Itoa(start))
		query.Set("limit", strconv.Itoa(webhookPageSize))

		var page webhookPage
		if err := c.do(ctx, http.MethodGet, repoPath(repo)+"/webhooks", query, nil, &page, false); err != nil {
			return fmt.Errorf("failed to list webhooks: %w", err)
		}

		for _, hook := range page.Values {
			if hook.Name == name {
				return nil
			}
		}

		if page.IsLastPage {
			break
		}
		start = page.NextPageStart
	}

	body := map[string]any{
		"name":   name,
		"url":    notificationURL,
		"events": []string{"repo:refs_changed"},
		"active": true,
	}
	if err := c.do(ctx, http.MethodPost, repoPath(repo)+"/webhooks", nil, body, nil, false); err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	return nil
}

// DefaultBranch resolves the repository's default branch name.
func (c *Client) DefaultBranch(ctx context.Context, repo model.RepositoryRef) (string, error) {
	var branch struct {
		DisplayID string `json:"displayId"`
	}
	if err := c.do(ctx, http.MethodGet, repoPath(repo)+"/branches/default", nil, nil, &branch, false); err != nil {
		return "", fmt.Errorf("failed to get default branch: %w", err)
	}
	return branch.DisplayID, nil
}
