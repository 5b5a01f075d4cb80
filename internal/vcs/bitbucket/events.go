package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/courseforge/usersync/internal/model"
)

// eventDateLayout is the timestamp format Bitbucket uses in event
// payloads, e.g. "2017-09-19T09:45:32+1000".
const eventDateLayout = "2006-01-02T15:04:05Z0700"

const activityPageSize = 20

// LastCommit extracts commit metadata from a push event payload. The
// payload is semi-structured and not under our control, so every access
// is guarded: a parse failure degrades to a partially populated commit
// instead of failing the caller. This is best-effort telemetry.
func (c *Client) LastCommit(payload []byte) model.Commit {
	var commit model.Commit

	var event map[string]any
	if err := json.Unmarshal(payload, &event); err != nil {
		return commit
	}

	if actor, ok := event["actor"].(map[string]any); ok {
		commit.Author, _ = actor["name"].(string)
		commit.Email, _ = actor["emailAddress"].(string)
	}

	if changes, ok := event["changes"].([]any); ok && len(changes) > 0 {
		if change, ok := changes[0].(map[string]any); ok {
			commit.Hash, _ = change["toHash"].(string)
			if ref, ok := change["ref"].(map[string]any); ok {
				commit.Branch, _ = ref["displayId"].(string)
			}
		}
	}

	if commits, ok := event["commits"].([]any); ok && len(commits) > 0 {
		if last, ok := commits[0].(map[string]any); ok {
			commit.Message, _ = last["message"].(string)
		}
	}

	return commit
}

type activityPage struct {
	Values []struct {
		CreatedDate int64 `json:"createdDate"`
		RefChange   struct {
			ToHash string `json:"toHash"`
		} `json:"refChange"`
	} `json:"values"`
	IsLastPage    bool `json:"isLastPage"`
	NextPageStart int  `json:"nextPageStart"`
}

// PushDate resolves when the commit was pushed. The timestamp is read
// from the event payload when one is available and parseable; otherwise
// the server's ref-change activity feed is paged until the matching
// commit is found or the last page is exhausted. The paged fallback is
// expensive, which is why the payload is always tried first (a manual
// resync has no payload at all).
func (c *Client) PushDate(ctx context.Context, participation model.Participation, commitHash string, payload []byte) (time.Time, error) {
	if len(payload) > 0 {
		var event struct {
			Date string `json:"date"`
		}
		if err := json.Unmarshal(payload, &event); err == nil && event.Date != "" {
			if date, err := time.Parse(eventDateLayout, event.Date); err == nil {
				return date, nil
			}
		}
	}

	path := repoPath(participation.Repository) + "/ref-change-activities"
	start := 0
	for {
		query := url.Values{}
		query.Set("start", strconv.Itoa(start))
		query.Set("limit", strconv.Itoa(activityPageSize))

		var page activityPage
		if err := c.do(ctx, http.MethodGet, path, query, nil, &page, false); err != nil {
			return time.Time{}, fmt.Errorf("failed to list ref change activities: %w", err)
		}

		for _, activity := range page.Values {
			if activity.RefChange.ToHash == commitHash {
				return time.UnixMilli(activity.CreatedDate), nil
			}
		}

		if page.IsLastPage {
			break
		}
		start = page.NextPageStart
	}

	return time.Time{}, &model.PushDateError{
		ParticipationID: participation.ID,
		CommitHash:      commitHash,
	}
}
