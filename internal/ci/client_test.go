package ci

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseforge/usersync/internal/model"
	"github.com/courseforge/usersync/internal/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "admin", "adminpass", testutil.MakeNoopLogger())
}

func TestClient_CreateUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "adminpass", pass)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/users", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["login"])
		assert.Equal(t, "secret", body["password"])
		w.WriteHeader(http.StatusCreated)
	})

	err := client.CreateUser(context.Background(), model.User{Login: "alice", Email: "alice@example.com"}, "secret")
	require.NoError(t, err)
}

func TestClient_CreateUser_ConflictIsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	err := client.CreateUser(context.Background(), model.User{Login: "alice"}, "secret")
	require.NoError(t, err)
}

func TestClient_UpdateUser_OmitsEmptyPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/alice", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasPassword := body["password"]
		assert.False(t, hasPassword, "profile updates must not send a password field")
		w.WriteHeader(http.StatusOK)
	})

	err := client.UpdateUser(context.Background(), model.User{Login: "alice"}, "")
	require.NoError(t, err)
}

func TestClient_UpdateUser_SendsNewPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new password", body["password"])
		w.WriteHeader(http.StatusOK)
	})

	err := client.UpdateUser(context.Background(), model.User{Login: "alice"}, "new password")
	require.NoError(t, err)
}

func TestClient_DeleteUser_NotFoundIsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	require.NoError(t, client.DeleteUser(context.Background(), "ghost"))
}

func TestClient_GroupCalls(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"a", "b"}, body["groups"])
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.AddUserToGroups(context.Background(), "alice", []string{"a", "b"}))
	require.NoError(t, client.RemoveUserFromGroups(context.Background(), "alice", []string{"a", "b"}))
	assert.Equal(t, []string{"/api/v1/users/alice/groups", "/api/v1/users/alice/groups/remove"}, paths)
}

func TestClient_RemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("database unavailable"))
	})

	err := client.DeleteUser(context.Background(), "alice")
	require.Error(t, err)

	var remote *model.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "ci", remote.System)
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)
	assert.Equal(t, "database unavailable", remote.Message)
}
