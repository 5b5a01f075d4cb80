package directory

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
	return NewClient(srv.URL, "usersync-app", "apppass", testutil.MakeNoopLogger())
}

func TestClient_CreateUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		app, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "usersync-app", app)
		assert.Equal(t, "apppass", pass)
		assert.Equal(t, "/rest/usermanagement/1/user", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["name"])
		assert.Equal(t, true, body["active"])
		w.WriteHeader(http.StatusCreated)
	})

	err := client.CreateUser(context.Background(), model.User{Login: "alice", DisplayName: "Alice A."})
	require.NoError(t, err)
}

func TestClient_CreateUser_ConflictIsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	require.NoError(t, client.CreateUser(context.Background(), model.User{Login: "alice"}))
}

func TestClient_AddUserToGroup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/usermanagement/1/user/group/direct", r.URL.Path)
		assert.Equal(t, "alice", r.URL.Query().Get("username"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "algo-students", body["name"])
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.AddUserToGroup(context.Background(), "alice", "algo-students"))
}

func TestClient_RemoveUserFromGroup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "alice", r.URL.Query().Get("username"))
		assert.Equal(t, "algo-students", r.URL.Query().Get("groupname"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.RemoveUserFromGroup(context.Background(), "alice", "algo-students"))
}

func TestClient_UnknownGroupSurfacesError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("group does not exist"))
	})

	err := client.AddUserToGroup(context.Background(), "alice", "platform-local-group")
	require.Error(t, err)

	var remote *model.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "directory", remote.System)
	assert.Equal(t, http.StatusNotFound, remote.StatusCode)
}
