//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/courseforge/usersync/database"
	"github.com/courseforge/usersync/internal/model"
	repo "github.com/courseforge/usersync/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "usersync_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/usersync_test?sslmode=disable", host, port.Port())

	if err := database.Migrate(ctx, dsn); err != nil {
		panic(err)
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newUser(login string) model.User {
	return model.User{
		ID:            uuid.New(),
		Login:         login,
		PasswordHash:  "$2a$04$hash",
		Email:         login + "@example.com",
		DisplayName:   "Test User",
		Activated:     false,
		ActivationKey: "ak-" + login,
		Groups:        []string{"algo-students"},
		Authorities:   []string{model.RoleUser},
		Internal:      true,
		CreatedAt:     time.Now(),
	}
}

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)

	u := newUser("alice")
	saved, err := ur.Create(ctx, u)
	require.NoError(t, err)
	require.Equal(t, u.ID, saved.ID)
	require.Equal(t, u.Groups, saved.Groups)

	byLogin, err := ur.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, byLogin.ID)

	byID, err := ur.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Login)

	byLogin.Activated = true
	byLogin.ActivationKey = ""
	byLogin.Groups = []string{"algo-students", "db-students"}
	updated, err := ur.Save(ctx, byLogin)
	require.NoError(t, err)
	require.True(t, updated.Activated)
	require.Empty(t, updated.ActivationKey)
	require.Len(t, updated.Groups, 2)

	require.NoError(t, ur.Delete(ctx, "alice"))

	_, err = ur.GetByLogin(ctx, "alice")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_Conflicts(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)

	u := newUser("bob")
	_, err = ur.Create(ctx, u)
	require.NoError(t, err)

	dup := newUser("bob")
	_, err = ur.Create(ctx, dup)
	require.ErrorIs(t, err, model.ErrConflict)

	sameEmail := newUser("carol")
	sameEmail.Email = u.Email
	_, err = ur.Create(ctx, sameEmail)
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)

	_, err = ur.GetByLogin(ctx, "ghost")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = ur.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = ur.Save(ctx, newUser("ghost"))
	require.ErrorIs(t, err, model.ErrNotFound)

	require.ErrorIs(t, ur.Delete(ctx, "ghost"), model.ErrNotFound)
}
