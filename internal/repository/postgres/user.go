package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/courseforge/usersync/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, login, password_hash, email, display_name, registration_number,
			  activated, activation_key, reset_key, reset_date, groups, authorities, internal, created_at`

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Login, &user.PasswordHash, &user.Email, &user.DisplayName,
		&user.RegistrationNumber, &user.Activated, &user.ActivationKey, &user.ResetKey,
		&user.ResetDate, &user.Groups, &user.Authorities, &user.Internal, &user.CreatedAt,
	)
	return user, err
}

func (r *UserRepository) GetByLogin(ctx context.Context, login string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by login: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, login, password_hash, email, display_name, registration_number,
			  activated, activation_key, reset_key, reset_date, groups, authorities, internal, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			  RETURNING ` + userColumns

	savedUser, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Login, user.PasswordHash, user.Email, user.DisplayName,
		user.RegistrationNumber, user.Activated, user.ActivationKey, user.ResetKey,
		user.ResetDate, user.Groups, user.Authorities, user.Internal, user.CreatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrConflict
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return savedUser, nil
}

func (r *UserRepository) Save(ctx context.Context, user model.User) (model.User, error) {
	query := `UPDATE users SET password_hash = $2, email = $3, display_name = $4,
			  registration_number = $5, activated = $6, activation_key = $7, reset_key = $8,
			  reset_date = $9, groups = $10, authorities = $11, internal = $12
			  WHERE login = $1
			  RETURNING ` + userColumns

	savedUser, err := scanUser(r.db.QueryRow(ctx, query,
		user.Login, user.PasswordHash, user.Email, user.DisplayName,
		user.RegistrationNumber, user.Activated, user.ActivationKey, user.ResetKey,
		user.ResetDate, user.Groups, user.Authorities, user.Internal,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.User{}, model.ErrConflict
		}
		return model.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	return savedUser, nil
}

func (r *UserRepository) Delete(ctx context.Context, login string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE login = $1`, login)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
