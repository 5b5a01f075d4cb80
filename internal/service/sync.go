package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/courseforge/usersync/internal/logger"
	"github.com/courseforge/usersync/internal/model"
)

const (
	initialPasswordLength = 12
	resetKeyValidity      = 24 * time.Hour
	webhookName           = "usersync-push"
)

// ErrExternalAccount is returned when a password operation targets an
// account whose password is managed by the directory provider.
var ErrExternalAccount = errors.New("password is managed externally")

// Sync orchestrates user mutations across the local store and the
// configured external systems. Any of vcs, ci and directory may be nil;
// an absent system behaves like a succeeded no-op. Local writes commit
// before remote calls, so a remote failure never leaves the local record
// half-written — it leaves remote state behind, which the next
// synchronization pass repairs.
type Sync struct {
	identity   *Identity
	hasher     *PasswordHasher
	grantor    *Grantor
	vcs        model.VersionControlService
	ci         model.ContinuousIntegrationService
	directory  model.DirectoryService
	webhookURL string
	logger     *logger.Logger
}

func NewSync(
	identity *Identity,
	hasher *PasswordHasher,
	grantor *Grantor,
	vcs model.VersionControlService,
	ci model.ContinuousIntegrationService,
	directory model.DirectoryService,
	webhookURL string,
	logger *logger.Logger,
) *Sync {
	return &Sync{
		identity:   identity,
		hasher:     hasher,
		grantor:    grantor,
		vcs:        vcs,
		ci:         ci,
		directory:  directory,
		webhookURL: webhookURL,
		logger:     logger,
	}
}

// CreateUser persists a new user and provisions it on the configured
// external systems. VCS and CI failures propagate after the local commit;
// directory failures are logged and swallowed.
func (s *Sync) CreateUser(ctx context.Context, params model.CreateUserParams) (model.User, error) {
	user := model.User{
		Login:              params.Login,
		Email:              params.Email,
		DisplayName:        params.DisplayName,
		RegistrationNumber: params.RegistrationNumber,
		Groups:             params.Groups,
		Internal:           params.Internal,
	}

	var password string
	if params.Internal {
		password = params.Password
		if password == "" {
			generated, err := RandomPassword(initialPasswordLength)
			if err != nil {
				return model.User{}, err
			}
			password = generated
		}

		hash, err := s.hasher.Hash(password)
		if err != nil {
			return model.User{}, err
		}
		user.PasswordHash = hash
	}

	created, err := s.identity.Create(ctx, user)
	if err != nil {
		return model.User{}, err
	}

	if s.vcs != nil {
		if err := s.vcs.CreateUser(ctx, created, password); err != nil {
			return created, fmt.Errorf("failed to create VCS user: %w", err)
		}
		if len(created.Groups) > 0 {
			if err := s.vcs.AddUserToGroups(ctx, created.Login, created.Groups); err != nil {
				return created, fmt.Errorf("failed to add VCS user to groups: %w", err)
			}
		}
	}

	if s.ci != nil {
		if err := s.ci.CreateUser(ctx, created, password); err != nil {
			return created, fmt.Errorf("failed to create CI user: %w", err)
		}
		if len(created.Groups) > 0 {
			if err := s.ci.AddUserToGroups(ctx, created.Login, created.Groups); err != nil {
				return created, fmt.Errorf("failed to add CI user to groups: %w", err)
			}
		}
	}

	if s.directory != nil {
		if err := s.directory.CreateUser(ctx, created); err != nil {
			s.logger.Warn("sync: failed to register user with directory", "login", created.Login, "error", err.Error())
		} else {
			for _, group := range created.Groups {
				if err := s.directory.AddUserToGroup(ctx, created.Login, group); err != nil {
					s.logger.Warn("sync: failed to add user to directory group", "login", created.Login, "group", group, "error", err.Error())
				}
			}
		}
	}

	return created, nil
}

// UpdateUser persists profile field changes and pushes them to the VCS
// and CI servers best-effort: profile syncs fail quiet.
func (s *Sync) UpdateUser(ctx context.Context, login string, params model.UpdateUserParams) (model.User, error) {
	user, err := s.identity.GetByLogin(ctx, login)
	if err != nil {
		return model.User{}, err
	}

	user.Email = params.Email
	user.DisplayName = params.DisplayName
	user.RegistrationNumber = params.RegistrationNumber

	saved, err := s.identity.Save(ctx, user)
	if err != nil {
		return model.User{}, err
	}

	if s.vcs != nil {
		if err := s.vcs.UpdateUser(ctx, saved); err != nil {
			s.logger.Warn("sync: failed to update VCS user", "login", saved.Login, "error", err.Error())
		}
	}
	if s.ci != nil {
		if err := s.ci.UpdateUser(ctx, saved, ""); err != nil {
			s.logger.Warn("sync: failed to update CI user", "login", saved.Login, "error", err.Error())
		}
	}

	return saved, nil
}

// ChangePassword verifies the current password, stores the new hash and
// propagates the change. A mismatch fails fast with zero remote calls; a
// VCS failure skips the CI call.
func (s *Sync) ChangePassword(ctx context.Context, login, currentPassword, newPassword string) error {
	user, err := s.identity.GetByLogin(ctx, login)
	if err != nil {
		return err
	}
	if !user.Internal {
		return ErrExternalAccount
	}

	match, err := s.hasher.Verify(user.PasswordHash, currentPassword)
	if err != nil {
		return err
	}
	if !match {
		return model.ErrInvalidCredentials
	}

	return s.setPassword(ctx, user, newPassword)
}

// RequestPasswordReset issues a reset key for the user. Delivery of the
// key is the surrounding platform's concern.
func (s *Sync) RequestPasswordReset(ctx context.Context, login string) (model.User, error) {
	user, err := s.identity.GetByLogin(ctx, login)
	if err != nil {
		return model.User{}, err
	}
	if !user.Internal {
		return model.User{}, ErrExternalAccount
	}

	now := time.Now()
	user.ResetKey = xid.New().String()
	user.ResetDate = &now

	return s.identity.Save(ctx, user)
}

// FinishPasswordReset consumes a valid reset key and sets the new
// password, propagating it like a password change.
func (s *Sync) FinishPasswordReset(ctx context.Context, login, resetKey, newPassword string) error {
	user, err := s.identity.GetByLogin(ctx, login)
	if err != nil {
		return err
	}
	if user.ResetKey == "" || user.ResetKey != resetKey {
		return model.ErrInvalidCredentials
	}
	if user.ResetDate == nil || time.Since(*user.ResetDate) > resetKeyValidity {
		return model.ErrInvalidCredentials
	}

	return s.setPassword(ctx, user, newPassword)
}

func (s *Sync) setPassword(ctx context.Context, user model.User, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	saved, err := s.identity.SetPassword(ctx, user, hash)
	if err != nil {
		return err
	}

	if s.vcs != nil {
		if err := s.vcs.UpdatePassword(ctx, saved.Login, newPassword); err != nil {
			return fmt.Errorf("failed to update VCS password: %w", err)
		}
	}
	if s.ci != nil {
		if err := s.ci.UpdateUser(ctx, saved, newPassword); err != nil {
			return fmt.Errorf("failed to update CI password: %w", err)
		}
	}

	return nil
}

// ActivateRegistration consumes an activation key and activates the
// pending account.
func (s *Sync) ActivateRegistration(ctx context.Context, login, activationKey string) (model.User, error) {
	user, err := s.identity.GetByLogin(ctx, login)
	if err != nil {
		return model.User{}, err
	}
	if user.Activated {
		return user, nil
	}
	if user.ActivationKey == "" || user.ActivationKey != activationKey {
		return model.User{}, model.ErrInvalidCredentials
	}

	return s.identity.Activate(ctx, user)
}

// UpdateGroups persists the new group set, recomputes authorities and
// propagates the add/remove delta. The VCS is updated first and its
// failure skips the CI call; directory errors are always swallowed since
// platform-local groups are not expected to exist there.
func (s *Sync) UpdateGroups(ctx context.Context, login string, newGroups []string) (model.User, error) {
	user, err := s.identity.GetByLogin(ctx, login)
	if err != nil {
		return model.User{}, err
	}

	oldGroups := user.Groups
	user.Groups = newGroups

	saved, err := s.identity.Save(ctx, user)
	if err != nil {
		return model.User{}, err
	}

	delta := DiffGroups(oldGroups, newGroups)
	if len(delta.Added) == 0 && len(delta.Removed) == 0 {
		return saved, nil
	}

	if s.vcs != nil {
		if len(delta.Added) > 0 {
			if err := s.vcs.AddUserToGroups(ctx, saved.Login, delta.Added); err != nil {
				return saved, fmt.Errorf("failed to add VCS user to groups: %w", err)
			}
		}
		if len(delta.Removed) > 0 {
			if err := s.vcs.RemoveUserFromGroups(ctx, saved.Login, delta.Removed); err != nil {
				return saved, fmt.Errorf("failed to remove VCS user from groups: %w", err)
			}
		}
	}

	if s.directory != nil {
		for _, group := range delta.Added {
			if err := s.directory.AddUserToGroup(ctx, saved.Login, group); err != nil {
				s.logger.Warn("sync: failed to add user to directory group", "login", saved.Login, "group", group, "error", err.Error())
			}
		}
		for _, group := range delta.Removed {
			if err := s.directory.RemoveUserFromGroup(ctx, saved.Login, group); err != nil {
				s.logger.Warn("sync: failed to remove user from directory group", "login", saved.Login, "group", group, "error", err.Error())
			}
		}
	}

	if s.ci != nil {
		if len(delta.Added) > 0 {
			if err := s.ci.AddUserToGroups(ctx, saved.Login, delta.Added); err != nil {
				return saved, fmt.Errorf("failed to add CI user to groups: %w", err)
			}
		}
		if len(delta.Removed) > 0 {
			if err := s.ci.RemoveUserFromGroups(ctx, saved.Login, delta.Removed); err != nil {
				return saved, fmt.Errorf("failed to remove CI user from groups: %w", err)
			}
		}
	}

	return saved, nil
}

// DeleteUser removes the user remotely before locally: the local row is
// deleted last so a remote failure never strands live remote access
// behind an already-deleted local account.
func (s *Sync) DeleteUser(ctx context.Context, login string) error {
	user, err := s.identity.GetByLogin(ctx, login)
	if err != nil {
		return err
	}

	if s.vcs != nil {
		if err := s.vcs.DeleteUser(ctx, user.Login); err != nil {
			return fmt.Errorf("failed to delete VCS user: %w", err)
		}
	}
	if s.ci != nil {
		if err := s.ci.DeleteUser(ctx, user.Login); err != nil {
			return fmt.Errorf("failed to delete CI user: %w", err)
		}
	}

	return s.identity.Delete(ctx, user.Login)
}

// ProvisionRepository creates the repository, grants the given users
// write access through the retrying grantor, protects branches and
// registers the push webhook. Branch protection failures are already
// swallowed by the connector; they harden the repository but must not
// block provisioning.
func (s *Sync) ProvisionRepository(ctx context.Context, repo model.RepositoryRef, logins []string) error {
	if s.vcs == nil {
		return nil
	}

	if err := s.vcs.CreateRepository(ctx, repo); err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	for _, login := range logins {
		user, err := s.identity.GetByLogin(ctx, login)
		if err != nil {
			return err
		}
		if err := s.grantor.Grant(ctx, repo, user, model.PermissionWrite); err != nil {
			return err
		}
	}

	if err := s.vcs.ProtectBranches(ctx, repo); err != nil {
		s.logger.Warn("sync: failed to protect branches", "project", repo.ProjectKey, "repository", repo.Slug, "error", err.Error())
	}

	if s.webhookURL != "" {
		if err := s.vcs.EnsureWebhook(ctx, repo, webhookName, s.webhookURL); err != nil {
			return fmt.Errorf("failed to register webhook: %w", err)
		}
	}

	return nil
}
