package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courseforge/usersync/internal/logger"
	"github.com/courseforge/usersync/internal/model"
)

// Grantor wraps repository permission grants with a bounded retry.
//
// A user who just registered can trigger a grant before the version
// control server has finished replicating the account. The server then
// answers "principal not found" even though the account exists locally.
// While the user's creation timestamp is within the grace window this is
// treated as propagation delay and retried with a fixed delay; outside
// the window it is a real error and fails on the first attempt.
type Grantor struct {
	vcs         model.VersionControlService
	graceWindow time.Duration
	delay       time.Duration
	attempts    int
	logger      *logger.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

func NewGrantor(vcs model.VersionControlService, graceWindow, delay time.Duration, attempts int, logger *logger.Logger) *Grantor {
	return &Grantor{
		vcs:         vcs,
		graceWindow: graceWindow,
		delay:       delay,
		attempts:    attempts,
		logger:      logger,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// Grant grants the permission on the repository to the user, retrying
// "principal not found" failures while the user's account creation is
// within the grace window.
func (g *Grantor) Grant(ctx context.Context, repo model.RepositoryRef, user model.User, permission model.RepositoryPermission) error {
	var lastErr error
	for attempt := 0; attempt < g.attempts; attempt++ {
		if attempt > 0 {
			g.sleep(g.delay)
		}

		err := g.vcs.GrantRepositoryAccess(ctx, repo, user.Login, permission)
		if err == nil {
			return nil
		}
		lastErr = err

		if !errors.Is(err, model.ErrPrincipalNotFound) {
			return fmt.Errorf("failed to grant repository access: %w", err)
		}
		if g.now().Sub(user.CreatedAt) > g.graceWindow {
			// The account is old enough that the remote system should
			// know it. This is a genuinely missing user, not a race.
			return fmt.Errorf("failed to grant repository access: %w", err)
		}

		g.logger.Warn("grantor: principal not yet visible, retrying",
			"login", user.Login,
			"project", repo.ProjectKey,
			"repository", repo.Slug,
			"attempt", attempt+1,
		)
	}

	return fmt.Errorf("failed to grant repository access after %d attempts: %w", g.attempts, lastErr)
}
