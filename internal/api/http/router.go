package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/courseforge/usersync/internal/logger"
	"github.com/courseforge/usersync/internal/model"
)

// NewRouter assembles the HTTP surface: the admin mutation API behind
// bearer auth, and the unauthenticated push webhook receiver.
func NewRouter(handler *Handler, tokens TokenParser, vcs model.VersionControlService, l *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Logging(l))

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(tokens))

		r.Post("/users", handler.CreateUser)
		r.Put("/users/{login}", handler.UpdateUser)
		r.Delete("/users/{login}", handler.DeleteUser)
		r.Put("/users/{login}/groups", handler.UpdateGroups)
		r.Post("/users/{login}/password", handler.ChangePassword)
		r.Post("/users/{login}/password-reset", handler.RequestPasswordReset)
		r.Post("/users/{login}/password-reset/finish", handler.FinishPasswordReset)
		r.Post("/users/{login}/activate", handler.ActivateUser)
		r.Post("/repositories", handler.ProvisionRepository)
	})

	r.Post("/webhooks/push", handler.PushEvent(vcs))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
