package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/courseforge/usersync/internal/logger"
	"github.com/courseforge/usersync/internal/model"
	"github.com/courseforge/usersync/internal/service"
)

// Handler translates HTTP mutation requests into orchestrator calls. It
// is deliberately thin: request decoding, dispatch, error mapping.
type Handler struct {
	sync   *service.Sync
	logger *logger.Logger
}

func NewHandler(sync *service.Sync, logger *logger.Logger) *Handler {
	return &Handler{sync: sync, logger: logger}
}

type userResponse struct {
	ID                 string   `json:"id"`
	Login              string   `json:"login"`
	Email              string   `json:"email"`
	DisplayName        string   `json:"display_name"`
	RegistrationNumber string   `json:"registration_number,omitempty"`
	Activated          bool     `json:"activated"`
	Groups             []string `json:"groups"`
	Authorities        []string `json:"authorities"`
	Internal           bool     `json:"internal"`
}

func toUserResponse(user model.User) userResponse {
	return userResponse{
		ID:                 user.ID.String(),
		Login:              user.Login,
		Email:              user.Email,
		DisplayName:        user.DisplayName,
		RegistrationNumber: user.RegistrationNumber,
		Activated:          user.Activated,
		Groups:             user.Groups,
		Authorities:        user.Authorities,
		Internal:           user.Internal,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("http: failed to encode response", "error", err.Error())
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var remoteErr *model.RemoteError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, model.ErrInvalidCredentials), errors.Is(err, service.ErrExternalAccount):
		status = http.StatusBadRequest
	case errors.As(err, &remoteErr):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		h.logger.Error("http: request failed", "error", err.Error())
	}

	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login              string   `json:"login"`
		Email              string   `json:"email"`
		DisplayName        string   `json:"display_name"`
		RegistrationNumber string   `json:"registration_number"`
		Groups             []string `json:"groups"`
		Password           string   `json:"password"`
		Internal           bool     `json:"internal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Login == "" || req.Email == "" {
		http.Error(w, "login and email are required", http.StatusBadRequest)
		return
	}

	user, err := h.sync.CreateUser(r.Context(), model.CreateUserParams{
		Login:              req.Login,
		Email:              req.Email,
		DisplayName:        req.DisplayName,
		RegistrationNumber: req.RegistrationNumber,
		Groups:             req.Groups,
		Password:           req.Password,
		Internal:           req.Internal,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email              string `json:"email"`
		DisplayName        string `json:"display_name"`
		RegistrationNumber string `json:"registration_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.sync.UpdateUser(r.Context(), chi.URLParam(r, "login"), model.UpdateUserParams{
		Email:              req.Email,
		DisplayName:        req.DisplayName,
		RegistrationNumber: req.RegistrationNumber,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.sync.DeleteUser(r.Context(), chi.URLParam(r, "login")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateGroups(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Groups []string `json:"groups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.sync.UpdateGroups(r.Context(), chi.URLParam(r, "login"), req.Groups)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.NewPassword == "" {
		http.Error(w, "new password is required", http.StatusBadRequest)
		return
	}

	if err := h.sync.ChangePassword(r.Context(), chi.URLParam(r, "login"), req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sync.RequestPasswordReset(r.Context(), chi.URLParam(r, "login")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) FinishPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResetKey    string `json:"reset_key"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.sync.FinishPasswordReset(r.Context(), chi.URLParam(r, "login"), req.ResetKey, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActivationKey string `json:"activation_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.sync.ActivateRegistration(r.Context(), chi.URLParam(r, "login"), req.ActivationKey)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) ProvisionRepository(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectKey string   `json:"project_key"`
		Slug       string   `json:"slug"`
		Users      []string `json:"users"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProjectKey == "" || req.Slug == "" {
		http.Error(w, "project_key and slug are required", http.StatusBadRequest)
		return
	}

	repo := model.RepositoryRef{ProjectKey: req.ProjectKey, Slug: req.Slug}
	if err := h.sync.ProvisionRepository(r.Context(), repo, req.Users); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// PushEvent receives version control push notifications. Commit
// extraction is best-effort telemetry; a malformed payload is logged,
// never rejected.
func (h *Handler) PushEvent(vcs model.VersionControlService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		if vcs != nil {
			commit := vcs.LastCommit(payload)
			h.logger.Info("http: push event received",
				"hash", commit.Hash,
				"branch", commit.Branch,
				"author", commit.Author,
				"received_at", time.Now().Format(time.RFC3339),
			)
		}

		w.WriteHeader(http.StatusOK)
	}
}
