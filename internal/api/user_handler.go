package api

import (
	"net/http"
	"strings"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// UserHandler serves the /api/users endpoints.
type UserHandler struct {
	users service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers handles GET /api/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}

	page, err := parsePageRequest(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	filter := store.UserFilter{Search: strings.TrimSpace(r.URL.Query().Get("search")), Page: page}
	result, err := h.users.ListUsers(r.Context(), actor, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shared.NewPageResponse(result, userToResponse))
}

// GetCurrentUser handles GET /api/users/me.
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), actor, actor.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// GetUser handles GET /api/users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateUser handles PATCH /api/users/{id}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}

	changes := service.UserChanges{Name: req.Name, Email: req.Email, Password: req.Password}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		changes.Role = &role
	}

	user, err := h.users.UpdateUser(r.Context(), actor, id, changes)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
