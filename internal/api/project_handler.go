package api

import (
	"net/http"
	"strings"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// ProjectHandler serves the /api/projects endpoints, including membership.
type ProjectHandler struct {
	projects service.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// CreateProject handles POST /api/projects.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}

	project, err := h.projects.CreateProject(r.Context(), actor, req.Name, req.Description, req.MemberIDs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create project")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, projectToResponse(project))
}

// ListProjects handles GET /api/projects.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}

	page, err := parsePageRequest(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	filter := store.ProjectFilter{Search: strings.TrimSpace(r.URL.Query().Get("search")), Page: page}
	result, err := h.projects.ListProjects(r.Context(), actor, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list projects")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shared.NewPageResponse(result, projectToResponse))
}

// GetProject handles GET /api/projects/{id}.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	project, err := h.projects.GetProject(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get project")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(project))
}

// UpdateProject handles PATCH /api/projects/{id}.
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}

	changes := service.ProjectChanges{Name: req.Name, Description: req.Description, MemberIDs: req.MemberIDs}
	project, err := h.projects.UpdateProject(r.Context(), actor, id, changes)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update project")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(project))
}

// DeleteProject handles DELETE /api/projects/{id}.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete project")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMembers handles POST /api/projects/{id}/members.
func (h *ProjectHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AddMembersRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}

	project, err := h.projects.AddMembers(r.Context(), actor, id, req.UserIDs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add members")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(project))
}

// RemoveMember handles DELETE /api/projects/{id}/members/{userID}.
func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	userID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	project, err := h.projects.RemoveMember(r.Context(), actor, id, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to remove member")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(project))
}
