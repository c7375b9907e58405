package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// actorFromRequest returns the authenticated caller placed in the context by
// the authentication middleware.
func actorFromRequest(r *http.Request) (service.Actor, bool) {
	id, role, ok := shared.UserFromContext(r.Context())
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ID: id, Role: role}, true
}

// getPathUUID parses the named chi URL parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, newFieldError(paramName, "is required")
	}
	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, newFieldError(paramName, "has invalid format")
	}
	return id, nil
}

// handleActor extracts the caller or writes a 401 and returns false.
func handleActor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	actor, ok := actorFromRequest(r)
	if !ok {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("user not found or invalid in request context")
		HandleAPIError(w, r, ErrUnauthorized, "")
		return service.Actor{}, false
	}
	return actor, true
}

// handleActorAndPathUUID extracts the caller and a UUID path parameter,
// writing an error response and returning false if either is missing.
func handleActorAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
) (service.Actor, uuid.UUID, bool) {
	actor, ok := handleActor(w, r)
	if !ok {
		return service.Actor{}, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return service.Actor{}, uuid.Nil, false
	}

	return actor, pathID, true
}

// parseAndValidateRequest decodes the JSON body into dst and validates it.
// On failure it writes a 400 response and returns false.
func parseAndValidateRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		HandleValidationError(w, r, err)
		return false
	}
	if err := shared.ValidateRequest(dst); err != nil {
		HandleValidationError(w, r, err)
		return false
	}
	return true
}

// parsePageRequest reads page and page_size from the query string. Absent
// values take the defaults; present values must be in range.
func parsePageRequest(r *http.Request) (store.PageRequest, error) {
	q := r.URL.Query()
	req := store.PageRequest{Page: store.DefaultPage, PageSize: store.DefaultPageSize}

	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > store.MaxPageSize {
			return req, newFieldError("page_size", "must be between 1 and "+strconv.Itoa(store.MaxPageSize))
		}
		req.PageSize = n
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, newFieldError("page", "must be a positive integer")
		}
		if n > store.MaxPage(req.PageSize) {
			return req, newFieldError("page", "is too large")
		}
		req.Page = n
	}
	return req, nil
}

func parseOptionalUUID(r *http.Request, name string) (*uuid.UUID, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, newFieldError(name, "has invalid format")
	}
	return &id, nil
}

// parseTaskFilter builds a task listing filter from the query string.
func parseTaskFilter(r *http.Request) (store.TaskFilter, error) {
	var (
		filter store.TaskFilter
		err    error
	)
	q := r.URL.Query()

	if filter.Page, err = parsePageRequest(r); err != nil {
		return filter, err
	}
	if filter.ProjectID, err = parseOptionalUUID(r, "project_id"); err != nil {
		return filter, err
	}
	if filter.AssigneeID, err = parseOptionalUUID(r, "assignee_id"); err != nil {
		return filter, err
	}

	if v := q.Get("status"); v != "" {
		status := domain.TaskStatus(v)
		if !status.IsValid() {
			return filter, newFieldError("status", "must be one of todo, in_progress, review, done")
		}
		filter.Status = &status
	}
	if v := q.Get("priority"); v != "" {
		priority := domain.TaskPriority(v)
		if !priority.IsValid() {
			return filter, newFieldError("priority", "must be one of low, medium, high, urgent")
		}
		filter.Priority = &priority
	}

	filter.Search = strings.TrimSpace(q.Get("search"))

	filter.Sort = store.TaskSortCreatedAt
	if v := q.Get("sort"); v != "" {
		sort := store.TaskSort(v)
		if !sort.IsValid() {
			return filter, newFieldError("sort", "must be one of created_at, updated_at, due_date, priority")
		}
		filter.Sort = sort
	}

	switch strings.ToLower(q.Get("order")) {
	case "", "desc":
		filter.Descending = true
	case "asc":
		filter.Descending = false
	default:
		return filter, newFieldError("order", "must be asc or desc")
	}

	return filter, nil
}
