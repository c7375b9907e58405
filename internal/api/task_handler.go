package api

import (
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// TaskHandler serves task endpoints and the per-project task creation route.
type TaskHandler struct {
	tasks service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// CreateTask handles POST /api/projects/{id}/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, projectID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}

	input := service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.TaskPriority(req.Priority),
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}

	task, err := h.tasks.CreateTask(r.Context(), actor, projectID, input)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /api/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}

	filter, err := parseTaskFilter(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.tasks.ListTasks(r.Context(), actor, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shared.NewPageResponse(result, taskToResponse))
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PATCH /api/tasks/{id}. A field the caller may not change
// is reported as 403 naming the field.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), actor, id, req.toChanges())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListHistory handles GET /api/tasks/{id}/history.
func (h *TaskHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	page, err := parsePageRequest(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.tasks.ListHistory(r.Context(), actor, id, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list task history")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shared.NewPageResponse(result, historyToResponse))
}
