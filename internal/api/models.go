package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Name     string `json:"name"     validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT used for API authorization
	AccessToken string `json:"token"`

	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the RFC 3339 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Nullable distinguishes an absent JSON field from an explicit null.
// Set is true whenever the field appeared in the payload; Value is nil for null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UpdateUserRequest is a partial user update. Absent fields are left untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name"     validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email"    validate:"omitempty,email,max=254"`
	Password *string `json:"password" validate:"omitempty,min=12,max=72"`
	Role     *string `json:"role"     validate:"omitempty,oneof=admin user"`
}

// CreateProjectRequest defines the payload for creating a project.
type CreateProjectRequest struct {
	Name        string      `json:"name"        validate:"required,max=200"`
	Description string      `json:"description" validate:"max=2000"`
	MemberIDs   []uuid.UUID `json:"member_ids"`
}

// UpdateProjectRequest is a partial project update. A present member_ids
// replaces the member set.
type UpdateProjectRequest struct {
	Name        *string      `json:"name"        validate:"omitempty,min=1,max=200"`
	Description *string      `json:"description" validate:"omitempty,max=2000"`
	MemberIDs   *[]uuid.UUID `json:"member_ids"`
}

// AddMembersRequest defines the payload for adding project members.
type AddMembersRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" validate:"required,min=1"`
}

// ProjectResponse is the public view of a project.
type ProjectResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	MemberIDs   []uuid.UUID `json:"member_ids"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func projectToResponse(p *domain.Project) ProjectResponse {
	members := p.MemberIDs
	if members == nil {
		members = []uuid.UUID{}
	}
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		MemberIDs:   members,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CreateTaskRequest defines the payload for creating a task in a project.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Status      string     `json:"status"      validate:"omitempty,oneof=todo in_progress review done"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
}

// UpdateTaskRequest is a partial task update. due_date and assignee_id accept
// null to clear the field.
type UpdateTaskRequest struct {
	Title       *string             `json:"title"       validate:"omitempty,min=1,max=200"`
	Description *string             `json:"description" validate:"omitempty,max=5000"`
	Status      *string             `json:"status"      validate:"omitempty,oneof=todo in_progress review done"`
	Priority    *string             `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	DueDate     Nullable[time.Time] `json:"due_date"`
	AssigneeID  Nullable[uuid.UUID] `json:"assignee_id"`
	ProjectID   *uuid.UUID          `json:"project_id"`
}

// toChanges converts the request into a domain change set.
func (req UpdateTaskRequest) toChanges() domain.TaskChanges {
	c := domain.TaskChanges{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
	}
	if req.Status != nil {
		s := domain.TaskStatus(*req.Status)
		c.Status = &s
	}
	if req.Priority != nil {
		p := domain.TaskPriority(*req.Priority)
		c.Priority = &p
	}
	if req.DueDate.Set {
		c.DueDate = req.DueDate.Value
		c.ClearDueDate = req.DueDate.Value == nil
	}
	if req.AssigneeID.Set {
		c.AssigneeID = req.AssigneeID.Value
		c.ClearAssignee = req.AssigneeID.Value == nil
	}
	return c
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID          uuid.UUID           `json:"id"`
	ProjectID   uuid.UUID           `json:"project_id"`
	AssigneeID  *uuid.UUID          `json:"assignee_id"`
	CreatorID   uuid.UUID           `json:"creator_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TaskStatus   `json:"status"`
	Priority    domain.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		AssigneeID:  t.AssigneeID,
		CreatorID:   t.CreatorID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// TaskHistoryResponse is one audit row of a task.
type TaskHistoryResponse struct {
	ID               uuid.UUID           `json:"id"`
	TaskID           uuid.UUID           `json:"task_id"`
	ChangedBy        uuid.UUID           `json:"changed_by"`
	PreviousStatus   domain.TaskStatus   `json:"previous_status,omitempty"`
	NewStatus        domain.TaskStatus   `json:"new_status"`
	PreviousPriority domain.TaskPriority `json:"previous_priority,omitempty"`
	NewPriority      domain.TaskPriority `json:"new_priority"`
	CreatedAt        time.Time           `json:"created_at"`
}

func historyToResponse(h *domain.TaskHistory) TaskHistoryResponse {
	return TaskHistoryResponse{
		ID:               h.ID,
		TaskID:           h.TaskID,
		ChangedBy:        h.ChangedBy,
		PreviousStatus:   h.PreviousStatus,
		NewStatus:        h.NewStatus,
		PreviousPriority: h.PreviousPriority,
		NewPriority:      h.NewPriority,
		CreatedAt:        h.CreatedAt,
	}
}
