package service

import (
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// Actor is the authenticated user on whose behalf a service call runs.
type Actor struct {
	ID   uuid.UUID
	Role domain.Role
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// canSee reports whether the actor may read the project.
func (a Actor) canSee(p *domain.Project) bool {
	return a.IsAdmin() || p.HasMember(a.ID)
}

// canManage reports whether the actor may change the project or its membership.
func (a Actor) canManage(p *domain.Project) bool {
	return a.IsAdmin() || p.IsOwner(a.ID)
}
