package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project field limits.
const (
	MaxProjectNameLength        = 200
	MaxProjectDescriptionLength = 2000
)

// Project validation errors
var (
	ErrEmptyProjectID            = fmt.Errorf("%w: project ID cannot be empty", ErrValidation)
	ErrEmptyProjectOwnerID       = fmt.Errorf("%w: project owner ID cannot be empty", ErrValidation)
	ErrEmptyProjectName          = fmt.Errorf("%w: project name cannot be empty", ErrValidation)
	ErrProjectNameTooLong        = fmt.Errorf("%w: project name must be at most 200 characters", ErrValidation)
	ErrProjectDescriptionTooLong = fmt.Errorf("%w: project description must be at most 2000 characters", ErrValidation)
	ErrProjectOwnerNotMember     = fmt.Errorf("%w: project owner must be a member", ErrValidation)
	ErrProjectMemberIDEmpty      = fmt.Errorf("%w: project member ID cannot be empty", ErrValidation)
)

// Project is a named work container owned by the user who created it.
// MemberIDs always contains OwnerID.
type Project struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	MemberIDs   []uuid.UUID `json:"member_ids"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewProject creates a new Project owned by ownerID. The owner is added to the
// member set and duplicate member IDs are dropped.
func NewProject(ownerID uuid.UUID, name, description string, memberIDs []uuid.UUID) (*Project, error) {
	now := time.Now().UTC()
	project := &Project{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		MemberIDs:   UniqueIDs(append([]uuid.UUID{ownerID}, memberIDs...)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}

	return project, nil
}

// Validate checks if the Project has valid data.
func (p *Project) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyProjectID
	}
	if p.OwnerID == uuid.Nil {
		return ErrEmptyProjectOwnerID
	}
	if p.Name == "" {
		return ErrEmptyProjectName
	}
	if len([]rune(p.Name)) > MaxProjectNameLength {
		return ErrProjectNameTooLong
	}
	if len([]rune(p.Description)) > MaxProjectDescriptionLength {
		return ErrProjectDescriptionTooLong
	}
	for _, id := range p.MemberIDs {
		if id == uuid.Nil {
			return ErrProjectMemberIDEmpty
		}
	}
	if !p.HasMember(p.OwnerID) {
		return ErrProjectOwnerNotMember
	}
	return nil
}

// HasMember reports whether userID is in the project's member set.
func (p *Project) HasMember(userID uuid.UUID) bool {
	return slices.Contains(p.MemberIDs, userID)
}

// IsOwner reports whether userID owns the project.
func (p *Project) IsOwner(userID uuid.UUID) bool {
	return p.OwnerID == userID
}

// MembershipDiff is the result of comparing a current member set to a desired one.
type MembershipDiff struct {
	Added   []uuid.UUID
	Removed []uuid.UUID
}

// Empty reports whether the diff has no changes.
func (d MembershipDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffMembers computes which members must be inserted and deleted to turn
// the project's current member set into desired. The owner is always kept,
// so it never appears in Removed.
func (p *Project) DiffMembers(desired []uuid.UUID) MembershipDiff {
	want := UniqueIDs(append([]uuid.UUID{p.OwnerID}, desired...))

	var diff MembershipDiff
	for _, id := range want {
		if !p.HasMember(id) {
			diff.Added = append(diff.Added, id)
		}
	}
	for _, id := range p.MemberIDs {
		if !slices.Contains(want, id) {
			diff.Removed = append(diff.Removed, id)
		}
	}
	return diff
}

// UniqueIDs returns ids with duplicates removed, preserving first-seen order.
func UniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
