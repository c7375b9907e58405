package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewProject(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	member := uuid.New()

	project, err := NewProject(owner, " Apollo ", "Moon landing", []uuid.UUID{member, member, owner})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if project.Name != "Apollo" {
		t.Errorf("Expected trimmed name, got %q", project.Name)
	}
	if project.OwnerID != owner {
		t.Errorf("Expected owner %s, got %s", owner, project.OwnerID)
	}
	if len(project.MemberIDs) != 2 {
		t.Fatalf("Expected 2 unique members, got %v", project.MemberIDs)
	}
	if project.MemberIDs[0] != owner {
		t.Errorf("Expected owner first in member list, got %s", project.MemberIDs[0])
	}
	if !project.HasMember(member) {
		t.Error("Expected member to be in the project")
	}

	_, err = NewProject(uuid.Nil, "Apollo", "", nil)
	if err != ErrEmptyProjectOwnerID {
		t.Errorf("Expected error %v, got %v", ErrEmptyProjectOwnerID, err)
	}

	_, err = NewProject(owner, "   ", "", nil)
	if err != ErrEmptyProjectName {
		t.Errorf("Expected error %v, got %v", ErrEmptyProjectName, err)
	}

	_, err = NewProject(owner, strings.Repeat("x", 201), "", nil)
	if err != ErrProjectNameTooLong {
		t.Errorf("Expected error %v, got %v", ErrProjectNameTooLong, err)
	}

	_, err = NewProject(owner, "Apollo", strings.Repeat("x", 2001), nil)
	if err != ErrProjectDescriptionTooLong {
		t.Errorf("Expected error %v, got %v", ErrProjectDescriptionTooLong, err)
	}

	_, err = NewProject(owner, "Apollo", "", []uuid.UUID{uuid.Nil})
	if err != ErrProjectMemberIDEmpty {
		t.Errorf("Expected error %v, got %v", ErrProjectMemberIDEmpty, err)
	}
}

func TestProjectValidateOwnerMustBeMember(t *testing.T) {
	t.Parallel()

	p := Project{
		ID:        uuid.New(),
		Name:      "Apollo",
		OwnerID:   uuid.New(),
		MemberIDs: []uuid.UUID{uuid.New()},
	}
	if err := p.Validate(); err != ErrProjectOwnerNotMember {
		t.Errorf("Expected error %v, got %v", ErrProjectOwnerNotMember, err)
	}
}

func TestProjectDiffMembers(t *testing.T) {
	t.Parallel()

	owner, a, b, c := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	p := &Project{OwnerID: owner, MemberIDs: []uuid.UUID{owner, a, b}}

	diff := p.DiffMembers([]uuid.UUID{b, c, c})
	if len(diff.Added) != 1 || diff.Added[0] != c {
		t.Errorf("Expected %s added, got %v", c, diff.Added)
	}
	if len(diff.Removed) != 1 || diff.Removed[0] != a {
		t.Errorf("Expected %s removed, got %v", a, diff.Removed)
	}

	// The owner survives even when omitted from the desired set.
	diff = p.DiffMembers(nil)
	for _, id := range diff.Removed {
		if id == owner {
			t.Error("Owner must never be removed")
		}
	}
	if len(diff.Removed) != 2 {
		t.Errorf("Expected 2 removals, got %v", diff.Removed)
	}

	diff = p.DiffMembers([]uuid.UUID{a, b})
	if !diff.Empty() {
		t.Errorf("Expected empty diff, got %+v", diff)
	}
}
