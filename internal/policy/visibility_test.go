package policy

import (
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func employee(id string, role domain.Role) *domain.Employee {
	return &domain.Employee{ID: id, Role: role, IsActive: true}
}

func TestCanView(t *testing.T) {
	ticket := &domain.Ticket{ID: "t1", Category: domain.CategoryIT, CreatedByID: "creator"}

	cases := []struct {
		name   string
		viewer *domain.Employee
		want   bool
	}{
		{"admin sees everything", employee("a1", domain.RoleAdmin), true},
		{"creator sees own ticket", employee("creator", domain.RoleHR), true},
		{"matching team role sees category", employee("it1", domain.RoleIT), true},
		{"other team role denied", employee("net1", domain.RoleNetwork), false},
		{"hr denied on it ticket", employee("hr1", domain.RoleHR), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanView(ticket, tc.viewer); got != tc.want {
				t.Fatalf("CanView = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanViewCommentInternal(t *testing.T) {
	internal := &domain.Comment{IsInternal: true}
	public := &domain.Comment{IsInternal: false}

	if CanViewComment(internal, employee("se", domain.RoleSoftwareEngineer)) {
		t.Fatal("software engineer must not see internal comments")
	}
	if !CanViewComment(public, employee("se", domain.RoleSoftwareEngineer)) {
		t.Fatal("software engineer must see public comments")
	}
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleHR, domain.RoleIT, domain.RoleNetwork} {
		if !CanViewComment(internal, employee("x", role)) {
			t.Fatalf("role %s must see internal comments", role)
		}
	}
}

func TestCategoryRoleBijection(t *testing.T) {
	for _, category := range domain.Categories {
		role, err := ResolveTeamRole(category)
		if err != nil {
			t.Fatalf("ResolveTeamRole(%s): %v", category, err)
		}
		back, err := ResolveCategory(role)
		if err != nil {
			t.Fatalf("ResolveCategory(%s): %v", role, err)
		}
		if back != category {
			t.Fatalf("round trip %s -> %s -> %s", category, role, back)
		}
	}
}

func TestResolveCategoryAdminUnmapped(t *testing.T) {
	_, err := ResolveCategory(domain.RoleAdmin)
	if err == nil {
		t.Fatal("expected error for ADMIN")
	}
	if !apperrors.IsCode(err, "UNMAPPED_ROLE") {
		t.Fatalf("expected UNMAPPED_ROLE, got %v", err)
	}
}

func TestResolveTeamRoleUnknownCategory(t *testing.T) {
	if _, err := ResolveTeamRole(domain.TicketCategory("FACILITIES")); err == nil {
		t.Fatal("expected error for unknown category")
	}
}
