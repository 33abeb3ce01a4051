package policy

import (
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// CanView decides whether an employee may see or act on a ticket.
// ADMIN sees everything, the creator sees their own tickets, and everyone
// else sees only tickets in the category their role is responsible for.
func CanView(ticket *domain.Ticket, employee *domain.Employee) bool {
	if employee.Role == domain.RoleAdmin {
		return true
	}
	if ticket.CreatedByID == employee.ID {
		return true
	}
	role, err := ResolveTeamRole(ticket.Category)
	if err != nil {
		return false
	}
	return role == employee.Role
}

// CanViewComment decides whether a viewer may see a single comment on a
// ticket they already have access to. Internal comments are hidden from
// SOFTWARE_ENGINEER viewers; every other role sees all comments.
func CanViewComment(comment *domain.Comment, viewer *domain.Employee) bool {
	if !comment.IsInternal {
		return true
	}
	return viewer.Role != domain.RoleSoftwareEngineer
}

// ResolveTeamRole maps a ticket category to the role team responsible for
// it. The mapping is fixed and total over the defined categories.
func ResolveTeamRole(category domain.TicketCategory) (domain.Role, error) {
	switch category {
	case domain.CategoryIT:
		return domain.RoleIT, nil
	case domain.CategoryNetwork:
		return domain.RoleNetwork, nil
	case domain.CategoryHR:
		return domain.RoleHR, nil
	case domain.CategorySoftware:
		return domain.RoleSoftwareEngineer, nil
	}
	return "", apperrors.NewValidationError("unknown ticket category", map[string]any{"category": category})
}

// ResolveCategory is the inverse mapping from a role to the category that
// role is responsible for. Roles outside the bijection (ADMIN) have no
// category.
func ResolveCategory(role domain.Role) (domain.TicketCategory, error) {
	switch role {
	case domain.RoleIT:
		return domain.CategoryIT, nil
	case domain.RoleNetwork:
		return domain.CategoryNetwork, nil
	case domain.RoleHR:
		return domain.CategoryHR, nil
	case domain.RoleSoftwareEngineer:
		return domain.CategorySoftware, nil
	}
	return "", apperrors.NewUnmappedRole(string(role))
}
