package service

import (
	"fmt"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// notice is one notification to persist once and fan out to every resolved
// recipient. A broadcast role is resolved to the currently-active employees
// holding it at delivery time. ExcludeID implements self-notification
// suppression: that employee is dropped from the final recipient set.
type notice struct {
	Title         string
	Message       string
	Type          domain.NotificationType
	Recipients    []*domain.Employee
	BroadcastRole *domain.Role
	ExcludeID     string
}

// fanoutPlan is the computed notification set for one ticket event.
type fanoutPlan struct {
	Notices []notice
}

func rolePtr(r domain.Role) *domain.Role {
	return &r
}

// planCreationFanout targets the designated primary admin plus the whole
// team responsible for the ticket's category, sharing one notification.
func planCreationFanout(ticket *domain.Ticket, creator, primaryAdmin *domain.Employee, teamRole domain.Role) fanoutPlan {
	message := fmt.Sprintf("%s ticket created by %s (%s)",
		ticket.Priority.Label(), creator.Name, creator.EmployeeCode)
	return fanoutPlan{Notices: []notice{{
		Title:         ticket.Title,
		Message:       message,
		Type:          domain.NotificationTicketCreated,
		Recipients:    []*domain.Employee{primaryAdmin},
		BroadcastRole: rolePtr(teamRole),
	}}}
}

// planAssignmentFanout always targets both the new assignee and the
// creator, even when they are the same employee. The messages differ, so
// each recipient gets its own notification.
func planAssignmentFanout(ticket *domain.Ticket, assignee, creator *domain.Employee) fanoutPlan {
	return fanoutPlan{Notices: []notice{
		{
			Title:      "Ticket Assigned",
			Message:    fmt.Sprintf("You have been assigned ticket %s", ticket.TicketNumber),
			Type:       domain.NotificationTicketAssigned,
			Recipients: []*domain.Employee{assignee},
		},
		{
			Title:      "Ticket Assigned",
			Message:    fmt.Sprintf("Your ticket %s has been assigned to %s", ticket.TicketNumber, assignee.Name),
			Type:       domain.NotificationTicketAssigned,
			Recipients: []*domain.Employee{creator},
		},
	}}
}

// planStatusChangeFanout targets the ticket's creator. The creator is
// notified even when they triggered the change themselves; the comment
// path suppresses self-notification but this path deliberately mirrors
// the observed baseline asymmetry.
func planStatusChangeFanout(ticket *domain.Ticket, creator *domain.Employee, newStatus domain.TicketStatus) fanoutPlan {
	if newStatus == domain.TicketStatusResolved {
		return fanoutPlan{Notices: []notice{{
			Title:      "Ticket Resolved",
			Message:    fmt.Sprintf("Your ticket %s has been resolved", ticket.TicketNumber),
			Type:       domain.NotificationTicketResolved,
			Recipients: []*domain.Employee{creator},
		}}}
	}
	return fanoutPlan{Notices: []notice{{
		Title:      "Ticket Status Changed",
		Message:    fmt.Sprintf("Ticket %s status changed to %s", ticket.TicketNumber, newStatus),
		Type:       domain.NotificationTicketStatusChanged,
		Recipients: []*domain.Employee{creator},
	}}}
}

// planCommentFanout implements the comment notification decision table.
// creator is the ticket's creator and assignee may be nil. Every branch
// suppresses the commenter from its own recipient set.
func planCommentFanout(ticket *domain.Ticket, comment *domain.Comment, commenter, creator, assignee *domain.Employee) fanoutPlan {
	// Commenter is the creator: route to the assignee when one exists,
	// otherwise escalate to the admins.
	if commenter.ID == creator.ID {
		if assignee != nil {
			return fanoutPlan{Notices: []notice{{
				Title:      "New Comment on Ticket",
				Message:    fmt.Sprintf("Ticket %s has a new comment from creator", ticket.TicketNumber),
				Type:       domain.NotificationTicketCommentAdded,
				Recipients: []*domain.Employee{assignee},
				ExcludeID:  commenter.ID,
			}}}
		}
		return fanoutPlan{Notices: []notice{{
			Title:         "New Comment on Ticket",
			Message:       fmt.Sprintf("Ticket %s has a new comment from creator", ticket.TicketNumber),
			Type:          domain.NotificationTicketCommentAdded,
			BroadcastRole: rolePtr(domain.RoleAdmin),
			ExcludeID:     commenter.ID,
		}}}
	}

	isAdmin := commenter.Role == domain.RoleAdmin
	isAssignee := assignee != nil && commenter.ID == assignee.ID

	// Commenters outside the admin/assignee pair trigger nothing. This is
	// an intentional absence of action, not an error.
	if !isAdmin && !isAssignee {
		return fanoutPlan{}
	}

	if comment.IsInternal {
		var notices []notice
		if isAdmin && assignee != nil {
			notices = append(notices, notice{
				Title:      "New Comment on Ticket",
				Message:    fmt.Sprintf("Ticket %s has a new comment", ticket.TicketNumber),
				Type:       domain.NotificationTicketCommentAdded,
				Recipients: []*domain.Employee{assignee},
				ExcludeID:  commenter.ID,
			})
		}
		if isAssignee {
			notices = append(notices, notice{
				Title:         "Internal Comment Added",
				Message:       fmt.Sprintf("Ticket %s has a new internal comment", ticket.TicketNumber),
				Type:          domain.NotificationTicketCommentAdded,
				BroadcastRole: rolePtr(domain.RoleAdmin),
				ExcludeID:     commenter.ID,
			})
		}
		return fanoutPlan{Notices: notices}
	}

	notices := []notice{{
		Title:      "New Comment on Ticket",
		Message:    fmt.Sprintf("Ticket %s has a new comment", ticket.TicketNumber),
		Type:       domain.NotificationTicketCommentAdded,
		Recipients: []*domain.Employee{creator},
		ExcludeID:  commenter.ID,
	}}
	if isAdmin && assignee != nil {
		notices = append(notices, notice{
			Title:      "New Comment on Ticket",
			Message:    fmt.Sprintf("Ticket %s has a new comment", ticket.TicketNumber),
			Type:       domain.NotificationTicketCommentAdded,
			Recipients: []*domain.Employee{assignee},
			ExcludeID:  commenter.ID,
		})
	}
	if isAssignee {
		notices = append(notices, notice{
			Title:         "New Comment Added",
			Message:       fmt.Sprintf("Ticket %s has a new comment", ticket.TicketNumber),
			Type:          domain.NotificationTicketCommentAdded,
			BroadcastRole: rolePtr(domain.RoleAdmin),
			ExcludeID:     commenter.ID,
		})
	}
	return fanoutPlan{Notices: notices}
}
