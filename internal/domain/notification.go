package domain

import "time"

// NotificationType enumerates the event kinds a notification reports.
type NotificationType string

const (
	NotificationTicketCreated       NotificationType = "TICKET_CREATED"
	NotificationTicketAssigned      NotificationType = "TICKET_ASSIGNED"
	NotificationTicketStatusChanged NotificationType = "TICKET_STATUS_CHANGED"
	NotificationTicketResolved      NotificationType = "TICKET_RESOLVED"
	NotificationTicketCommentAdded  NotificationType = "TICKET_COMMENT_ADDED"
)

// Notification is an immutable record of a single fan-out event. One event
// produces one Notification shared by every targeted employee.
type Notification struct {
	ID        string
	Title     string
	Message   string
	Type      NotificationType
	TicketID  *string
	CreatedAt time.Time
}

// TicketIDValue returns the referenced ticket id, or "" when the
// notification is not tied to a ticket.
func (n *Notification) TicketIDValue() string {
	if n.TicketID == nil {
		return ""
	}
	return *n.TicketID
}

// NotificationRecipient binds one Notification to one Employee with
// independent read state. Unique per (notification, employee) pair.
type NotificationRecipient struct {
	ID             string
	NotificationID string
	EmployeeID     string
	IsRead         bool
	ReadAt         *time.Time
}
