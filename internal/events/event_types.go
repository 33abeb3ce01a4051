package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketResolved      EventType = "ticket_resolved"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventNotificationQueued  EventType = "notification_queued"
)

// Event represents a domain event emitted by services strictly after the
// workflow transaction commits.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EmployeeSummary is the employee shape carried in event payloads.
type EmployeeSummary struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// TicketSummary is the ticket shape carried in event payloads.
type TicketSummary struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	Title        string                `json:"title"`
	Category     domain.TicketCategory `json:"category"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.Priority       `json:"priority"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket  TicketSummary   `json:"ticket"`
	Creator EmployeeSummary `json:"creator"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Ticket   TicketSummary   `json:"ticket"`
	Assignee EmployeeSummary `json:"assignee"`
	Creator  EmployeeSummary `json:"creator"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Ticket    TicketSummary       `json:"ticket"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Creator   EmployeeSummary     `json:"creator"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Ticket  TicketSummary   `json:"ticket"`
	Creator EmployeeSummary `json:"creator"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	Ticket     TicketSummary `json:"ticket"`
	CommentID  string        `json:"comment_id"`
	IsInternal bool          `json:"is_internal"`
}

// NotificationQueuedPayload is the recipient-shaped view pushed over the
// real-time channel: notification fields, the read flag, and recipient and
// ticket summaries.
type NotificationQueuedPayload struct {
	NotificationID string                  `json:"notification_id"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	Type           domain.NotificationType `json:"type"`
	IsRead         bool                    `json:"is_read"`
	CreatedAt      time.Time               `json:"created_at"`
	Recipient      EmployeeSummary         `json:"recipient"`
	Ticket         *TicketSummary          `json:"ticket,omitempty"`
}
