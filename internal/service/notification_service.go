package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// NotificationService persists fan-out results and tracks per-recipient
// read state. Persistence joins the caller's transaction; the returned
// events are the outbox the caller drains after commit.
type NotificationService struct {
	notifications repository.NotificationRepository
	recipients    repository.NotificationRecipientRepository
	employees     repository.EmployeeRepository
	logger        *zap.Logger
}

// NotificationDependencies bundles repositories for the service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	RecipientRepo    repository.NotificationRecipientRepository
	EmployeeRepo     repository.EmployeeRepository
	Logger           *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		recipients:    deps.RecipientRepo,
		employees:     deps.EmployeeRepo,
		logger:        deps.Logger,
	}
}

// deliver materializes a fan-out plan: one Notification per notice, one
// NotificationRecipient row per resolved recipient, and one queued
// real-time push event per row. An empty recipient set after suppression
// skips the notice entirely.
func (n *NotificationService) deliver(ctx context.Context, ticket *domain.Ticket, plan fanoutPlan) ([]events.Event, error) {
	var queued []events.Event
	for _, item := range plan.Notices {
		recipients, err := n.resolveRecipients(ctx, item)
		if err != nil {
			return nil, err
		}
		if len(recipients) == 0 {
			continue
		}

		notification := &domain.Notification{
			Title:   item.Title,
			Message: item.Message,
			Type:    item.Type,
		}
		if ticket != nil {
			ticketID := ticket.ID
			notification.TicketID = &ticketID
		}
		if err := n.notifications.Create(ctx, notification); err != nil {
			return nil, apperrors.MapError(err)
		}

		for _, recipient := range recipients {
			row := &domain.NotificationRecipient{
				NotificationID: notification.ID,
				EmployeeID:     recipient.ID,
				IsRead:         false,
			}
			if err := n.recipients.Create(ctx, row); err != nil {
				return nil, apperrors.MapError(err)
			}
			queued = append(queued, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventNotificationQueued,
				TicketID:  notification.TicketIDValue(),
				Timestamp: time.Now(),
				Payload: events.NotificationQueuedPayload{
					NotificationID: notification.ID,
					Title:          notification.Title,
					Message:        notification.Message,
					Type:           notification.Type,
					IsRead:         false,
					CreatedAt:      notification.CreatedAt,
					Recipient:      employeeSummary(recipient),
					Ticket:         ticketSummaryPtr(ticket),
				},
			})
		}
	}
	return queued, nil
}

func (n *NotificationService) resolveRecipients(ctx context.Context, item notice) ([]*domain.Employee, error) {
	seen := make(map[string]struct{})
	var result []*domain.Employee

	appendRecipient := func(employee *domain.Employee) {
		if employee == nil || employee.ID == item.ExcludeID {
			return
		}
		if _, dup := seen[employee.ID]; dup {
			return
		}
		seen[employee.ID] = struct{}{}
		result = append(result, employee)
	}

	for _, recipient := range item.Recipients {
		appendRecipient(recipient)
	}
	if item.BroadcastRole != nil {
		members, err := n.employees.ListActiveByRole(ctx, *item.BroadcastRole)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for i := range members {
			appendRecipient(&members[i])
		}
	}
	return result, nil
}

// ListForEmployee returns every notification addressed to the employee,
// newest first.
func (n *NotificationService) ListForEmployee(ctx context.Context, employee *domain.Employee) ([]repository.EmployeeNotification, error) {
	items, err := n.recipients.ListByEmployee(ctx, employee.ID, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// ListUnread returns the employee's unread notifications, newest first.
func (n *NotificationService) ListUnread(ctx context.Context, employee *domain.Employee) ([]repository.EmployeeNotification, error) {
	items, err := n.recipients.ListByEmployee(ctx, employee.ID, true)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// MarkRead flips the read flag on the unique recipient row binding the
// notification to the employee.
func (n *NotificationService) MarkRead(ctx context.Context, notificationID string, employee *domain.Employee) error {
	row, err := n.recipients.GetByNotificationAndEmployee(ctx, notificationID, employee.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return apperrors.MapError(err)
	}
	if err := n.recipients.MarkRead(ctx, row.ID, time.Now()); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// MarkAllRead atomically flips every currently-unread row for the
// employee. Calling it again is a no-op.
func (n *NotificationService) MarkAllRead(ctx context.Context, employee *domain.Employee) (int64, error) {
	count, err := n.recipients.MarkAllRead(ctx, employee.ID, time.Now())
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

func employeeSummary(employee *domain.Employee) events.EmployeeSummary {
	return events.EmployeeSummary{
		ID:    employee.ID,
		Name:  employee.Name,
		Email: employee.Email,
		Role:  employee.Role,
	}
}

func ticketSummaryPtr(ticket *domain.Ticket) *events.TicketSummary {
	if ticket == nil {
		return nil
	}
	summary := ticketEventSummary(ticket)
	return &summary
}

func ticketEventSummary(ticket *domain.Ticket) events.TicketSummary {
	return events.TicketSummary{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Title:        ticket.Title,
		Category:     ticket.Category,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
	}
}
