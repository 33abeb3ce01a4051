package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// CommentService appends comments to tickets and runs the comment
// notification decision table.
type CommentService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	employees  repository.EmployeeRepository
	notifier   *NotificationService
	tx         TxRunner
	dispatcher events.Dispatcher
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	TicketRepo   repository.TicketRepository
	CommentRepo  repository.CommentRepository
	EmployeeRepo repository.EmployeeRepository
	Notifier     *NotificationService
	Tx           TxRunner
	Dispatcher   events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	tx := deps.Tx
	if tx == nil {
		tx = noopTxRunner{}
	}
	return &CommentService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		employees:  deps.EmployeeRepo,
		notifier:   deps.Notifier,
		tx:         tx,
		dispatcher: deps.Dispatcher,
	}
}

// AddComment appends a comment to the ticket and fans out notifications
// per the routing table. Internal comments may only be authored by ADMIN
// or HR.
func (s *CommentService) AddComment(ctx context.Context, ticketID, body string, isInternal bool, author *domain.Employee) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body required", nil)
	}
	if isInternal && author.Role != domain.RoleAdmin && author.Role != domain.RoleHR {
		return nil, apperrors.NewForbidden("internal comments require ADMIN or HR role")
	}

	var (
		comment *domain.Comment
		outbox  []events.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			return notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
		}
		if !policy.CanView(ticket, author) {
			return apperrors.NewForbidden("access denied")
		}

		comment = &domain.Comment{
			TicketID:   ticket.ID,
			AuthorID:   author.ID,
			Body:       body,
			IsInternal: isInternal,
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return apperrors.MapError(err)
		}

		creator, err := s.loadEmployee(ctx, ticket.CreatedByID)
		if err != nil {
			return err
		}
		var assignee *domain.Employee
		if ticket.AssignedToID != nil {
			assignee, err = s.loadEmployee(ctx, *ticket.AssignedToID)
			if err != nil {
				return err
			}
		}

		queued, err := s.notifier.deliver(ctx, ticket, planCommentFanout(ticket, comment, author, creator, assignee))
		if err != nil {
			return err
		}
		outbox = append(outbox, queued...)
		outbox = append(outbox, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketCommentAdded,
			TicketID:  ticket.ID,
			ActorID:   author.ID,
			Timestamp: time.Now(),
			Payload: events.TicketCommentAddedPayload{
				Ticket:     ticketEventSummary(ticket),
				CommentID:  comment.ID,
				IsInternal: comment.IsInternal,
			},
		})
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		for _, event := range outbox {
			_ = s.dispatcher.Publish(ctx, event)
		}
	}
	return comment, nil
}

// ListComments returns the ticket's comments the viewer may see, oldest
// first.
func (s *CommentService) ListComments(ctx context.Context, ticketID string, viewer *domain.Employee) ([]domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !policy.CanView(ticket, viewer) {
		return nil, apperrors.NewForbidden("access denied")
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	visible := make([]domain.Comment, 0, len(comments))
	for i := range comments {
		if policy.CanViewComment(&comments[i], viewer) {
			visible = append(visible, comments[i])
		}
	}
	return visible, nil
}

func (s *CommentService) loadEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "employee", map[string]any{"employee_id": id})
	}
	return employee, nil
}

func notFoundOr(err error, resource string, details map[string]any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}
