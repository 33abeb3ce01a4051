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

// TxRunner executes a workflow operation as one atomic unit of work.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// noopTxRunner runs the function directly; used when no transactional
// store is wired.
type noopTxRunner struct{}

func (noopTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// TicketService owns the ticket state machine and the fan-out each
// transition incurs. Every mutating operation commits the ticket change
// and its notification rows together, then drains side-channel events.
type TicketService struct {
	tickets     repository.TicketRepository
	employees   repository.EmployeeRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	notifier    *NotificationService
	tx          TxRunner
	dispatcher  events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	EmployeeRepo   repository.EmployeeRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	Notifier       *NotificationService
	Tx             TxRunner
	Dispatcher     events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.Priority
}

// TicketDetail is a ticket with the comments and attachments the viewer
// is allowed to see.
type TicketDetail struct {
	Ticket      domain.Ticket
	Comments    []domain.Comment
	Attachments []domain.Attachment
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	tx := deps.Tx
	if tx == nil {
		tx = noopTxRunner{}
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		employees:   deps.EmployeeRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		notifier:    deps.Notifier,
		tx:          tx,
		dispatcher:  deps.Dispatcher,
	}
}

// Create validates the request, mints a ticket number and opens the
// ticket, notifying the primary admin and the category team.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput, creator *domain.Employee) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("priority must be between 1 (critical) and 4 (low)", map[string]any{"priority": input.Priority})
	}
	teamRole, err := policy.ResolveTeamRole(input.Category)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		TicketNumber: generateTicketNumber(),
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Category:     input.Category,
		Status:       domain.TicketStatusOpen,
		Priority:     input.Priority,
		CreatedByID:  creator.ID,
	}

	var outbox []events.Event
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		primaryAdmin, err := s.employees.FindPrimaryAdmin(ctx)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("admin", nil)
			}
			return apperrors.MapError(err)
		}
		queued, err := s.notifier.deliver(ctx, ticket, planCreationFanout(ticket, creator, primaryAdmin, teamRole))
		if err != nil {
			return err
		}
		outbox = append(outbox, queued...)
		outbox = append(outbox, s.newEvent(events.EventTicketCreated, ticket.ID, creator.ID, events.TicketCreatedPayload{
			Ticket:  ticketEventSummary(ticket),
			Creator: employeeSummary(creator),
		}))
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.drainOutbox(ctx, outbox)
	return ticket, nil
}

// Assign sets the assignee and moves the ticket to IN_PROGRESS
// unconditionally; re-assigning a resolved ticket reopens work. Both the
// assignee and the creator are notified, even when they coincide.
func (s *TicketService) Assign(ctx context.Context, ticketID, assigneeID string, actor *domain.Employee) (*domain.Ticket, error) {
	var (
		ticket *domain.Ticket
		outbox []events.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.lockTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if !policy.CanView(ticket, actor) {
			return apperrors.NewForbidden("access denied")
		}
		assignee, err := s.employees.GetByID(ctx, assigneeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("employee", map[string]any{"employee_id": assigneeID})
			}
			return apperrors.MapError(err)
		}
		creator, err := s.getEmployee(ctx, ticket.CreatedByID)
		if err != nil {
			return err
		}

		ticket.AssignedToID = &assignee.ID
		ticket.Status = domain.TicketStatusInProgress
		ticket.ResolvedAt = nil
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}

		queued, err := s.notifier.deliver(ctx, ticket, planAssignmentFanout(ticket, assignee, creator))
		if err != nil {
			return err
		}
		outbox = append(outbox, queued...)
		outbox = append(outbox, s.newEvent(events.EventTicketAssigned, ticket.ID, actor.ID, events.TicketAssignedPayload{
			Ticket:   ticketEventSummary(ticket),
			Assignee: employeeSummary(assignee),
			Creator:  employeeSummary(creator),
		}))
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.drainOutbox(ctx, outbox)
	return ticket, nil
}

// ChangeStatus applies the target status. Transition into RESOLVED stamps
// resolvedAt once; transition into OPEN clears the assignee. Any target
// from the defined set is accepted; transitions are not otherwise
// restricted.
func (s *TicketService) ChangeStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus, actor *domain.Employee) (*domain.Ticket, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	var (
		ticket *domain.Ticket
		outbox []events.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.lockTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if !policy.CanView(ticket, actor) {
			return apperrors.NewForbidden("access denied")
		}
		creator, err := s.getEmployee(ctx, ticket.CreatedByID)
		if err != nil {
			return err
		}

		oldStatus := ticket.Status
		ticket.Status = newStatus
		switch newStatus {
		case domain.TicketStatusResolved:
			if ticket.ResolvedAt == nil {
				now := time.Now()
				ticket.ResolvedAt = &now
			}
		case domain.TicketStatusOpen:
			ticket.AssignedToID = nil
			ticket.ResolvedAt = nil
		default:
			ticket.ResolvedAt = nil
		}
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}

		queued, err := s.notifier.deliver(ctx, ticket, planStatusChangeFanout(ticket, creator, newStatus))
		if err != nil {
			return err
		}
		outbox = append(outbox, queued...)
		if newStatus == domain.TicketStatusResolved {
			outbox = append(outbox, s.newEvent(events.EventTicketResolved, ticket.ID, actor.ID, events.TicketResolvedPayload{
				Ticket:  ticketEventSummary(ticket),
				Creator: employeeSummary(creator),
			}))
		} else {
			outbox = append(outbox, s.newEvent(events.EventTicketStatusChanged, ticket.ID, actor.ID, events.TicketStatusChangedPayload{
				Ticket:    ticketEventSummary(ticket),
				OldStatus: oldStatus,
				NewStatus: newStatus,
				Creator:   employeeSummary(creator),
			}))
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.drainOutbox(ctx, outbox)
	return ticket, nil
}

// GetDetail fetches a ticket with the comments and attachments the viewer
// may see.
func (s *TicketService) GetDetail(ctx context.Context, ticketID string, viewer *domain.Employee) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !policy.CanView(ticket, viewer) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return s.detailFor(ctx, ticket, viewer)
}

// GetByNumber resolves a ticket by its public ticket number.
func (s *TicketService) GetByNumber(ctx context.Context, number string, viewer *domain.Employee) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
		}
		return nil, apperrors.MapError(err)
	}
	if !policy.CanView(ticket, viewer) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// ListAllDetails returns full detail for every ticket the viewer may see:
// all tickets for ADMIN, otherwise tickets the viewer created or is
// assigned to.
func (s *TicketService) ListAllDetails(ctx context.Context, viewer *domain.Employee) ([]TicketDetail, error) {
	filter := repository.TicketFilter{Limit: 200}
	if viewer.Role != domain.RoleAdmin {
		filter.InvolvedEmployeeID = &viewer.ID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	details := make([]TicketDetail, 0, len(tickets))
	for i := range tickets {
		if !policy.CanView(&tickets[i], viewer) {
			continue
		}
		detail, err := s.detailFor(ctx, &tickets[i], viewer)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// FetchOpen lists open tickets: all of them for ADMIN, otherwise the open
// tickets of the category the viewer's team is responsible for.
func (s *TicketService) FetchOpen(ctx context.Context, viewer *domain.Employee) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusOpen},
		Limit:    200,
	}
	if viewer.Role != domain.RoleAdmin {
		category, err := policy.ResolveCategory(viewer.Role)
		if err != nil {
			return nil, err
		}
		filter.Category = &category
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return filterViewable(tickets, viewer), nil
}

// FetchLive lists tickets currently being worked on (neither OPEN nor
// RESOLVED). ADMIN only.
func (s *TicketService) FetchLive(ctx context.Context, viewer *domain.Employee) ([]domain.Ticket, error) {
	if viewer.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		NotStatuses: []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusResolved},
		Limit:       200,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// FetchResolved lists resolved tickets: all of them for ADMIN, otherwise
// those the viewer created or resolved as assignee.
func (s *TicketService) FetchResolved(ctx context.Context, viewer *domain.Employee) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusResolved},
		Limit:    200,
	}
	if viewer.Role != domain.RoleAdmin {
		filter.InvolvedEmployeeID = &viewer.ID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// AttachmentInput carries attachment metadata; file bytes live in
// external storage and are referenced by URL.
type AttachmentInput struct {
	FileName  string
	FileURL   string
	SizeBytes int64
}

// AddAttachment registers attachment metadata on a ticket the actor may
// view.
func (s *TicketService) AddAttachment(ctx context.Context, ticketID string, input AttachmentInput, actor *domain.Employee) (*domain.Attachment, error) {
	if strings.TrimSpace(input.FileName) == "" || strings.TrimSpace(input.FileURL) == "" {
		return nil, apperrors.NewValidationError("file_name and file_url required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !policy.CanView(ticket, actor) {
		return nil, apperrors.NewForbidden("access denied")
	}
	attachment := &domain.Attachment{
		TicketID:     ticket.ID,
		FileName:     strings.TrimSpace(input.FileName),
		FileURL:      strings.TrimSpace(input.FileURL),
		SizeBytes:    input.SizeBytes,
		UploadedByID: actor.ID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

func (s *TicketService) detailFor(ctx context.Context, ticket *domain.Ticket, viewer *domain.Employee) (*TicketDetail, error) {
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
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{
		Ticket:      *ticket,
		Comments:    visible,
		Attachments: attachments,
	}, nil
}

func (s *TicketService) lockTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByIDForUpdate(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) getEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"employee_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}

func (s *TicketService) newEvent(eventType events.EventType, ticketID, actorID string, payload interface{}) events.Event {
	return events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// drainOutbox publishes the accumulated events strictly after the
// transactional commit. Failures stay inside the dispatcher.
func (s *TicketService) drainOutbox(ctx context.Context, outbox []events.Event) {
	if s.dispatcher == nil {
		return
	}
	for _, event := range outbox {
		_ = s.dispatcher.Publish(ctx, event)
	}
}

func filterViewable(tickets []domain.Ticket, viewer *domain.Employee) []domain.Ticket {
	visible := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if policy.CanView(&tickets[i], viewer) {
			visible = append(visible, tickets[i])
		}
	}
	return visible
}

func generateTicketNumber() string {
	return "TS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
