package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type stubEmployeeRepo struct {
	employees map[string]*domain.Employee
	admin     *domain.Employee
}

func newStubEmployeeRepo(employees ...*domain.Employee) *stubEmployeeRepo {
	repo := &stubEmployeeRepo{employees: make(map[string]*domain.Employee)}
	for _, e := range employees {
		repo.Add(e)
	}
	return repo
}

func (r *stubEmployeeRepo) Add(e *domain.Employee) {
	r.employees[e.ID] = e
	if e.Role == domain.RoleAdmin && e.IsActive && r.admin == nil {
		r.admin = e
	}
}

func (r *stubEmployeeRepo) Create(_ context.Context, e *domain.Employee) error {
	if e.ID == "" {
		e.ID = fmt.Sprintf("emp-%d", len(r.employees)+1)
	}
	e.CreatedAt = time.Now()
	r.Add(e)
	return nil
}

func (r *stubEmployeeRepo) Update(_ context.Context, e *domain.Employee) error {
	if _, ok := r.employees[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.employees[e.ID] = e
	return nil
}

func (r *stubEmployeeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.employees[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.employees, id)
	return nil
}

func (r *stubEmployeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	if e, ok := r.employees[id]; ok {
		return e, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubEmployeeRepo) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	for _, e := range r.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubEmployeeRepo) GetByCode(_ context.Context, code string) (*domain.Employee, error) {
	for _, e := range r.employees {
		if e.EmployeeCode == code {
			return e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubEmployeeRepo) List(_ context.Context, _ repository.EmployeeFilter) ([]domain.Employee, error) {
	var result []domain.Employee
	for _, e := range r.employees {
		result = append(result, *e)
	}
	return result, nil
}

func (r *stubEmployeeRepo) ListActiveByRole(_ context.Context, role domain.Role) ([]domain.Employee, error) {
	var result []domain.Employee
	for _, e := range r.employees {
		if e.Role == role && e.IsActive {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (r *stubEmployeeRepo) FindPrimaryAdmin(_ context.Context) (*domain.Employee, error) {
	if r.admin == nil {
		return nil, pgx.ErrNoRows
	}
	return r.admin, nil
}

type stubTicketRepo struct {
	tickets map[string]*domain.Ticket
	seq     int
}

func newStubTicketRepo(tickets ...*domain.Ticket) *stubTicketRepo {
	repo := &stubTicketRepo{tickets: make(map[string]*domain.Ticket)}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *stubTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *stubTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *stubTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	if t, ok := r.tickets[id]; ok && !t.IsDeleted {
		return t, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubTicketRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *stubTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	for _, t := range r.tickets {
		if t.TicketNumber == number && !t.IsDeleted {
			return t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range r.tickets {
		if t.IsDeleted || !matchesFilter(t, filter) {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func matchesFilter(t *domain.Ticket, filter repository.TicketFilter) bool {
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if t.Status == s {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	for _, s := range filter.NotStatuses {
		if t.Status == s {
			return false
		}
	}
	if filter.Category != nil && t.Category != *filter.Category {
		return false
	}
	if filter.CreatedByID != nil && t.CreatedByID != *filter.CreatedByID {
		return false
	}
	if filter.InvolvedEmployeeID != nil {
		id := *filter.InvolvedEmployeeID
		if t.CreatedByID != id && (t.AssignedToID == nil || *t.AssignedToID != id) {
			return false
		}
	}
	return true
}

type stubCommentRepo struct {
	comments []*domain.Comment
}

func (r *stubCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	comment.ID = fmt.Sprintf("comment-%d", len(r.comments)+1)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, comment)
	return nil
}

func (r *stubCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	var result []domain.Comment
	for _, c := range r.comments {
		if c.TicketID == ticketID {
			result = append(result, *c)
		}
	}
	return result, nil
}

type stubAttachmentRepo struct {
	attachments []*domain.Attachment
}

func (r *stubAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	attachment.ID = fmt.Sprintf("att-%d", len(r.attachments)+1)
	attachment.UploadedAt = time.Now()
	r.attachments = append(r.attachments, attachment)
	return nil
}

func (r *stubAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var result []domain.Attachment
	for _, a := range r.attachments {
		if a.TicketID == ticketID {
			result = append(result, *a)
		}
	}
	return result, nil
}

type stubNotificationRepo struct {
	notifications []*domain.Notification
}

func (r *stubNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	notification.ID = fmt.Sprintf("notif-%d", len(r.notifications)+1)
	notification.CreatedAt = time.Now()
	r.notifications = append(r.notifications, notification)
	return nil
}

type stubRecipientRepo struct {
	rows []*domain.NotificationRecipient
}

func (r *stubRecipientRepo) Create(_ context.Context, recipient *domain.NotificationRecipient) error {
	recipient.ID = fmt.Sprintf("recip-%d", len(r.rows)+1)
	r.rows = append(r.rows, recipient)
	return nil
}

func (r *stubRecipientRepo) GetByNotificationAndEmployee(_ context.Context, notificationID, employeeID string) (*domain.NotificationRecipient, error) {
	for _, row := range r.rows {
		if row.NotificationID == notificationID && row.EmployeeID == employeeID {
			return row, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubRecipientRepo) ListByEmployee(_ context.Context, employeeID string, unreadOnly bool) ([]repository.EmployeeNotification, error) {
	var result []repository.EmployeeNotification
	for _, row := range r.rows {
		if row.EmployeeID != employeeID {
			continue
		}
		if unreadOnly && row.IsRead {
			continue
		}
		result = append(result, repository.EmployeeNotification{Recipient: *row})
	}
	return result, nil
}

func (r *stubRecipientRepo) MarkRead(_ context.Context, recipientID string, at time.Time) error {
	for _, row := range r.rows {
		if row.ID == recipientID {
			row.IsRead = true
			row.ReadAt = &at
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *stubRecipientRepo) MarkAllRead(_ context.Context, employeeID string, at time.Time) (int64, error) {
	var count int64
	for _, row := range r.rows {
		if row.EmployeeID == employeeID && !row.IsRead {
			row.IsRead = true
			row.ReadAt = &at
			count++
		}
	}
	return count, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(eventType events.EventType) []events.Event {
	var result []events.Event
	for _, e := range d.published {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}
