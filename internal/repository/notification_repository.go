package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// NotificationRepository persists immutable notification records. Reads
// always go through the recipient join, so there is no standalone getter.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (title, message, type, ticket_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return querier(ctx, r.pool).QueryRow(ctx, query,
		notification.Title,
		notification.Message,
		notification.Type,
		notification.TicketID,
	).Scan(&notification.ID, &notification.CreatedAt)
}

// EmployeeNotification joins a notification with the recipient row that
// addresses it to one employee.
type EmployeeNotification struct {
	Notification domain.Notification
	Recipient    domain.NotificationRecipient
}

// NotificationRecipientRepository persists per-recipient read state.
type NotificationRecipientRepository interface {
	Create(ctx context.Context, recipient *domain.NotificationRecipient) error
	GetByNotificationAndEmployee(ctx context.Context, notificationID, employeeID string) (*domain.NotificationRecipient, error)
	ListByEmployee(ctx context.Context, employeeID string, unreadOnly bool) ([]EmployeeNotification, error)
	MarkRead(ctx context.Context, recipientID string, at time.Time) error
	MarkAllRead(ctx context.Context, employeeID string, at time.Time) (int64, error)
}

type notificationRecipientRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRecipientRepository instantiates repository.
func NewNotificationRecipientRepository(pool *pgxpool.Pool) NotificationRecipientRepository {
	return &notificationRecipientRepository{pool: pool}
}

func (r *notificationRecipientRepository) Create(ctx context.Context, recipient *domain.NotificationRecipient) error {
	const query = `
        INSERT INTO notification_recipients (notification_id, employee_id, is_read)
        VALUES ($1,$2,$3)
        RETURNING id`
	return querier(ctx, r.pool).QueryRow(ctx, query,
		recipient.NotificationID,
		recipient.EmployeeID,
		recipient.IsRead,
	).Scan(&recipient.ID)
}

func (r *notificationRecipientRepository) GetByNotificationAndEmployee(ctx context.Context, notificationID, employeeID string) (*domain.NotificationRecipient, error) {
	const query = `
        SELECT id, notification_id, employee_id, is_read, read_at
        FROM notification_recipients WHERE notification_id=$1 AND employee_id=$2`
	var recipient domain.NotificationRecipient
	if err := querier(ctx, r.pool).QueryRow(ctx, query, notificationID, employeeID).Scan(
		&recipient.ID,
		&recipient.NotificationID,
		&recipient.EmployeeID,
		&recipient.IsRead,
		&recipient.ReadAt,
	); err != nil {
		return nil, err
	}
	return &recipient, nil
}

func (r *notificationRecipientRepository) ListByEmployee(ctx context.Context, employeeID string, unreadOnly bool) ([]EmployeeNotification, error) {
	query := `
        SELECT n.id, n.title, n.message, n.type, n.ticket_id, n.created_at,
               nr.id, nr.notification_id, nr.employee_id, nr.is_read, nr.read_at
        FROM notification_recipients nr
        JOIN notifications n ON n.id = nr.notification_id
        WHERE nr.employee_id=$1`
	if unreadOnly {
		query += ` AND nr.is_read=FALSE`
	}
	query += ` ORDER BY n.created_at DESC`

	rows, err := querier(ctx, r.pool).Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EmployeeNotification
	for rows.Next() {
		var item EmployeeNotification
		if err := rows.Scan(
			&item.Notification.ID,
			&item.Notification.Title,
			&item.Notification.Message,
			&item.Notification.Type,
			&item.Notification.TicketID,
			&item.Notification.CreatedAt,
			&item.Recipient.ID,
			&item.Recipient.NotificationID,
			&item.Recipient.EmployeeID,
			&item.Recipient.IsRead,
			&item.Recipient.ReadAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *notificationRecipientRepository) MarkRead(ctx context.Context, recipientID string, at time.Time) error {
	const query = `
        UPDATE notification_recipients SET is_read=TRUE, read_at=$2
        WHERE id=$1`
	cmd, err := querier(ctx, r.pool).Exec(ctx, query, recipientID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkAllRead flips every unread row for the employee in one statement, so
// a concurrent MarkRead cannot observe a half-updated set. Already-read
// rows keep their original read_at.
func (r *notificationRecipientRepository) MarkAllRead(ctx context.Context, employeeID string, at time.Time) (int64, error) {
	const query = `
        UPDATE notification_recipients SET is_read=TRUE, read_at=$2
        WHERE employee_id=$1 AND is_read=FALSE`
	cmd, err := querier(ctx, r.pool).Exec(ctx, query, employeeID, at)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
