package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newNotificationFixture(employees ...*domain.Employee) (*NotificationService, *stubNotificationRepo, *stubRecipientRepo) {
	notificationRepo := &stubNotificationRepo{}
	recipientRepo := &stubRecipientRepo{}
	service := NewNotificationService(NotificationDependencies{
		NotificationRepo: notificationRepo,
		RecipientRepo:    recipientRepo,
		EmployeeRepo:     newStubEmployeeRepo(employees...),
		Logger:           zap.NewNop(),
	})
	return service, notificationRepo, recipientRepo
}

func TestDeliverSharedNotification(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	net1 := testEmployee("net1", domain.RoleNetwork)
	net2 := testEmployee("net2", domain.RoleNetwork)
	service, notifications, recipients := newNotificationFixture(admin, net1, net2)

	ticket := fanoutTicket("creator", nil)
	queued, err := service.deliver(context.Background(), ticket, fanoutPlan{Notices: []notice{{
		Title:         "t",
		Message:       "m",
		Type:          domain.NotificationTicketCreated,
		Recipients:    []*domain.Employee{admin},
		BroadcastRole: rolePtr(domain.RoleNetwork),
	}}})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(notifications.notifications) != 1 {
		t.Fatalf("expected one shared notification, got %d", len(notifications.notifications))
	}
	if len(recipients.rows) != 3 {
		t.Fatalf("expected 3 recipient rows, got %d", len(recipients.rows))
	}
	if len(queued) != 3 {
		t.Fatalf("expected one queued event per recipient, got %d", len(queued))
	}
	for _, row := range recipients.rows {
		if row.NotificationID != notifications.notifications[0].ID {
			t.Fatal("all rows must reference the shared notification")
		}
		if row.IsRead {
			t.Fatal("new rows start unread")
		}
	}
}

func TestDeliverDeduplicatesAndExcludes(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	net1 := testEmployee("net1", domain.RoleNetwork)
	service, _, recipients := newNotificationFixture(admin, net1)

	ticket := fanoutTicket("creator", nil)
	// net1 appears directly and via the broadcast; admin is excluded.
	_, err := service.deliver(context.Background(), ticket, fanoutPlan{Notices: []notice{{
		Title:         "t",
		Message:       "m",
		Type:          domain.NotificationTicketCommentAdded,
		Recipients:    []*domain.Employee{net1, admin},
		BroadcastRole: rolePtr(domain.RoleNetwork),
		ExcludeID:     admin.ID,
	}}})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(recipients.rows) != 1 {
		t.Fatalf("expected 1 row after dedupe and exclusion, got %d", len(recipients.rows))
	}
	if recipients.rows[0].EmployeeID != net1.ID {
		t.Fatal("remaining recipient must be net1")
	}
}

func TestDeliverSkipsEmptyNotice(t *testing.T) {
	only := testEmployee("only", domain.RoleIT)
	service, notifications, _ := newNotificationFixture(only)

	// Sole resolved recipient equals the excluded employee: nothing persists.
	queued, err := service.deliver(context.Background(), fanoutTicket("creator", nil), fanoutPlan{Notices: []notice{{
		Title:      "t",
		Message:    "m",
		Type:       domain.NotificationTicketCommentAdded,
		Recipients: []*domain.Employee{only},
		ExcludeID:  only.ID,
	}}})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(notifications.notifications) != 0 || len(queued) != 0 {
		t.Fatal("a fully suppressed notice must not persist anything")
	}
}

func TestMarkRead(t *testing.T) {
	reader := testEmployee("reader", domain.RoleIT)
	service, notifications, recipients := newNotificationFixture(reader)

	_, err := service.deliver(context.Background(), nil, fanoutPlan{Notices: []notice{{
		Title:      "t",
		Message:    "m",
		Type:       domain.NotificationTicketAssigned,
		Recipients: []*domain.Employee{reader},
	}}})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	notificationID := notifications.notifications[0].ID

	if err := service.MarkRead(context.Background(), notificationID, reader); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !recipients.rows[0].IsRead || recipients.rows[0].ReadAt == nil {
		t.Fatal("row must be read with a timestamp")
	}

	other := testEmployee("other", domain.RoleHR)
	if err := service.MarkRead(context.Background(), notificationID, other); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("foreign notification must be NOT_FOUND, got %v", err)
	}
}

func TestMarkAllReadIdempotent(t *testing.T) {
	reader := testEmployee("reader", domain.RoleIT)
	service, _, _ := newNotificationFixture(reader)

	for i := 0; i < 3; i++ {
		_, err := service.deliver(context.Background(), nil, fanoutPlan{Notices: []notice{{
			Title:      "t",
			Message:    "m",
			Type:       domain.NotificationTicketAssigned,
			Recipients: []*domain.Employee{reader},
		}}})
		if err != nil {
			t.Fatalf("deliver: %v", err)
		}
	}

	count, err := service.MarkAllRead(context.Background(), reader)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rows marked, got %d", count)
	}

	again, err := service.MarkAllRead(context.Background(), reader)
	if err != nil {
		t.Fatalf("MarkAllRead again: %v", err)
	}
	if again != 0 {
		t.Fatalf("second call must mark nothing, got %d", again)
	}

	unread, err := service.ListUnread(context.Background(), reader)
	if err != nil {
		t.Fatalf("ListUnread: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected no unread items, got %d", len(unread))
	}
}
