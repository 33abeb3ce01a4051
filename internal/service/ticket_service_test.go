package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type ticketFixture struct {
	service    *TicketService
	comments   *CommentService
	tickets    *stubTicketRepo
	employees  *stubEmployeeRepo
	recipients *stubRecipientRepo
	dispatcher *recordingDispatcher
}

func newTicketFixture(employees ...*domain.Employee) *ticketFixture {
	employeeRepo := newStubEmployeeRepo(employees...)
	ticketRepo := newStubTicketRepo()
	commentRepo := &stubCommentRepo{}
	attachmentRepo := &stubAttachmentRepo{}
	notificationRepo := &stubNotificationRepo{}
	recipientRepo := &stubRecipientRepo{}
	dispatcher := &recordingDispatcher{}

	notifier := NewNotificationService(NotificationDependencies{
		NotificationRepo: notificationRepo,
		RecipientRepo:    recipientRepo,
		EmployeeRepo:     employeeRepo,
		Logger:           zap.NewNop(),
	})
	ticketService := NewTicketService(TicketDependencies{
		TicketRepo:     ticketRepo,
		EmployeeRepo:   employeeRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		Notifier:       notifier,
		Dispatcher:     dispatcher,
	})
	commentService := NewCommentService(CommentDependencies{
		TicketRepo:   ticketRepo,
		CommentRepo:  commentRepo,
		EmployeeRepo: employeeRepo,
		Notifier:     notifier,
		Dispatcher:   dispatcher,
	})
	return &ticketFixture{
		service:    ticketService,
		comments:   commentService,
		tickets:    ticketRepo,
		employees:  employeeRepo,
		recipients: recipientRepo,
		dispatcher: dispatcher,
	}
}

func TestCreateTicket(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleHR)
	netEng := testEmployee("net1", domain.RoleNetwork)
	f := newTicketFixture(admin, creator, netEng)

	ticket, err := f.service.Create(context.Background(), TicketCreateInput{
		Title:    "VPN down",
		Category: domain.CategoryNetwork,
		Priority: domain.PriorityCritical,
	}, creator)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want OPEN", ticket.Status)
	}
	if !strings.HasPrefix(ticket.TicketNumber, "TS-") || len(ticket.TicketNumber) != 11 {
		t.Fatalf("ticket number %q malformed", ticket.TicketNumber)
	}
	if ticket.AssignedToID != nil || ticket.ResolvedAt != nil {
		t.Fatal("new ticket must be unassigned and unresolved")
	}

	// Admin and the network team each get one recipient row.
	recipients := map[string]bool{}
	for _, row := range f.recipients.rows {
		recipients[row.EmployeeID] = true
	}
	if !recipients[admin.ID] || !recipients[netEng.ID] {
		t.Fatalf("expected admin and network team notified, got %v", recipients)
	}
	if recipients[creator.ID] {
		t.Fatal("creator is not a creation recipient")
	}

	if got := len(f.dispatcher.ofType(events.EventTicketCreated)); got != 1 {
		t.Fatalf("expected 1 ticket_created event, got %d", got)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	creator := testEmployee("creator", domain.RoleHR)
	f := newTicketFixture(testEmployee("admin", domain.RoleAdmin), creator)

	cases := []struct {
		name  string
		input TicketCreateInput
	}{
		{"empty title", TicketCreateInput{Category: domain.CategoryIT, Priority: domain.PriorityLow}},
		{"bad category", TicketCreateInput{Title: "x", Category: "FACILITIES", Priority: domain.PriorityLow}},
		{"priority zero", TicketCreateInput{Title: "x", Category: domain.CategoryIT, Priority: 0}},
		{"priority out of range", TicketCreateInput{Title: "x", Category: domain.CategoryIT, Priority: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.service.Create(context.Background(), tc.input, creator); !apperrors.IsCode(err, "VALIDATION_FAILED") {
				t.Fatalf("expected VALIDATION_FAILED, got %v", err)
			}
		})
	}
}

func TestCreateTicketWithoutAdmin(t *testing.T) {
	creator := testEmployee("creator", domain.RoleHR)
	f := newTicketFixture(creator)

	_, err := f.service.Create(context.Background(), TicketCreateInput{
		Title:    "x",
		Category: domain.CategoryIT,
		Priority: domain.PriorityLow,
	}, creator)
	if !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND when no admin exists, got %v", err)
	}
}

func TestAssignMovesToInProgress(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleHR)
	assignee := testEmployee("it1", domain.RoleIT)
	f := newTicketFixture(admin, creator, assignee)

	ticket, err := f.service.Create(context.Background(), TicketCreateInput{
		Title: "x", Category: domain.CategoryIT, Priority: domain.PriorityMedium,
	}, creator)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := f.service.Assign(context.Background(), ticket.ID, assignee.ID, admin)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", updated.Status)
	}
	if updated.AssignedToID == nil || *updated.AssignedToID != assignee.ID {
		t.Fatal("assignee not recorded")
	}
}

func TestAssignUnknownAssignee(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleHR)
	f := newTicketFixture(admin, creator)

	ticket, _ := f.service.Create(context.Background(), TicketCreateInput{
		Title: "x", Category: domain.CategoryIT, Priority: domain.PriorityMedium,
	}, creator)

	if _, err := f.service.Assign(context.Background(), ticket.ID, "missing", admin); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestReassignResolvedTicketReopensWork(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleHR)
	assignee := testEmployee("it1", domain.RoleIT)
	f := newTicketFixture(admin, creator, assignee)

	ticket, _ := f.service.Create(context.Background(), TicketCreateInput{
		Title: "x", Category: domain.CategoryIT, Priority: domain.PriorityMedium,
	}, creator)
	if _, err := f.service.ChangeStatus(context.Background(), ticket.ID, domain.TicketStatusResolved, admin); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	updated, err := f.service.Assign(context.Background(), ticket.ID, assignee.ID, admin)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress || updated.ResolvedAt != nil {
		t.Fatal("re-assignment must reopen work and clear the resolution stamp")
	}
}

func TestChangeStatusInvariants(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleHR)
	assignee := testEmployee("it1", domain.RoleIT)
	f := newTicketFixture(admin, creator, assignee)

	ticket, _ := f.service.Create(context.Background(), TicketCreateInput{
		Title: "x", Category: domain.CategoryIT, Priority: domain.PriorityMedium,
	}, creator)
	if _, err := f.service.Assign(context.Background(), ticket.ID, assignee.ID, admin); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	resolved, err := f.service.ChangeStatus(context.Background(), ticket.ID, domain.TicketStatusResolved, admin)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatal("resolution must stamp resolved_at")
	}

	reopened, err := f.service.ChangeStatus(context.Background(), ticket.ID, domain.TicketStatusOpen, admin)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.ResolvedAt != nil {
		t.Fatal("reopening must clear resolved_at")
	}
	if reopened.AssignedToID != nil {
		t.Fatal("reopening must clear the assignee")
	}
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	f := newTicketFixture(admin)
	if _, err := f.service.ChangeStatus(context.Background(), "any", "ARCHIVED", admin); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestChangeStatusDeniedForOutsider(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleHR)
	outsider := testEmployee("net1", domain.RoleNetwork)
	f := newTicketFixture(admin, creator, outsider)

	ticket, _ := f.service.Create(context.Background(), TicketCreateInput{
		Title: "x", Category: domain.CategoryIT, Priority: domain.PriorityMedium,
	}, creator)

	if _, err := f.service.ChangeStatus(context.Background(), ticket.ID, domain.TicketStatusResolved, outsider); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestFetchLiveAdminOnly(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	it := testEmployee("it1", domain.RoleIT)
	f := newTicketFixture(admin, it)

	if _, err := f.service.FetchLive(context.Background(), it); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN for non-admin, got %v", err)
	}
	if _, err := f.service.FetchLive(context.Background(), admin); err != nil {
		t.Fatalf("admin FetchLive: %v", err)
	}
}

func TestFetchOpenScopedToTeamCategory(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleHR)
	it := testEmployee("it1", domain.RoleIT)
	f := newTicketFixture(admin, creator, it)

	if _, err := f.service.Create(context.Background(), TicketCreateInput{
		Title: "it issue", Category: domain.CategoryIT, Priority: domain.PriorityMedium,
	}, creator); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.service.Create(context.Background(), TicketCreateInput{
		Title: "network issue", Category: domain.CategoryNetwork, Priority: domain.PriorityMedium,
	}, creator); err != nil {
		t.Fatalf("Create: %v", err)
	}

	open, err := f.service.FetchOpen(context.Background(), it)
	if err != nil {
		t.Fatalf("FetchOpen: %v", err)
	}
	if len(open) != 1 || open[0].Category != domain.CategoryIT {
		t.Fatalf("IT engineer must see only IT open tickets, got %d", len(open))
	}

	all, err := f.service.FetchOpen(context.Background(), admin)
	if err != nil {
		t.Fatalf("FetchOpen admin: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin must see all open tickets, got %d", len(all))
	}
}

func TestFetchOpenAdminRoleHasNoCategory(t *testing.T) {
	// A non-admin viewer whose role maps to no category cannot happen with
	// the defined roles; HR maps to HR. Verify HR sees HR tickets only.
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleIT)
	hr := testEmployee("hr1", domain.RoleHR)
	f := newTicketFixture(admin, creator, hr)

	if _, err := f.service.Create(context.Background(), TicketCreateInput{
		Title: "payroll", Category: domain.CategoryHR, Priority: domain.PriorityLow,
	}, creator); err != nil {
		t.Fatalf("Create: %v", err)
	}

	open, err := f.service.FetchOpen(context.Background(), hr)
	if err != nil {
		t.Fatalf("FetchOpen: %v", err)
	}
	if len(open) != 1 || open[0].Category != domain.CategoryHR {
		t.Fatalf("HR must see HR open tickets, got %d", len(open))
	}
}

func TestAddCommentInternalRoleGate(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleIT)
	it := testEmployee("it1", domain.RoleIT)
	f := newTicketFixture(admin, creator, it)

	ticket, _ := f.service.Create(context.Background(), TicketCreateInput{
		Title: "x", Category: domain.CategoryIT, Priority: domain.PriorityMedium,
	}, creator)

	if _, err := f.comments.AddComment(context.Background(), ticket.ID, "secret", true, it); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("IT role cannot author internal comments, got %v", err)
	}
	if _, err := f.comments.AddComment(context.Background(), ticket.ID, "secret", true, admin); err != nil {
		t.Fatalf("admin internal comment: %v", err)
	}
}

func TestGetDetailFiltersInternalComments(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleSoftwareEngineer)
	f := newTicketFixture(admin, creator)

	ticket, _ := f.service.Create(context.Background(), TicketCreateInput{
		Title: "x", Category: domain.CategorySoftware, Priority: domain.PriorityMedium,
	}, creator)

	if _, err := f.comments.AddComment(context.Background(), ticket.ID, "public note", false, admin); err != nil {
		t.Fatalf("public comment: %v", err)
	}
	if _, err := f.comments.AddComment(context.Background(), ticket.ID, "internal note", true, admin); err != nil {
		t.Fatalf("internal comment: %v", err)
	}

	detail, err := f.service.GetDetail(context.Background(), ticket.ID, creator)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(detail.Comments) != 1 || detail.Comments[0].IsInternal {
		t.Fatalf("software engineer must see only public comments, got %d", len(detail.Comments))
	}

	adminDetail, err := f.service.GetDetail(context.Background(), ticket.ID, admin)
	if err != nil {
		t.Fatalf("GetDetail admin: %v", err)
	}
	if len(adminDetail.Comments) != 2 {
		t.Fatalf("admin must see all comments, got %d", len(adminDetail.Comments))
	}
}

func TestAddAttachment(t *testing.T) {
	admin := testEmployee("admin", domain.RoleAdmin)
	creator := testEmployee("creator", domain.RoleIT)
	f := newTicketFixture(admin, creator)

	ticket, _ := f.service.Create(context.Background(), TicketCreateInput{
		Title: "x", Category: domain.CategoryIT, Priority: domain.PriorityMedium,
	}, creator)

	if _, err := f.service.AddAttachment(context.Background(), ticket.ID, AttachmentInput{}, creator); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED for empty metadata, got %v", err)
	}

	attachment, err := f.service.AddAttachment(context.Background(), ticket.ID, AttachmentInput{
		FileName:  "trace.log",
		FileURL:   "https://files.example.com/trace.log",
		SizeBytes: 2048,
	}, creator)
	if err != nil {
		t.Fatalf("AddAttachment: %v", err)
	}
	if attachment.UploadedByID != creator.ID {
		t.Fatal("uploader not recorded")
	}

	detail, err := f.service.GetDetail(context.Background(), ticket.ID, creator)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(detail.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(detail.Attachments))
	}
}
