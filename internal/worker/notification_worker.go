package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
	"github.com/spec-kit/helpdesk/internal/realtime"
)

// NotificationWorker bridges committed workflow events to the side
// channels: real-time pushes for every queued notification and email for
// the lifecycle transitions that warrant one.
type NotificationWorker struct {
	publisher realtime.Publisher
	mailer    mail.Mailer
	logger    *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(publisher realtime.Publisher, mailer mail.Mailer, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{publisher: publisher, mailer: mailer, logger: logger}
}

// Register subscribes the worker to the dispatcher. Handlers run after
// the originating transaction has committed; their failures are logged
// and swallowed.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventNotificationQueued, w.handleQueued)
	dispatcher.Subscribe(events.EventTicketCreated, w.handleCreated)
	dispatcher.Subscribe(events.EventTicketAssigned, w.handleAssigned)
	dispatcher.Subscribe(events.EventTicketResolved, w.handleResolved)
}

func (w *NotificationWorker) handleQueued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NotificationQueuedPayload)
	if !ok {
		return nil
	}
	if err := w.publisher.PublishNotification(ctx, payload); err != nil {
		w.logger.Warn("realtime push failed",
			zap.String("notification_id", payload.NotificationID),
			zap.String("employee_id", payload.Recipient.ID),
			zap.Error(err),
		)
	}
	return nil
}

func (w *NotificationWorker) handleCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	w.send(ctx, payload.Creator.Email,
		fmt.Sprintf("Ticket %s created", payload.Ticket.TicketNumber),
		fmt.Sprintf("Hi %s,\n\nYour ticket %q has been registered as %s. You will be notified as it progresses.",
			payload.Creator.Name, payload.Ticket.Title, payload.Ticket.TicketNumber))
	return nil
}

func (w *NotificationWorker) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	w.send(ctx, payload.Assignee.Email,
		fmt.Sprintf("Ticket %s assigned to you", payload.Ticket.TicketNumber),
		fmt.Sprintf("Hi %s,\n\nTicket %q (%s) has been assigned to you.",
			payload.Assignee.Name, payload.Ticket.Title, payload.Ticket.TicketNumber))
	w.send(ctx, payload.Creator.Email,
		fmt.Sprintf("Ticket %s is in progress", payload.Ticket.TicketNumber),
		fmt.Sprintf("Hi %s,\n\nYour ticket %q has been assigned to %s.",
			payload.Creator.Name, payload.Ticket.Title, payload.Assignee.Name))
	return nil
}

func (w *NotificationWorker) handleResolved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketResolvedPayload)
	if !ok {
		return nil
	}
	w.send(ctx, payload.Creator.Email,
		fmt.Sprintf("Ticket %s resolved", payload.Ticket.TicketNumber),
		fmt.Sprintf("Hi %s,\n\nYour ticket %q has been resolved.",
			payload.Creator.Name, payload.Ticket.Title))
	return nil
}

func (w *NotificationWorker) send(ctx context.Context, to, subject, body string) {
	if to == "" {
		return
	}
	if err := w.mailer.Send(ctx, mail.Message{To: to, Subject: subject, Body: body}); err != nil {
		w.logger.Warn("email send failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
