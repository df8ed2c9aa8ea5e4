package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Im-Moazzam/Ticketing-System/internal/biztime"
	"github.com/Im-Moazzam/Ticketing-System/internal/events"
	"github.com/Im-Moazzam/Ticketing-System/internal/notification"
)

// emailTimeLayout renders deadlines in the operational timezone.
const emailTimeLayout = "2006-01-02 15:04"

// NotificationService turns ticket events into outbound email. Delivery is
// fire-and-forget on a detached context so a slow SMTP server never blocks
// the request that raised the event.
type NotificationService struct {
	sink        notification.Sink
	logger      *zap.Logger
	opsMailbox  string
	sendTimeout time.Duration
}

// NewNotificationService constructs the service.
func NewNotificationService(sink notification.Sink, logger *zap.Logger, opsMailbox string, sendTimeout time.Duration) *NotificationService {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &NotificationService{
		sink:        sink,
		logger:      logger,
		opsMailbox:  opsMailbox,
		sendTimeout: sendTimeout,
	}
}

// RegisterHandlers subscribes to every ticket event the service reacts to.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.onTicketCreated)
	dispatcher.Subscribe(events.EventTicketStatusChanged, s.onStatusChanged)
	dispatcher.Subscribe(events.EventTicketClosed, s.onTicketClosed)
	dispatcher.Subscribe(events.EventTicketReopened, s.onTicketReopened)
	dispatcher.Subscribe(events.EventTicketAssigned, s.onTicketAssigned)
	dispatcher.Subscribe(events.EventCommentAdded, s.onCommentAdded)
	dispatcher.Subscribe(events.EventTicketOverdue, s.onTicketOverdue)
}

func (s *NotificationService) onTicketCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	ticket, staff := payload.Ticket, payload.Staff

	opsSubject := fmt.Sprintf("[New Ticket Created] #%d | Priority: %s", ticket.ID, ticket.Priority)
	opsBody := fmt.Sprintf(
		"A new ticket has been submitted.\n\nTicket #%d\nPractice: %s\nProvider: %s\nSubject: %s\nPriority: %s\nSubmitted by: %s (%s)\nDue: %s\n\nRegards,\nCredentialing Helpdesk System",
		ticket.ID, ticket.PracticeName, ticket.ProviderName, ticket.Subject, ticket.Priority,
		staff.Username, staff.Email, biztime.FormatOperational(ticket.DueTime, emailTimeLayout),
	)
	s.deliver(opsSubject, []string{s.opsMailbox}, opsBody)

	staffSubject := fmt.Sprintf("[Ticket Confirmation] Ticket #%d Submitted", ticket.ID)
	staffBody := fmt.Sprintf(
		"Dear %s,\n\nYour ticket has been received.\n\nTicket #%d\nSubject: %s\nPriority: %s\nDue: %s\n\nYou will be notified when its status changes.\n\nRegards,\nCredentialing Helpdesk System",
		staff.Username, ticket.ID, ticket.Subject, ticket.Priority, biztime.FormatOperational(ticket.DueTime, emailTimeLayout),
	)
	s.deliver(staffSubject, []string{staff.Email}, staffBody)
	return nil
}

func (s *NotificationService) onStatusChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, staff := payload.Ticket, payload.Staff

	subject := fmt.Sprintf("[Ticket Update] Ticket #%d is now %s", ticket.ID, payload.NewStatus)
	body := fmt.Sprintf(
		"Dear %s,\n\nTicket #%d (%s) has moved from %s to %s.\n\nRegards,\nCredentialing Helpdesk System",
		staff.Username, ticket.ID, ticket.Subject, payload.OldStatus, payload.NewStatus,
	)
	s.deliver(subject, []string{staff.Email, s.opsMailbox}, body)
	return nil
}

func (s *NotificationService) onTicketClosed(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return nil
	}
	ticket, staff := payload.Ticket, payload.Staff

	subject := fmt.Sprintf("[Ticket Closed] #%d Approved & Closed", ticket.ID)
	body := fmt.Sprintf(
		"Ticket #%d (%s) was approved and closed by %s (%s).\n\nRegards,\nCredentialing Helpdesk System",
		ticket.ID, ticket.Subject, staff.Username, staff.Email,
	)
	s.deliver(subject, []string{s.opsMailbox}, body)
	return nil
}

func (s *NotificationService) onTicketReopened(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketReopenedPayload)
	if !ok {
		return nil
	}
	ticket, staff := payload.Ticket, payload.Staff

	subject := fmt.Sprintf("[Ticket Reopened] #%d", ticket.ID)
	body := fmt.Sprintf(
		"Ticket #%d (%s) was reopened by %s (%s).\nNew due time: %s\n\nRegards,\nCredentialing Helpdesk System",
		ticket.ID, ticket.Subject, staff.Username, staff.Email, biztime.FormatOperational(ticket.DueTime, emailTimeLayout),
	)
	s.deliver(subject, []string{s.opsMailbox}, body)
	return nil
}

// Assignment is an internal triage detail; it is logged but nobody is
// emailed.
func (s *NotificationService) onTicketAssigned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("ticket assigned",
		zap.Int64("ticket_id", payload.Ticket.ID),
		zap.String("assigned_to", payload.AssignedTo),
	)
	return nil
}

func (s *NotificationService) onCommentAdded(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("ticket comment added",
		zap.Int64("ticket_id", event.TicketID),
		zap.Int64("comment_id", payload.CommentID),
		zap.Int64("author_id", payload.AuthorID),
	)
	return nil
}

func (s *NotificationService) onTicketOverdue(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketOverduePayload)
	if !ok {
		return nil
	}
	ticket, staff := payload.Ticket, payload.Staff

	subject := fmt.Sprintf("[Reminder] Ticket #%d overdue (%s)", ticket.ID, ticket.Priority)
	body := fmt.Sprintf(
		"Dear %s,\n\nTicket #%d (%s) is past its due time of %s and is still %s.\nPlease follow up.\n\nRegards,\nCredentialing Helpdesk System",
		staff.Username, ticket.ID, ticket.Subject, biztime.FormatOperational(ticket.DueTime, emailTimeLayout), ticket.Status,
	)
	s.deliver(subject, []string{staff.Email, s.opsMailbox}, body)
	return nil
}

// deliver hands the message to the sink under a detached bounded context so
// a cancelled request cannot abort an in-flight send. Recipients without an
// address are dropped.
func (s *NotificationService) deliver(subject string, recipients []string, body string) {
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r != "" {
			to = append(to, r)
		}
	}
	to = dedupe(to)
	if len(to) == 0 {
		s.logger.Debug("no recipients for notification", zap.String("subject", subject))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()
	s.sink.Send(ctx, subject, to, body)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
