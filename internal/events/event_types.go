package events

import (
	"time"

	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketClosed        EventType = "ticket_closed"
	EventTicketReopened      EventType = "ticket_reopened"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventCommentAdded        EventType = "ticket_comment_added"
	EventTicketOverdue       EventType = "ticket_overdue"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	ActorID   int64       `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload carries everything the notification emails need.
type TicketCreatedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
	Staff  domain.User   `json:"staff"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Ticket    domain.Ticket       `json:"ticket"`
	Staff     domain.User         `json:"staff"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketClosedPayload payload for staff approve-close.
type TicketClosedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
	Staff  domain.User   `json:"staff"`
}

// TicketReopenedPayload payload for staff reopen.
type TicketReopenedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
	Staff  domain.User   `json:"staff"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Ticket     domain.Ticket `json:"ticket"`
	AssignedTo string        `json:"assigned_to"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID int64 `json:"comment_id"`
	AuthorID  int64 `json:"author_id"`
}

// TicketOverduePayload payload emitted by the reminder scheduler.
type TicketOverduePayload struct {
	Ticket domain.Ticket `json:"ticket"`
	Staff  domain.User   `json:"staff"`
}
