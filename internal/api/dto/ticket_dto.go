package dto

import (
	"time"

	"github.com/Im-Moazzam/Ticketing-System/internal/biztime"
	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	"github.com/Im-Moazzam/Ticketing-System/internal/repository"
)

// StatusChangeRequest is the admin triage payload.
type StatusChangeRequest struct {
	Status string `json:"status"`
}

// AssignRequest sets the assignee label.
type AssignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// StaffActionRequest carries the owner-only lifecycle action.
type StaffActionRequest struct {
	Action string `json:"action"`
}

// CommentRequest appends to a ticket thread.
type CommentRequest struct {
	Message string `json:"message"`
}

// TicketResponse is the wire shape of a ticket. Times are rendered in the
// operational timezone.
type TicketResponse struct {
	ID             int64     `json:"id"`
	StaffID        int64     `json:"staff_id"`
	PracticeName   string    `json:"practice_name"`
	ProviderName   string    `json:"provider_name"`
	Subject        string    `json:"subject"`
	Description    string    `json:"description"`
	Priority       string    `json:"priority"`
	Status         string    `json:"status"`
	AssignedTo     string    `json:"assigned_to"`
	AttachmentName *string   `json:"attachment_name,omitempty"`
	HasAttachment  bool      `json:"has_attachment"`
	Overdue        bool      `json:"overdue"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	DueTime        time.Time `json:"due_time"`
}

// CommentResponse is the wire shape of a thread entry.
type CommentResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	AuthorID  int64     `json:"author_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketDetailResponse bundles a ticket with its comment thread.
type TicketDetailResponse struct {
	Ticket   TicketResponse    `json:"ticket"`
	Comments []CommentResponse `json:"comments"`
}

// StatsResponse carries the dashboard counters.
type StatsResponse struct {
	Total   int64 `json:"total"`
	Closed  int64 `json:"closed"`
	Overdue int64 `json:"overdue"`
}

// TicketListResponse is a ticket page plus counters for the same scope.
type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets"`
	Stats   StatsResponse    `json:"stats"`
}

// NewTicketResponse maps a domain ticket, converting instants once at this
// boundary.
func NewTicketResponse(ticket *domain.Ticket, now time.Time) TicketResponse {
	return TicketResponse{
		ID:             ticket.ID,
		StaffID:        ticket.StaffID,
		PracticeName:   ticket.PracticeName,
		ProviderName:   ticket.ProviderName,
		Subject:        ticket.Subject,
		Description:    ticket.Description,
		Priority:       string(ticket.Priority),
		Status:         string(ticket.Status),
		AssignedTo:     ticket.AssignedTo,
		AttachmentName: ticket.AttachmentName,
		HasAttachment:  ticket.AttachmentKey != nil,
		Overdue:        ticket.Overdue(now),
		CreatedAt:      biztime.ToOperational(ticket.CreatedAt),
		UpdatedAt:      biztime.ToOperational(ticket.UpdatedAt),
		DueTime:        biztime.ToOperational(ticket.DueTime),
	}
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Message:   comment.Message,
		CreatedAt: biztime.ToOperational(comment.CreatedAt),
	}
}

// NewTicketListResponse maps a listing page.
func NewTicketListResponse(tickets []domain.Ticket, stats repository.DashboardStats, now time.Time) TicketListResponse {
	out := TicketListResponse{
		Tickets: make([]TicketResponse, 0, len(tickets)),
		Stats: StatsResponse{
			Total:   stats.Total,
			Closed:  stats.Closed,
			Overdue: stats.Overdue,
		},
	}
	for i := range tickets {
		out.Tickets = append(out.Tickets, NewTicketResponse(&tickets[i], now))
	}
	return out
}
