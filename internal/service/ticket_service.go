package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Im-Moazzam/Ticketing-System/internal/biztime"
	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	"github.com/Im-Moazzam/Ticketing-System/internal/events"
	"github.com/Im-Moazzam/Ticketing-System/internal/repository"
	"github.com/Im-Moazzam/Ticketing-System/internal/storage"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// StaffAction enumerates the owner-only ticket actions.
type StaffAction string

const (
	ActionApproveClose StaffAction = "approve_close"
	ActionReopen       StaffAction = "reopen"
)

// TicketService owns the ticket lifecycle: creation with SLA derivation,
// status transitions, assignment, the comment thread and attachment access.
// Every operation re-checks role and ownership before touching state.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	blobs      storage.BlobStore
	dispatcher events.Dispatcher

	nowFn func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	BlobStore   storage.BlobStore
	Dispatcher  events.Dispatcher
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	PracticeName string
	ProviderName string
	Subject      string
	Description  string
	Priority     domain.TicketPriority
	Attachment   *AttachmentUpload
}

// AttachmentUpload carries an optional uploaded file.
type AttachmentUpload struct {
	FileName string
	Content  io.Reader
}

// TicketListing is a ticket page plus the dashboard counters for the same
// scope.
type TicketListing struct {
	Tickets []domain.Ticket
	Stats   repository.DashboardStats
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		blobs:      deps.BlobStore,
		dispatcher: deps.Dispatcher,
		nowFn:      biztime.NowUTC,
	}
}

// Create opens a new ticket for a staff principal. The SLA deadline is
// derived from the priority at the creation instant; an invalid attachment
// aborts before anything is persisted.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input CreateTicketInput) (*domain.Ticket, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewNotAuthorized("only staff can create tickets")
	}

	input.PracticeName = strings.TrimSpace(input.PracticeName)
	input.ProviderName = strings.TrimSpace(input.ProviderName)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Description = strings.TrimSpace(input.Description)
	if input.PracticeName == "" || input.ProviderName == "" || input.Subject == "" || input.Description == "" {
		return nil, apperrors.NewValidationError("all fields including priority are required", nil)
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown priority %q", input.Priority), nil)
	}

	var attachmentKey, attachmentName *string
	if input.Attachment != nil && input.Attachment.FileName != "" {
		if !storage.AllowedExtension(input.Attachment.FileName) {
			return nil, apperrors.NewInvalidAttachment(fmt.Sprintf("attachment type not allowed: %s", input.Attachment.FileName))
		}
		key, err := s.blobs.Store(ctx, input.Attachment.FileName, input.Attachment.Content)
		if err != nil {
			return nil, err
		}
		name := storage.SanitizeFileName(input.Attachment.FileName)
		attachmentKey = &key
		attachmentName = &name
	}

	now := s.nowFn()
	ticket := &domain.Ticket{
		StaffID:        actor.ID,
		PracticeName:   input.PracticeName,
		ProviderName:   input.ProviderName,
		Subject:        input.Subject,
		Description:    input.Description,
		Priority:       input.Priority,
		Status:         domain.StatusOpen,
		AttachmentKey:  attachmentKey,
		AttachmentName: attachmentName,
		CreatedAt:      now,
		UpdatedAt:      now,
		DueTime:        domain.CreationDue(input.Priority, now),
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			Ticket: *ticket,
			Staff:  *actor,
		},
	})
	return ticket, nil
}

// ChangeStatus is the admin triage operation. Closed is not settable here;
// only the owning staff member closes a ticket via approve_close.
func (s *TicketService) ChangeStatus(ctx context.Context, actor *domain.User, ticketID int64, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewNotAuthorized("only admins can change ticket status")
	}
	if !statusSettable(newStatus) {
		return nil, apperrors.NewInvalidStatus(fmt.Sprintf("status %q cannot be set directly", newStatus))
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	ticket.UpdatedAt = s.nowFn()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	staff, err := s.ticketOwner(ctx, ticket)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketStatusChangedPayload{
			Ticket:    *ticket,
			Staff:     *staff,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// PerformStaffAction runs the owner-only approve_close / reopen state
// machine. Illegal (state, action) pairs leave the ticket unchanged.
func (s *TicketService) PerformStaffAction(ctx context.Context, actor *domain.User, ticketID int64, action StaffAction) (*domain.Ticket, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewNotAuthorized("staff action requires a staff account")
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.StaffID != actor.ID {
		return nil, apperrors.NewNotAuthorized("not the ticket owner")
	}

	now := s.nowFn()
	switch {
	case action == ActionApproveClose && ticket.CanApproveClose():
		ticket.Status = domain.StatusClosed
		ticket.UpdatedAt = now
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketClosed,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload: events.TicketClosedPayload{
				Ticket: *ticket,
				Staff:  *actor,
			},
		})
		return ticket, nil

	case action == ActionReopen && ticket.CanReopen():
		ticket.Status = domain.StatusInProgress
		ticket.DueTime = domain.ReopenDue(ticket.Priority, now)
		ticket.UpdatedAt = now
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketReopened,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload: events.TicketReopenedPayload{
				Ticket: *ticket,
				Staff:  *actor,
			},
		})
		return ticket, nil
	}

	return nil, apperrors.NewInvalidAction(fmt.Sprintf("action %q not allowed from status %q", action, ticket.Status))
}

// Assign sets the free-text assignee. Admin only; no notification.
func (s *TicketService) Assign(ctx context.Context, actor *domain.User, ticketID int64, assignee string) (*domain.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewNotAuthorized("only admins can assign tickets")
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	ticket.AssignedTo = strings.TrimSpace(assignee)
	ticket.UpdatedAt = s.nowFn()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketAssignedPayload{
			Ticket:     *ticket,
			AssignedTo: ticket.AssignedTo,
		},
	})
	return ticket, nil
}

// GetTicket returns a ticket and its comment thread for an actor with view
// rights (the owning staff member or any admin).
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if !canView(actor, ticket) {
		return nil, nil, apperrors.NewNotAuthorized("not allowed to view this ticket")
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, comments, nil
}

// ListTickets returns the actor's ticket scope with dashboard counters.
// Staff see only their own tickets; admins see everything. An empty or "All"
// status lists every state.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, status string, limit, offset int) (*TicketListing, error) {
	filter := repository.TicketFilter{Limit: limit, Offset: offset}
	var scope *int64
	if !actor.IsAdmin() {
		scope = &actor.ID
		filter.StaffID = &actor.ID
	}
	if status != "" && status != "All" {
		st := domain.TicketStatus(status)
		filter.Status = &st
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats, err := s.tickets.CountStats(ctx, scope, s.nowFn())
	if err != nil {
		return nil, err
	}
	return &TicketListing{Tickets: tickets, Stats: stats}, nil
}

// AddComment appends to the ticket thread. Any principal with view rights
// may post; the message must be non-empty after trimming.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID int64, message string) (*domain.Comment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, ticket) {
		return nil, apperrors.NewNotAuthorized("not allowed to comment on this ticket")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewEmptyMessage()
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Message:  message,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.CommentAddedPayload{
			CommentID: comment.ID,
			AuthorID:  actor.ID,
		},
	})
	return comment, nil
}

// OpenAttachment streams a ticket's attachment for an actor with view
// rights. Returns the download filename alongside the content.
func (s *TicketService) OpenAttachment(ctx context.Context, actor *domain.User, ticketID int64) (io.ReadCloser, string, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, "", err
	}
	if !canView(actor, ticket) {
		return nil, "", apperrors.NewNotAuthorized("not allowed to view this ticket")
	}
	if ticket.AttachmentKey == nil {
		return nil, "", apperrors.NewNotFound("attachment", nil)
	}

	rc, err := s.blobs.Open(ctx, *ticket.AttachmentKey)
	if err != nil {
		return nil, "", err
	}
	name := *ticket.AttachmentKey
	if ticket.AttachmentName != nil {
		name = *ticket.AttachmentName
	}
	return rc, name, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) ticketOwner(ctx context.Context, ticket *domain.Ticket) (*domain.User, error) {
	staff, err := s.users.GetByID(ctx, ticket.StaffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.nowFn()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func canView(actor *domain.User, ticket *domain.Ticket) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return ticket.StaffID == actor.ID
}

func statusSettable(status domain.TicketStatus) bool {
	for _, candidate := range domain.AdminSettableStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}
