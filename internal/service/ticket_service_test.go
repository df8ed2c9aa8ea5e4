package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	"github.com/Im-Moazzam/Ticketing-System/internal/events"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

func newTicketFixture(t *testing.T) (*TicketService, *fakeTicketRepo, *fakeUserRepo, events.Dispatcher) {
	t.Helper()
	tickets := newFakeTicketRepo()
	users := newFakeUserRepo()
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		CommentRepo: newFakeCommentRepo(),
		UserRepo:    users,
		BlobStore:   newFakeBlobStore(),
		Dispatcher:  dispatcher,
	})
	return svc, tickets, users, dispatcher
}

func validInput() CreateTicketInput {
	return CreateTicketInput{
		PracticeName: "Lakeside Family Medicine",
		ProviderName: "Dr. Ayesha Khan",
		Subject:      "CAQH re-attestation",
		Description:  "Profile expires next week",
		Priority:     domain.PriorityUrgent,
	}
}

func TestCreateDerivesDueTimeFromPriority(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		priority domain.TicketPriority
		due      time.Time
	}{
		{domain.PriorityUrgent, now.Add(2 * time.Hour)},
		{domain.PrioritySeven, now.Add(7 * 24 * time.Hour)},
		{domain.PriorityFifty, now.Add(3 * 24 * time.Hour)},
	}

	for _, tc := range cases {
		svc, _, _, _ := newTicketFixture(t)
		svc.nowFn = func() time.Time { return now }

		input := validInput()
		input.Priority = tc.priority
		ticket, err := svc.Create(context.Background(), staffUser(1), input)
		require.NoError(t, err, string(tc.priority))

		assert.Equal(t, domain.StatusOpen, ticket.Status)
		assert.Equal(t, tc.due, ticket.DueTime, string(tc.priority))
		assert.False(t, ticket.Overdue(now))
	}
}

func TestCreateRejectsAdmin(t *testing.T) {
	svc, tickets, _, _ := newTicketFixture(t)

	_, err := svc.Create(context.Background(), adminUser(9), validInput())
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.Code(err))
	assert.Empty(t, tickets.tickets)
}

func TestCreateRejectsMissingFields(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)

	input := validInput()
	input.Subject = "   "
	_, err := svc.Create(context.Background(), staffUser(1), input)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.Code(err))
}

func TestCreateRejectsUnknownPriority(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)

	input := validInput()
	input.Priority = "Whenever"
	_, err := svc.Create(context.Background(), staffUser(1), input)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.Code(err))
}

func TestCreateRejectsDisallowedAttachment(t *testing.T) {
	svc, tickets, _, _ := newTicketFixture(t)

	input := validInput()
	input.Attachment = &AttachmentUpload{FileName: "malware.exe", Content: strings.NewReader("boom")}
	_, err := svc.Create(context.Background(), staffUser(1), input)
	require.Error(t, err)
	assert.Equal(t, "INVALID_ATTACHMENT", apperrors.Code(err))
	assert.Empty(t, tickets.tickets)
}

func TestCreateStoresAttachment(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)

	input := validInput()
	input.Attachment = &AttachmentUpload{FileName: "w9 form.pdf", Content: strings.NewReader("pdfdata")}
	ticket, err := svc.Create(context.Background(), staffUser(1), input)
	require.NoError(t, err)

	require.NotNil(t, ticket.AttachmentKey)
	require.NotNil(t, ticket.AttachmentName)
	assert.Equal(t, "w9_form.pdf", *ticket.AttachmentName)

	rc, name, err := svc.OpenAttachment(context.Background(), staffUser(1), ticket.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "w9_form.pdf", name)
}

func TestChangeStatusRequiresAdmin(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	owner := staffUser(1)
	ticket, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	_, err = svc.ChangeStatus(context.Background(), owner, ticket.ID, domain.StatusInProgress)
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.Code(err))
}

func TestChangeStatusRejectsClosed(t *testing.T) {
	svc, _, users, _ := newTicketFixture(t)
	owner := staffUser(1)
	require.NoError(t, users.Create(context.Background(), owner))
	ticket, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	for _, status := range []domain.TicketStatus{domain.StatusClosed, domain.StatusApproved, "Deleted"} {
		_, err = svc.ChangeStatus(context.Background(), adminUser(9), ticket.ID, status)
		require.Error(t, err, string(status))
		assert.Equal(t, "INVALID_STATUS", apperrors.Code(err), string(status))
	}

	stored, err := svc.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, stored.Status)
}

func TestChangeStatusUpdatesTicket(t *testing.T) {
	svc, _, users, _ := newTicketFixture(t)
	owner := staffUser(1)
	require.NoError(t, users.Create(context.Background(), owner))
	ticket, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	updated, err := svc.ChangeStatus(context.Background(), adminUser(9), ticket.ID, domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.Equal(t, ticket.DueTime, updated.DueTime, "triage must not move the deadline")
}

func TestApproveCloseByOwner(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	owner := staffUser(1)
	ticket, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	closed, err := svc.PerformStaffAction(context.Background(), owner, ticket.ID, ActionApproveClose)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)

	// Closing twice is not legal.
	_, err = svc.PerformStaffAction(context.Background(), owner, ticket.ID, ActionApproveClose)
	require.Error(t, err)
	assert.Equal(t, "INVALID_ACTION", apperrors.Code(err))
}

func TestStaffActionRejectsNonOwner(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	ticket, err := svc.Create(context.Background(), staffUser(1), validInput())
	require.NoError(t, err)

	_, err = svc.PerformStaffAction(context.Background(), staffUser(2), ticket.ID, ActionApproveClose)
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.Code(err))

	_, err = svc.PerformStaffAction(context.Background(), adminUser(9), ticket.ID, ActionApproveClose)
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.Code(err))
}

func TestReopenResetsDeadlineToSevenDays(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	owner := staffUser(1)

	input := validInput()
	input.Priority = domain.PriorityFifty
	ticket, err := svc.Create(context.Background(), owner, input)
	require.NoError(t, err)

	_, err = svc.PerformStaffAction(context.Background(), owner, ticket.ID, ActionApproveClose)
	require.NoError(t, err)

	reopenAt := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return reopenAt }

	reopened, err := svc.PerformStaffAction(context.Background(), owner, ticket.ID, ActionReopen)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, reopened.Status)
	assert.Equal(t, reopenAt.Add(7*24*time.Hour), reopened.DueTime)
}

func TestReopenRejectedFromOpen(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	owner := staffUser(1)
	ticket, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	_, err = svc.PerformStaffAction(context.Background(), owner, ticket.ID, ActionReopen)
	require.Error(t, err)
	assert.Equal(t, "INVALID_ACTION", apperrors.Code(err))
}

func TestUnknownActionRejected(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	owner := staffUser(1)
	ticket, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	_, err = svc.PerformStaffAction(context.Background(), owner, ticket.ID, StaffAction("escalate"))
	require.Error(t, err)
	assert.Equal(t, "INVALID_ACTION", apperrors.Code(err))
}

func TestAssignRequiresAdmin(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	owner := staffUser(1)
	ticket, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), owner, ticket.ID, "Fatima")
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.Code(err))

	assigned, err := svc.Assign(context.Background(), adminUser(9), ticket.ID, "  Fatima ")
	require.NoError(t, err)
	assert.Equal(t, "Fatima", assigned.AssignedTo)
}

func TestGetTicketEnforcesOwnership(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	ticket, err := svc.Create(context.Background(), staffUser(1), validInput())
	require.NoError(t, err)

	_, _, err = svc.GetTicket(context.Background(), staffUser(2), ticket.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.Code(err))

	got, _, err := svc.GetTicket(context.Background(), adminUser(9), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)

	_, _, err = svc.GetTicket(context.Background(), staffUser(1), 404)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Code(err))
}

func TestListTicketsScopedToStaff(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	alice, bob := staffUser(1), staffUser(2)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(context.Background(), alice, validInput())
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), bob, validInput())
	require.NoError(t, err)

	listing, err := svc.ListTickets(context.Background(), alice, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, listing.Tickets, 2)
	assert.Equal(t, int64(2), listing.Stats.Total)

	listing, err = svc.ListTickets(context.Background(), adminUser(9), "All", 0, 0)
	require.NoError(t, err)
	assert.Len(t, listing.Tickets, 3)
	assert.Equal(t, int64(3), listing.Stats.Total)
}

func TestListTicketsStatusFilter(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	owner := staffUser(1)

	first, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	_, err = svc.PerformStaffAction(context.Background(), owner, first.ID, ActionApproveClose)
	require.NoError(t, err)

	listing, err := svc.ListTickets(context.Background(), owner, string(domain.StatusClosed), 0, 0)
	require.NoError(t, err)
	require.Len(t, listing.Tickets, 1)
	assert.Equal(t, first.ID, listing.Tickets[0].ID)
	assert.Equal(t, int64(1), listing.Stats.Closed)
}

func TestAddComment(t *testing.T) {
	svc, _, _, _ := newTicketFixture(t)
	owner := staffUser(1)
	ticket, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	_, err = svc.AddComment(context.Background(), owner, ticket.ID, "   ")
	require.Error(t, err)
	assert.Equal(t, "EMPTY_MESSAGE", apperrors.Code(err))

	_, err = svc.AddComment(context.Background(), staffUser(2), ticket.ID, "snooping")
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.Code(err))

	_, err = svc.AddComment(context.Background(), owner, ticket.ID, "any update?")
	require.NoError(t, err)
	_, err = svc.AddComment(context.Background(), adminUser(9), ticket.ID, "working on it")
	require.NoError(t, err)

	_, comments, err := svc.GetTicket(context.Background(), owner, ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "any update?", comments[0].Message)
	assert.Equal(t, "working on it", comments[1].Message)
}

func TestLifecycleEventsPublished(t *testing.T) {
	svc, _, users, dispatcher := newTicketFixture(t)
	owner := staffUser(1)
	require.NoError(t, users.Create(context.Background(), owner))

	var seen []events.EventType
	record := func(_ context.Context, event events.Event) error {
		seen = append(seen, event.Type)
		return nil
	}
	for _, et := range []events.EventType{
		events.EventTicketCreated, events.EventTicketStatusChanged,
		events.EventTicketClosed, events.EventTicketReopened,
	} {
		dispatcher.Subscribe(et, record)
	}

	ticket, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)
	_, err = svc.ChangeStatus(context.Background(), adminUser(9), ticket.ID, domain.StatusSolved)
	require.NoError(t, err)
	_, err = svc.PerformStaffAction(context.Background(), owner, ticket.ID, ActionApproveClose)
	require.NoError(t, err)
	_, err = svc.PerformStaffAction(context.Background(), owner, ticket.ID, ActionReopen)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketClosed,
		events.EventTicketReopened,
	}, seen)
}
