package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "Open"
	StatusInProgress TicketStatus = "In Progress"
	StatusSolved     TicketStatus = "Solved"
	StatusClosed     TicketStatus = "Closed"
	// StatusApproved is a legacy terminal label still present in older rows.
	// It is treated as Closed everywhere tickets are classified; no write
	// path produces it.
	StatusApproved TicketStatus = "Approved"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	PriorityUrgent TicketPriority = "Urgent"
	PrioritySeven  TicketPriority = "7 Days"
	PriorityFifty  TicketPriority = "15 Days"
)

// PendingStatuses are the non-terminal states scanned by the reminder job.
var PendingStatuses = []TicketStatus{StatusOpen, StatusInProgress, StatusSolved}

// AdminSettableStatuses are the states an admin may set directly. Closed is
// reachable only through the owning staff member's approve_close action.
var AdminSettableStatuses = []TicketStatus{StatusOpen, StatusInProgress, StatusSolved}

// Ticket is the aggregate for helpdesk requests. Timestamps are UTC instants;
// conversion to the operational timezone happens at the presentation boundary.
type Ticket struct {
	ID             int64
	StaffID        int64
	PracticeName   string
	ProviderName   string
	Subject        string
	Description    string
	Priority       TicketPriority
	Status         TicketStatus
	AttachmentKey  *string
	AttachmentName *string
	AssignedTo     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DueTime        time.Time
}

// ValidPriority reports whether p is one of the recognized priorities.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case PriorityUrgent, PrioritySeven, PriorityFifty:
		return true
	}
	return false
}

// IsTerminal reports whether status counts as closed for reporting and
// overdue classification. Comparison is case-insensitive and accepts the
// legacy Approved label.
func IsTerminal(status TicketStatus) bool {
	switch strings.ToLower(string(status)) {
	case "closed", "approved":
		return true
	}
	return false
}

// CreationDue derives the SLA deadline at ticket creation time. Anything
// other than Urgent or "7 Days" (including "15 Days") falls through to the
// three-day default.
//
// CreationDue and ReopenDue intentionally disagree on the fallthrough
// offset; dashboards and reminder emails depend on both tables as-is.
func CreationDue(p TicketPriority, at time.Time) time.Time {
	switch p {
	case PriorityUrgent:
		return at.Add(2 * time.Hour)
	case PrioritySeven:
		return at.Add(7 * 24 * time.Hour)
	default:
		return at.Add(3 * 24 * time.Hour)
	}
}

// ReopenDue derives the SLA deadline when a ticket is reopened. The
// fallthrough here is seven days, not three.
func ReopenDue(p TicketPriority, at time.Time) time.Time {
	switch p {
	case PriorityUrgent:
		return at.Add(2 * time.Hour)
	case PrioritySeven:
		return at.Add(7 * 24 * time.Hour)
	default:
		return at.Add(7 * 24 * time.Hour)
	}
}

// Overdue reports whether the ticket is non-terminal and past its deadline.
// Both instants must be in the same representation; the service keeps
// everything UTC.
func (t *Ticket) Overdue(now time.Time) bool {
	return !IsTerminal(t.Status) && t.DueTime.Before(now)
}

// CanApproveClose reports whether approve_close is legal from the current state.
func (t *Ticket) CanApproveClose() bool {
	switch t.Status {
	case StatusOpen, StatusInProgress, StatusSolved:
		return true
	}
	return false
}

// CanReopen reports whether reopen is legal from the current state.
func (t *Ticket) CanReopen() bool {
	switch t.Status {
	case StatusSolved, StatusClosed:
		return true
	}
	return false
}
