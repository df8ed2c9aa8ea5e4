package domain

import "time"

// Comment is an append-only message on a ticket thread. Comments are never
// edited or deleted.
type Comment struct {
	ID        int64
	TicketID  int64
	AuthorID  int64
	Message   string
	CreatedAt time.Time
}
