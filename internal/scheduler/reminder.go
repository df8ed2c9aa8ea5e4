// Package scheduler runs the periodic SLA reminder scan.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Im-Moazzam/Ticketing-System/internal/biztime"
	"github.com/Im-Moazzam/Ticketing-System/internal/events"
	"github.com/Im-Moazzam/Ticketing-System/internal/repository"
)

// Reminder periodically scans for overdue pending tickets and raises an
// overdue event per ticket on every run. The scan is read-only; it never
// mutates ticket state and never suppresses repeats, so a ticket stays on
// the radar until someone acts on it.
type Reminder struct {
	tickets  repository.TicketRepository
	users    repository.UserRepository
	dispatch events.Dispatcher
	logger   *zap.Logger
	interval time.Duration

	nowFn func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewReminder constructs the scheduler.
func NewReminder(tickets repository.TicketRepository, users repository.UserRepository, dispatch events.Dispatcher, logger *zap.Logger, interval time.Duration) *Reminder {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Reminder{
		tickets:  tickets,
		users:    users,
		dispatch: dispatch,
		logger:   logger,
		interval: interval,
		nowFn:    biztime.NowUTC,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the scan loop. It returns immediately; the loop runs until
// Stop is called or ctx is cancelled.
func (r *Reminder) Start(ctx context.Context) {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.logger.Info("reminder scheduler started", zap.Duration("interval", r.interval))
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				r.RunOnce(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for it to exit.
func (r *Reminder) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

// RunOnce performs a single scan. Exported so a run can be triggered outside
// the ticker, and for tests.
func (r *Reminder) RunOnce(ctx context.Context) {
	now := r.nowFn()
	tickets, err := r.tickets.ListDuePending(ctx, now)
	if err != nil {
		r.logger.Error("overdue scan failed", zap.Error(err))
		return
	}
	if len(tickets) == 0 {
		return
	}

	r.logger.Info("overdue tickets found", zap.Int("count", len(tickets)))
	for _, ticket := range tickets {
		staff, err := r.users.GetByID(ctx, ticket.StaffID)
		if err != nil {
			r.logger.Warn("owner lookup failed for overdue ticket",
				zap.Int64("ticket_id", ticket.ID), zap.Error(err))
			continue
		}

		_ = r.dispatch.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketOverdue,
			TicketID:  ticket.ID,
			Timestamp: now,
			Payload: events.TicketOverduePayload{
				Ticket: ticket,
				Staff:  *staff,
			},
		})
	}
}
