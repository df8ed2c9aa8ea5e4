package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	"github.com/Im-Moazzam/Ticketing-System/internal/repository"
	"github.com/Im-Moazzam/Ticketing-System/internal/storage"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// In-memory collaborators shared by the service tests.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	r.nextID++
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = hash
	return nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	nextID  int64
	tickets map[int64]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{nextID: 1, tickets: make(map[int64]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = r.nextID
	r.nextID++
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = ticket.Status
	stored.AssignedTo = ticket.AssignedTo
	stored.DueTime = ticket.DueTime
	stored.UpdatedAt = ticket.UpdatedAt
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.StaffID != nil && ticket.StaffID != *filter.StaffID {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) ListDuePending(_ context.Context, now time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		pending := false
		for _, s := range domain.PendingStatuses {
			if ticket.Status == s {
				pending = true
				break
			}
		}
		if pending && !ticket.DueTime.After(now) {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) CountStats(_ context.Context, staffID *int64, now time.Time) (repository.DashboardStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats repository.DashboardStats
	for _, ticket := range r.tickets {
		if staffID != nil && ticket.StaffID != *staffID {
			continue
		}
		stats.Total++
		if domain.IsTerminal(ticket.Status) {
			stats.Closed++
		} else if ticket.DueTime.Before(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int64][]domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{nextID: 1, comments: make(map[int64][]domain.Comment)}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = r.nextID
	comment.CreatedAt = time.Now().UTC()
	r.nextID++
	r.comments[comment.TicketID] = append(r.comments[comment.TicketID], *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Comment{}, r.comments[ticketID]...), nil
}

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Store(_ context.Context, filename string, r io.Reader) (string, error) {
	name := storage.SanitizeFileName(filename)
	if name == "" || !storage.AllowedExtension(name) {
		return "", apperrors.NewInvalidAttachment("attachment type not allowed: " + filename)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("blob-%d_%s", len(s.blobs)+1, name)
	s.blobs[key] = content
	return key, nil
}

func (s *fakeBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.blobs[key]
	if !ok {
		return nil, apperrors.NewNotFound("attachment", nil)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

type sentMail struct {
	Subject    string
	Recipients []string
	Body       string
}

type captureSink struct {
	mu   sync.Mutex
	sent []sentMail
}

func (s *captureSink) Send(_ context.Context, subject string, recipients []string, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{Subject: subject, Recipients: recipients, Body: body})
}

func (s *captureSink) messages() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMail{}, s.sent...)
}

func staffUser(id int64) *domain.User {
	return &domain.User{ID: id, Username: fmt.Sprintf("staff%d", id), Email: fmt.Sprintf("staff%d@example.com", id), Role: domain.RoleStaff}
}

func adminUser(id int64) *domain.User {
	return &domain.User{ID: id, Username: "admin", Email: "admin@example.com", Role: domain.RoleAdmin}
}
