package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Im-Moazzam/Ticketing-System/internal/api/dto"
	"github.com/Im-Moazzam/Ticketing-System/internal/auth"
	"github.com/Im-Moazzam/Ticketing-System/internal/biztime"
	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	"github.com/Im-Moazzam/Ticketing-System/internal/service"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// TicketHandler serves the ticket lifecycle endpoints.
type TicketHandler struct {
	tickets *service.TicketService
}

// NewTicketHandler constructs the handler.
func NewTicketHandler(tickets *service.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// Create opens a ticket from a multipart form so an attachment can ride
// along with the fields.
func (h *TicketHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.CreateTicketInput{
		PracticeName: c.FormValue("practice_name"),
		ProviderName: c.FormValue("provider_name"),
		Subject:      c.FormValue("subject"),
		Description:  c.FormValue("description"),
		Priority:     domain.TicketPriority(c.FormValue("priority")),
	}

	if header, err := c.FormFile("attachment"); err == nil && header != nil {
		file, err := header.Open()
		if err != nil {
			return apperrors.NewInvalidAttachment("could not read attachment")
		}
		defer file.Close()
		input.Attachment = &service.AttachmentUpload{FileName: header.Filename, Content: file}
	}

	ticket, err := h.tickets.Create(c.Context(), principal, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketResponse(ticket, biztime.NowUTC()))
}

// List returns the caller's ticket scope with dashboard counters. The status
// query filters; empty or "All" lists everything.
func (h *TicketHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	listing, err := h.tickets.ListTickets(c.Context(), principal, c.Query("status"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketListResponse(listing.Tickets, listing.Stats, biztime.NowUTC()))
}

// Get returns one ticket with its comment thread.
func (h *TicketHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	ticket, comments, err := h.tickets.GetTicket(c.Context(), principal, ticketID)
	if err != nil {
		return err
	}

	detail := dto.TicketDetailResponse{
		Ticket:   dto.NewTicketResponse(ticket, biztime.NowUTC()),
		Comments: make([]dto.CommentResponse, 0, len(comments)),
	}
	for i := range comments {
		detail.Comments = append(detail.Comments, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(detail)
}

// Attachment streams the ticket's stored file.
func (h *TicketHandler) Attachment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	rc, name, err := h.tickets.OpenAttachment(c.Context(), principal, ticketID)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.SendStream(rc)
}

// AddComment appends to the ticket thread.
func (h *TicketHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	comment, err := h.tickets.AddComment(c.Context(), principal, ticketID, req.Message)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCommentResponse(comment))
}

// StaffAction runs the owner-only approve_close / reopen transitions.
func (h *TicketHandler) StaffAction(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	var req dto.StaffActionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.tickets.PerformStaffAction(c.Context(), principal, ticketID, service.StaffAction(req.Action))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket, biztime.NowUTC()))
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", nil)
	}
	return id, nil
}
