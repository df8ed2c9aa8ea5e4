package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Im-Moazzam/Ticketing-System/internal/api/dto"
	"github.com/Im-Moazzam/Ticketing-System/internal/auth"
	"github.com/Im-Moazzam/Ticketing-System/internal/biztime"
	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
	"github.com/Im-Moazzam/Ticketing-System/internal/service"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// AdminHandler serves the admin-only triage endpoints.
type AdminHandler struct {
	tickets *service.TicketService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(tickets *service.TicketService) *AdminHandler {
	return &AdminHandler{tickets: tickets}
}

// ChangeStatus moves a ticket between the admin-settable states.
func (h *AdminHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.tickets.ChangeStatus(c.Context(), principal, ticketID, domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket, biztime.NowUTC()))
}

// Assign sets the assignee label on a ticket.
func (h *AdminHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.tickets.Assign(c.Context(), principal, ticketID, req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket, biztime.NowUTC()))
}
