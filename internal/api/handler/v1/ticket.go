package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eventtix/eventtix-api/internal/api/handler/v1/request"
	"github.com/eventtix/eventtix-api/internal/api/handler/v1/response"
	"github.com/eventtix/eventtix-api/internal/domain"
	"github.com/eventtix/eventtix-api/internal/service"
)

type TicketService interface {
	Issue(ctx context.Context, registrationID uint, quantity int, actor domain.User) ([]domain.Ticket, error)
	Validate(ctx context.Context, code string) (domain.Ticket, error)
	Scan(ctx context.Context, code string, scanner domain.User) (domain.ScanResult, error)
	MarkUsed(ctx context.Context, ticketID uint, actor domain.User) (domain.Ticket, error)
	CancelTicket(ctx context.Context, ticketID uint, actor domain.User) (domain.Ticket, error)
	RegenerateCode(ctx context.Context, ticketID uint, actor domain.User) (domain.Ticket, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.Ticket, error)
	ListByEvent(ctx context.Context, eventID uint, actor domain.User) ([]domain.Ticket, error)
}

type TicketHandler struct {
	svc  TicketService
	uSvc UserService
}

func NewTicketHandler(svc TicketService, uSvc UserService) *TicketHandler {
	return &TicketHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleIssueTickets godoc
// @Summary      Issue tickets for a registration
// @Description  Issues tickets against a confirmed registration. The total issued can never exceed the registration's quantity, even under concurrent requests.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        input  body      request.IssueTicketsRequest  true  "Issue details"
// @Success      201    {array}   domain.Ticket
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /tickets [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleIssueTickets(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.IssueTicketsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	tickets, err := h.svc.Issue(ctx.Request.Context(), req.RegistrationID, req.Quantity, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "ID", req.RegistrationID))
		case errors.Is(err, service.ErrNotRegistrationOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrRegistrationWaitlisted),
			errors.Is(err, service.ErrRegistrationCancelled),
			errors.Is(err, service.ErrQuantityExceedsAllotment):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleIssueTickets -> h.svc.Issue -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, tickets)
}

// HandleGetTickets godoc
// @Summary      List the authenticated user's tickets
// @Tags         tickets
// @Produce      json
// @Success      200  {array}   domain.Ticket
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /tickets [get]
// @Security     BearerAuth
func (h *TicketHandler) HandleGetTickets(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tickets, err := h.svc.ListByUser(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetTickets -> h.svc.ListByUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tickets)
}

// HandleGetEventTickets godoc
// @Summary      List all tickets for an event
// @Description  Restricted to the event's organizer and admins.
// @Tags         tickets,events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200  {array}   domain.Ticket
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/tickets [get]
// @Security     BearerAuth
func (h *TicketHandler) HandleGetEventTickets(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, err := strconv.ParseUint(ctx.Param("eventID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid event ID: %w", err)))
		return
	}

	tickets, err := h.svc.ListByEvent(ctx.Request.Context(), uint(eventID), user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotEventOrganizer):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleGetEventTickets -> h.svc.ListByEvent -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, tickets)
}

// HandleValidateTicket godoc
// @Summary      Check a ticket code
// @Description  Read-only lookup of a ticket by its code. Does not consume the ticket; scanning at the gate does.
// @Tags         tickets
// @Produce      json
// @Param        code  path      string  true  "Ticket code"
// @Success      200  {object}  response.ValidateTicketResponse
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.ValidateTicketResponse
// @Failure      500  {object}  response.Err
// @Router       /tickets/validate/{code} [get]
func (h *TicketHandler) HandleValidateTicket(ctx *gin.Context) {
	code := ctx.Param("code")

	ticket, err := h.svc.Validate(ctx.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "code", code))
		case errors.Is(err, service.ErrTicketCancelled):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrTicketAlreadyUsed):
			ctx.JSON(http.StatusConflict, response.ValidateTicketResponse{
				Valid:  false,
				Status: ticket.Status,
				Ticket: ticket,
			})
		default:
			err = fmt.Errorf("v1.HandleValidateTicket -> h.svc.Validate -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.ValidateTicketResponse{
		Valid:  true,
		Status: ticket.Status,
		Ticket: ticket,
	})
}

// HandleScanTicket godoc
// @Summary      Scan a ticket at the gate
// @Description  Consumes the ticket code. Exactly one scan of a given code succeeds; any replay returns TICKET_ALREADY_USED with an alert flag and is reported to administrators. Restricted to the event's organizer and admins.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        input  body      request.ScanTicketRequest  true  "Ticket code"
// @Success      200    {object}  response.ScanTicketResponse
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Failure      409    {object}  response.ScanTicketResponse
// @Failure      500    {object}  response.Err
// @Router       /tickets/scan [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleScanTicket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ScanTicketRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.Scan(ctx.Request.Context(), req.Code, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketAlreadyUsed):
			// The replay verdict still carries the ticket so gate staff can
			// see who scanned it first and when.
			ctx.JSON(http.StatusConflict, response.ScanTicketResponse{
				Code:    result.Code,
				Message: result.Message,
				Alert:   result.Alert,
				Ticket:  result.Ticket,
			})
		case errors.Is(err, service.ErrTicketCancelled):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "code", req.Code))
		case errors.Is(err, service.ErrNotEventOrganizer):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleScanTicket -> h.svc.Scan -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.ScanTicketResponse{
		Code:    result.Code,
		Message: result.Message,
		Ticket:  result.Ticket,
	})
}

// HandleMarkTicketUsed godoc
// @Summary      Mark a ticket as used
// @Description  Manual override by ID for gate incidents. Admin only.
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      200  {object}  domain.Ticket
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /tickets/{ticketID}/mark-used [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleMarkTicketUsed(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticketID, err := strconv.ParseUint(ctx.Param("ticketID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid ticket ID: %w", err)))
		return
	}

	marked, err := h.svc.MarkUsed(ctx.Request.Context(), uint(ticketID), user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAdminOnly):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "ID", ticketID))
		case errors.Is(err, service.ErrTicketAlreadyUsed):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleMarkTicketUsed -> h.svc.MarkUsed -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, marked)
}

// HandleCancelTicket godoc
// @Summary      Cancel a ticket
// @Description  Voids an unused ticket and returns its seat to the event, promoting from the waitlist when possible.
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      200  {object}  domain.Ticket
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /tickets/{ticketID}/cancel [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleCancelTicket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticketID, err := strconv.ParseUint(ctx.Param("ticketID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid ticket ID: %w", err)))
		return
	}

	cancelled, err := h.svc.CancelTicket(ctx.Request.Context(), uint(ticketID), user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "ID", ticketID))
		case errors.Is(err, service.ErrNotTicketOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrTicketAlreadyUsed), errors.Is(err, service.ErrTicketCancelled):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleCancelTicket -> h.svc.CancelTicket -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, cancelled)
}

// HandleRegenerateTicketCode godoc
// @Summary      Regenerate a ticket's code
// @Description  Replaces the ticket's code and QR image. The previous code stops validating immediately.
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      200  {object}  domain.Ticket
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /tickets/{ticketID}/regenerate [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleRegenerateTicketCode(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticketID, err := strconv.ParseUint(ctx.Param("ticketID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid ticket ID: %w", err)))
		return
	}

	updated, err := h.svc.RegenerateCode(ctx.Request.Context(), uint(ticketID), user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "ID", ticketID))
		case errors.Is(err, service.ErrNotTicketOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrTicketAlreadyUsed), errors.Is(err, service.ErrTicketCancelled):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleRegenerateTicketCode -> h.svc.RegenerateCode -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}
