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

type RegistrationService interface {
	Register(ctx context.Context, userID, eventID uint, quantity int) (domain.Registration, error)
	GetRegistration(ctx context.Context, id uint, actor domain.User) (domain.Registration, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.Registration, error)
	Cancel(ctx context.Context, id uint, actor domain.User) (domain.Registration, error)
	Delete(ctx context.Context, id uint, actor domain.User) error
}

type RegistrationHandler struct {
	svc  RegistrationService
	uSvc UserService
}

func NewRegistrationHandler(svc RegistrationService, uSvc UserService) *RegistrationHandler {
	return &RegistrationHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleCreateRegistration godoc
// @Summary      Register for an event
// @Description  Claims seats on an event for the authenticated user. When the requested quantity fits the remaining capacity the registration is confirmed; otherwise it joins the waitlist in arrival order.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateRegistrationRequest  true  "Registration details"
// @Success      201    {object}  domain.Registration
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /registrations [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleCreateRegistration(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.Register(ctx.Request.Context(), user.ID, req.EventID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", req.EventID))
		case errors.Is(err, service.ErrEventNotOpen):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrAlreadyRegistered):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleCreateRegistration -> h.svc.Register -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, reg)
}

// HandleGetRegistrations godoc
// @Summary      List the authenticated user's registrations
// @Tags         registrations
// @Produce      json
// @Success      200  {array}   domain.Registration
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleGetRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	regs, err := h.svc.ListByUser(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetRegistrations -> h.svc.ListByUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

// HandleGetRegistration godoc
// @Summary      Get a registration by ID
// @Tags         registrations
// @Produce      json
// @Param        registrationID  path      int  true  "Registration ID"
// @Success      200  {object}  domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations/{registrationID} [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleGetRegistration(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrationID, err := strconv.ParseUint(ctx.Param("registrationID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid registration ID: %w", err)))
		return
	}

	reg, err := h.svc.GetRegistration(ctx.Request.Context(), uint(registrationID), user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "ID", registrationID))
		case errors.Is(err, service.ErrNotRegistrationOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleGetRegistration -> h.svc.GetRegistration -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleCancelRegistration godoc
// @Summary      Cancel a registration
// @Description  Cancels the registration and voids its unused tickets. Freed seats return to the event and waitlisted registrations are promoted in arrival order.
// @Tags         registrations
// @Produce      json
// @Param        registrationID  path      int  true  "Registration ID"
// @Success      200  {object}  domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations/{registrationID}/cancel [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleCancelRegistration(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrationID, err := strconv.ParseUint(ctx.Param("registrationID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid registration ID: %w", err)))
		return
	}

	cancelled, err := h.svc.Cancel(ctx.Request.Context(), uint(registrationID), user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "ID", registrationID))
		case errors.Is(err, service.ErrNotRegistrationOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrRegistrationCancelled):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleCancelRegistration -> h.svc.Cancel -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, cancelled)
}

// HandleDeleteRegistration godoc
// @Summary      Delete a registration
// @Description  Removes the registration and its tickets after applying cancel semantics. Admin only.
// @Tags         registrations
// @Produce      json
// @Param        registrationID  path  int  true  "Registration ID"
// @Success      204
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations/{registrationID} [delete]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleDeleteRegistration(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrationID, err := strconv.ParseUint(ctx.Param("registrationID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid registration ID: %w", err)))
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), uint(registrationID), user); err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "ID", registrationID))
		case errors.Is(err, service.ErrNotRegistrationOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleDeleteRegistration -> h.svc.Delete -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}
