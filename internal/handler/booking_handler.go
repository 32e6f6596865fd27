package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/application"
	"github.com/asrs-travel/service-booking/internal/common/auth"
	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/common/middleware"
	"github.com/asrs-travel/service-booking/internal/common/response"
	"github.com/asrs-travel/service-booking/internal/ticket"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
	tickets *ticket.Renderer
	logger  *zap.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService, tickets *ticket.Renderer, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{service: service, tickets: tickets, logger: logger}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/summary", h.BookingSummary)
		bookings.GET("/:ref", h.GetBooking)
		bookings.POST("/:ref/status", h.UpdateStatus)
		bookings.GET("/:ref/cancellation", h.QuoteCancellation)
		bookings.POST("/:ref/cancel", h.CancelBooking)
		bookings.GET("/:ref/ticket", h.DownloadTicket)
	}

	tickets := r.Group("/api/v1/tickets")
	tickets.Use(authMW, middleware.RequireRole(auth.RoleAdmin))
	{
		tickets.POST("/verify", h.VerifyTicket)
	}
}

// VerifyTicketRequest carries the text of a scanned ticket QR code.
type VerifyTicketRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// CreateBooking handles POST /api/v1/bookings. A same-owner retry of an
// existing reference answers 200 with created=false.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !result.Created {
		response.Success(c, result)
		return
	}
	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListBookings(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// BookingSummary handles GET /api/v1/bookings/summary.
func (h *BookingHandler) BookingSummary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.BookingSummary(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/v1/bookings/:ref.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), userID, c.Param("ref"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateStatus handles POST /api/v1/bookings/:ref/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateStatus(c.Request.Context(), userID, c.Param("ref"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// QuoteCancellation handles GET /api/v1/bookings/:ref/cancellation.
func (h *BookingHandler) QuoteCancellation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	quote, err := h.service.QuoteCancellation(c.Request.Context(), userID, c.Param("ref"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, quote)
}

// CancelBooking handles POST /api/v1/bookings/:ref/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), userID, c.Param("ref"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DownloadTicket handles GET /api/v1/bookings/:ref/ticket.
func (h *BookingHandler) DownloadTicket(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	bk, err := h.service.LoadBooking(c.Request.Context(), userID, c.Param("ref"))
	if err != nil {
		response.Error(c, err)
		return
	}

	pdf, err := h.tickets.Render(bk)
	if err != nil {
		h.logger.Error("failed to render ticket",
			zap.String("booking_ref", bk.BookingRef()),
			zap.Error(err),
		)
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ticket.Filename(bk)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// VerifyTicket handles POST /api/v1/tickets/verify. A payload whose signature
// does not match is rejected before any lookup.
func (h *BookingHandler) VerifyTicket(c *gin.Context) {
	var req VerifyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ref, userID, ok := h.tickets.Verify(req.Payload)
	if !ok {
		h.logger.Warn("ticket with bad signature scanned")
		response.Error(c, domain.NewValidationErrorWithCode("invalid_ticket", "ticket could not be verified"))
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), userID, ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, booking)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
