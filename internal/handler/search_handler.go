package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/asrs-travel/service-booking/internal/application"
	"github.com/asrs-travel/service-booking/internal/common/auth"
	"github.com/asrs-travel/service-booking/internal/common/middleware"
	"github.com/asrs-travel/service-booking/internal/common/response"
)

// SearchHandler serves itinerary search, place autocomplete and the deal board.
type SearchHandler struct {
	search  *application.SearchService
	deals   *application.DealsService
	limiter *middleware.RateLimiter
}

// NewSearchHandler creates a new SearchHandler. limiter may be nil.
func NewSearchHandler(search *application.SearchService, deals *application.DealsService, limiter *middleware.RateLimiter) *SearchHandler {
	return &SearchHandler{search: search, deals: deals, limiter: limiter}
}

// RegisterRoutes registers search routes. Autocomplete and deals are public.
func (h *SearchHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	api := r.Group("/api/v1")
	api.GET("/places", h.SuggestPlaces)
	api.GET("/deals", h.Deals)

	handlers := []gin.HandlerFunc{middleware.AuthMiddleware(jwtManager)}
	if h.limiter != nil {
		handlers = append(handlers, h.limiter.Limit())
	}
	handlers = append(handlers, h.Search)
	api.POST("/search", handlers...)
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.search.Search(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SuggestPlaces handles GET /api/v1/places?q=.
func (h *SearchHandler) SuggestPlaces(c *gin.Context) {
	places, err := h.search.SuggestPlaces(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, places)
}

// Deals handles GET /api/v1/deals.
func (h *SearchHandler) Deals(c *gin.Context) {
	deals, err := h.deals.Deals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, deals)
}
