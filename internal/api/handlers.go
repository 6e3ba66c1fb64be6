package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/puntosmx/loyalty-server/internal/models"
	"github.com/puntosmx/loyalty-server/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler holds the API handlers and their dependencies
type Handler struct {
	service service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{
		service: svc,
	}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/clients", h.RegisterClient)
		api.GET("/clients", h.ListClients)
		api.GET("/clients/:id", h.GetClient)
		api.DELETE("/clients/:id", h.DeleteClient)
		api.GET("/clients/:id/movements", h.History)
		api.GET("/clients/:id/summary", h.Summarize)
		api.GET("/clients/:id/max-redeemable", h.SuggestMaxRedeemable)

		api.POST("/movements", h.RecordMovement)
		api.POST("/movements/accumulate", h.Accumulate)
		api.POST("/movements/redeem", h.Redeem)
	}
}

// Client handlers
func (h *Handler) RegisterClient(c *gin.Context) {
	var req models.RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	client, err := h.service.RegisterClient(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.ClientResponse{Status: "success", Client: client})
}

func (h *Handler) ListClients(c *gin.Context) {
	clients, err := h.service.ListClients(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ClientListResponse{Status: "success", Clients: clients})
}

func (h *Handler) GetClient(c *gin.Context) {
	client, err := h.service.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ClientResponse{Status: "success", Client: client})
}

func (h *Handler) DeleteClient(c *gin.Context) {
	if err := h.service.DeleteClient(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Ledger handlers
func (h *Handler) Accumulate(c *gin.Context) {
	var req models.AccumulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	movement, err := h.service.Accumulate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.MovementResponse{Status: "success", Movement: movement})
}

func (h *Handler) Redeem(c *gin.Context) {
	var req models.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	movement, err := h.service.Redeem(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.MovementResponse{Status: "success", Movement: movement})
}

func (h *Handler) RecordMovement(c *gin.Context) {
	var req models.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	movement, err := h.service.RecordMovement(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.MovementResponse{Status: "success", Movement: movement})
}

func (h *Handler) History(c *gin.Context) {
	clientID := c.Param("id")
	movements, err := h.service.History(c.Request.Context(), clientID)
	if err != nil {
		writeError(c, err)
		return
	}

	if movements == nil {
		movements = []models.Movement{}
	}
	c.JSON(http.StatusOK, models.HistoryResponse{
		Status:    "success",
		ClientID:  clientID,
		Movements: movements,
	})
}

func (h *Handler) Summarize(c *gin.Context) {
	summary, err := h.service.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SummaryResponse{Status: "success", Summary: summary})
}

func (h *Handler) SuggestMaxRedeemable(c *gin.Context) {
	saleAmount, err := decimal.NewFromString(c.Query("saleAmount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "INVALID_DATA",
			Message: "saleAmount must be a decimal number",
		})
		return
	}

	pointValue := decimal.Zero // service falls back to the configured rate
	if raw := c.Query("pointValue"); raw != "" {
		pointValue, err = decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Status:  "error",
				Code:    "INVALID_DATA",
				Message: "pointValue must be a decimal number",
			})
			return
		}
	}

	suggestion, err := h.service.SuggestMaxRedeemable(c.Request.Context(), c.Param("id"), saleAmount, pointValue)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuggestionResponse{Status: "success", Suggestion: suggestion})
}

// writeBindError reports a malformed request body.
func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: err.Error(),
	})
}

// writeError maps the service error taxonomy onto HTTP statuses. Duplicates
// are conflicts (the action was already performed), validation failures are
// bad requests, anything unclassified is a 500 with no internals leaked.
func writeError(c *gin.Context, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, service.ErrClientNotFound):
		status, code = http.StatusNotFound, "CLIENT_NOT_FOUND"
	case errors.Is(err, service.ErrDuplicateMovement):
		status, code = http.StatusConflict, "DUPLICATE_MOVEMENT"
	case errors.Is(err, service.ErrInsufficientBalance):
		status, code = http.StatusBadRequest, "INSUFFICIENT_BALANCE"
	case errors.Is(err, service.ErrInvalidQuantity):
		status, code = http.StatusBadRequest, "INVALID_QUANTITY"
	case errors.Is(err, service.ErrMissingReference):
		status, code = http.StatusBadRequest, "MISSING_REFERENCE"
	case errors.Is(err, service.ErrInvalidData):
		status, code = http.StatusBadRequest, "INVALID_DATA"
	case errors.Is(err, service.ErrClientExists):
		status, code = http.StatusBadRequest, "CLIENT_EXISTS"
	default:
		zap.L().Error("internal error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
		})
		return
	}

	c.JSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: err.Error(),
	})
}
